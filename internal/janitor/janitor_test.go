package janitor

import (
	"context"
	"testing"
	"time"

	"github.com/jhon-henao13/Fixly/internal/model"
	"github.com/jhon-henao13/Fixly/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func seed(t *testing.T, db *gorm.DB, token string, createdAt time.Time, used bool) {
	t.Helper()
	require.NoError(t, db.Create(&model.PendingCheckout{
		WorkshopID:     1,
		Plan:           "basic",
		ExternalPlanID: "var_basic",
		Token:          token,
		CreatedAt:      createdAt,
	}).Error)
	if used {
		require.NoError(t, db.Model(&model.PendingCheckout{}).Where("token = ?", token).Update("used", true).Error)
	}
}

func tokens(t *testing.T, db *gorm.DB) []string {
	t.Helper()
	var out []string
	require.NoError(t, db.Model(&model.PendingCheckout{}).Order("token").Pluck("token", &out).Error)
	return out
}

func TestSweepUsesCreationCutoff(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	seed(t, db, "fresh", now.Add(-23*time.Hour), false)
	seed(t, db, "fresh-used", now.Add(-time.Hour), true)
	seed(t, db, "stale", now.Add(-25*time.Hour), false)
	seed(t, db, "stale-used", now.Add(-48*time.Hour), true)

	j := New(db, 24*time.Hour, time.Hour, zaptest.NewLogger(t))
	j.now = func() time.Time { return now }

	deleted, err := j.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, []string{"fresh", "fresh-used"}, tokens(t, db))

	deleted, err = j.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestRunSweepsUntilCancelled(t *testing.T) {
	db := testutil.NewDB(t)
	seed(t, db, "stale", time.Now().UTC().Add(-30*time.Hour), false)

	j := New(db, 24*time.Hour, 10*time.Millisecond, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	require.Eventually(t, func() bool {
		var count int64
		if err := db.Model(&model.PendingCheckout{}).Count(&count).Error; err != nil {
			return false
		}
		return count == 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

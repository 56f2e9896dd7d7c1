package checkout

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/jhon-henao13/Fixly/internal/entitlement"
	"github.com/jhon-henao13/Fixly/internal/model"
	"github.com/jhon-henao13/Fixly/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

var testVariants = map[string]string{
	"basic":   "var_basic",
	"premium": "var_premium",
}

func newTestRegistry(t *testing.T) (*Registry, *gorm.DB, *model.Workshop) {
	t.Helper()
	db := testutil.NewDB(t)
	w := testutil.CreateWorkshop(t, db, "owner@shop.test")
	return NewRegistry(db, testVariants, time.Hour, zaptest.NewLogger(t)), db, w
}

func TestIssue(t *testing.T) {
	r, db, w := newTestRegistry(t)
	ctx := context.Background()

	pending, err := r.Issue(ctx, w.ID, entitlement.PlanBasic)
	require.NoError(t, err)
	assert.Equal(t, "var_basic", pending.ExternalPlanID)
	assert.False(t, pending.Used)

	raw, err := base64.RawURLEncoding.DecodeString(pending.Token)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(raw), 16)

	var stored model.PendingCheckout
	require.NoError(t, db.Where("token = ?", pending.Token).First(&stored).Error)
	assert.Equal(t, w.ID, stored.WorkshopID)
	assert.Equal(t, "basic", stored.Plan)
	assert.False(t, stored.Used)
}

func TestIssueTokensAreUnique(t *testing.T) {
	r, _, w := newTestRegistry(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		pending, err := r.Issue(ctx, w.ID, entitlement.PlanPremium)
		require.NoError(t, err)
		require.False(t, seen[pending.Token], "duplicate token")
		seen[pending.Token] = true
	}
}

func TestIssueRejectsUnmappedPlans(t *testing.T) {
	db := testutil.NewDB(t)
	r := NewRegistry(db, map[string]string{"basic": "var_basic", "premium": ""}, 0, nil)

	_, err := r.Issue(context.Background(), 1, entitlement.PlanFree)
	assert.ErrorIs(t, err, ErrUnknownPlan)

	_, err = r.Issue(context.Background(), 1, entitlement.PlanPremium)
	assert.ErrorIs(t, err, ErrUnknownPlan)

	var count int64
	require.NoError(t, db.Model(&model.PendingCheckout{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestValidateAndConsumeSingleUse(t *testing.T) {
	r, _, w := newTestRegistry(t)
	ctx := context.Background()

	pending, err := r.Issue(ctx, w.ID, entitlement.PlanBasic)
	require.NoError(t, err)

	got, err := r.ValidateAndConsume(ctx, pending.Token, "var_basic", w.ID, "ord_1")
	require.NoError(t, err)
	assert.True(t, got.Used)
	require.NotNil(t, got.OrderID)
	assert.Equal(t, "ord_1", *got.OrderID)

	_, err = r.ValidateAndConsume(ctx, pending.Token, "var_basic", w.ID, "ord_2")
	assert.ErrorIs(t, err, ErrTokenUsed)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.NotErrorIs(t, err, ErrTokenReplayed)

	replay, err := r.ValidateAndConsume(ctx, pending.Token, "var_basic", w.ID, "ord_1")
	assert.ErrorIs(t, err, ErrTokenReplayed)
	assert.ErrorIs(t, err, ErrInvalidToken)
	require.NotNil(t, replay)
	assert.Equal(t, "basic", replay.Plan)
}

// consumeFirst makes the next pending checkout update lose its race: just
// before the compare-and-swap runs, the row is marked used by orderID on the
// same connection.
func consumeFirst(t *testing.T, db *gorm.DB, pendingID uint, orderID string) *int {
	t.Helper()
	fired := new(int)
	err := db.Callback().Update().Before("gorm:update").Register("test:consume_first", func(tx *gorm.DB) {
		if *fired > 0 || tx.Statement.Table != "pending_checkouts" {
			return
		}
		*fired++
		err := tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE pending_checkouts SET used = ?, order_id = ? WHERE id = ?", true, orderID, pendingID).Error
		if err != nil {
			_ = tx.AddError(err)
		}
	})
	require.NoError(t, err)
	return fired
}

func TestValidateAndConsumeLostRace(t *testing.T) {
	tests := []struct {
		name       string
		winner     string
		wantErr    error
		replayed   bool
		wantResult bool
	}{
		{name: "same order", winner: "ord_1", wantErr: ErrTokenReplayed, replayed: true, wantResult: true},
		{name: "other order", winner: "ord_other", wantErr: ErrTokenUsed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, db, w := newTestRegistry(t)
			ctx := context.Background()

			pending, err := r.Issue(ctx, w.ID, entitlement.PlanBasic)
			require.NoError(t, err)
			fired := consumeFirst(t, db, pending.ID, tt.winner)

			got, err := r.ValidateAndConsume(ctx, pending.Token, "var_basic", w.ID, "ord_1")
			assert.Equal(t, 1, *fired)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidToken)
			if tt.replayed {
				assert.ErrorIs(t, err, ErrTokenReplayed)
			} else {
				assert.NotErrorIs(t, err, ErrTokenReplayed)
			}
			if tt.wantResult {
				require.NotNil(t, got)
				require.NotNil(t, got.OrderID)
				assert.Equal(t, tt.winner, *got.OrderID)
			} else {
				assert.Nil(t, got)
			}

			// The winner's write stands; the loser changed nothing.
			stored, err := r.Find(ctx, pending.Token)
			require.NoError(t, err)
			assert.True(t, stored.Used)
			require.NotNil(t, stored.OrderID)
			assert.Equal(t, tt.winner, *stored.OrderID)

			var used int64
			require.NoError(t, db.Model(&model.PendingCheckout{}).Where("used = ?", true).Count(&used).Error)
			assert.Equal(t, int64(1), used)
		})
	}
}

func TestUsedTokenChecksBindingBeforeReplay(t *testing.T) {
	r, db, w := newTestRegistry(t)
	ctx := context.Background()
	other := testutil.CreateWorkshop(t, db, "other@shop.test")

	pending, err := r.Issue(ctx, w.ID, entitlement.PlanBasic)
	require.NoError(t, err)
	_, err = r.ValidateAndConsume(ctx, pending.Token, "var_basic", w.ID, "ord_1")
	require.NoError(t, err)

	_, err = r.ValidateAndConsume(ctx, pending.Token, "var_basic", other.ID, "ord_1")
	assert.ErrorIs(t, err, ErrTenantMismatch)
	assert.NotErrorIs(t, err, ErrTokenUsed)

	_, err = r.ValidateAndConsume(ctx, pending.Token, "var_premium", w.ID, "ord_1")
	assert.ErrorIs(t, err, ErrPlanMismatch)
	assert.NotErrorIs(t, err, ErrTokenUsed)

	_, err = r.ValidateAndConsume(ctx, pending.Token, "var_basic", w.ID, "ord_1")
	assert.ErrorIs(t, err, ErrTokenReplayed)
}

func TestValidateAndConsumeRejections(t *testing.T) {
	r, db, w := newTestRegistry(t)
	ctx := context.Background()
	other := testutil.CreateWorkshop(t, db, "other@shop.test")

	pending, err := r.Issue(ctx, w.ID, entitlement.PlanBasic)
	require.NoError(t, err)

	_, err = r.ValidateAndConsume(ctx, "nope", "var_basic", w.ID, "ord_1")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	_, err = r.ValidateAndConsume(ctx, "", "var_basic", w.ID, "ord_1")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	_, err = r.ValidateAndConsume(ctx, pending.Token, "var_premium", w.ID, "ord_1")
	assert.ErrorIs(t, err, ErrPlanMismatch)

	_, err = r.ValidateAndConsume(ctx, pending.Token, "var_basic", other.ID, "ord_1")
	assert.ErrorIs(t, err, ErrTenantMismatch)

	// Rejections leave the token redeemable.
	stored, err := r.Find(ctx, pending.Token)
	require.NoError(t, err)
	assert.False(t, stored.Used)
}

func TestValidateAndConsumeExpiry(t *testing.T) {
	r, _, w := newTestRegistry(t)
	ctx := context.Background()

	issuedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return issuedAt }

	fresh, err := r.Issue(ctx, w.ID, entitlement.PlanBasic)
	require.NoError(t, err)
	stale, err := r.Issue(ctx, w.ID, entitlement.PlanBasic)
	require.NoError(t, err)

	r.now = func() time.Time { return issuedAt.Add(59 * time.Minute) }
	_, err = r.ValidateAndConsume(ctx, fresh.Token, "var_basic", w.ID, "ord_1")
	assert.NoError(t, err)

	r.now = func() time.Time { return issuedAt.Add(61 * time.Minute) }
	_, err = r.ValidateAndConsume(ctx, stale.Token, "var_basic", w.ID, "ord_2")
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestWithTxRollsBackConsumption(t *testing.T) {
	r, db, w := newTestRegistry(t)
	ctx := context.Background()

	pending, err := r.Issue(ctx, w.ID, entitlement.PlanBasic)
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		if _, err := r.WithTx(tx).ValidateAndConsume(ctx, pending.Token, "var_basic", w.ID, "ord_1"); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	stored, err := r.Find(ctx, pending.Token)
	require.NoError(t, err)
	assert.False(t, stored.Used)
	assert.Nil(t, stored.OrderID)
}

func TestPlanForVariant(t *testing.T) {
	r := NewRegistry(nil, testVariants, 0, nil)

	plan, ok := r.PlanForVariant("var_premium")
	assert.True(t, ok)
	assert.Equal(t, entitlement.PlanPremium, plan)

	_, ok = r.PlanForVariant("var_gold")
	assert.False(t, ok)
}

func TestURL(t *testing.T) {
	got := URL("https://shop.example/checkout/buy/", "var_basic", "owner@shop.test", 7, "tok")
	assert.Equal(t,
		"https://shop.example/checkout/buy/var_basic?checkout%5Bcustom%5D%5Btenant_id%5D=7&checkout%5Bcustom%5D%5Btoken%5D=tok&checkout%5Bemail%5D=owner%40shop.test",
		got,
	)
}

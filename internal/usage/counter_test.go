package usage

import (
	"context"
	"testing"
	"time"

	"github.com/jhon-henao13/Fixly/internal/model"
	"github.com/jhon-henao13/Fixly/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthWindow(t *testing.T) {
	start, end := MonthWindow(time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestJobsThisMonth(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	w := testutil.CreateWorkshop(t, db, "a@shop.test")
	other := testutil.CreateWorkshop(t, db, "b@shop.test")

	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	jobs := []model.Job{
		{WorkshopID: w.ID, Item: "phone", CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{WorkshopID: w.ID, Item: "laptop", CreatedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)},
		{WorkshopID: w.ID, Item: "tablet", CreatedAt: time.Date(2026, 2, 28, 23, 59, 0, 0, time.UTC)},
		{WorkshopID: w.ID, Item: "watch", CreatedAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
		{WorkshopID: other.ID, Item: "phone", CreatedAt: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, db.Create(&jobs).Error)

	c := NewCounter(db)
	count, err := c.JobsThisMonth(ctx, w.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestUsers(t *testing.T) {
	db := testutil.NewDB(t)
	w := testutil.CreateWorkshop(t, db, "a@shop.test")

	require.NoError(t, db.Create(&model.User{WorkshopID: w.ID, Email: "owner@shop.test"}).Error)
	require.NoError(t, db.Create(&model.User{WorkshopID: w.ID, Email: "tech@shop.test"}).Error)

	count, err := NewCounter(db).Users(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

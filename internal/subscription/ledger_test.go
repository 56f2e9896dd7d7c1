package subscription

import (
	"context"
	"testing"

	"github.com/jhon-henao13/Fixly/internal/entitlement"
	"github.com/jhon-henao13/Fixly/internal/model"
	"github.com/jhon-henao13/Fixly/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCurrentPlanDefaultsToFree(t *testing.T) {
	db := testutil.NewDB(t)
	w := testutil.CreateWorkshop(t, db, "a@shop.test")
	l := NewLedger(db, zaptest.NewLogger(t))

	plan, err := l.CurrentPlan(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, entitlement.PlanFree, plan)

	sub, err := l.Get(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestCurrentPlanInactiveIsFree(t *testing.T) {
	db := testutil.NewDB(t)
	w := testutil.CreateWorkshop(t, db, "a@shop.test")
	require.NoError(t, db.Create(&model.Subscription{WorkshopID: w.ID, Plan: "premium"}).Error)

	plan, err := NewLedger(db, nil).CurrentPlan(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, entitlement.PlanFree, plan)
}

func TestActivateUpsertsOneRow(t *testing.T) {
	db := testutil.NewDB(t)
	w := testutil.CreateWorkshop(t, db, "a@shop.test")
	l := NewLedger(db, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := l.Activate(ctx, w.ID, entitlement.PlanBasic, "ord_1")
	require.NoError(t, err)

	plan, err := l.CurrentPlan(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, entitlement.PlanBasic, plan)

	_, err = l.Activate(ctx, w.ID, entitlement.PlanPremium, "ord_2")
	require.NoError(t, err)

	var subs []model.Subscription
	require.NoError(t, db.Where("workshop_id = ?", w.ID).Find(&subs).Error)
	require.Len(t, subs, 1)
	assert.Equal(t, "premium", subs[0].Plan)
	assert.True(t, subs[0].Active)
	require.NotNil(t, subs[0].ExternalOrderID)
	assert.Equal(t, "ord_2", *subs[0].ExternalOrderID)
}

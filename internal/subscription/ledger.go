// Package subscription keeps the per-workshop subscription record.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhon-henao13/Fixly/internal/entitlement"
	"github.com/jhon-henao13/Fixly/internal/model"
	appmetrics "github.com/jhon-henao13/Fixly/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger reads and writes subscriptions
type Ledger struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewLedger creates a Ledger
func NewLedger(db *gorm.DB, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{db: db, logger: logger}
}

// WithTx returns a copy of the ledger bound to tx
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx, logger: l.logger}
}

// Get returns the workshop's subscription row, or nil when it has none
func (l *Ledger) Get(ctx context.Context, workshopID uint) (*model.Subscription, error) {
	defer appmetrics.TrackDBOperation("get_subscription")(time.Now())

	var sub model.Subscription
	err := l.db.WithContext(ctx).Where("workshop_id = ?", workshopID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &sub, nil
}

// CurrentPlan returns the workshop's effective plan. A missing or inactive
// subscription means free.
func (l *Ledger) CurrentPlan(ctx context.Context, workshopID uint) (entitlement.Plan, error) {
	sub, err := l.Get(ctx, workshopID)
	if err != nil {
		return "", err
	}
	if sub == nil || !sub.Active {
		return entitlement.PlanFree, nil
	}
	plan, err := entitlement.ParsePlan(sub.Plan)
	if err != nil {
		l.logger.Warn("Stored subscription has unknown plan",
			zap.Uint("workshop_id", workshopID),
			zap.String("plan", sub.Plan),
		)
		return entitlement.PlanFree, nil
	}
	return plan, nil
}

// Activate records that the workshop is on plan, paid by externalOrderID.
// An existing row is updated in place.
func (l *Ledger) Activate(ctx context.Context, workshopID uint, plan entitlement.Plan, externalOrderID string) (*model.Subscription, error) {
	defer appmetrics.TrackDBOperation("activate_subscription")(time.Now())

	sub := &model.Subscription{
		WorkshopID:      workshopID,
		Plan:            string(plan),
		ExternalOrderID: &externalOrderID,
		Active:          true,
	}
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "workshop_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"plan", "external_order_id", "active", "updated_at"}),
	}).Create(sub).Error
	if err != nil {
		return nil, fmt.Errorf("activate subscription: %w", err)
	}

	appmetrics.RecordActivation(string(plan))
	l.logger.Info("Subscription activated",
		zap.Uint("workshop_id", workshopID),
		zap.String("plan", string(plan)),
		zap.String("order_id", externalOrderID),
	)
	return sub, nil
}

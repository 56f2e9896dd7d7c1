package entitlement

import (
	"context"
	"fmt"
	"time"

	appmetrics "github.com/jhon-henao13/Fixly/prometheus"
	"go.uber.org/zap"
)

// PlanLookup resolves a workshop's effective plan
type PlanLookup interface {
	CurrentPlan(ctx context.Context, workshopID uint) (Plan, error)
}

// UsageCounter reports a workshop's usage of capped resources
type UsageCounter interface {
	JobsThisMonth(ctx context.Context, workshopID uint, now time.Time) (int64, error)
	Users(ctx context.Context, workshopID uint) (int64, error)
}

// Enforcer applies a Policy to a workshop's stored plan and usage
type Enforcer struct {
	policy *Policy
	plans  PlanLookup
	usage  UsageCounter
	logger *zap.Logger
	now    func() time.Time
}

// NewEnforcer creates an Enforcer
func NewEnforcer(policy *Policy, plans PlanLookup, usage UsageCounter, logger *zap.Logger) *Enforcer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enforcer{
		policy: policy,
		plans:  plans,
		usage:  usage,
		logger: logger,
		now:    time.Now,
	}
}

// Policy returns the underlying policy
func (e *Enforcer) Policy() *Policy {
	return e.policy
}

// Plan returns the workshop's effective plan
func (e *Enforcer) Plan(ctx context.Context, workshopID uint) (Plan, error) {
	plan, err := e.plans.CurrentPlan(ctx, workshopID)
	if err != nil {
		return "", fmt.Errorf("resolve plan: %w", err)
	}
	return plan, nil
}

// CheckJobCreate returns a *LimitError when the workshop cannot log another
// job this month.
func (e *Enforcer) CheckJobCreate(ctx context.Context, workshopID uint) error {
	plan, err := e.Plan(ctx, workshopID)
	if err != nil {
		return err
	}
	return e.CheckJobCreateFor(ctx, workshopID, plan, e.usage)
}

// CheckJobCreateFor is CheckJobCreate for an already resolved plan, counting
// through usage. Pass a counter bound to the transaction that inserts the job
// so the count and the insert are one unit.
func (e *Enforcer) CheckJobCreateFor(ctx context.Context, workshopID uint, plan Plan, usage UsageCounter) error {
	count, err := usage.JobsThisMonth(ctx, workshopID, e.now())
	if err != nil {
		return fmt.Errorf("count jobs: %w", err)
	}
	return e.deny(workshopID, e.policy.CheckLimit(plan, ResourceJobsPerMonth, count))
}

// CheckUserAdd returns a *LimitError when the workshop cannot add another user
func (e *Enforcer) CheckUserAdd(ctx context.Context, workshopID uint) error {
	plan, err := e.Plan(ctx, workshopID)
	if err != nil {
		return err
	}
	count, err := e.usage.Users(ctx, workshopID)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	return e.deny(workshopID, e.policy.CheckLimit(plan, ResourceUsers, count))
}

// FeatureEnabled reports whether the workshop's plan includes feature
func (e *Enforcer) FeatureEnabled(ctx context.Context, workshopID uint, feature Feature) (bool, error) {
	plan, err := e.Plan(ctx, workshopID)
	if err != nil {
		return false, err
	}
	return e.policy.FeatureEnabled(plan, feature), nil
}

// RequireFeature returns a *FeatureError when the workshop's plan lacks feature
func (e *Enforcer) RequireFeature(ctx context.Context, workshopID uint, feature Feature) error {
	plan, err := e.Plan(ctx, workshopID)
	if err != nil {
		return err
	}
	if e.policy.FeatureEnabled(plan, feature) {
		return nil
	}
	appmetrics.RecordEntitlementDenial(string(plan), string(feature))
	e.logger.Info("Feature denied",
		zap.Uint("workshop_id", workshopID),
		zap.String("plan", string(plan)),
		zap.String("feature", string(feature)),
	)
	return &FeatureError{Plan: plan, Feature: feature}
}

func (e *Enforcer) deny(workshopID uint, d Decision) error {
	if d.Allowed {
		return nil
	}
	appmetrics.RecordEntitlementDenial(string(d.Plan), string(d.Kind))
	e.logger.Info("Plan limit reached",
		zap.Uint("workshop_id", workshopID),
		zap.String("plan", string(d.Plan)),
		zap.String("kind", string(d.Kind)),
		zap.Int64("current", d.Current),
		zap.Int("limit", d.Limit),
	)
	return d.Err()
}

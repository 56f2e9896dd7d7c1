// Package entitlement decides what a workshop may do on its current plan.
//
// Policy is pure: it maps a plan and a usage count to a decision and never
// touches storage. Enforcer wires a Policy to the plan and usage lookups.
package entitlement

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jhon-henao13/Fixly/pkg/config"
)

// Plan names a subscription tier
type Plan string

// Known plans
const (
	PlanFree    Plan = "free"
	PlanBasic   Plan = "basic"
	PlanPremium Plan = "premium"
)

// Plans is the ordered list of tiers, cheapest first
var Plans = []Plan{PlanFree, PlanBasic, PlanPremium}

// ErrUnknownPlan is returned by ParsePlan for names outside Plans
var ErrUnknownPlan = errors.New("unknown plan")

// ParsePlan converts a user supplied name into a Plan
func ParsePlan(name string) (Plan, error) {
	p := Plan(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Plans {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlan, name)
}

// Feature is a plan-gated capability
type Feature string

// Gated features
const (
	FeatureClientEmail Feature = "client_email"
	FeatureSMS         Feature = "sms"
	FeaturePDFExport   Feature = "pdf_export"
	FeatureAPIAccess   Feature = "api_access"
)

// Resource is a usage-capped resource kind
type Resource string

// Capped resources
const (
	ResourceJobsPerMonth Resource = "jobs_per_month"
	ResourceUsers        Resource = "users"
)

// Unlimited marks a cap that never denies
const Unlimited = 0

// Limits describes one plan's caps and features
type Limits struct {
	MaxJobsPerMonth int              `json:"max_jobs_per_month"` // 0 = unlimited
	MaxUsers        int              `json:"max_users"`          // 0 = unlimited
	Features        map[Feature]bool `json:"features"`
}

// max returns the cap for resource
func (l Limits) max(resource Resource) int {
	switch resource {
	case ResourceJobsPerMonth:
		return l.MaxJobsPerMonth
	case ResourceUsers:
		return l.MaxUsers
	default:
		return Unlimited
	}
}

// FeatureList returns the enabled features in a stable order
func (l Limits) FeatureList() []Feature {
	out := make([]Feature, 0, len(l.Features))
	for f, on := range l.Features {
		if on {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Decision is the outcome of a limit check
type Decision struct {
	Allowed bool     `json:"allowed"`
	Plan    Plan     `json:"plan"`
	Kind    Resource `json:"kind"`
	Limit   int      `json:"limit"`
	Current int64    `json:"current"`
	Reason  string   `json:"reason,omitempty"`
}

// Err returns nil for an allowed decision and a *LimitError otherwise
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &LimitError{Decision: d}
}

// ErrLimitExceeded is wrapped by every denial
var ErrLimitExceeded = errors.New("plan limit reached")

// LimitError carries the denied decision
type LimitError struct {
	Decision Decision
}

func (e *LimitError) Error() string { return e.Decision.Reason }

func (e *LimitError) Unwrap() error { return ErrLimitExceeded }

// ErrFeatureUnavailable is returned when a plan lacks a gated feature
var ErrFeatureUnavailable = errors.New("feature not available on current plan")

// FeatureError names the feature a plan lacks
type FeatureError struct {
	Plan    Plan
	Feature Feature
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("%s is not included in the %s plan (upgrade to enable it)", e.Feature, e.Plan)
}

func (e *FeatureError) Unwrap() error { return ErrFeatureUnavailable }

// Policy evaluates plans against their limits
type Policy struct {
	plans map[Plan]Limits
}

// NewPolicy builds a Policy from explicit limits. Plans missing from limits
// fall back to the free plan's limits.
func NewPolicy(limits map[Plan]Limits) *Policy {
	plans := make(map[Plan]Limits, len(limits))
	for p, l := range limits {
		plans[p] = l
	}
	return &Policy{plans: plans}
}

// DefaultPolicy returns the stock plan table
func DefaultPolicy() *Policy {
	return NewPolicy(DefaultLimits())
}

// DefaultLimits returns the stock plan table
func DefaultLimits() map[Plan]Limits {
	return map[Plan]Limits{
		PlanFree: {
			MaxJobsPerMonth: 5,
			MaxUsers:        1,
			Features:        map[Feature]bool{},
		},
		PlanBasic: {
			MaxJobsPerMonth: Unlimited,
			MaxUsers:        3,
			Features: map[Feature]bool{
				FeatureClientEmail: true,
				FeaturePDFExport:   true,
			},
		},
		PlanPremium: {
			MaxJobsPerMonth: Unlimited,
			MaxUsers:        Unlimited,
			Features: map[Feature]bool{
				FeatureClientEmail: true,
				FeatureSMS:         true,
				FeaturePDFExport:   true,
				FeatureAPIAccess:   true,
			},
		},
	}
}

// PolicyFromConfig applies the configured caps on top of the stock features
func PolicyFromConfig(cfg config.LimitsConfig) *Policy {
	limits := DefaultLimits()
	apply := func(p Plan, pl config.PlanLimits) {
		l := limits[p]
		l.MaxJobsPerMonth = pl.MaxJobsPerMonth
		l.MaxUsers = pl.MaxUsers
		limits[p] = l
	}
	apply(PlanFree, cfg.Free)
	apply(PlanBasic, cfg.Basic)
	apply(PlanPremium, cfg.Premium)
	return NewPolicy(limits)
}

// Limits returns the limits for plan
func (p *Policy) Limits(plan Plan) Limits {
	if l, ok := p.plans[plan]; ok {
		return l
	}
	return p.plans[PlanFree]
}

// CheckLimit decides whether one more resource may be created when current
// already exist.
func (p *Policy) CheckLimit(plan Plan, resource Resource, current int64) Decision {
	limit := p.Limits(plan).max(resource)
	d := Decision{
		Allowed: true,
		Plan:    plan,
		Kind:    resource,
		Limit:   limit,
		Current: current,
	}
	if limit == Unlimited || current < int64(limit) {
		return d
	}

	d.Allowed = false
	switch resource {
	case ResourceJobsPerMonth:
		d.Reason = fmt.Sprintf("plan limit reached: %d/%d jobs this month on the %s plan (upgrade to add more)", current, limit, plan)
	case ResourceUsers:
		d.Reason = fmt.Sprintf("plan limit reached: %d/%d users on the %s plan (upgrade to add more)", current, limit, plan)
	default:
		d.Reason = fmt.Sprintf("plan limit reached: %d/%d %s on the %s plan", current, limit, resource, plan)
	}
	return d
}

// FeatureEnabled reports whether plan includes feature
func (p *Policy) FeatureEnabled(plan Plan, feature Feature) bool {
	return p.Limits(plan).Features[feature]
}

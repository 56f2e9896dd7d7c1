// Package checkout issues and redeems the single-use tokens that tie a
// workshop's upgrade request to the payment processor's checkout session.
package checkout

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/jhon-henao13/Fixly/internal/entitlement"
	"github.com/jhon-henao13/Fixly/internal/model"
	appmetrics "github.com/jhon-henao13/Fixly/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// tokenBytes is the amount of randomness in an issued token
const tokenBytes = 32

// DefaultTTL is how long an issued token may be redeemed
const DefaultTTL = time.Hour

var (
	// ErrUnknownPlan is returned when a plan has no checkout variant
	ErrUnknownPlan = errors.New("plan has no checkout variant")

	// ErrInvalidToken is wrapped by every redemption rejection
	ErrInvalidToken = errors.New("invalid checkout token")

	ErrTokenNotFound  = fmt.Errorf("%w: not found", ErrInvalidToken)
	ErrTokenUsed      = fmt.Errorf("%w: already used", ErrInvalidToken)
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrPlanMismatch   = fmt.Errorf("%w: plan does not match", ErrInvalidToken)
	ErrTenantMismatch = fmt.Errorf("%w: workshop does not match", ErrInvalidToken)

	// ErrTokenReplayed means the token was already redeemed by the same
	// order. It is still a rejection but callers may answer as a success.
	ErrTokenReplayed = fmt.Errorf("%w: consumed by this order", ErrTokenUsed)
)

// Registry stores pending checkouts
type Registry struct {
	db       *gorm.DB
	variants map[entitlement.Plan]string
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewRegistry creates a Registry. variants maps plan names to the
// processor's variant ids; empty ids are ignored.
func NewRegistry(db *gorm.DB, variants map[string]string, ttl time.Duration, logger *zap.Logger) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := make(map[entitlement.Plan]string, len(variants))
	for name, variant := range variants {
		if variant == "" {
			continue
		}
		m[entitlement.Plan(name)] = variant
	}
	return &Registry{
		db:       db,
		variants: m,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// WithTx returns a copy of the registry bound to tx
func (r *Registry) WithTx(tx *gorm.DB) *Registry {
	cp := *r
	cp.db = tx
	return &cp
}

// TTL returns the redemption window
func (r *Registry) TTL() time.Duration {
	return r.ttl
}

// VariantFor returns the processor variant id for a paid plan
func (r *Registry) VariantFor(plan entitlement.Plan) (string, error) {
	if plan == entitlement.PlanFree {
		return "", fmt.Errorf("%w: %s", ErrUnknownPlan, plan)
	}
	v, ok := r.variants[plan]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPlan, plan)
	}
	return v, nil
}

// PlanForVariant resolves a processor variant id back to a plan
func (r *Registry) PlanForVariant(variant string) (entitlement.Plan, bool) {
	for p, v := range r.variants {
		if v == variant {
			return p, true
		}
	}
	return "", false
}

// Issue mints a token for workshopID to upgrade to plan. The row is written
// outside any caller transaction so it is durable before the redirect.
func (r *Registry) Issue(ctx context.Context, workshopID uint, plan entitlement.Plan) (*model.PendingCheckout, error) {
	defer appmetrics.TrackDBOperation("issue_checkout")(time.Now())

	variant, err := r.VariantFor(plan)
	if err != nil {
		return nil, err
	}

	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	pending := &model.PendingCheckout{
		WorkshopID:     workshopID,
		Plan:           string(plan),
		ExternalPlanID: variant,
		Token:          token,
		Used:           false,
		CreatedAt:      r.now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(pending).Error; err != nil {
		return nil, fmt.Errorf("store pending checkout: %w", err)
	}

	appmetrics.RecordTokenIssued(string(plan))
	r.logger.Info("Checkout token issued",
		zap.Uint("workshop_id", workshopID),
		zap.String("plan", string(plan)),
		zap.Uint("pending_id", pending.ID),
	)
	return pending, nil
}

// Find returns the pending checkout for token
func (r *Registry) Find(ctx context.Context, token string) (*model.PendingCheckout, error) {
	var pending model.PendingCheckout
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&pending).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pending, nil
}

// ValidateAndConsume redeems token for orderID. Every rejection wraps
// ErrInvalidToken; any other error is a storage failure. Run it on a
// WithTx registry so the consumption commits with the activation.
func (r *Registry) ValidateAndConsume(ctx context.Context, token, externalPlanID string, workshopID uint, orderID string) (*model.PendingCheckout, error) {
	defer appmetrics.TrackDBOperation("consume_checkout")(time.Now())

	if token == "" {
		return nil, ErrTokenNotFound
	}

	pending, err := r.Find(ctx, token)
	if err != nil {
		return nil, err
	}

	// Binding checks come first so a redelivery is only classed as a replay
	// when it names the same tenant and plan.
	if pending.WorkshopID != workshopID {
		return nil, ErrTenantMismatch
	}
	if pending.ExternalPlanID != externalPlanID {
		return nil, ErrPlanMismatch
	}
	if pending.Used {
		if pending.OrderID != nil && *pending.OrderID == orderID {
			return pending, ErrTokenReplayed
		}
		return nil, ErrTokenUsed
	}
	if pending.Expired(r.now().UTC(), r.ttl) {
		return nil, ErrTokenExpired
	}

	res := r.db.WithContext(ctx).
		Model(&model.PendingCheckout{}).
		Where("id = ? AND used = ?", pending.ID, false).
		Updates(map[string]interface{}{"used": true, "order_id": orderID})
	if res.Error != nil {
		return nil, fmt.Errorf("consume pending checkout: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		// Lost the race to a concurrent delivery.
		current, err := r.Find(ctx, token)
		if err != nil {
			return nil, err
		}
		if current.OrderID != nil && *current.OrderID == orderID {
			return current, ErrTokenReplayed
		}
		return nil, ErrTokenUsed
	}

	pending.Used = true
	pending.OrderID = &orderID
	return pending, nil
}

func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Package webhook turns payment processor notifications into subscription
// changes exactly once per order.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jhon-henao13/Fixly/internal/checkout"
	"github.com/jhon-henao13/Fixly/internal/entitlement"
	"github.com/jhon-henao13/Fixly/internal/model"
	"github.com/jhon-henao13/Fixly/internal/notify"
	"github.com/jhon-henao13/Fixly/internal/subscription"
	appmetrics "github.com/jhon-henao13/Fixly/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrUnauthorized     = errors.New("webhook signature mismatch")
	ErrMalformedEvent   = errors.New("malformed webhook event")
	ErrWorkshopNotFound = errors.New("workshop not found")
)

// Outcome classifies how a delivery was handled
type Outcome string

const (
	OutcomeProcessed        Outcome = "processed"
	OutcomeIgnored          Outcome = "ignored"
	OutcomeAlreadyProcessed Outcome = "already_processed"
	OutcomeUnauthorized     Outcome = "unauthorized"
	OutcomeMalformed        Outcome = "malformed"
	OutcomeInvalidToken     Outcome = "invalid_token"
	OutcomeNotFound         Outcome = "not_found"
	OutcomeFailed           Outcome = "failed"
)

// StatusCode maps an outcome to the HTTP status returned to the processor.
// Only storage failures ask the processor to retry.
func (o Outcome) StatusCode() int {
	switch o {
	case OutcomeProcessed, OutcomeIgnored, OutcomeAlreadyProcessed:
		return http.StatusOK
	case OutcomeUnauthorized:
		return http.StatusUnauthorized
	case OutcomeMalformed, OutcomeInvalidToken, OutcomeNotFound:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Result describes a handled delivery
type Result struct {
	Outcome    Outcome
	EventName  string
	OrderID    string
	WorkshopID uint
	Plan       entitlement.Plan
	Err        error
}

// Notifier delivers a templated message to an address
type Notifier interface {
	Notify(ctx context.Context, address, template string, data any) error
}

// Config holds reconciler settings
type Config struct {
	Secret        string
	PaidEvents    []string
	NotifyTimeout time.Duration
}

// Reconciler verifies, matches and applies paid notifications
type Reconciler struct {
	db       *gorm.DB
	registry *checkout.Registry
	ledger   *subscription.Ledger
	notifier Notifier
	secret   string
	paid     map[string]bool
	timeout  time.Duration
	logger   *zap.Logger
}

// NewReconciler creates a Reconciler
func NewReconciler(db *gorm.DB, registry *checkout.Registry, ledger *subscription.Ledger, notifier Notifier, cfg Config, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	paid := make(map[string]bool, len(cfg.PaidEvents))
	for _, name := range cfg.PaidEvents {
		paid[name] = true
	}
	if len(paid) == 0 {
		paid["order.paid"] = true
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 10 * time.Second
	}
	return &Reconciler{
		db:       db,
		registry: registry,
		ledger:   ledger,
		notifier: notifier,
		secret:   cfg.Secret,
		paid:     paid,
		timeout:  cfg.NotifyTimeout,
		logger:   logger,
	}
}

// Handle processes one delivery. body must be the raw request body.
func (r *Reconciler) Handle(ctx context.Context, body []byte, signature string) Result {
	res := r.handle(ctx, body, signature)
	appmetrics.RecordWebhookOutcome(string(res.Outcome))

	fields := []zap.Field{
		zap.String("outcome", string(res.Outcome)),
		zap.String("event", res.EventName),
		zap.String("order_id", res.OrderID),
		zap.Uint("workshop_id", res.WorkshopID),
	}
	switch res.Outcome {
	case OutcomeProcessed, OutcomeIgnored, OutcomeAlreadyProcessed:
		r.logger.Info("Webhook handled", fields...)
	case OutcomeFailed:
		r.logger.Error("Webhook processing failed", append(fields, zap.Error(res.Err))...)
	default:
		r.logger.Warn("Webhook rejected", append(fields, zap.Error(res.Err))...)
	}
	return res
}

func (r *Reconciler) handle(ctx context.Context, body []byte, signature string) Result {
	if !VerifySignature(r.secret, body, signature) {
		return Result{Outcome: OutcomeUnauthorized, Err: ErrUnauthorized}
	}

	ev, err := ParseEvent(body)
	if err != nil {
		return Result{Outcome: OutcomeMalformed, Err: err}
	}
	res := Result{EventName: ev.Meta.EventName}

	if !r.paid[ev.Meta.EventName] {
		res.Outcome = OutcomeIgnored
		return res
	}
	if s := ev.Data.Attributes.Status; s != "" && s != "paid" {
		res.Outcome = OutcomeIgnored
		return res
	}

	order, err := ev.PaidOrder()
	if err != nil {
		res.Outcome = OutcomeMalformed
		res.Err = err
		return res
	}
	res.OrderID = order.OrderID
	res.WorkshopID = order.WorkshopID

	var (
		workshop model.Workshop
		pending  *model.PendingCheckout
	)
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&workshop, order.WorkshopID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrWorkshopNotFound, order.WorkshopID)
			}
			return err
		}

		var err error
		pending, err = r.registry.WithTx(tx).ValidateAndConsume(ctx, order.Token, order.VariantID, order.WorkshopID, order.OrderID)
		if err != nil {
			return err
		}

		_, err = r.ledger.WithTx(tx).Activate(ctx, order.WorkshopID, entitlement.Plan(pending.Plan), order.OrderID)
		return err
	})

	switch {
	case err == nil:
		res.Outcome = OutcomeProcessed
	case errors.Is(err, checkout.ErrTokenReplayed):
		res.Outcome = OutcomeAlreadyProcessed
		res.Err = err
		if pending != nil {
			res.Plan = entitlement.Plan(pending.Plan)
		}
		return res
	case errors.Is(err, checkout.ErrInvalidToken):
		res.Outcome = OutcomeInvalidToken
		res.Err = err
		return res
	case errors.Is(err, ErrWorkshopNotFound):
		res.Outcome = OutcomeNotFound
		res.Err = err
		return res
	default:
		res.Outcome = OutcomeFailed
		res.Err = err
		return res
	}

	res.Plan = entitlement.Plan(pending.Plan)
	r.notifyActivated(ctx, &workshop, res)
	return res
}

// notifyActivated runs after commit; failures are logged only.
func (r *Reconciler) notifyActivated(ctx context.Context, workshop *model.Workshop, res Result) {
	if r.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	err := r.notifier.Notify(ctx, workshop.Email, notify.TemplateSubscriptionActivated, map[string]any{
		"WorkshopName": workshop.Name,
		"Plan":         string(res.Plan),
		"OrderID":      res.OrderID,
	})
	if err != nil {
		r.logger.Warn("Activation notification failed",
			zap.Uint("workshop_id", workshop.ID),
			zap.String("order_id", res.OrderID),
			zap.Error(err),
		)
	}
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jhon-henao13/Fixly/internal/checkout"
	"github.com/jhon-henao13/Fixly/internal/entitlement"
	"github.com/jhon-henao13/Fixly/internal/model"
	"github.com/jhon-henao13/Fixly/internal/subscription"
	"github.com/jhon-henao13/Fixly/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BillingHandler exposes plans, the current subscription and upgrades
type BillingHandler struct {
	db              *gorm.DB
	registry        *checkout.Registry
	ledger          *subscription.Ledger
	policy          *entitlement.Policy
	usage           entitlement.UsageCounter
	checkoutBaseURL string
	timeout         time.Duration
}

// NewBillingHandler creates a BillingHandler
func NewBillingHandler(db *gorm.DB, registry *checkout.Registry, ledger *subscription.Ledger, policy *entitlement.Policy, usage entitlement.UsageCounter, checkoutBaseURL string, timeout time.Duration) *BillingHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BillingHandler{
		db:              db,
		registry:        registry,
		ledger:          ledger,
		policy:          policy,
		usage:           usage,
		checkoutBaseURL: checkoutBaseURL,
		timeout:         timeout,
	}
}

type planView struct {
	Name            entitlement.Plan      `json:"name"`
	MaxJobsPerMonth int                   `json:"max_jobs_per_month"`
	MaxUsers        int                   `json:"max_users"`
	Features        []entitlement.Feature `json:"features"`
	Purchasable     bool                  `json:"purchasable"`
}

// Plans lists every plan with its limits
func (h *BillingHandler) Plans(c echo.Context) error {
	out := make([]planView, 0, len(entitlement.Plans))
	for _, p := range entitlement.Plans {
		l := h.policy.Limits(p)
		_, err := h.registry.VariantFor(p)
		out = append(out, planView{
			Name:            p,
			MaxJobsPerMonth: l.MaxJobsPerMonth,
			MaxUsers:        l.MaxUsers,
			Features:        l.FeatureList(),
			Purchasable:     err == nil,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// Subscription reports the workshop's plan and usage
func (h *BillingHandler) Subscription(c echo.Context) error {
	log := logger.FromEcho(c)
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c, log)
	}
	ctx := c.Request().Context()

	sub, err := h.ledger.Get(ctx, claims.WorkshopID)
	if err != nil {
		log.Error("Failed to load subscription", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load subscription"})
	}
	plan, err := h.ledger.CurrentPlan(ctx, claims.WorkshopID)
	if err != nil {
		log.Error("Failed to resolve plan", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load subscription"})
	}

	jobs, err := h.usage.JobsThisMonth(ctx, claims.WorkshopID, time.Now())
	if err != nil {
		log.Error("Failed to count jobs", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load usage"})
	}
	users, err := h.usage.Users(ctx, claims.WorkshopID)
	if err != nil {
		log.Error("Failed to count users", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load usage"})
	}

	limits := h.policy.Limits(plan)
	return c.JSON(http.StatusOK, echo.Map{
		"plan":         plan,
		"subscription": sub,
		"usage": echo.Map{
			"jobs_this_month": jobs,
			"users":           users,
		},
		"limits": echo.Map{
			"max_jobs_per_month": limits.MaxJobsPerMonth,
			"max_users":          limits.MaxUsers,
		},
		"features": limits.FeatureList(),
	})
}

// Upgrade mints a pending checkout and redirects to the hosted checkout.
// The token is committed before the redirect is sent.
func (h *BillingHandler) Upgrade(c echo.Context) error {
	log := logger.FromEcho(c)
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c, log)
	}

	var req struct {
		Plan string `json:"plan" form:"plan" query:"plan"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse upgrade request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	plan, err := entitlement.ParsePlan(req.Plan)
	if err != nil || plan == entitlement.PlanFree {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "plan must be basic or premium"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	var workshop model.Workshop
	if err := h.db.WithContext(ctx).First(&workshop, claims.WorkshopID).Error; err != nil {
		log.Error("Failed to load workshop", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upgrade failed"})
	}

	pending, err := h.registry.Issue(ctx, claims.WorkshopID, plan)
	if err != nil {
		if errors.Is(err, checkout.ErrUnknownPlan) {
			log.Warn("Plan not purchasable", zap.String("plan", string(plan)))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "plan is not available for purchase"})
		}
		log.Error("Failed to issue checkout token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upgrade failed"})
	}

	target := checkout.URL(h.checkoutBaseURL, pending.ExternalPlanID, workshop.Email, claims.WorkshopID, pending.Token)
	log.Info("Redirecting to checkout",
		zap.Uint("workshop_id", claims.WorkshopID),
		zap.String("plan", string(plan)))

	return c.Redirect(http.StatusSeeOther, target)
}

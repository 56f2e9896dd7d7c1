package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/jhon-henao13/Fixly/internal/entitlement"
	"github.com/jhon-henao13/Fixly/internal/middleware"
	"github.com/jhon-henao13/Fixly/pkg/jwtutil"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Notifier sends best-effort client messages
type Notifier interface {
	Notify(ctx context.Context, address, template string, data any) error
	NotifySMS(ctx context.Context, phone, template string, data any) error
}

// currentUser returns the JWT claims of the signed-in user, or nil
func currentUser(c echo.Context) *jwtutil.UserClaims {
	return middleware.Claims(c)
}

func unauthorized(c echo.Context, log *zap.Logger) error {
	log.Error("Failed to get user claims from context")
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
}

func parseID(c echo.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// entitlementError answers an enforcer error: 402 for denials, 500 otherwise
func entitlementError(c echo.Context, log *zap.Logger, err error) error {
	var limitErr *entitlement.LimitError
	if errors.As(err, &limitErr) {
		return c.JSON(http.StatusPaymentRequired, echo.Map{
			"error":    limitErr.Error(),
			"decision": limitErr.Decision,
		})
	}
	var featErr *entitlement.FeatureError
	if errors.As(err, &featErr) {
		return c.JSON(http.StatusPaymentRequired, echo.Map{
			"error":   featErr.Error(),
			"feature": featErr.Feature,
			"plan":    featErr.Plan,
		})
	}
	log.Error("Entitlement check failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check plan limits"})
}

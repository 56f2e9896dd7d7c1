package middleware

import (
	"errors"
	"net/http"

	"github.com/jhon-henao13/Fixly/internal/entitlement"
	"github.com/jhon-henao13/Fixly/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequireFeature rejects requests from workshops whose plan lacks feature
// with 402 Payment Required. It must run after JWTAuthMiddleware.
func RequireFeature(enforcer *entitlement.Enforcer, feature entitlement.Feature) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := Claims(c)
			if claims == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
			}

			err := enforcer.RequireFeature(c.Request().Context(), claims.WorkshopID, feature)
			if err == nil {
				return next(c)
			}

			var featErr *entitlement.FeatureError
			if errors.As(err, &featErr) {
				return c.JSON(http.StatusPaymentRequired, echo.Map{
					"error":   featErr.Error(),
					"feature": featErr.Feature,
					"plan":    featErr.Plan,
				})
			}

			logger.FromEcho(c).Error("Failed to resolve plan", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to resolve plan"})
		}
	}
}

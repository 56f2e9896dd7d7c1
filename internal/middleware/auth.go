package middleware

import (
	"net/http"
	"strings"

	"github.com/jhon-henao13/Fixly/pkg/jwtutil"
	"github.com/jhon-henao13/Fixly/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UserContextKey is where JWTAuthMiddleware stores the validated claims
const UserContextKey = "user"

// JWTAuthMiddleware creates a middleware that validates JWT tokens
func JWTAuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Warn("Missing authorization header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Missing authorization header"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Invalid authorization header format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid authorization header format"})
			}

			claims, err := jwtUtil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid or expired token"})
			}

			c.Set(UserContextKey, claims)
			logger.Annotate(c,
				zap.Uint("workshop_id", claims.WorkshopID),
				zap.Uint("user_id", claims.UserID),
			).Debug("JWT token validated")

			return next(c)
		}
	}
}

// Claims returns the claims stored by JWTAuthMiddleware, or nil
func Claims(c echo.Context) *jwtutil.UserClaims {
	claims, _ := c.Get(UserContextKey).(*jwtutil.UserClaims)
	return claims
}

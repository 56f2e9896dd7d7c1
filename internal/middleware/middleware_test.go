package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jhon-henao13/Fixly/internal/entitlement"
	"github.com/jhon-henao13/Fixly/pkg/jwtutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticPlans entitlement.Plan

func (p staticPlans) CurrentPlan(context.Context, uint) (entitlement.Plan, error) {
	return entitlement.Plan(p), nil
}

type noUsage struct{}

func (noUsage) JobsThisMonth(context.Context, uint, time.Time) (int64, error) { return 0, nil }
func (noUsage) Users(context.Context, uint) (int64, error)                   { return 0, nil }

func newJWT() *jwtutil.JWTUtil {
	return jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})
}

func TestJWTAuthMiddleware(t *testing.T) {
	jwt := newJWT()
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"workshop_id": Claims(c).WorkshopID})
	}, JWTAuthMiddleware(jwt))

	token, err := jwt.GenerateToken("owner@shop.test", 1, 7)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"bad format", "Token " + token, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(RequestIDMiddleware())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get(echo.HeaderXRequestID))
}

func TestRequireFeature(t *testing.T) {
	jwt := newJWT()
	token, err := jwt.GenerateToken("owner@shop.test", 1, 7)
	require.NoError(t, err)

	serve := func(plan entitlement.Plan) *httptest.ResponseRecorder {
		enforcer := entitlement.NewEnforcer(entitlement.DefaultPolicy(), staticPlans(plan), noUsage{}, nil)
		e := echo.New()
		e.GET("/export", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
			JWTAuthMiddleware(jwt), RequireFeature(enforcer, entitlement.FeatureAPIAccess))

		req := httptest.NewRequest(http.MethodGet, "/export", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	rec := serve(entitlement.PlanBasic)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), "api_access")

	assert.Equal(t, http.StatusOK, serve(entitlement.PlanPremium).Code)
}

package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	assert.Same(t, GetLogger(), FromContext(context.Background()))

	l := zap.NewExample()
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
}

func TestMiddlewareAttachesRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	prev := log
	log = zap.New(core)
	t.Cleanup(func() { log = prev })

	e := echo.New()
	e.Use(Middleware())
	e.GET("/ping", func(c echo.Context) error {
		require.NotSame(t, log, FromEcho(c))
		FromContext(c.Request().Context()).Info("inside")
		return c.String(http.StatusTeapot, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	entries := logs.FilterField(zap.String("request_id", "req-1")).All()
	require.Len(t, entries, 2)
	assert.Equal(t, "inside", entries[0].Message)
	assert.Equal(t, "HTTP Request", entries[1].Message)
	assert.EqualValues(t, http.StatusTeapot, entries[1].ContextMap()["status"])
}

func TestAnnotateReachesAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := log
	log = zap.New(core)
	t.Cleanup(func() { log = prev })

	e := echo.New()
	e.Use(Middleware())
	e.GET("/jobs", func(c echo.Context) error {
		Annotate(c, zap.Uint("workshop_id", 7))
		return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "plan limit reached"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs", nil))
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	access := logs.FilterMessage("HTTP Request").All()
	require.Len(t, access, 2)
	assert.Equal(t, zapcore.WarnLevel, access[0].Level)
	assert.EqualValues(t, 7, access[0].ContextMap()["workshop_id"])
	assert.Equal(t, zapcore.DebugLevel, access[1].Level)
}

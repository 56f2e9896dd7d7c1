package logger

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ctxKey struct{}

// EchoKey is where Middleware stores the request logger on the echo context.
const EchoKey = "logger"

// FromContext returns the request logger carried by ctx, or the global one.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return GetLogger()
}

// WithContext returns a copy of ctx carrying l.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromEcho returns the request logger stored by Middleware, or the global one.
func FromEcho(c echo.Context) *zap.Logger {
	if l, ok := c.Get(EchoKey).(*zap.Logger); ok {
		return l
	}
	return GetLogger()
}

// Annotate adds fields to the request logger on both the echo context and the
// request context, so later handlers and the access log line see them.
func Annotate(c echo.Context, fields ...zap.Field) *zap.Logger {
	l := FromEcho(c).With(fields...)
	c.Set(EchoKey, l)
	c.SetRequest(c.Request().WithContext(WithContext(c.Request().Context(), l)))
	return l
}

package handler

import (
	"crypto/subtle"
	"io"
	"net/http"

	"github.com/jhon-henao13/Fixly/internal/janitor"
	"github.com/jhon-henao13/Fixly/internal/webhook"
	"github.com/jhon-henao13/Fixly/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const webhookBodyLimit = 1024 * 1024 // 1 MiB

// WebhookHandler receives payment processor notifications
type WebhookHandler struct {
	reconciler *webhook.Reconciler
}

// NewWebhookHandler creates a WebhookHandler
func NewWebhookHandler(reconciler *webhook.Reconciler) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler}
}

// Payments reads the raw body and hands it to the reconciler untouched
func (h *WebhookHandler) Payments(c echo.Context) error {
	log := logger.FromEcho(c)

	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, webhookBodyLimit))
	if err != nil {
		log.Warn("Failed to read webhook body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "rejected", "error": "failed to read request body"})
	}

	res := h.reconciler.Handle(c.Request().Context(), body, c.Request().Header.Get(webhook.SignatureHeader))
	code := res.Outcome.StatusCode()

	switch res.Outcome {
	case webhook.OutcomeProcessed, webhook.OutcomeIgnored, webhook.OutcomeAlreadyProcessed:
		return c.JSON(code, echo.Map{"status": string(res.Outcome)})
	case webhook.OutcomeUnauthorized:
		return c.JSON(code, echo.Map{"status": "unauthorized", "error": "invalid signature"})
	case webhook.OutcomeFailed:
		return c.JSON(code, echo.Map{"status": "error", "error": "processing failed"})
	default:
		msg := string(res.Outcome)
		if res.Err != nil {
			msg = res.Err.Error()
		}
		return c.JSON(code, echo.Map{"status": "rejected", "error": msg})
	}
}

// CleanupHandler runs the token janitor on demand
type CleanupHandler struct {
	janitor *janitor.Janitor
	secret  string
}

// NewCleanupHandler creates a CleanupHandler. An empty secret disables it.
func NewCleanupHandler(j *janitor.Janitor, secret string) *CleanupHandler {
	return &CleanupHandler{janitor: j, secret: secret}
}

// Cleanup sweeps expired pending checkouts when ?secret= matches
func (h *CleanupHandler) Cleanup(c echo.Context) error {
	log := logger.FromEcho(c)

	if h.secret == "" {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "cleanup secret not configured"})
	}
	if subtle.ConstantTimeCompare([]byte(c.QueryParam("secret")), []byte(h.secret)) != 1 {
		log.Warn("Cleanup called with wrong secret", zap.String("ip", c.RealIP()))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	deleted, err := h.janitor.Sweep(c.Request().Context())
	if err != nil {
		log.Error("Cleanup sweep failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cleanup failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": deleted})
}

package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jhon-henao13/Fixly/internal/entitlement"
	"github.com/jhon-henao13/Fixly/internal/model"
	"github.com/jhon-henao13/Fixly/internal/notify"
	"github.com/jhon-henao13/Fixly/internal/report"
	"github.com/jhon-henao13/Fixly/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EstimateHandler creates estimates and serves the public approval link
type EstimateHandler struct {
	db            *gorm.DB
	enforcer      *entitlement.Enforcer
	notifier      Notifier
	publicBaseURL string
	notifyTimeout time.Duration
}

// NewEstimateHandler creates an EstimateHandler
func NewEstimateHandler(db *gorm.DB, enforcer *entitlement.Enforcer, notifier Notifier, publicBaseURL string, notifyTimeout time.Duration) *EstimateHandler {
	if notifyTimeout <= 0 {
		notifyTimeout = 10 * time.Second
	}
	return &EstimateHandler{
		db:            db,
		enforcer:      enforcer,
		notifier:      notifier,
		publicBaseURL: publicBaseURL,
		notifyTimeout: notifyTimeout,
	}
}

func (h *EstimateHandler) approvalURL(token string) string {
	return h.publicBaseURL + "/e/" + token
}

// generateEstimateToken returns 128 random bits as hex
func generateEstimateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Create prices a job. Total is labor plus parts.
func (h *EstimateHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c, log)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid job ID"})
	}

	var req struct {
		Description string          `json:"description"`
		Labor       decimal.Decimal `json:"labor"`
		Parts       decimal.Decimal `json:"parts"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse estimate request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Labor.IsNegative() || req.Parts.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "labor and parts must not be negative"})
	}

	ctx := c.Request().Context()
	job, err := loadJob(ctx, h.db, claims.WorkshopID, id)
	if err != nil {
		return jobLookupError(c, log, err)
	}

	token, err := generateEstimateToken()
	if err != nil {
		log.Error("Failed to generate estimate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "estimate creation failed"})
	}

	estimate := model.Estimate{
		JobID:       job.ID,
		Description: req.Description,
		Labor:       req.Labor.Round(2),
		Parts:       req.Parts.Round(2),
		Total:       req.Labor.Add(req.Parts).Round(2),
		Token:       token,
	}
	if err := h.db.WithContext(ctx).Create(&estimate).Error; err != nil {
		log.Error("Failed to create estimate", zap.Uint("job_id", job.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "estimate creation failed"})
	}

	log.Info("Estimate created",
		zap.Uint("id", estimate.ID),
		zap.Uint("job_id", job.ID),
		zap.String("total", estimate.Total.StringFixed(2)))

	h.notifyClient(ctx, log, job, &estimate)

	return c.JSON(http.StatusCreated, echo.Map{
		"estimate":     estimate,
		"approval_url": h.approvalURL(estimate.Token),
	})
}

func (h *EstimateHandler) notifyClient(ctx context.Context, log *zap.Logger, job *model.Job, estimate *model.Estimate) {
	if h.notifier == nil || job.ClientEmail == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.notifyTimeout)
	defer cancel()

	ok, err := h.enforcer.FeatureEnabled(ctx, job.WorkshopID, entitlement.FeatureClientEmail)
	if err != nil || !ok {
		return
	}
	var workshop model.Workshop
	if err := h.db.WithContext(ctx).First(&workshop, job.WorkshopID).Error; err != nil {
		log.Warn("Failed to load workshop for notification", zap.Error(err))
		return
	}

	err = h.notifier.Notify(ctx, job.ClientEmail, notify.TemplateEstimateReady, map[string]any{
		"ClientName":   job.ClientName,
		"Item":         job.Item,
		"Total":        estimate.Total.StringFixed(2),
		"Link":         h.approvalURL(estimate.Token),
		"WorkshopName": workshop.Name,
	})
	if err != nil {
		log.Warn("Estimate email failed", zap.Uint("estimate_id", estimate.ID), zap.Error(err))
	}
}

type publicEstimate struct {
	estimate model.Estimate
	job      model.Job
	workshop model.Workshop
}

func (h *EstimateHandler) loadPublic(ctx context.Context, token string) (*publicEstimate, error) {
	var p publicEstimate
	if err := h.db.WithContext(ctx).Where("token = ?", token).First(&p.estimate).Error; err != nil {
		return nil, err
	}
	if err := h.db.WithContext(ctx).First(&p.job, p.estimate.JobID).Error; err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}
	if err := h.db.WithContext(ctx).First(&p.workshop, p.job.WorkshopID).Error; err != nil {
		return nil, fmt.Errorf("load workshop: %w", err)
	}
	return &p, nil
}

func (p *publicEstimate) view() echo.Map {
	return echo.Map{
		"workshop":    p.workshop.Name,
		"client_name": p.job.ClientName,
		"item":        p.job.Item,
		"problem":     p.job.Problem,
		"status":      p.job.Status,
		"description": p.estimate.Description,
		"labor":       p.estimate.Labor,
		"parts":       p.estimate.Parts,
		"total":       p.estimate.Total,
		"approved":    p.estimate.Approved,
		"approved_at": p.estimate.ApprovedAt,
	}
}

func publicLookupError(c echo.Context, log *zap.Logger, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "estimate not found"})
	}
	log.Error("Failed to load estimate", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load estimate"})
}

// PublicView shows an estimate to the client holding its link
func (h *EstimateHandler) PublicView(c echo.Context) error {
	log := logger.FromEcho(c)

	p, err := h.loadPublic(c.Request().Context(), c.Param("token"))
	if err != nil {
		return publicLookupError(c, log, err)
	}
	return c.JSON(http.StatusOK, p.view())
}

// PublicApprove records the client's approval. Approving twice is harmless.
// The job status is left to the workshop.
func (h *EstimateHandler) PublicApprove(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()

	p, err := h.loadPublic(ctx, c.Param("token"))
	if err != nil {
		return publicLookupError(c, log, err)
	}
	if p.estimate.Approved {
		return c.JSON(http.StatusOK, p.view())
	}

	now := time.Now().UTC()
	err = h.db.WithContext(ctx).Model(&model.Estimate{}).
		Where("id = ? AND approved = ?", p.estimate.ID, false).
		Updates(map[string]interface{}{"approved": true, "approved_at": now}).Error
	if err != nil {
		log.Error("Failed to approve estimate", zap.Uint("estimate_id", p.estimate.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "approval failed"})
	}

	log.Info("Estimate approved",
		zap.Uint("estimate_id", p.estimate.ID),
		zap.Uint("job_id", p.job.ID))

	p.estimate.Approved = true
	p.estimate.ApprovedAt = &now
	return c.JSON(http.StatusOK, p.view())
}

// PDF renders the job's latest estimate. Routed behind the PDF export feature.
func (h *EstimateHandler) PDF(c echo.Context) error {
	log := logger.FromEcho(c)
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c, log)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid job ID"})
	}

	ctx := c.Request().Context()
	job, err := loadJob(ctx, h.db, claims.WorkshopID, id)
	if err != nil {
		return jobLookupError(c, log, err)
	}

	var estimate model.Estimate
	if err := h.db.WithContext(ctx).Where("job_id = ?", job.ID).Order("id DESC").First(&estimate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "job has no estimate"})
		}
		log.Error("Failed to load estimate", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load estimate"})
	}

	var workshop model.Workshop
	if err := h.db.WithContext(ctx).First(&workshop, job.WorkshopID).Error; err != nil {
		log.Error("Failed to load workshop", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load workshop"})
	}

	out, err := report.EstimatePDF(&report.EstimateData{
		Workshop:    workshop,
		Job:         *job,
		Estimate:    estimate,
		ApprovalURL: h.approvalURL(estimate.Token),
		GeneratedAt: time.Now(),
	})
	if err != nil {
		log.Error("Failed to render estimate PDF", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to render PDF"})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="estimate-%d.pdf"`, estimate.ID))
	return c.Blob(http.StatusOK, "application/pdf", out)
}

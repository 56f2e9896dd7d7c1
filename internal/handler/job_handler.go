package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jhon-henao13/Fixly/internal/entitlement"
	"github.com/jhon-henao13/Fixly/internal/model"
	"github.com/jhon-henao13/Fixly/internal/notify"
	"github.com/jhon-henao13/Fixly/internal/usage"
	"github.com/jhon-henao13/Fixly/pkg/logger"
	"github.com/jhon-henao13/Fixly/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobHandler manages repair jobs and their photos
type JobHandler struct {
	db            *gorm.DB
	enforcer      *entitlement.Enforcer
	notifier      Notifier
	notifyTimeout time.Duration
}

// NewJobHandler creates a JobHandler
func NewJobHandler(db *gorm.DB, enforcer *entitlement.Enforcer, notifier Notifier, notifyTimeout time.Duration) *JobHandler {
	if notifyTimeout <= 0 {
		notifyTimeout = 10 * time.Second
	}
	return &JobHandler{db: db, enforcer: enforcer, notifier: notifier, notifyTimeout: notifyTimeout}
}

// loadJob fetches a job owned by workshopID
func loadJob(ctx context.Context, db *gorm.DB, workshopID, jobID uint) (*model.Job, error) {
	var job model.Job
	err := db.WithContext(ctx).Where("id = ? AND workshop_id = ?", jobID, workshopID).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func jobLookupError(c echo.Context, log *zap.Logger, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "job not found"})
	}
	log.Error("Failed to load job", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load job"})
}

// Create logs a new job, subject to the plan's monthly job limit
func (h *JobHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c, log)
	}

	var req struct {
		ClientName  string `json:"client_name"`
		ClientPhone string `json:"client_phone"`
		ClientEmail string `json:"client_email"`
		Item        string `json:"item"`
		Problem     string `json:"problem"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse job creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if strings.TrimSpace(req.ClientName) == "" || strings.TrimSpace(req.Item) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "client_name and item are required"})
	}

	ctx := c.Request().Context()
	plan, err := h.enforcer.Plan(ctx, claims.WorkshopID)
	if err != nil {
		log.Error("Failed to resolve plan", zap.Uint("workshop_id", claims.WorkshopID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "job creation failed"})
	}

	job := model.Job{
		WorkshopID:  claims.WorkshopID,
		ClientName:  strings.TrimSpace(req.ClientName),
		ClientPhone: strings.TrimSpace(req.ClientPhone),
		ClientEmail: strings.TrimSpace(req.ClientEmail),
		Item:        strings.TrimSpace(req.Item),
		Problem:     req.Problem,
		Status:      model.JobStatusReceived,
	}

	defer prometheus.TrackDBOperation("create_job")(time.Now())
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Creates for one workshop queue on its row, so the monthly count
		// below cannot be raced past the limit.
		var workshop model.Workshop
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&workshop, claims.WorkshopID).Error; err != nil {
			return err
		}
		if err := h.enforcer.CheckJobCreateFor(ctx, claims.WorkshopID, plan, usage.NewCounter(tx)); err != nil {
			return err
		}
		return tx.Create(&job).Error
	})
	if err != nil {
		if errors.Is(err, entitlement.ErrLimitExceeded) {
			return entitlementError(c, log, err)
		}
		log.Error("Failed to create job", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "job creation failed"})
	}

	log.Info("Job created",
		zap.Uint("id", job.ID),
		zap.Uint("workshop_id", job.WorkshopID))

	return c.JSON(http.StatusCreated, job)
}

// List returns the workshop's jobs, newest first
func (h *JobHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c, log)
	}

	query := h.db.WithContext(c.Request().Context()).Where("workshop_id = ?", claims.WorkshopID)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	jobs := []model.Job{}
	if err := query.Order("created_at DESC").Order("id DESC").Find(&jobs).Error; err != nil {
		log.Error("Failed to retrieve jobs", zap.Uint("workshop_id", claims.WorkshopID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve jobs"})
	}

	return c.JSON(http.StatusOK, jobs)
}

// Get returns one job with its photos and estimates
func (h *JobHandler) Get(c echo.Context) error {
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
	var job model.Job
	err := h.db.WithContext(ctx).Preload("Photos").
		Where("id = ? AND workshop_id = ?", id, claims.WorkshopID).
		First(&job).Error
	if err != nil {
		return jobLookupError(c, log, err)
	}

	var estimates []model.Estimate
	if err := h.db.WithContext(ctx).Where("job_id = ?", job.ID).Order("id DESC").Find(&estimates).Error; err != nil {
		log.Error("Failed to retrieve estimates", zap.Uint("job_id", job.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve estimates"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"job":       job,
		"estimates": estimates,
	})
}

// UpdateStatus moves a job to a new status and tells the client when the
// plan allows it.
func (h *JobHandler) UpdateStatus(c echo.Context) error {
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
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse status update", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.Status = strings.ToUpper(strings.TrimSpace(req.Status))
	if !model.ValidJobStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":    "invalid status",
			"statuses": model.JobStatuses,
		})
	}

	ctx := c.Request().Context()
	job, err := loadJob(ctx, h.db, claims.WorkshopID, id)
	if err != nil {
		return jobLookupError(c, log, err)
	}

	previous := job.Status
	if err := h.db.WithContext(ctx).Model(job).Update("status", req.Status).Error; err != nil {
		log.Error("Failed to update job status", zap.Uint("job_id", job.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "status update failed"})
	}
	job.Status = req.Status

	log.Info("Job status updated",
		zap.Uint("job_id", job.ID),
		zap.String("from", previous),
		zap.String("to", job.Status))

	if previous != job.Status {
		h.notifyStatus(ctx, log, job)
	}

	return c.JSON(http.StatusOK, job)
}

// notifyStatus tells the client about a status change by email and SMS as the
// plan allows. Failures are logged only.
func (h *JobHandler) notifyStatus(ctx context.Context, log *zap.Logger, job *model.Job) {
	if h.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.notifyTimeout)
	defer cancel()

	var workshop model.Workshop
	if err := h.db.WithContext(ctx).First(&workshop, job.WorkshopID).Error; err != nil {
		log.Warn("Failed to load workshop for notification", zap.Error(err))
		return
	}
	data := map[string]any{
		"ClientName":   job.ClientName,
		"Item":         job.Item,
		"Status":       job.Status,
		"WorkshopName": workshop.Name,
	}

	if ok, err := h.enforcer.FeatureEnabled(ctx, job.WorkshopID, entitlement.FeatureClientEmail); err == nil && ok && job.ClientEmail != "" {
		if err := h.notifier.Notify(ctx, job.ClientEmail, notify.TemplateJobStatusChanged, data); err != nil {
			log.Warn("Client email failed", zap.Uint("job_id", job.ID), zap.Error(err))
		}
	}
	if ok, err := h.enforcer.FeatureEnabled(ctx, job.WorkshopID, entitlement.FeatureSMS); err == nil && ok && job.ClientPhone != "" {
		if err := h.notifier.NotifySMS(ctx, job.ClientPhone, notify.TemplateJobStatusChanged, data); err != nil {
			log.Warn("Client SMS failed", zap.Uint("job_id", job.ID), zap.Error(err))
		}
	}
}

// AddPhoto attaches a photo URL to a job
func (h *JobHandler) AddPhoto(c echo.Context) error {
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
		URL string `json:"url"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "url is required"})
	}

	ctx := c.Request().Context()
	job, err := loadJob(ctx, h.db, claims.WorkshopID, id)
	if err != nil {
		return jobLookupError(c, log, err)
	}

	photo := model.JobPhoto{JobID: job.ID, URL: strings.TrimSpace(req.URL)}
	if err := h.db.WithContext(ctx).Create(&photo).Error; err != nil {
		log.Error("Failed to save photo", zap.Uint("job_id", job.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save photo"})
	}

	return c.JSON(http.StatusCreated, photo)
}

// ListPhotos returns a job's photos
func (h *JobHandler) ListPhotos(c echo.Context) error {
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

	var photos []model.JobPhoto
	if err := h.db.WithContext(ctx).Where("job_id = ?", job.ID).Order("id").Find(&photos).Error; err != nil {
		log.Error("Failed to retrieve photos", zap.Uint("job_id", job.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve photos"})
	}

	return c.JSON(http.StatusOK, photos)
}

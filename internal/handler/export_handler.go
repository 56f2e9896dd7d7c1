package handler

import (
	"net/http"
	"time"

	"github.com/jhon-henao13/Fixly/internal/model"
	"github.com/jhon-henao13/Fixly/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ExportHandler serves machine-readable exports. Routed behind API access.
type ExportHandler struct {
	db *gorm.DB
}

// NewExportHandler creates an ExportHandler
func NewExportHandler(db *gorm.DB) *ExportHandler {
	return &ExportHandler{db: db}
}

// Jobs exports the workshop's jobs with photos. ?since=RFC3339 narrows it.
func (h *ExportHandler) Jobs(c echo.Context) error {
	log := logger.FromEcho(c)
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c, log)
	}

	query := h.db.WithContext(c.Request().Context()).
		Preload("Photos").
		Where("workshop_id = ?", claims.WorkshopID)
	if since := c.QueryParam("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "since must be RFC3339"})
		}
		query = query.Where("created_at >= ?", t.UTC())
	}

	var jobs []model.Job
	if err := query.Order("id").Find(&jobs).Error; err != nil {
		log.Error("Failed to export jobs", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "export failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"workshop_id": claims.WorkshopID,
		"count":       len(jobs),
		"jobs":        jobs,
	})
}

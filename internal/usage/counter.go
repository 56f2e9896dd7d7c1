// Package usage counts a workshop's consumption of plan-capped resources.
package usage

import (
	"context"
	"time"

	"github.com/jhon-henao13/Fixly/internal/model"
	appmetrics "github.com/jhon-henao13/Fixly/prometheus"
	"gorm.io/gorm"
)

// Counter answers usage queries from the database
type Counter struct {
	db *gorm.DB
}

// NewCounter creates a Counter
func NewCounter(db *gorm.DB) *Counter {
	return &Counter{db: db}
}

// MonthWindow returns the UTC calendar month containing now as [start, end)
func MonthWindow(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// JobsThisMonth counts the workshop's jobs created in the month containing now
func (c *Counter) JobsThisMonth(ctx context.Context, workshopID uint, now time.Time) (int64, error) {
	defer appmetrics.TrackDBOperation("count_jobs_month")(time.Now())

	start, end := MonthWindow(now)
	var count int64
	err := c.db.WithContext(ctx).
		Model(&model.Job{}).
		Where("workshop_id = ? AND created_at >= ? AND created_at < ?", workshopID, start, end).
		Count(&count).Error
	return count, err
}

// Users counts the workshop's users
func (c *Counter) Users(ctx context.Context, workshopID uint) (int64, error) {
	defer appmetrics.TrackDBOperation("count_users")(time.Now())

	var count int64
	err := c.db.WithContext(ctx).
		Model(&model.User{}).
		Where("workshop_id = ?", workshopID).
		Count(&count).Error
	return count, err
}

// Package janitor deletes stale pending checkouts.
package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/jhon-henao13/Fixly/internal/model"
	appmetrics "github.com/jhon-henao13/Fixly/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultRetention is how long a pending checkout row is kept after creation
const DefaultRetention = 24 * time.Hour

// Janitor sweeps pending checkouts older than its retention
type Janitor struct {
	db        *gorm.DB
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a Janitor
func New(db *gorm.DB, retention, interval time.Duration, logger *zap.Logger) *Janitor {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Janitor{
		db:        db,
		retention: retention,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
}

// Sweep deletes every pending checkout created before now minus the
// retention, used or not, and returns how many rows went.
func (j *Janitor) Sweep(ctx context.Context) (int64, error) {
	defer appmetrics.TrackDBOperation("sweep_checkouts")(time.Now())

	cutoff := j.now().UTC().Add(-j.retention)
	res := j.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.PendingCheckout{})
	if res.Error != nil {
		return 0, fmt.Errorf("sweep pending checkouts: %w", res.Error)
	}

	appmetrics.RecordTokensSwept(res.RowsAffected)
	if res.RowsAffected > 0 {
		j.logger.Info("Swept pending checkouts",
			zap.Int64("deleted", res.RowsAffected),
			zap.Time("cutoff", cutoff),
		)
	}
	return res.RowsAffected, nil
}

// Run sweeps once immediately and then every interval until ctx is done
func (j *Janitor) Run(ctx context.Context) error {
	j.logger.Info("Token janitor started",
		zap.Duration("interval", j.interval),
		zap.Duration("retention", j.retention),
	)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		if _, err := j.Sweep(ctx); err != nil && ctx.Err() == nil {
			j.logger.Error("Token sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			j.logger.Info("Token janitor stopped")
			return nil
		case <-ticker.C:
		}
	}
}

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPendingCheckoutValidity(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	fresh := &PendingCheckout{CreatedAt: now.Add(-59 * time.Minute)}
	assert.True(t, fresh.Valid(now, time.Hour))

	stale := &PendingCheckout{CreatedAt: now.Add(-time.Hour)}
	assert.True(t, stale.Expired(now, time.Hour))
	assert.False(t, stale.Valid(now, time.Hour))

	used := &PendingCheckout{CreatedAt: now, Used: true}
	assert.False(t, used.Valid(now, time.Hour))
}

func TestValidJobStatus(t *testing.T) {
	assert.True(t, ValidJobStatus(JobStatusReady))
	assert.False(t, ValidJobStatus("ready"))
}

package model

import (
	"time"
)

// PendingCheckout is a single-use claim check correlating a workshop's
// upgrade intent with an external checkout session.
type PendingCheckout struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	WorkshopID     uint      `json:"workshop_id" gorm:"index;not null"`
	Plan           string    `json:"plan" gorm:"type:varchar(20);not null"`
	ExternalPlanID string    `json:"external_plan_id" gorm:"type:varchar(191);not null"`
	Token          string    `json:"-" gorm:"type:varchar(64);uniqueIndex;not null"`
	Used           bool      `json:"used" gorm:"not null;default:false"`
	OrderID        *string   `json:"order_id,omitempty" gorm:"type:varchar(191)"`
	CreatedAt      time.Time `json:"created_at" gorm:"index;not null"`
}

// Expired reports whether the checkout is older than ttl at now
func (p *PendingCheckout) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(p.CreatedAt) >= ttl
}

// Valid reports whether the checkout can still be consumed at now
func (p *PendingCheckout) Valid(now time.Time, ttl time.Duration) bool {
	return !p.Used && !p.Expired(now, ttl)
}

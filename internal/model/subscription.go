package model

import (
	"time"
)

// Subscription is the current billing state of a workshop. A workshop without
// a row is on the free plan.
type Subscription struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	WorkshopID      uint      `json:"workshop_id" gorm:"uniqueIndex;not null"`
	Plan            string    `json:"plan" gorm:"type:varchar(20);not null;default:'free'"`
	ExternalOrderID *string   `json:"external_order_id,omitempty" gorm:"type:varchar(191)"`
	Active          bool      `json:"active" gorm:"default:false"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estimate is the quote sent to a client for a job. Token is the public
// approval link identifier.
type Estimate struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	JobID       uint            `json:"job_id" gorm:"index;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Labor       decimal.Decimal `json:"labor" gorm:"type:numeric(12,2)"`
	Parts       decimal.Decimal `json:"parts" gorm:"type:numeric(12,2)"`
	Total       decimal.Decimal `json:"total" gorm:"type:numeric(12,2)"`
	Approved    bool            `json:"approved" gorm:"default:false"`
	ApprovedAt  *time.Time      `json:"approved_at,omitempty"`
	Token       string          `json:"token" gorm:"type:varchar(64);uniqueIndex"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

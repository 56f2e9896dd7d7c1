package model

import (
	"time"
)

// Workshop is a registered repair shop. It is the unit of billing and data isolation.
type Workshop struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(120)"`
	Email     string    `json:"email" gorm:"type:varchar(120);uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

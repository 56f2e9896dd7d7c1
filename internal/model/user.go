package model

import (
	"time"
)

// User represents a workshop member who can sign in
type User struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	WorkshopID uint      `json:"workshop_id" gorm:"index;not null"`
	Email      string    `json:"email" gorm:"type:varchar(120);uniqueIndex"`
	Password   string    `json:"-" gorm:"type:varchar(255)"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relations
	Workshop Workshop `json:"-" gorm:"foreignKey:WorkshopID"`
}

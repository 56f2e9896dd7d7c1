package model

import (
	"time"
)

// Job statuses a workshop moves a repair through
const (
	JobStatusReceived   = "RECEIVED"
	JobStatusDiagnosing = "DIAGNOSING"
	JobStatusWaiting    = "WAITING_APPROVAL"
	JobStatusRepairing  = "REPAIRING"
	JobStatusReady      = "READY"
	JobStatusDelivered  = "DELIVERED"
)

// JobStatuses lists every accepted job status
var JobStatuses = []string{
	JobStatusReceived,
	JobStatusDiagnosing,
	JobStatusWaiting,
	JobStatusRepairing,
	JobStatusReady,
	JobStatusDelivered,
}

// ValidJobStatus reports whether status is one of JobStatuses
func ValidJobStatus(status string) bool {
	for _, s := range JobStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Job is a client repair logged by a workshop
type Job struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	WorkshopID  uint      `json:"workshop_id" gorm:"index;not null"`
	ClientName  string    `json:"client_name" gorm:"type:varchar(120)"`
	ClientPhone string    `json:"client_phone" gorm:"type:varchar(50)"`
	ClientEmail string    `json:"client_email" gorm:"type:varchar(120)"`
	Item        string    `json:"item" gorm:"type:varchar(120)"`
	Problem     string    `json:"problem" gorm:"type:text"`
	Status      string    `json:"status" gorm:"type:varchar(50);default:'RECEIVED'"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Photos []JobPhoto `json:"photos,omitempty" gorm:"foreignKey:JobID"`
}

// JobPhoto is a picture attached to a job
type JobPhoto struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	JobID     uint      `json:"job_id" gorm:"index;not null"`
	URL       string    `json:"url" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at"`
}

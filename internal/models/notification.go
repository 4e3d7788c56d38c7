package models

import "time"

// Reference kinds a notification can point at.
const (
	ReferenceReview  = "review"
	ReferenceComment = "comment"
	ReferenceReport  = "report"
)

// Notification represents a user notification (PostgreSQL). Created once,
// mutated only to flip IsRead, deleted independently of what it references.
type Notification struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	RecipientID    string    `json:"recipient_id" gorm:"size:24;index"` // user document id (hex)
	Message        string    `json:"message" gorm:"size:500"`
	ReferenceID    string    `json:"reference_id" gorm:"size:24"`
	ReferenceModel string    `json:"reference_model" gorm:"size:20"` // review, comment, report
	IsRead         bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
}

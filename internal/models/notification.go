package models

import "time"

// Notification is a transient operator-facing message persisted for the
// notification feed. Batch summaries and non-fatal warnings land here.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserUID   string    `gorm:"size:128;not null;index" json:"user_uid"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Body      string    `gorm:"type:text" json:"body"`
	Level     string    `gorm:"size:16;not null;default:info" json:"level"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

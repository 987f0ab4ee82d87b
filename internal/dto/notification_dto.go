package dto

import "time"

// NotificationCreateRequest publishes a notification to a user's feed.
type NotificationCreateRequest struct {
	UserUID string `json:"user_uid" validate:"required,max=128"`
	Title   string `json:"title" validate:"required,max=255"`
	Body    string `json:"body" validate:"omitempty,max=4096"`
	Level   string `json:"level" validate:"omitempty,oneof=info warning error"`
}

// NotificationResponse is the public view of a notification.
type NotificationResponse struct {
	ID        uint      `json:"id"`
	UserUID   string    `json:"user_uid"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Level     string    `json:"level"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

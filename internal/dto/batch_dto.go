package dto

import "time"

// StudentBatchRequest configures a student account generation run.
type StudentBatchRequest struct {
	Grade   string `json:"grade" validate:"required,max=16"`
	Section string `json:"section" validate:"required,max=16"`
	Count   int    `json:"count" validate:"required,min=1,max=100"`
}

// TeacherBatchRequest configures a teacher account generation run.
type TeacherBatchRequest struct {
	Count int `json:"count" validate:"required,min=1,max=100"`
}

// CleanupRequest gates the destructive mass-delete workflow behind an explicit
// confirmation field.
type CleanupRequest struct {
	Confirm bool `json:"confirm" validate:"required"`
}

// BatchJobResponse is a snapshot of the single in-flight (or last finished)
// batch job.
type BatchJobResponse struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	Status     string     `json:"status"`
	Requested  int        `json:"requested"`
	Processed  int        `json:"processed"`
	Succeeded  int        `json:"succeeded"`
	Progress   float64    `json:"progress"`
	Log        []string   `json:"log"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// CleanupSummary reports the outcome of a mass-delete run.
type CleanupSummary struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
}

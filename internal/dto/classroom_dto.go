package dto

import "time"

// ClassroomCreateRequest registers a new classroom.
type ClassroomCreateRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Grade   string `json:"grade" validate:"required,max=16"`
	Section string `json:"section" validate:"required,max=16"`
}

// ClassroomResponse is the public view of a classroom.
type ClassroomResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Grade     string    `json:"grade"`
	Section   string    `json:"section"`
	CreatedAt time.Time `json:"created_at"`
}

// MaterialShareRequest adjusts which classrooms can see a material.
type MaterialShareRequest struct {
	ClassroomIDs []uint `json:"classroom_ids" validate:"required,min=1,max=50"`
}

// MaterialResponse is the public view of an uploaded teaching material.
type MaterialResponse struct {
	ID           uint      `json:"id"`
	UploaderUID  string    `json:"uploader_uid"`
	FileName     string    `json:"file_name"`
	FileURL      string    `json:"file_url"`
	MimeType     string    `json:"mime_type"`
	SizeBytes    int64     `json:"size_bytes"`
	ClassroomIDs []uint    `json:"classroom_ids"`
	CreatedAt    time.Time `json:"created_at"`
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

// Classroom groups students and teachers for material sharing.
type Classroom struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Grade     string    `gorm:"size:16;not null" json:"grade"`
	Section   string    `gorm:"size:16;not null" json:"section"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Material is an uploaded teaching resource shared with one or more classrooms.
type Material struct {
	ID           uint                      `gorm:"primaryKey" json:"id"`
	UploaderUID  string                    `gorm:"size:128;not null;index" json:"uploader_uid"`
	FileName     string                    `gorm:"size:255;not null" json:"file_name"`
	FileURL      string                    `gorm:"size:1024;not null" json:"file_url"`
	MimeType     string                    `gorm:"size:128;not null" json:"mime_type"`
	SizeBytes    int64                     `gorm:"not null" json:"size_bytes"`
	Checksum     string                    `gorm:"size:128;index" json:"checksum"`
	ClassroomIDs datatypes.JSONSlice[uint] `json:"classroom_ids"`
	CreatedAt    time.Time                 `json:"created_at"`
}

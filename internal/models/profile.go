package models

import (
	"time"

	"gorm.io/datatypes"
)

// Role identifies the profile collection a user belongs to.
type Role string

const (
	// RoleTeacher marks teacher profiles.
	RoleTeacher Role = "teacher"
	// RoleStudent marks student profiles.
	RoleStudent Role = "student"
	// RoleAdmin marks operator accounts with access to the admin console.
	RoleAdmin Role = "admin"
)

// Student is the role-specific profile for a learner. Profiles created by the
// bulk generation workflow carry DevGenerated=true so the cleanup workflow can
// tell them apart from organic signups.
type Student struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AuthUID      string    `gorm:"size:128;uniqueIndex;not null" json:"auth_uid"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Grade        string    `gorm:"size:16;not null;index:idx_students_classroom" json:"grade"`
	Section      string    `gorm:"size:16;not null;index:idx_students_classroom" json:"section"`
	RollNumber   string    `gorm:"size:16;not null" json:"roll_number"`
	DevGenerated bool      `gorm:"not null;default:false;index" json:"dev_generated"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Teacher is the role-specific profile for an instructor. Grade and Section
// are optional classroom assignments; Classrooms lists the classroom ids the
// teacher belongs to for material sharing.
type Teacher struct {
	ID           uint                      `gorm:"primaryKey" json:"id"`
	AuthUID      string                    `gorm:"size:128;uniqueIndex;not null" json:"auth_uid"`
	Name         string                    `gorm:"size:255;not null" json:"name"`
	Email        string                    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Grade        *string                   `gorm:"size:16" json:"grade,omitempty"`
	Section      *string                   `gorm:"size:16" json:"section,omitempty"`
	Classrooms   datatypes.JSONSlice[uint] `json:"classrooms"`
	DevGenerated bool                      `gorm:"not null;default:false;index" json:"dev_generated"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

package dto

import "time"

// SignUpRequest registers a new user with the identity provider and creates
// the matching role profile.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,max=255"`
	Role     string `json:"role" validate:"required,oneof=teacher student"`
	Grade    string `json:"grade" validate:"omitempty,max=16"`
	Section  string `json:"section" validate:"omitempty,max=16"`
}

// LoginRequest authenticates an existing user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries the issued token and the role-tagged profile.
type AuthResponse struct {
	Token   string      `json:"token"`
	Role    string      `json:"role"`
	Profile interface{} `json:"profile"`
}

// StudentProfileResponse is the student view of a profile record.
type StudentProfileResponse struct {
	ID           uint      `json:"id"`
	AuthUID      string    `json:"auth_uid"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Grade        string    `json:"grade"`
	Section      string    `json:"section"`
	RollNumber   string    `json:"roll_number"`
	DevGenerated bool      `json:"dev_generated"`
	CreatedAt    time.Time `json:"created_at"`
}

// TeacherProfileResponse is the teacher view of a profile record.
type TeacherProfileResponse struct {
	ID           uint      `json:"id"`
	AuthUID      string    `json:"auth_uid"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Grade        *string   `json:"grade,omitempty"`
	Section      *string   `json:"section,omitempty"`
	Classrooms   []uint    `json:"classrooms"`
	DevGenerated bool      `json:"dev_generated"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProfileUpdateRequest carries optional profile edits.
type ProfileUpdateRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=255"`
	Grade   *string `json:"grade" validate:"omitempty,max=16"`
	Section *string `json:"section" validate:"omitempty,max=16"`
}

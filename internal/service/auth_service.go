package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/sahayak-labs/sahayak-api/internal/dto"
	"github.com/sahayak-labs/sahayak-api/internal/identity"
	"github.com/sahayak-labs/sahayak-api/internal/models"
	"github.com/sahayak-labs/sahayak-api/internal/repository"
)

var (
	// ErrInvalidLogin indicates the identity provider rejected the credentials.
	ErrInvalidLogin = errors.New("invalid email or password")
	// ErrEmailTaken indicates an account already exists for the email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrProfileNotFound indicates no role profile matches the identity.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrClassroomRequired indicates a student signup without grade/section.
	ErrClassroomRequired = errors.New("grade and section are required for students")
)

// AuthService handles signup, login and profile access. The identity provider
// owns credentials; this service owns the role-tagged profile and the API
// token.
type AuthService interface {
	SignUp(ctx context.Context, req dto.SignUpRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error)
	Profile(ctx context.Context, uid string) (string, interface{}, error)
	UpdateProfile(ctx context.Context, uid string, req dto.ProfileUpdateRequest) (interface{}, error)
}

type authService struct {
	provider  identity.Provider
	students  repository.StudentRepository
	teachers  repository.TeacherRepository
	allocator SequenceAllocator
	validator *validator.Validate
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

// NewAuthService constructs the auth service.
func NewAuthService(
	provider identity.Provider,
	students repository.StudentRepository,
	teachers repository.TeacherRepository,
	allocator SequenceAllocator,
	validate *validator.Validate,
	jwtSecret string,
	tokenTTL time.Duration,
	logger zerolog.Logger,
) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &authService{
		provider:  provider,
		students:  students,
		teachers:  teachers,
		allocator: allocator,
		validator: validate,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) SignUp(ctx context.Context, req dto.SignUpRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	role := models.Role(strings.ToLower(req.Role))
	grade := strings.TrimSpace(req.Grade)
	section := strings.TrimSpace(req.Section)
	if role == models.RoleStudent && (grade == "" || section == "") {
		return dto.AuthResponse{}, ErrClassroomRequired
	}

	session := s.provider.Scoped()
	defer session.Close()

	account, err := session.SignUp(ctx, strings.ToLower(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrEmailExists) {
			return dto.AuthResponse{}, ErrEmailTaken
		}
		return dto.AuthResponse{}, fmt.Errorf("create identity: %w", err)
	}

	var profile interface{}
	switch role {
	case models.RoleStudent:
		roll, err := s.allocator.NextStudentNumber(ctx, grade, section)
		if err != nil {
			return dto.AuthResponse{}, err
		}
		student := models.Student{
			AuthUID:    account.UID,
			Name:       strings.TrimSpace(req.Name),
			Email:      strings.ToLower(req.Email),
			Grade:      grade,
			Section:    section,
			RollNumber: strconv.Itoa(roll),
		}
		if err := s.students.Create(ctx, &student); err != nil {
			return dto.AuthResponse{}, fmt.Errorf("create student profile: %w", err)
		}
		profile = newStudentProfileResponse(student)
	default:
		teacher := models.Teacher{
			AuthUID: account.UID,
			Name:    strings.TrimSpace(req.Name),
			Email:   strings.ToLower(req.Email),
		}
		if grade != "" {
			teacher.Grade = &grade
		}
		if section != "" {
			teacher.Section = &section
		}
		if err := s.teachers.Create(ctx, &teacher); err != nil {
			return dto.AuthResponse{}, fmt.Errorf("create teacher profile: %w", err)
		}
		profile = newTeacherProfileResponse(teacher)
	}

	token, err := s.issueToken(account.UID, string(role))
	if err != nil {
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Str("uid", account.UID).Str("role", string(role)).Msg("user signed up")
	return dto.AuthResponse{Token: token, Role: string(role), Profile: profile}, nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	session := s.provider.Scoped()
	defer session.Close()

	account, err := session.SignIn(ctx, strings.ToLower(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) || errors.Is(err, identity.ErrAccountDisabled) {
			return dto.AuthResponse{}, ErrInvalidLogin
		}
		return dto.AuthResponse{}, fmt.Errorf("sign in: %w", err)
	}

	role, profile, err := s.Profile(ctx, account.UID)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	token, err := s.issueToken(account.UID, role)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	return dto.AuthResponse{Token: token, Role: role, Profile: profile}, nil
}

// Profile resolves the role-tagged profile for an identity. Each role has its
// own collection; the student store is consulted first.
func (s *authService) Profile(ctx context.Context, uid string) (string, interface{}, error) {
	student, err := s.students.GetByAuthUID(ctx, uid)
	if err == nil {
		return string(models.RoleStudent), newStudentProfileResponse(student), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, err
	}

	teacher, err := s.teachers.GetByAuthUID(ctx, uid)
	if err == nil {
		return string(models.RoleTeacher), newTeacherProfileResponse(teacher), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, err
	}

	return "", nil, ErrProfileNotFound
}

func (s *authService) UpdateProfile(ctx context.Context, uid string, req dto.ProfileUpdateRequest) (interface{}, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Grade != nil {
		updates["grade"] = strings.TrimSpace(*req.Grade)
	}
	if req.Section != nil {
		updates["section"] = strings.TrimSpace(*req.Section)
	}

	student, err := s.students.GetByAuthUID(ctx, uid)
	if err == nil {
		if len(updates) == 0 {
			return newStudentProfileResponse(student), nil
		}
		updated, err := s.students.Update(ctx, student.ID, updates)
		if err != nil {
			return nil, err
		}
		return newStudentProfileResponse(updated), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	teacher, err := s.teachers.GetByAuthUID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	if len(updates) == 0 {
		return newTeacherProfileResponse(teacher), nil
	}
	updated, err := s.teachers.Update(ctx, teacher.ID, updates)
	if err != nil {
		return nil, err
	}
	return newTeacherProfileResponse(updated), nil
}

func (s *authService) issueToken(uid, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  uid,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func newStudentProfileResponse(student models.Student) dto.StudentProfileResponse {
	return dto.StudentProfileResponse{
		ID:           student.ID,
		AuthUID:      student.AuthUID,
		Name:         student.Name,
		Email:        student.Email,
		Grade:        student.Grade,
		Section:      student.Section,
		RollNumber:   student.RollNumber,
		DevGenerated: student.DevGenerated,
		CreatedAt:    student.CreatedAt,
	}
}

func newTeacherProfileResponse(teacher models.Teacher) dto.TeacherProfileResponse {
	return dto.TeacherProfileResponse{
		ID:           teacher.ID,
		AuthUID:      teacher.AuthUID,
		Name:         teacher.Name,
		Email:        teacher.Email,
		Grade:        teacher.Grade,
		Section:      teacher.Section,
		Classrooms:   append([]uint(nil), teacher.Classrooms...),
		DevGenerated: teacher.DevGenerated,
		CreatedAt:    teacher.CreatedAt,
	}
}

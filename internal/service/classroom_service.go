package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sahayak-labs/sahayak-api/internal/dto"
	"github.com/sahayak-labs/sahayak-api/internal/models"
	"github.com/sahayak-labs/sahayak-api/internal/repository"
)

var (
	// ErrClassroomNotFound indicates the classroom does not exist.
	ErrClassroomNotFound = errors.New("classroom not found")
	// ErrClassroomExists indicates a classroom already covers the grade/section.
	ErrClassroomExists = errors.New("classroom already exists for grade and section")
)

// ClassroomService manages classrooms and teacher membership.
type ClassroomService interface {
	Create(ctx context.Context, req dto.ClassroomCreateRequest) (dto.ClassroomResponse, error)
	List(ctx context.Context) ([]dto.ClassroomResponse, error)
	Join(ctx context.Context, teacherUID string, classroomID uint) (dto.TeacherProfileResponse, error)
}

type classroomService struct {
	classrooms repository.ClassroomRepository
	teachers   repository.TeacherRepository
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewClassroomService constructs the classroom service.
func NewClassroomService(classrooms repository.ClassroomRepository, teachers repository.TeacherRepository, validate *validator.Validate, logger zerolog.Logger) ClassroomService {
	return &classroomService{
		classrooms: classrooms,
		teachers:   teachers,
		validator:  validate,
		logger:     logger.With().Str("component", "classroom_service").Logger(),
	}
}

func (s *classroomService) Create(ctx context.Context, req dto.ClassroomCreateRequest) (dto.ClassroomResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ClassroomResponse{}, err
	}

	grade := strings.ToLower(strings.TrimSpace(req.Grade))
	section := strings.ToLower(strings.TrimSpace(req.Section))

	if _, err := s.classrooms.FindByGradeSection(ctx, grade, section); err == nil {
		return dto.ClassroomResponse{}, ErrClassroomExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ClassroomResponse{}, err
	}

	classroom := models.Classroom{
		Name:    strings.TrimSpace(req.Name),
		Grade:   grade,
		Section: section,
	}
	if err := s.classrooms.Create(ctx, &classroom); err != nil {
		return dto.ClassroomResponse{}, err
	}

	s.logger.Info().Uint("classroom_id", classroom.ID).Str("grade", grade).Str("section", section).Msg("classroom created")
	return newClassroomResponse(classroom), nil
}

func (s *classroomService) List(ctx context.Context) ([]dto.ClassroomResponse, error) {
	classrooms, err := s.classrooms.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ClassroomResponse, 0, len(classrooms))
	for _, classroom := range classrooms {
		responses = append(responses, newClassroomResponse(classroom))
	}
	return responses, nil
}

// Join adds a classroom to the teacher's membership set. Joining twice is a
// no-op.
func (s *classroomService) Join(ctx context.Context, teacherUID string, classroomID uint) (dto.TeacherProfileResponse, error) {
	if _, err := s.classrooms.GetByID(ctx, classroomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TeacherProfileResponse{}, ErrClassroomNotFound
		}
		return dto.TeacherProfileResponse{}, err
	}

	teacher, err := s.teachers.GetByAuthUID(ctx, teacherUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TeacherProfileResponse{}, ErrProfileNotFound
		}
		return dto.TeacherProfileResponse{}, err
	}

	for _, id := range teacher.Classrooms {
		if id == classroomID {
			return newTeacherProfileResponse(teacher), nil
		}
	}

	memberships := append(append(datatypes.JSONSlice[uint]{}, teacher.Classrooms...), classroomID)
	updated, err := s.teachers.Update(ctx, teacher.ID, map[string]interface{}{"classrooms": memberships})
	if err != nil {
		return dto.TeacherProfileResponse{}, err
	}

	return newTeacherProfileResponse(updated), nil
}

func newClassroomResponse(classroom models.Classroom) dto.ClassroomResponse {
	return dto.ClassroomResponse{
		ID:        classroom.ID,
		Name:      classroom.Name,
		Grade:     classroom.Grade,
		Section:   classroom.Section,
		CreatedAt: classroom.CreatedAt,
	}
}

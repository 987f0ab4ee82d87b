package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sahayak-labs/sahayak-api/internal/models"
)

// ClassroomRepository exposes persistence helpers for classrooms.
type ClassroomRepository interface {
	Create(ctx context.Context, classroom *models.Classroom) error
	GetByID(ctx context.Context, id uint) (models.Classroom, error)
	List(ctx context.Context) ([]models.Classroom, error)
	FindByGradeSection(ctx context.Context, grade, section string) (models.Classroom, error)
}

type classroomRepository struct {
	db *gorm.DB
}

// NewClassroomRepository constructs the classroom repository.
func NewClassroomRepository(db *gorm.DB) ClassroomRepository {
	return &classroomRepository{db: db}
}

func (r *classroomRepository) Create(ctx context.Context, classroom *models.Classroom) error {
	if err := r.db.WithContext(ctx).Create(classroom).Error; err != nil {
		return classifyStoreError(err)
	}
	return nil
}

func (r *classroomRepository) GetByID(ctx context.Context, id uint) (models.Classroom, error) {
	var classroom models.Classroom
	if err := r.db.WithContext(ctx).First(&classroom, id).Error; err != nil {
		return models.Classroom{}, classifyStoreError(err)
	}
	return classroom, nil
}

func (r *classroomRepository) List(ctx context.Context) ([]models.Classroom, error) {
	var classrooms []models.Classroom
	if err := r.db.WithContext(ctx).Order("grade ASC, section ASC").Find(&classrooms).Error; err != nil {
		return nil, classifyStoreError(err)
	}
	return classrooms, nil
}

func (r *classroomRepository) FindByGradeSection(ctx context.Context, grade, section string) (models.Classroom, error) {
	var classroom models.Classroom
	err := r.db.WithContext(ctx).
		Where("grade = ? AND section = ?", grade, section).
		First(&classroom).Error
	if err != nil {
		return models.Classroom{}, classifyStoreError(err)
	}
	return classroom, nil
}

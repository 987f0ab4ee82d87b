package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sahayak-labs/sahayak-api/internal/models"
)

// StudentRepository exposes persistence operations for student profiles.
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByAuthUID(ctx context.Context, uid string) (models.Student, error)
	ListByClassroom(ctx context.Context, grade, section string) ([]models.Student, error)
	ListDevGenerated(ctx context.Context) ([]models.Student, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Student, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs the student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	if err := r.db.WithContext(ctx).Create(student).Error; err != nil {
		return classifyStoreError(err)
	}
	return nil
}

func (r *studentRepository) GetByAuthUID(ctx context.Context, uid string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("auth_uid = ?", uid).First(&student).Error; err != nil {
		return models.Student{}, classifyStoreError(err)
	}
	return student, nil
}

func (r *studentRepository) ListByClassroom(ctx context.Context, grade, section string) ([]models.Student, error) {
	var students []models.Student
	err := r.db.WithContext(ctx).
		Where("grade = ? AND section = ?", grade, section).
		Order("created_at ASC").
		Find(&students).Error
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return students, nil
}

func (r *studentRepository) ListDevGenerated(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	err := r.db.WithContext(ctx).
		Where("dev_generated = ?", true).
		Order("id ASC").
		Find(&students).Error
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return students, nil
}

func (r *studentRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Student, error) {
	tx := r.db.WithContext(ctx).Model(&models.Student{}).Where("id = ?", id)
	if err := tx.Updates(updates).Error; err != nil {
		return models.Student{}, classifyStoreError(err)
	}

	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, classifyStoreError(err)
	}
	return student, nil
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sahayak-labs/sahayak-api/internal/models"
)

// TeacherRepository exposes persistence operations for teacher profiles.
type TeacherRepository interface {
	Create(ctx context.Context, teacher *models.Teacher) error
	GetByAuthUID(ctx context.Context, uid string) (models.Teacher, error)
	List(ctx context.Context) ([]models.Teacher, error)
	ListDevGenerated(ctx context.Context) ([]models.Teacher, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Teacher, error)
}

type teacherRepository struct {
	db *gorm.DB
}

// NewTeacherRepository constructs the teacher repository.
func NewTeacherRepository(db *gorm.DB) TeacherRepository {
	return &teacherRepository{db: db}
}

func (r *teacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if err := r.db.WithContext(ctx).Create(teacher).Error; err != nil {
		return classifyStoreError(err)
	}
	return nil
}

func (r *teacherRepository) GetByAuthUID(ctx context.Context, uid string) (models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.WithContext(ctx).Where("auth_uid = ?", uid).First(&teacher).Error; err != nil {
		return models.Teacher{}, classifyStoreError(err)
	}
	return teacher, nil
}

func (r *teacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	var teachers []models.Teacher
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&teachers).Error; err != nil {
		return nil, classifyStoreError(err)
	}
	return teachers, nil
}

func (r *teacherRepository) ListDevGenerated(ctx context.Context) ([]models.Teacher, error) {
	var teachers []models.Teacher
	err := r.db.WithContext(ctx).
		Where("dev_generated = ?", true).
		Order("id ASC").
		Find(&teachers).Error
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return teachers, nil
}

func (r *teacherRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Teacher, error) {
	tx := r.db.WithContext(ctx).Model(&models.Teacher{}).Where("id = ?", id)
	if err := tx.Updates(updates).Error; err != nil {
		return models.Teacher{}, classifyStoreError(err)
	}

	var teacher models.Teacher
	if err := r.db.WithContext(ctx).First(&teacher, id).Error; err != nil {
		return models.Teacher{}, classifyStoreError(err)
	}
	return teacher, nil
}

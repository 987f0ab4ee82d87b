package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sahayak-labs/sahayak-api/internal/models"
)

// GenerationRepository stores per-teacher content generation history.
type GenerationRepository interface {
	Create(ctx context.Context, record *models.GenerationRecord) error
	ListByTeacher(ctx context.Context, teacherID uint, limit int) ([]models.GenerationRecord, error)
}

type generationRepository struct {
	db *gorm.DB
}

// NewGenerationRepository constructs the generation history repository.
func NewGenerationRepository(db *gorm.DB) GenerationRepository {
	return &generationRepository{db: db}
}

func (r *generationRepository) Create(ctx context.Context, record *models.GenerationRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return classifyStoreError(err)
	}
	return nil
}

func (r *generationRepository) ListByTeacher(ctx context.Context, teacherID uint, limit int) ([]models.GenerationRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var records []models.GenerationRecord
	err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return records, nil
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sahayak-labs/sahayak-api/internal/models"
)

// MaterialRepository stores uploaded teaching materials and their sharing sets.
type MaterialRepository interface {
	Create(ctx context.Context, material *models.Material) error
	GetByID(ctx context.Context, id uint) (models.Material, error)
	ListByUploader(ctx context.Context, uploaderUID string) ([]models.Material, error)
	List(ctx context.Context) ([]models.Material, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Material, error)
}

type materialRepository struct {
	db *gorm.DB
}

// NewMaterialRepository constructs the material repository.
func NewMaterialRepository(db *gorm.DB) MaterialRepository {
	return &materialRepository{db: db}
}

func (r *materialRepository) Create(ctx context.Context, material *models.Material) error {
	if err := r.db.WithContext(ctx).Create(material).Error; err != nil {
		return classifyStoreError(err)
	}
	return nil
}

func (r *materialRepository) GetByID(ctx context.Context, id uint) (models.Material, error) {
	var material models.Material
	if err := r.db.WithContext(ctx).First(&material, id).Error; err != nil {
		return models.Material{}, classifyStoreError(err)
	}
	return material, nil
}

func (r *materialRepository) ListByUploader(ctx context.Context, uploaderUID string) ([]models.Material, error) {
	var materials []models.Material
	err := r.db.WithContext(ctx).
		Where("uploader_uid = ?", uploaderUID).
		Order("created_at DESC").
		Find(&materials).Error
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return materials, nil
}

func (r *materialRepository) List(ctx context.Context) ([]models.Material, error) {
	var materials []models.Material
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&materials).Error; err != nil {
		return nil, classifyStoreError(err)
	}
	return materials, nil
}

func (r *materialRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Material, error) {
	tx := r.db.WithContext(ctx).Model(&models.Material{}).Where("id = ?", id)
	if err := tx.Updates(updates).Error; err != nil {
		return models.Material{}, classifyStoreError(err)
	}

	var material models.Material
	if err := r.db.WithContext(ctx).First(&material, id).Error; err != nil {
		return models.Material{}, classifyStoreError(err)
	}
	return material, nil
}

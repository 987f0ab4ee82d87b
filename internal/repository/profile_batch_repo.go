package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sahayak-labs/sahayak-api/internal/models"
)

// ProfileBatchRepository commits the cleanup workflow's queued profile
// deletions. The whole set goes through one transaction so a run either
// removes every queued profile or none of them.
type ProfileBatchRepository interface {
	DeleteGenerated(ctx context.Context, studentIDs, teacherIDs []uint) error
}

type profileBatchRepository struct {
	db *gorm.DB
}

// NewProfileBatchRepository constructs the batched profile deleter.
func NewProfileBatchRepository(db *gorm.DB) ProfileBatchRepository {
	return &profileBatchRepository{db: db}
}

func (r *profileBatchRepository) DeleteGenerated(ctx context.Context, studentIDs, teacherIDs []uint) error {
	if len(studentIDs) == 0 && len(teacherIDs) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(studentIDs) > 0 {
			if err := tx.Where("id IN ? AND dev_generated = ?", studentIDs, true).
				Delete(&models.Student{}).Error; err != nil {
				return err
			}
		}
		if len(teacherIDs) > 0 {
			if err := tx.Where("id IN ? AND dev_generated = ?", teacherIDs, true).
				Delete(&models.Teacher{}).Error; err != nil {
				return err
			}
		}
		return nil
	})

	return classifyStoreError(err)
}

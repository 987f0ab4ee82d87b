package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/sahayak-labs/sahayak-api/internal/dto"
	"github.com/sahayak-labs/sahayak-api/internal/models"
	"github.com/sahayak-labs/sahayak-api/internal/repository"
)

// HistoryService records and serves per-teacher content generation history.
// Writes are an explicit best-effort sub-operation: the caller receives the
// error to surface as a non-fatal warning, never to fail the generation.
// Reads degrade to an empty list when the store is unavailable.
type HistoryService interface {
	Record(ctx context.Context, teacherID uint, kind models.GenerationKind, language string, params map[string]interface{}, output, assetURL string) (*uint, error)
	ListForTeacher(ctx context.Context, teacherID uint, limit int) ([]dto.GenerationHistoryItem, error)
}

type historyService struct {
	repo     repository.GenerationRepository
	redis    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewHistoryService constructs the generation history service.
func NewHistoryService(repo repository.GenerationRepository, redisClient *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) HistoryService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &historyService{
		repo:     repo,
		redis:    redisClient,
		cacheTTL: cacheTTL,
		logger:   logger.With().Str("component", "history_service").Logger(),
	}
}

func (s *historyService) Record(ctx context.Context, teacherID uint, kind models.GenerationKind, language string, params map[string]interface{}, output, assetURL string) (*uint, error) {
	metadata := datatypes.JSONMap{}
	for key, value := range params {
		metadata[key] = value
	}

	record := models.GenerationRecord{
		TeacherID: teacherID,
		Kind:      kind,
		Language:  language,
		Params:    metadata,
		Output:    output,
		AssetURL:  assetURL,
	}

	if err := s.repo.Create(ctx, &record); err != nil {
		s.logger.Warn().Err(err).Uint("teacher_id", teacherID).Str("kind", string(kind)).Msg("history write failed")
		return nil, err
	}

	s.invalidate(ctx, teacherID)
	return &record.ID, nil
}

func (s *historyService) ListForTeacher(ctx context.Context, teacherID uint, limit int) ([]dto.GenerationHistoryItem, error) {
	cacheKey := historyCacheKey(teacherID)

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var items []dto.GenerationHistoryItem
			if err := json.Unmarshal(cached, &items); err == nil {
				return items, nil
			}
		}
	}

	records, err := s.repo.ListByTeacher(ctx, teacherID, limit)
	if err != nil {
		// History is decorative: a failed fetch degrades to an empty feed
		// rather than breaking the page.
		s.logger.Error().Err(err).Uint("teacher_id", teacherID).Msg("history fetch failed, returning empty list")
		return []dto.GenerationHistoryItem{}, nil
	}

	items := make([]dto.GenerationHistoryItem, 0, len(records))
	for _, record := range records {
		items = append(items, dto.GenerationHistoryItem{
			ID:        record.ID,
			Kind:      string(record.Kind),
			Language:  record.Language,
			Output:    record.Output,
			AssetURL:  record.AssetURL,
			CreatedAt: record.CreatedAt,
		})
	}

	if s.redis != nil {
		if encoded, err := json.Marshal(items); err == nil {
			if err := s.redis.Set(ctx, cacheKey, encoded, s.cacheTTL).Err(); err != nil {
				s.logger.Debug().Err(err).Msg("history cache write failed")
			}
		}
	}

	return items, nil
}

func (s *historyService) invalidate(ctx context.Context, teacherID uint) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, historyCacheKey(teacherID)).Err(); err != nil {
		s.logger.Debug().Err(err).Msg("history cache invalidation failed")
	}
}

func historyCacheKey(teacherID uint) string {
	return fmt.Sprintf("sahayak:history:%d", teacherID)
}

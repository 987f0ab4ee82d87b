package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/sahayak-labs/sahayak-api/internal/models"
)

type memGenerationRepo struct {
	records   []models.GenerationRecord
	createErr error
	listErr   error
	listCalls int
	nextID    uint
}

func (r *memGenerationRepo) Create(ctx context.Context, record *models.GenerationRecord) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	record.ID = r.nextID
	record.CreatedAt = time.Now()
	r.records = append(r.records, *record)
	return nil
}

func (r *memGenerationRepo) ListByTeacher(ctx context.Context, teacherID uint, limit int) ([]models.GenerationRecord, error) {
	r.listCalls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []models.GenerationRecord
	for _, record := range r.records {
		if record.TeacherID == teacherID {
			out = append(out, record)
		}
	}
	return out, nil
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	server := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: server.Addr()})
}

func TestHistoryRecordReturnsID(t *testing.T) {
	repo := &memGenerationRepo{}
	svc := NewHistoryService(repo, nil, time.Minute, testLogger())

	id, err := svc.Record(context.Background(), 4, models.GenerationExplanation, "hi", map[string]interface{}{"prompt": "why is the sky blue"}, "scattering", "")
	require.NoError(t, err)
	require.NotNil(t, id)
	require.Equal(t, uint(1), *id)
	require.Len(t, repo.records, 1)
}

func TestHistoryListServedFromCacheOnSecondCall(t *testing.T) {
	repo := &memGenerationRepo{}
	svc := NewHistoryService(repo, testRedis(t), time.Minute, testLogger())

	_, err := svc.Record(context.Background(), 4, models.GenerationLessonPlan, "en", nil, "plan text", "")
	require.NoError(t, err)

	first, err := svc.ListForTeacher(context.Background(), 4, 10)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.ListForTeacher(context.Background(), 4, 10)
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, 1, repo.listCalls, "second read should hit the cache")
}

func TestHistoryRecordInvalidatesCache(t *testing.T) {
	repo := &memGenerationRepo{}
	svc := NewHistoryService(repo, testRedis(t), time.Minute, testLogger())

	_, err := svc.Record(context.Background(), 4, models.GenerationLessonPlan, "en", nil, "first", "")
	require.NoError(t, err)

	items, err := svc.ListForTeacher(context.Background(), 4, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, err = svc.Record(context.Background(), 4, models.GenerationWorksheet, "en", nil, "second", "")
	require.NoError(t, err)

	items, err = svc.ListForTeacher(context.Background(), 4, 10)
	require.NoError(t, err)
	require.Len(t, items, 2, "cache invalidated by the write")
}

func TestHistoryFetchFailureDegradesToEmptyList(t *testing.T) {
	repo := &memGenerationRepo{listErr: errors.New("connection refused")}
	svc := NewHistoryService(repo, nil, time.Minute, testLogger())

	items, err := svc.ListForTeacher(context.Background(), 4, 10)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestHistoryRecordSurfacesWriteError(t *testing.T) {
	repo := &memGenerationRepo{createErr: errors.New("permission denied")}
	svc := NewHistoryService(repo, nil, time.Minute, testLogger())

	id, err := svc.Record(context.Background(), 4, models.GenerationVisualAid, "", nil, "", "https://cdn.example/a.png")
	require.Error(t, err)
	require.Nil(t, id)
}

package service

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/sahayak-labs/sahayak-api/internal/dto"
	"github.com/sahayak-labs/sahayak-api/internal/models"
	"github.com/sahayak-labs/sahayak-api/pkg/ai"
)

type stubGenerator struct {
	lessonPlan string
	worksheets map[string]string
	image      ai.Image
	content    string
	err        error
}

func (g *stubGenerator) LessonPlan(ctx context.Context, in ai.LessonPlanInput) (string, error) {
	return g.lessonPlan, g.err
}

func (g *stubGenerator) Worksheets(ctx context.Context, in ai.WorksheetInput) (map[string]string, error) {
	return g.worksheets, g.err
}

func (g *stubGenerator) VisualAid(ctx context.Context, in ai.VisualAidInput) (ai.Image, error) {
	return g.image, g.err
}

func (g *stubGenerator) Explain(ctx context.Context, in ai.ExplanationInput) (string, error) {
	return g.content, g.err
}

type stubHistory struct {
	recorded  []models.GenerationKind
	recordErr error
	items     []dto.GenerationHistoryItem
	nextID    uint
}

func (h *stubHistory) Record(ctx context.Context, teacherID uint, kind models.GenerationKind, language string, params map[string]interface{}, output, assetURL string) (*uint, error) {
	if h.recordErr != nil {
		return nil, h.recordErr
	}
	h.recorded = append(h.recorded, kind)
	h.nextID++
	id := h.nextID
	return &id, nil
}

func (h *stubHistory) ListForTeacher(ctx context.Context, teacherID uint, limit int) ([]dto.GenerationHistoryItem, error) {
	return h.items, nil
}

type stubStorage struct {
	uploads []string
	url     string
	err     error
}

func (s *stubStorage) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.uploads = append(s.uploads, name)
	return s.url, nil
}

func newContentFixture(generator *stubGenerator, history *stubHistory, storage *stubStorage) ContentService {
	return NewContentService(generator, history, storage, validator.New(), testLogger())
}

func TestLessonPlanRecordsHistory(t *testing.T) {
	history := &stubHistory{}
	svc := newContentFixture(&stubGenerator{lessonPlan: "Day 1: Introduction"}, history, &stubStorage{})

	resp, err := svc.LessonPlan(context.Background(), 7, dto.LessonPlanRequest{
		Subject:    "Science",
		Topic:      "Water cycle",
		Grade:      "5",
		Objectives: []string{"Name the stages of the water cycle"},
		Language:   "hi",
	})
	require.NoError(t, err)
	require.Equal(t, string(models.GenerationLessonPlan), resp.Kind)
	require.Equal(t, "Day 1: Introduction", resp.Content)
	require.NotNil(t, resp.RecordID)
	require.Empty(t, resp.Warning)
	require.Equal(t, []models.GenerationKind{models.GenerationLessonPlan}, history.recorded)
}

func TestHistoryFailureDowngradesToWarning(t *testing.T) {
	history := &stubHistory{recordErr: errors.New("store unavailable")}
	svc := newContentFixture(&stubGenerator{content: "Gravity pulls things down."}, history, &stubStorage{})

	resp, err := svc.Explain(context.Background(), 7, dto.ExplanationRequest{
		Prompt:   "Why do things fall?",
		Language: "en",
	})
	require.NoError(t, err, "history write failure must not fail the generation")
	require.Equal(t, "Gravity pulls things down.", resp.Content)
	require.Nil(t, resp.RecordID)
	require.Contains(t, resp.Warning, "history write failed")
}

func TestVisualAidStoresDecodedImage(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	storage := &stubStorage{url: "https://cdn.example/visual.png"}
	svc := newContentFixture(&stubGenerator{image: ai.Image{B64Data: encoded, MimeType: "image/png"}}, &stubHistory{}, storage)

	resp, err := svc.VisualAid(context.Background(), 3, dto.VisualAidRequest{
		Description: "A labelled diagram of the water cycle",
	})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example/visual.png", resp.AssetURL)
	require.Len(t, storage.uploads, 1)
}

func TestExplainRejectsPromptEmptyAfterSanitization(t *testing.T) {
	svc := newContentFixture(&stubGenerator{}, &stubHistory{}, &stubStorage{})

	_, err := svc.Explain(context.Background(), 3, dto.ExplanationRequest{
		Prompt:   "<script>alert(1)</script>",
		Language: "en",
	})
	require.ErrorIs(t, err, ErrPromptEmpty)
}

func TestWorksheetsEncodesPerGradeOutput(t *testing.T) {
	generator := &stubGenerator{worksheets: map[string]string{
		"3": "Easy worksheet",
		"5": "Harder worksheet",
	}}
	svc := newContentFixture(generator, &stubHistory{}, &stubStorage{})

	resp, err := svc.Worksheets(context.Background(), 3, dto.WorksheetRequest{
		ImageURL: "https://cdn.example/textbook-page.jpg",
		Grades:   []string{"3", "5"},
		Language: "en",
	})
	require.NoError(t, err)
	require.Contains(t, resp.Content, "Easy worksheet")
	require.Contains(t, resp.Content, "Harder worksheet")
}

func TestGeneratorErrorSurfacesToCaller(t *testing.T) {
	svc := newContentFixture(&stubGenerator{err: errors.New("model overloaded")}, &stubHistory{}, &stubStorage{})

	_, err := svc.LessonPlan(context.Background(), 7, dto.LessonPlanRequest{
		Subject:    "Math",
		Topic:      "Fractions",
		Grade:      "4",
		Objectives: []string{"Add simple fractions"},
		Language:   "en",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "model overloaded")
}

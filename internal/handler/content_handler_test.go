package handler_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sahayak-labs/sahayak-api/internal/dto"
	"github.com/sahayak-labs/sahayak-api/internal/handler"
	"github.com/sahayak-labs/sahayak-api/internal/models"
)

type mockContentService struct {
	response dto.GenerationResponse
	history  []dto.GenerationHistoryItem
	err      error
}

func (m *mockContentService) LessonPlan(_ context.Context, _ uint, _ dto.LessonPlanRequest) (dto.GenerationResponse, error) {
	return m.response, m.err
}

func (m *mockContentService) Worksheets(_ context.Context, _ uint, _ dto.WorksheetRequest) (dto.GenerationResponse, error) {
	return m.response, m.err
}

func (m *mockContentService) VisualAid(_ context.Context, _ uint, _ dto.VisualAidRequest) (dto.GenerationResponse, error) {
	return m.response, m.err
}

func (m *mockContentService) Explain(_ context.Context, _ uint, _ dto.ExplanationRequest) (dto.GenerationResponse, error) {
	return m.response, m.err
}

func (m *mockContentService) History(_ context.Context, _ uint, _ int) ([]dto.GenerationHistoryItem, error) {
	return m.history, m.err
}

type mockTeacherRepo struct {
	teacher models.Teacher
	err     error
}

func (m *mockTeacherRepo) Create(_ context.Context, _ *models.Teacher) error { return nil }

func (m *mockTeacherRepo) GetByAuthUID(_ context.Context, _ string) (models.Teacher, error) {
	return m.teacher, m.err
}

func (m *mockTeacherRepo) List(_ context.Context) ([]models.Teacher, error) { return nil, nil }

func (m *mockTeacherRepo) ListDevGenerated(_ context.Context) ([]models.Teacher, error) {
	return nil, nil
}

func (m *mockTeacherRepo) Update(_ context.Context, _ uint, _ map[string]interface{}) (models.Teacher, error) {
	return m.teacher, nil
}

func newContentApp(svc *mockContentService, teachers *mockTeacherRepo, uid string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/content", func(c *fiber.Ctx) error {
		if uid != "" {
			c.Locals("user_uid", uid)
			c.Locals("user_role", "teacher")
		}
		return c.Next()
	})
	handler.NewContentHandler(svc, teachers, zerolog.New(io.Discard)).Register(group)
	return app
}

func TestContentHandler_ExplainSuccess(t *testing.T) {
	svc := &mockContentService{response: dto.GenerationResponse{Kind: "explanation", Content: "Because of air pressure."}}
	teachers := &mockTeacherRepo{teacher: models.Teacher{ID: 9, AuthUID: "teacher-uid"}}
	app := newContentApp(svc, teachers, "teacher-uid")

	resp := postJSON(t, app, "/api/v1/content/explain", dto.ExplanationRequest{Prompt: "Why do straws work?", Language: "en"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool                   `json:"success"`
		Data    dto.GenerationResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, "Because of air pressure.", response.Data.Content)
}

func TestContentHandler_WarningPassesThrough(t *testing.T) {
	svc := &mockContentService{response: dto.GenerationResponse{
		Kind:    "lesson_plan",
		Content: "Plan body",
		Warning: "content generated but history write failed: store unavailable",
	}}
	teachers := &mockTeacherRepo{teacher: models.Teacher{ID: 9, AuthUID: "teacher-uid"}}
	app := newContentApp(svc, teachers, "teacher-uid")

	resp := postJSON(t, app, "/api/v1/content/lesson-plan", dto.LessonPlanRequest{
		Subject:    "Science",
		Topic:      "Plants",
		Grade:      "4",
		Objectives: []string{"Identify parts of a plant"},
		Language:   "en",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Data dto.GenerationResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Contains(t, response.Data.Warning, "history write failed")
}

func TestContentHandler_RequiresTeacherProfile(t *testing.T) {
	svc := &mockContentService{}
	teachers := &mockTeacherRepo{err: gorm.ErrRecordNotFound}
	app := newContentApp(svc, teachers, "student-uid")

	resp := postJSON(t, app, "/api/v1/content/explain", dto.ExplanationRequest{Prompt: "Hi", Language: "en"})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestContentHandler_RequiresAuthentication(t *testing.T) {
	svc := &mockContentService{}
	teachers := &mockTeacherRepo{}
	app := newContentApp(svc, teachers, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/content/history", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

package performance_test

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/sahayak-labs/sahayak-api/internal/dto"
	"github.com/sahayak-labs/sahayak-api/internal/handler"
	"github.com/sahayak-labs/sahayak-api/internal/middleware"
	"github.com/sahayak-labs/sahayak-api/internal/service"
)

type replayBatchService struct {
	job dto.BatchJobResponse
}

func (s replayBatchService) GenerateStudents(context.Context, string, dto.StudentBatchRequest) (dto.BatchJobResponse, error) {
	return s.job, nil
}

func (s replayBatchService) GenerateTeachers(context.Context, string, dto.TeacherBatchRequest) (dto.BatchJobResponse, error) {
	return s.job, nil
}

func (s replayBatchService) Cleanup(context.Context, string) (dto.BatchJobResponse, dto.CleanupSummary, error) {
	return s.job, dto.CleanupSummary{}, nil
}

func (s replayBatchService) Snapshot() dto.BatchJobResponse {
	return s.job
}

func (s replayBatchService) SubscribeLog() (<-chan string, func()) {
	ch := make(chan string, 1)
	return ch, func() { close(ch) }
}

func TestBatchLogStreamFirstLineP95Under250ms(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.CorrelationID())

	stub := replayBatchService{job: dto.BatchJobResponse{
		ID:     "job-perf",
		Kind:   service.BatchKindStudents,
		Status: service.BatchStatusRunning,
		Log:    []string{"sequence allocated: roll numbers start at 1"},
	}}

	group := app.Group("/api/admin/batch", func(c *fiber.Ctx) error {
		c.Locals("user_uid", "admin-perf")
		c.Locals("user_role", "admin")
		return c.Next()
	})
	handler.NewAdminBatchHandler(stub, zerolog.Nop()).Register(group)

	baseURL, shutdown := startFiberServer(t, app)
	defer shutdown()

	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/admin/batch/logs/ws"
	clients := 200
	durations := make([]time.Duration, 0, clients)

	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}

	for i := 0; i < clients; i++ {
		start := time.Now()
		conn, resp, err := dialer.Dial(url, http.Header{"X-Correlation-ID": {"perf-" + strconv.Itoa(i)}})
		if err != nil {
			t.Fatalf("websocket dial failed: %v", err)
		}
		if resp != nil {
			_ = resp.Body.Close()
		}

		_, line, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read first log line failed: %v", err)
		}
		if !strings.Contains(string(line), "sequence allocated") {
			t.Fatalf("unexpected first log line: %s", line)
		}
		_ = conn.Close()

		durations = append(durations, time.Since(start))
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	p95 := percentile(durations, 0.95)

	if p95 > 250*time.Millisecond {
		t.Fatalf("expected log stream P95 <= 250ms, got %s", p95)
	}
}

func percentile(values []time.Duration, pct float64) time.Duration {
	if len(values) == 0 {
		return 0
	}
	index := int(math.Ceil(pct*float64(len(values)))) - 1
	if index < 0 {
		index = 0
	}
	if index >= len(values) {
		index = len(values) - 1
	}
	return values[index]
}

func startFiberServer(t *testing.T, app *fiber.App) (string, func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)

	shutdown := func() {
		_ = app.Shutdown()
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
	}

	return "http://" + listener.Addr().String(), shutdown
}

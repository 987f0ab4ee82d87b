package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sahayak-labs/sahayak-api/internal/dto"
	"github.com/sahayak-labs/sahayak-api/internal/identity"
	"github.com/sahayak-labs/sahayak-api/internal/models"
	"github.com/sahayak-labs/sahayak-api/internal/observability"
	"github.com/sahayak-labs/sahayak-api/internal/repository"
)

// Batch job lifecycle states.
const (
	BatchStatusIdle      = "idle"
	BatchStatusRunning   = "running"
	BatchStatusCompleted = "completed"
	BatchStatusAborted   = "aborted"
)

// Batch job kinds.
const (
	BatchKindStudents = "students"
	BatchKindTeachers = "teachers"
	BatchKindCleanup  = "cleanup"
)

// ErrBatchInProgress indicates another batch holds the busy flag.
var ErrBatchInProgress = errors.New("a batch is already running")

// OperatorNotifier delivers transient notifications to the admin operator.
// Delivery is best effort; failures surface as warnings, never as batch errors.
type OperatorNotifier interface {
	NotifyOperator(ctx context.Context, userUID, level, title, body string) error
}

// BatchService drives the bulk account generation and cleanup workflows. One
// job runs at a time; units are processed strictly sequentially and an
// in-flight job cannot be cancelled. Progress and the append-only log are
// observable through Snapshot and SubscribeLog while a run is in flight.
type BatchService interface {
	GenerateStudents(ctx context.Context, operatorUID string, req dto.StudentBatchRequest) (dto.BatchJobResponse, error)
	GenerateTeachers(ctx context.Context, operatorUID string, req dto.TeacherBatchRequest) (dto.BatchJobResponse, error)
	Cleanup(ctx context.Context, operatorUID string) (dto.BatchJobResponse, dto.CleanupSummary, error)
	Snapshot() dto.BatchJobResponse
	SubscribeLog() (<-chan string, func())
}

type batchJob struct {
	id         string
	kind       string
	status     string
	requested  int
	processed  int
	succeeded  int
	log        []string
	startedAt  time.Time
	finishedAt *time.Time
}

type batchService struct {
	provider  identity.Provider
	students  repository.StudentRepository
	teachers  repository.TeacherRepository
	batchRepo repository.ProfileBatchRepository
	allocator SequenceAllocator
	notifier  OperatorNotifier
	validator *validator.Validate
	domain    string
	logger    zerolog.Logger
	tracer    trace.Tracer

	mu          sync.Mutex
	running     bool
	job         *batchJob
	subscribers map[chan string]struct{}
}

// NewBatchService constructs the batch orchestrator. emailDomain is the
// domain deterministic dev account emails are minted under.
func NewBatchService(
	provider identity.Provider,
	students repository.StudentRepository,
	teachers repository.TeacherRepository,
	batchRepo repository.ProfileBatchRepository,
	allocator SequenceAllocator,
	notifier OperatorNotifier,
	validate *validator.Validate,
	emailDomain string,
	logger zerolog.Logger,
) BatchService {
	if emailDomain == "" {
		emailDomain = "dev.sahayak.app"
	}
	return &batchService{
		provider:    provider,
		students:    students,
		teachers:    teachers,
		batchRepo:   batchRepo,
		allocator:   allocator,
		notifier:    notifier,
		validator:   validate,
		domain:      emailDomain,
		logger:      logger.With().Str("component", "batch_service").Logger(),
		tracer:      otel.Tracer("github.com/sahayak-labs/sahayak-api/internal/service"),
		subscribers: make(map[chan string]struct{}),
	}
}

func (s *batchService) GenerateStudents(parent context.Context, operatorUID string, req dto.StudentBatchRequest) (dto.BatchJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.BatchJobResponse{}, err
	}

	ctx, span := s.tracer.Start(parent, "batch.generate_students", trace.WithAttributes(
		attribute.String("grade", req.Grade),
		attribute.String("section", req.Section),
		attribute.Int("count", req.Count),
	))
	defer span.End()

	if err := s.begin(BatchKindStudents, req.Count); err != nil {
		return dto.BatchJobResponse{}, err
	}

	grade := strings.TrimSpace(req.Grade)
	section := strings.TrimSpace(req.Section)

	start, err := s.allocator.NextStudentNumber(ctx, grade, section)
	if err != nil {
		s.abortBeforeStart(ctx, operatorUID, err)
		return s.Snapshot(), err
	}
	s.appendLog(fmt.Sprintf("sequence allocated: roll numbers start at %d", start))

	for i := 1; i <= req.Count; i++ {
		number := start + i - 1
		email := studentEmail(grade, section, number, s.domain)
		password := devPassword(models.RoleStudent, number)

		account, err := s.createIdentity(ctx, email, password)
		if err != nil {
			s.failUnit(ctx, operatorUID, i, req.Count, fmt.Sprintf("create identity for %s: %v", email, err))
			return s.Snapshot(), nil
		}

		student := models.Student{
			AuthUID:      account.UID,
			Name:         fmt.Sprintf("Student %d", number),
			Email:        email,
			Grade:        grade,
			Section:      section,
			RollNumber:   strconv.Itoa(number),
			DevGenerated: true,
		}
		if err := s.students.Create(ctx, &student); err != nil {
			// The identity account has no matching profile now. Name it in the
			// log so an operator can clean it up by hand.
			s.failUnit(ctx, operatorUID, i, req.Count, fmt.Sprintf("write profile for %s: %v (identity account orphaned)", email, err))
			return s.Snapshot(), nil
		}

		s.completeUnit(i, req.Count, fmt.Sprintf("unit %d/%d: created %s (roll %d)", i, req.Count, email, number))
	}

	s.finishGeneration(ctx, operatorUID)
	return s.Snapshot(), nil
}

func (s *batchService) GenerateTeachers(parent context.Context, operatorUID string, req dto.TeacherBatchRequest) (dto.BatchJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.BatchJobResponse{}, err
	}

	ctx, span := s.tracer.Start(parent, "batch.generate_teachers", trace.WithAttributes(
		attribute.Int("count", req.Count),
	))
	defer span.End()

	if err := s.begin(BatchKindTeachers, req.Count); err != nil {
		return dto.BatchJobResponse{}, err
	}

	start, err := s.allocator.NextTeacherNumber(ctx)
	if err != nil {
		s.abortBeforeStart(ctx, operatorUID, err)
		return s.Snapshot(), err
	}
	s.appendLog(fmt.Sprintf("sequence allocated: teacher numbers start at %d", start))

	for i := 1; i <= req.Count; i++ {
		number := start + i - 1
		email := teacherEmail(number, s.domain)
		password := devPassword(models.RoleTeacher, number)

		account, err := s.createIdentity(ctx, email, password)
		if err != nil {
			s.failUnit(ctx, operatorUID, i, req.Count, fmt.Sprintf("create identity for %s: %v", email, err))
			return s.Snapshot(), nil
		}

		teacher := models.Teacher{
			AuthUID:      account.UID,
			Name:         fmt.Sprintf("Teacher %d", number),
			Email:        email,
			DevGenerated: true,
		}
		if err := s.teachers.Create(ctx, &teacher); err != nil {
			s.failUnit(ctx, operatorUID, i, req.Count, fmt.Sprintf("write profile for %s: %v (identity account orphaned)", email, err))
			return s.Snapshot(), nil
		}

		s.completeUnit(i, req.Count, fmt.Sprintf("unit %d/%d: created %s", i, req.Count, email))
	}

	s.finishGeneration(ctx, operatorUID)
	return s.Snapshot(), nil
}

// Cleanup deletes every devGenerated account. Unlike generation it never
// aborts on a unit failure: each unit's deletion is independent, so failures
// are logged and processing continues. Profile rows are only queued for the
// final batched delete when the identity deletion succeeded, which keeps
// failed units retryable on the next run.
func (s *batchService) Cleanup(parent context.Context, operatorUID string) (dto.BatchJobResponse, dto.CleanupSummary, error) {
	ctx, span := s.tracer.Start(parent, "batch.cleanup")
	defer span.End()

	if err := s.begin(BatchKindCleanup, 0); err != nil {
		return dto.BatchJobResponse{}, dto.CleanupSummary{}, err
	}

	flaggedStudents, err := s.students.ListDevGenerated(ctx)
	if err != nil {
		s.abortBeforeStart(ctx, operatorUID, err)
		return s.Snapshot(), dto.CleanupSummary{}, err
	}
	flaggedTeachers, err := s.teachers.ListDevGenerated(ctx)
	if err != nil {
		s.abortBeforeStart(ctx, operatorUID, err)
		return s.Snapshot(), dto.CleanupSummary{}, err
	}

	total := len(flaggedStudents) + len(flaggedTeachers)
	s.setRequested(total)
	s.appendLog(fmt.Sprintf("found %d generated accounts (%d students, %d teachers)", total, len(flaggedStudents), len(flaggedTeachers)))

	var studentIDs, teacherIDs []uint
	unit := 0

	for _, student := range flaggedStudents {
		unit++
		if err := s.deleteIdentityFor(ctx, models.RoleStudent, student.Name, student.Email); err != nil {
			s.skipUnit(unit, total, fmt.Sprintf("unit %d/%d: %s: %v (profile kept for retry)", unit, total, student.Email, err))
			continue
		}
		studentIDs = append(studentIDs, student.ID)
		s.completeUnit(unit, total, fmt.Sprintf("unit %d/%d: deleted identity for %s", unit, total, student.Email))
	}

	for _, teacher := range flaggedTeachers {
		unit++
		if err := s.deleteIdentityFor(ctx, models.RoleTeacher, teacher.Name, teacher.Email); err != nil {
			s.skipUnit(unit, total, fmt.Sprintf("unit %d/%d: %s: %v (profile kept for retry)", unit, total, teacher.Email, err))
			continue
		}
		teacherIDs = append(teacherIDs, teacher.ID)
		s.completeUnit(unit, total, fmt.Sprintf("unit %d/%d: deleted identity for %s", unit, total, teacher.Email))
	}

	succeeded := len(studentIDs) + len(teacherIDs)
	if err := s.batchRepo.DeleteGenerated(ctx, studentIDs, teacherIDs); err != nil {
		s.appendLog(fmt.Sprintf("profile deletion commit failed: %v", err))
		s.conclude(BatchStatusAborted)
		s.notify(ctx, operatorUID, "error", "Cleanup failed", fmt.Sprintf("deleted %d identities but the profile commit failed: %v", succeeded, err))
		return s.Snapshot(), dto.CleanupSummary{Attempted: total, Succeeded: 0}, fmt.Errorf("commit profile deletions: %w", err)
	}

	s.appendLog(fmt.Sprintf("committed %d of %d profile deletions", succeeded, total))
	s.conclude(BatchStatusCompleted)
	observability.BatchRuns().WithLabelValues(BatchKindCleanup, BatchStatusCompleted).Inc()
	s.notify(ctx, operatorUID, "info", "Cleanup finished", fmt.Sprintf("%d of %d generated accounts removed", succeeded, total))

	return s.Snapshot(), dto.CleanupSummary{Attempted: total, Succeeded: succeeded}, nil
}

// Snapshot returns the current (or last finished) job state.
func (s *batchService) Snapshot() dto.BatchJobResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job == nil {
		return dto.BatchJobResponse{Status: BatchStatusIdle, Log: []string{}}
	}

	job := s.job
	response := dto.BatchJobResponse{
		ID:        job.id,
		Kind:      job.kind,
		Status:    job.status,
		Requested: job.requested,
		Processed: job.processed,
		Succeeded: job.succeeded,
		Log:       append([]string(nil), job.log...),
	}
	if job.requested > 0 {
		response.Progress = float64(job.processed) / float64(job.requested)
	}
	if !job.startedAt.IsZero() {
		startedAt := job.startedAt
		response.StartedAt = &startedAt
	}
	response.FinishedAt = job.finishedAt

	return response
}

// SubscribeLog streams log lines appended while the subscription is active.
// Slow consumers drop lines rather than stall the batch.
func (s *batchService) SubscribeLog() (<-chan string, func()) {
	ch := make(chan string, 64)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	unsubscribe := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
	}

	return ch, unsubscribe
}

func (s *batchService) begin(kind string, requested int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrBatchInProgress
	}

	s.running = true
	s.job = &batchJob{
		id:        uuid.NewString(),
		kind:      kind,
		status:    BatchStatusRunning,
		requested: requested,
		startedAt: time.Now(),
		log:       []string{},
	}

	s.logger.Info().Str("job_id", s.job.id).Str("kind", kind).Int("requested", requested).Msg("batch started")
	return nil
}

func (s *batchService) setRequested(requested int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job != nil {
		s.job.requested = requested
	}
}

func (s *batchService) createIdentity(ctx context.Context, email, password string) (identity.Account, error) {
	session := s.provider.Scoped()
	defer session.Close()
	return session.SignUp(ctx, email, password)
}

func (s *batchService) deleteIdentityFor(ctx context.Context, role models.Role, name, email string) error {
	number, ok := trailingNumber(name)
	if !ok {
		return fmt.Errorf("cannot parse account number from %q", name)
	}

	session := s.provider.Scoped()
	defer session.Close()

	if _, err := session.SignIn(ctx, email, devPassword(role, number)); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if err := session.DeleteAccount(ctx); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

func (s *batchService) completeUnit(index, total int, line string) {
	s.mu.Lock()
	if s.job != nil {
		s.job.processed = index
		s.job.succeeded++
	}
	s.mu.Unlock()

	observability.BatchUnits().WithLabelValues(s.jobKind(), "success").Inc()
	s.appendLog(line)
}

func (s *batchService) skipUnit(index, total int, line string) {
	s.mu.Lock()
	if s.job != nil {
		s.job.processed = index
	}
	s.mu.Unlock()

	observability.BatchUnits().WithLabelValues(s.jobKind(), "failure").Inc()
	s.appendLog(line)
}

func (s *batchService) failUnit(ctx context.Context, operatorUID string, index, total int, cause string) {
	s.mu.Lock()
	if s.job != nil {
		s.job.processed = index
	}
	s.mu.Unlock()

	observability.BatchUnits().WithLabelValues(s.jobKind(), "failure").Inc()
	s.appendLog(fmt.Sprintf("unit %d/%d failed: %s", index, total, cause))
	s.appendLog(fmt.Sprintf("generation aborted at unit %d; units %d-%d not attempted", index, index+1, total))
	s.conclude(BatchStatusAborted)
	observability.BatchRuns().WithLabelValues(s.jobKind(), BatchStatusAborted).Inc()
	s.notify(ctx, operatorUID, "error", "Generation failed", fmt.Sprintf("unit %d of %d failed: %s", index, total, cause))
}

func (s *batchService) abortBeforeStart(ctx context.Context, operatorUID string, err error) {
	s.appendLog(fmt.Sprintf("batch not started: %s", describeStoreError(err)))
	s.conclude(BatchStatusAborted)
	observability.BatchRuns().WithLabelValues(s.jobKind(), BatchStatusAborted).Inc()
	s.notify(ctx, operatorUID, "error", "Batch not started", describeStoreError(err))
}

func (s *batchService) finishGeneration(ctx context.Context, operatorUID string) {
	s.conclude(BatchStatusCompleted)
	observability.BatchRuns().WithLabelValues(s.jobKind(), BatchStatusCompleted).Inc()

	snapshot := s.Snapshot()
	s.notify(ctx, operatorUID, "info", "Generation finished",
		fmt.Sprintf("%d of %d accounts created", snapshot.Succeeded, snapshot.Requested))
}

func (s *batchService) conclude(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job != nil {
		s.job.status = status
		now := time.Now()
		s.job.finishedAt = &now
		s.logger.Info().Str("job_id", s.job.id).Str("kind", s.job.kind).Str("status", status).
			Int("succeeded", s.job.succeeded).Int("requested", s.job.requested).Msg("batch finished")
	}
	s.running = false
}

func (s *batchService) jobKind() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil {
		return ""
	}
	return s.job.kind
}

func (s *batchService) appendLog(line string) {
	s.mu.Lock()
	if s.job != nil {
		s.job.log = append(s.job.log, line)
	}
	for ch := range s.subscribers {
		select {
		case ch <- line:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *batchService) notify(ctx context.Context, operatorUID, level, title, body string) {
	if s.notifier == nil || operatorUID == "" {
		return
	}
	if err := s.notifier.NotifyOperator(ctx, operatorUID, level, title, body); err != nil {
		s.logger.Warn().Err(err).Msg("operator notification failed")
		s.appendLog(fmt.Sprintf("warning: operator notification failed: %v", err))
	}
}

// describeStoreError renders the classified query errors as actionable
// operator messages.
func describeStoreError(err error) string {
	switch {
	case errors.Is(err, repository.ErrStoreSchemaMissing):
		return fmt.Sprintf("profile store schema missing, run migrations: %v", err)
	case errors.Is(err, repository.ErrStorePermissionDenied):
		return fmt.Sprintf("profile store permission denied, check database grants: %v", err)
	default:
		return fmt.Sprintf("unknown query error: %v", err)
	}
}

func studentEmail(grade, section string, number int, domain string) string {
	return fmt.Sprintf("student.%s%s.%d@%s", strings.ToLower(grade), strings.ToLower(section), number, domain)
}

func teacherEmail(number int, domain string) string {
	return fmt.Sprintf("teacher.%d@%s", number, domain)
}

// devPassword derives the deterministic password for a generated account.
// Cleanup reconstructs it from the role and the number parsed from the
// display name, so changing this scheme strands previously generated accounts.
func devPassword(role models.Role, number int) string {
	return fmt.Sprintf("dev-%s-%d-sahayak", role, number)
}

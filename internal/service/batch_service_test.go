package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sahayak-labs/sahayak-api/internal/dto"
	"github.com/sahayak-labs/sahayak-api/internal/identity"
	"github.com/sahayak-labs/sahayak-api/internal/models"
)

// memStudentRepo is an in-memory stand-in for the student store.
type memStudentRepo struct {
	students []models.Student
	nextID   uint
	listErr  error
}

func newMemStudentRepo() *memStudentRepo {
	return &memStudentRepo{nextID: 1}
}

func (r *memStudentRepo) seed(student models.Student) {
	student.ID = r.nextID
	r.nextID++
	r.students = append(r.students, student)
}

func (r *memStudentRepo) Create(_ context.Context, student *models.Student) error {
	student.ID = r.nextID
	r.nextID++
	r.students = append(r.students, *student)
	return nil
}

func (r *memStudentRepo) GetByAuthUID(_ context.Context, uid string) (models.Student, error) {
	for _, student := range r.students {
		if student.AuthUID == uid {
			return student, nil
		}
	}
	return models.Student{}, gorm.ErrRecordNotFound
}

func (r *memStudentRepo) ListByClassroom(_ context.Context, grade, section string) ([]models.Student, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var matched []models.Student
	for _, student := range r.students {
		if student.Grade == grade && student.Section == section {
			matched = append(matched, student)
		}
	}
	return matched, nil
}

func (r *memStudentRepo) ListDevGenerated(_ context.Context) ([]models.Student, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var matched []models.Student
	for _, student := range r.students {
		if student.DevGenerated {
			matched = append(matched, student)
		}
	}
	return matched, nil
}

func (r *memStudentRepo) Update(_ context.Context, id uint, _ map[string]interface{}) (models.Student, error) {
	for _, student := range r.students {
		if student.ID == id {
			return student, nil
		}
	}
	return models.Student{}, gorm.ErrRecordNotFound
}

// memTeacherRepo is an in-memory stand-in for the teacher store.
type memTeacherRepo struct {
	teachers    []models.Teacher
	nextID      uint
	createErrAt int
	createCalls int
}

func newMemTeacherRepo() *memTeacherRepo {
	return &memTeacherRepo{nextID: 1}
}

func (r *memTeacherRepo) seed(teacher models.Teacher) {
	teacher.ID = r.nextID
	r.nextID++
	r.teachers = append(r.teachers, teacher)
}

func (r *memTeacherRepo) Create(_ context.Context, teacher *models.Teacher) error {
	r.createCalls++
	if r.createErrAt > 0 && r.createCalls == r.createErrAt {
		return errors.New("simulated profile write failure")
	}
	teacher.ID = r.nextID
	r.nextID++
	r.teachers = append(r.teachers, *teacher)
	return nil
}

func (r *memTeacherRepo) GetByAuthUID(_ context.Context, uid string) (models.Teacher, error) {
	for _, teacher := range r.teachers {
		if teacher.AuthUID == uid {
			return teacher, nil
		}
	}
	return models.Teacher{}, gorm.ErrRecordNotFound
}

func (r *memTeacherRepo) List(_ context.Context) ([]models.Teacher, error) {
	return append([]models.Teacher(nil), r.teachers...), nil
}

func (r *memTeacherRepo) ListDevGenerated(_ context.Context) ([]models.Teacher, error) {
	var matched []models.Teacher
	for _, teacher := range r.teachers {
		if teacher.DevGenerated {
			matched = append(matched, teacher)
		}
	}
	return matched, nil
}

func (r *memTeacherRepo) Update(_ context.Context, id uint, updates map[string]interface{}) (models.Teacher, error) {
	for i := range r.teachers {
		if r.teachers[i].ID != id {
			continue
		}
		if name, ok := updates["name"].(string); ok {
			r.teachers[i].Name = name
		}
		if classrooms, ok := updates["classrooms"].(datatypes.JSONSlice[uint]); ok {
			r.teachers[i].Classrooms = classrooms
		}
		return r.teachers[i], nil
	}
	return models.Teacher{}, gorm.ErrRecordNotFound
}

// memBatchRepo commits queued deletions against the in-memory repos.
type memBatchRepo struct {
	students  *memStudentRepo
	teachers  *memTeacherRepo
	commitErr error
}

func (r *memBatchRepo) DeleteGenerated(_ context.Context, studentIDs, teacherIDs []uint) error {
	if r.commitErr != nil {
		return r.commitErr
	}

	keepStudents := r.students.students[:0]
	for _, student := range r.students.students {
		if student.DevGenerated && containsID(studentIDs, student.ID) {
			continue
		}
		keepStudents = append(keepStudents, student)
	}
	r.students.students = keepStudents

	keepTeachers := r.teachers.teachers[:0]
	for _, teacher := range r.teachers.teachers {
		if teacher.DevGenerated && containsID(teacherIDs, teacher.ID) {
			continue
		}
		keepTeachers = append(keepTeachers, teacher)
	}
	r.teachers.teachers = keepTeachers

	return nil
}

func containsID(ids []uint, id uint) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// stubProvider scripts identity provider behaviour per unit.
type stubProvider struct {
	accounts      map[string]string
	uids          map[string]string
	uidSeq        int
	signUpCalls   int
	failSignUpAt  int
	failSignInFor string
	scopes        int
	closes        int
	blockSignUp   chan struct{}
	signUpStarted chan struct{}
}

func newStubProvider() *stubProvider {
	return &stubProvider{accounts: map[string]string{}, uids: map[string]string{}}
}

func (p *stubProvider) Scoped() identity.Session {
	p.scopes++
	return &stubSession{provider: p}
}

type stubSession struct {
	provider *stubProvider
	email    string
	signedIn bool
}

func (s *stubSession) SignUp(_ context.Context, email, password string) (identity.Account, error) {
	p := s.provider
	p.signUpCalls++
	if p.signUpStarted != nil && p.signUpCalls == 1 {
		close(p.signUpStarted)
	}
	if p.blockSignUp != nil {
		<-p.blockSignUp
	}
	if p.failSignUpAt > 0 && p.signUpCalls == p.failSignUpAt {
		return identity.Account{}, errors.New("simulated network error")
	}
	if _, exists := p.accounts[email]; exists {
		return identity.Account{}, identity.ErrEmailExists
	}

	p.uidSeq++
	uid := fmt.Sprintf("uid-%d", p.uidSeq)
	p.accounts[email] = password
	p.uids[email] = uid
	s.email = email
	s.signedIn = true
	return identity.Account{UID: uid, IDToken: fmt.Sprintf("tok-%d", p.uidSeq)}, nil
}

func (s *stubSession) SignIn(_ context.Context, email, password string) (identity.Account, error) {
	p := s.provider
	if email == p.failSignInFor {
		return identity.Account{}, identity.ErrInvalidCredentials
	}
	stored, exists := p.accounts[email]
	if !exists || stored != password {
		return identity.Account{}, identity.ErrInvalidCredentials
	}
	s.email = email
	s.signedIn = true
	return identity.Account{UID: p.uids[email], IDToken: "tok-" + email}, nil
}

func (s *stubSession) DeleteAccount(_ context.Context) error {
	if !s.signedIn {
		return identity.ErrNoSession
	}
	delete(s.provider.accounts, s.email)
	s.signedIn = false
	return nil
}

func (s *stubSession) Close() {
	s.provider.closes++
}

// stubNotifier records operator notifications.
type stubNotifier struct {
	titles []string
	bodies []string
	levels []string
	err    error
}

func (n *stubNotifier) NotifyOperator(_ context.Context, _, level, title, body string) error {
	if n.err != nil {
		return n.err
	}
	n.levels = append(n.levels, level)
	n.titles = append(n.titles, title)
	n.bodies = append(n.bodies, body)
	return nil
}

type batchFixture struct {
	provider *stubProvider
	students *memStudentRepo
	teachers *memTeacherRepo
	notifier *stubNotifier
	service  BatchService
}

func newBatchFixture() *batchFixture {
	provider := newStubProvider()
	students := newMemStudentRepo()
	teachers := newMemTeacherRepo()
	notifier := &stubNotifier{}
	allocator := NewSequenceAllocator(students, teachers, testLogger())
	batchRepo := &memBatchRepo{students: students, teachers: teachers}
	svc := NewBatchService(provider, students, teachers, batchRepo, allocator, notifier,
		validator.New(validator.WithRequiredStructEnabled()), "dev.sahayak.app", testLogger())

	return &batchFixture{provider: provider, students: students, teachers: teachers, notifier: notifier, service: svc}
}

func TestStudentBatchAssignsSequentialRollNumbers(t *testing.T) {
	f := newBatchFixture()

	job, err := f.service.GenerateStudents(context.Background(), "op-1", dto.StudentBatchRequest{Grade: "5", Section: "A", Count: 3})
	require.NoError(t, err)
	require.Equal(t, BatchStatusCompleted, job.Status)
	require.Equal(t, 3, job.Succeeded)
	require.InDelta(t, 1.0, job.Progress, 0.001)

	require.Len(t, f.students.students, 3)
	for i, student := range f.students.students {
		require.Equal(t, fmt.Sprintf("%d", i+1), student.RollNumber)
		require.Equal(t, fmt.Sprintf("student.5a.%d@dev.sahayak.app", i+1), student.Email)
		require.True(t, student.DevGenerated)
		require.NotEmpty(t, student.AuthUID)
	}

	require.Equal(t, f.provider.scopes, f.provider.closes, "every scoped handle must be released")
	require.Contains(t, f.notifier.titles, "Generation finished")
}

func TestStudentBatchContinuesFromExistingMax(t *testing.T) {
	f := newBatchFixture()
	f.students.seed(models.Student{Name: "Student 4", Email: "s4@x.com", Grade: "5", Section: "A", RollNumber: "4"})
	f.students.seed(models.Student{Name: "Student 9", Email: "s9@x.com", Grade: "5", Section: "A", RollNumber: "9"})

	job, err := f.service.GenerateStudents(context.Background(), "op-1", dto.StudentBatchRequest{Grade: "5", Section: "A", Count: 2})
	require.NoError(t, err)
	require.Equal(t, BatchStatusCompleted, job.Status)

	created := f.students.students[2:]
	require.Len(t, created, 2)
	require.Equal(t, "10", created[0].RollNumber)
	require.Equal(t, "11", created[1].RollNumber)
}

func TestTeacherBatchAbortsOnFirstFailure(t *testing.T) {
	f := newBatchFixture()
	f.provider.failSignUpAt = 3

	job, err := f.service.GenerateTeachers(context.Background(), "op-1", dto.TeacherBatchRequest{Count: 5})
	require.NoError(t, err)
	require.Equal(t, BatchStatusAborted, job.Status)
	require.Equal(t, 2, job.Succeeded)
	require.Len(t, f.teachers.teachers, 2, "only units before the failure are persisted")

	require.Equal(t, 3, f.provider.signUpCalls, "units after the failure are never attempted")
	require.GreaterOrEqual(t, len(job.Log), 3)

	var failureLine string
	for _, line := range job.Log {
		if strings.Contains(line, "unit 3/5 failed") {
			failureLine = line
		}
	}
	require.NotEmpty(t, failureLine)
	require.Contains(t, failureLine, "simulated network error")

	require.Contains(t, f.notifier.titles, "Generation failed")
	require.Contains(t, f.notifier.bodies[len(f.notifier.bodies)-1], "unit 3 of 5")
	require.Equal(t, f.provider.scopes, f.provider.closes)
}

func TestProfileWriteFailureAbortsAndNamesOrphan(t *testing.T) {
	f := newBatchFixture()
	f.teachers.createErrAt = 2

	job, err := f.service.GenerateTeachers(context.Background(), "op-1", dto.TeacherBatchRequest{Count: 3})
	require.NoError(t, err)
	require.Equal(t, BatchStatusAborted, job.Status)
	require.Len(t, f.teachers.teachers, 1)

	joined := strings.Join(job.Log, "\n")
	require.Contains(t, joined, "identity account orphaned")
	require.Contains(t, joined, "teacher.2@dev.sahayak.app")
}

func TestBatchRejectsConcurrentRun(t *testing.T) {
	f := newBatchFixture()
	f.provider.blockSignUp = make(chan struct{})
	f.provider.signUpStarted = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.service.GenerateStudents(context.Background(), "op-1", dto.StudentBatchRequest{Grade: "5", Section: "A", Count: 1})
		done <- err
	}()

	select {
	case <-f.provider.signUpStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("first batch never started")
	}

	_, err := f.service.GenerateTeachers(context.Background(), "op-1", dto.TeacherBatchRequest{Count: 1})
	require.ErrorIs(t, err, ErrBatchInProgress)

	close(f.provider.blockSignUp)
	require.NoError(t, <-done)

	// Once the first run finishes, the busy flag is released.
	_, err = f.service.GenerateTeachers(context.Background(), "op-1", dto.TeacherBatchRequest{Count: 1})
	require.NoError(t, err)
}

func TestAllocationFailurePreventsBatchStart(t *testing.T) {
	f := newBatchFixture()
	f.students.listErr = errors.New("permission denied for table students")

	_, err := f.service.GenerateStudents(context.Background(), "op-1", dto.StudentBatchRequest{Grade: "5", Section: "A", Count: 3})
	require.Error(t, err)
	require.Zero(t, f.provider.signUpCalls, "no unit may run when allocation fails")

	job := f.service.Snapshot()
	require.Equal(t, BatchStatusAborted, job.Status)
	require.Contains(t, strings.Join(job.Log, "\n"), "batch not started")
	require.Contains(t, f.notifier.titles, "Batch not started")
}

func TestCleanupSkipsFailedSignInAndKeepsProfile(t *testing.T) {
	f := newBatchFixture()

	_, err := f.service.GenerateStudents(context.Background(), "op-1", dto.StudentBatchRequest{Grade: "5", Section: "A", Count: 3})
	require.NoError(t, err)
	_, err = f.service.GenerateTeachers(context.Background(), "op-1", dto.TeacherBatchRequest{Count: 1})
	require.NoError(t, err)

	f.provider.failSignInFor = "student.5a.2@dev.sahayak.app"

	job, summary, err := f.service.Cleanup(context.Background(), "op-1")
	require.NoError(t, err)
	require.Equal(t, BatchStatusCompleted, job.Status)
	require.Equal(t, 4, summary.Attempted)
	require.Equal(t, 3, summary.Succeeded)

	require.Len(t, f.students.students, 1, "profile with failed identity deletion survives")
	require.Equal(t, "student.5a.2@dev.sahayak.app", f.students.students[0].Email)
	require.Empty(t, f.teachers.teachers)

	require.Contains(t, strings.Join(job.Log, "\n"), "profile kept for retry")
	require.Contains(t, f.notifier.bodies[len(f.notifier.bodies)-1], "3 of 4")
}

func TestGenerateThenCleanupRoundTrip(t *testing.T) {
	f := newBatchFixture()

	_, err := f.service.GenerateStudents(context.Background(), "op-1", dto.StudentBatchRequest{Grade: "5", Section: "A", Count: 2})
	require.NoError(t, err)
	require.Len(t, f.provider.accounts, 2)

	_, summary, err := f.service.Cleanup(context.Background(), "op-1")
	require.NoError(t, err)
	require.Equal(t, 2, summary.Attempted)
	require.Equal(t, 2, summary.Succeeded)

	require.Empty(t, f.provider.accounts, "identity accounts removed")
	require.Empty(t, f.students.students, "profiles removed")
	require.Equal(t, f.provider.scopes, f.provider.closes)
}

func TestCleanupLeavesOrganicAccountsAlone(t *testing.T) {
	f := newBatchFixture()
	f.students.seed(models.Student{AuthUID: "uid-organic", Name: "Priya", Email: "priya@x.com", Grade: "5", Section: "A", RollNumber: "12"})

	_, err := f.service.GenerateTeachers(context.Background(), "op-1", dto.TeacherBatchRequest{Count: 1})
	require.NoError(t, err)

	_, summary, err := f.service.Cleanup(context.Background(), "op-1")
	require.NoError(t, err)
	require.Equal(t, 1, summary.Attempted)

	require.Len(t, f.students.students, 1)
	require.Equal(t, "priya@x.com", f.students.students[0].Email)
}

func TestNotificationFailureIsNonFatalWarning(t *testing.T) {
	f := newBatchFixture()
	f.notifier.err = errors.New("notification channel down")

	job, err := f.service.GenerateStudents(context.Background(), "op-1", dto.StudentBatchRequest{Grade: "5", Section: "A", Count: 1})
	require.NoError(t, err)
	require.Equal(t, BatchStatusCompleted, job.Status)

	require.Contains(t, strings.Join(f.service.Snapshot().Log, "\n"), "warning: operator notification failed")
}

func TestSubscribeLogStreamsAppendedLines(t *testing.T) {
	f := newBatchFixture()

	lines, unsubscribe := f.service.SubscribeLog()
	defer unsubscribe()

	_, err := f.service.GenerateStudents(context.Background(), "op-1", dto.StudentBatchRequest{Grade: "5", Section: "A", Count: 1})
	require.NoError(t, err)

	var received []string
	timeout := time.After(time.Second)
	for len(received) < 2 {
		select {
		case line := <-lines:
			received = append(received, line)
		case <-timeout:
			t.Fatalf("expected streamed log lines, got %v", received)
		}
	}
	require.Contains(t, received[0], "sequence allocated")
}

func TestBatchValidatesRequests(t *testing.T) {
	f := newBatchFixture()

	_, err := f.service.GenerateStudents(context.Background(), "op-1", dto.StudentBatchRequest{Grade: "5", Section: "A"})
	require.Error(t, err, "count is required")

	_, err = f.service.GenerateTeachers(context.Background(), "op-1", dto.TeacherBatchRequest{Count: 500})
	require.Error(t, err, "count above limit rejected")
}

package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sahayak-labs/sahayak-api/internal/repository"
)

// SequenceAllocator computes the next free human-readable number for newly
// generated accounts. It only reads; the numbers are claimed by the batch that
// requested them, so two overlapping batches could race for the same range.
// The batch service's busy flag prevents that within a single process.
type SequenceAllocator interface {
	NextStudentNumber(ctx context.Context, grade, section string) (int, error)
	NextTeacherNumber(ctx context.Context) (int, error)
}

type sequenceAllocator struct {
	students repository.StudentRepository
	teachers repository.TeacherRepository
	logger   zerolog.Logger
}

// NewSequenceAllocator constructs the allocator.
func NewSequenceAllocator(students repository.StudentRepository, teachers repository.TeacherRepository, logger zerolog.Logger) SequenceAllocator {
	return &sequenceAllocator{
		students: students,
		teachers: teachers,
		logger:   logger.With().Str("component", "sequence_allocator").Logger(),
	}
}

// NextStudentNumber scans roll numbers in the grade/section and returns the
// highest parsed value plus one, or 1 when the classroom is empty.
func (a *sequenceAllocator) NextStudentNumber(ctx context.Context, grade, section string) (int, error) {
	students, err := a.students.ListByClassroom(ctx, grade, section)
	if err != nil {
		return 0, fmt.Errorf("allocate student sequence: %w", err)
	}

	max := 0
	for _, student := range students {
		if n, ok := parseNumber(student.RollNumber); ok && n > max {
			max = n
		}
	}

	return max + 1, nil
}

// NextTeacherNumber scans the trailing integer token of teacher display names
// and returns the highest parsed value plus one, or 1 when none parse.
func (a *sequenceAllocator) NextTeacherNumber(ctx context.Context) (int, error) {
	teachers, err := a.teachers.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("allocate teacher sequence: %w", err)
	}

	max := 0
	for _, teacher := range teachers {
		if n, ok := trailingNumber(teacher.Name); ok && n > max {
			max = n
		}
	}

	return max + 1, nil
}

func parseNumber(value string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func trailingNumber(name string) (int, bool) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return 0, false
	}
	return parseNumber(fields[len(fields)-1])
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sahayak-labs/sahayak-api/internal/models"
	"github.com/sahayak-labs/sahayak-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestNextStudentNumberEmptyClassroomStartsAtOne(t *testing.T) {
	students := newMemStudentRepo()
	allocator := NewSequenceAllocator(students, newMemTeacherRepo(), testLogger())

	next, err := allocator.NextStudentNumber(context.Background(), "5", "A")
	require.NoError(t, err)
	require.Equal(t, 1, next)
}

func TestNextStudentNumberContinuesFromMax(t *testing.T) {
	students := newMemStudentRepo()
	students.seed(models.Student{Name: "Student 4", Email: "a@x.com", Grade: "5", Section: "A", RollNumber: "4"})
	students.seed(models.Student{Name: "Priya", Email: "b@x.com", Grade: "5", Section: "A", RollNumber: "not-a-number"})
	students.seed(models.Student{Name: "Student 9", Email: "c@x.com", Grade: "5", Section: "A", RollNumber: "9"})
	students.seed(models.Student{Name: "Student 40", Email: "d@x.com", Grade: "6", Section: "A", RollNumber: "40"})

	allocator := NewSequenceAllocator(students, newMemTeacherRepo(), testLogger())

	next, err := allocator.NextStudentNumber(context.Background(), "5", "A")
	require.NoError(t, err)
	require.Equal(t, 10, next, "unparseable rolls ignored, other classrooms excluded")
}

func TestNextTeacherNumberParsesTrailingNameToken(t *testing.T) {
	teachers := newMemTeacherRepo()
	teachers.seed(models.Teacher{Name: "Teacher 2", Email: "t2@x.com"})
	teachers.seed(models.Teacher{Name: "Anjali Sharma", Email: "as@x.com"})
	teachers.seed(models.Teacher{Name: "Teacher 7", Email: "t7@x.com"})

	allocator := NewSequenceAllocator(newMemStudentRepo(), teachers, testLogger())

	next, err := allocator.NextTeacherNumber(context.Background())
	require.NoError(t, err)
	require.Equal(t, 8, next)
}

func TestAllocatorSurfacesClassifiedQueryErrors(t *testing.T) {
	students := newMemStudentRepo()
	students.listErr = fmt.Errorf("%w: relation \"students\" does not exist", repository.ErrStoreSchemaMissing)

	allocator := NewSequenceAllocator(students, newMemTeacherRepo(), testLogger())

	_, err := allocator.NextStudentNumber(context.Background(), "5", "A")
	require.Error(t, err)
	require.True(t, errors.Is(err, repository.ErrStoreSchemaMissing))
}

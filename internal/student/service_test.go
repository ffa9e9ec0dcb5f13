package student_test

import (
	"context"
	"strings"
	"testing"

	"student-sandbox/internal/metrics"
	"student-sandbox/internal/student"
	"student-sandbox/testing/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Shared(t *testing.T) {
	ctx := context.Background()

	schema, err := student.NewSchema(student.EnrolledAtSchema, fixedClock)
	require.NoError(t, err)
	database := testdb.SetupSQLite(t, schema)
	mockMetrics := metrics.NewMock()
	service := student.NewService(student.NewRepository(database, schema, mockMetrics), mockMetrics)

	t.Run("CreateStudents_Success", func(t *testing.T) {
		testdb.CleanupTables(t, database, "students")

		students := []*student.Student{newEinstein(), newTuring()}
		require.NoError(t, service.CreateStudents(ctx, students))

		count, err := service.CountStudents(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("CreateStudents_RejectsLongEmail", func(t *testing.T) {
		testdb.CleanupTables(t, database, "students")

		long := newEinstein()
		long.Email = strings.Repeat("a", 50) + "@zurich.edu"
		err := service.CreateStudents(ctx, []*student.Student{newTuring(), long})
		assert.ErrorIs(t, err, student.ErrInvalidInput)

		count, err := service.CountStudents(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count, "nothing is inserted when any record is invalid")
	})

	t.Run("CreateStudents_Validation", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(s *student.Student)
		}{
			{"MissingName", func(s *student.Student) { s.Name = "" }},
			{"MalformedEmail", func(s *student.Student) { s.Email = "not-an-email" }},
			{"NegativeGrade", func(s *student.Student) { s.Grade = -1 }},
			{"PresetID", func(s *student.Student) { s.ID = 42 }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				s := newEinstein()
				tt.mutate(s)
				err := service.CreateStudents(ctx, []*student.Student{s})
				assert.ErrorIs(t, err, student.ErrInvalidInput)
			})
		}

		err := service.CreateStudents(ctx, []*student.Student{nil})
		assert.ErrorIs(t, err, student.ErrInvalidInput)
	})

	t.Run("CreateStudents_EmptyEmailAllowed", func(t *testing.T) {
		testdb.CleanupTables(t, database, "students")

		s := newTuring()
		s.Email = ""
		require.NoError(t, service.CreateStudents(ctx, []*student.Student{s}))
		assert.NotZero(t, s.ID)
	})

	t.Run("UpdateAndDelete_RequireID", func(t *testing.T) {
		err := service.UpdateStudents(ctx, []*student.Student{newEinstein()})
		assert.ErrorIs(t, err, student.ErrInvalidInput)

		err = service.DeleteStudent(ctx, newEinstein())
		assert.ErrorIs(t, err, student.ErrInvalidInput)

		err = service.DeleteStudent(ctx, nil)
		assert.ErrorIs(t, err, student.ErrInvalidInput)
	})

	t.Run("Lifecycle", func(t *testing.T) {
		testdb.CleanupTables(t, database, "students")
		require.NoError(t, service.CreateStudents(ctx, []*student.Student{newEinstein(), newTuring()}))

		all, err := service.GetAllStudents(ctx)
		require.NoError(t, err)
		loaded := []*student.Student{&all[0], &all[1]}
		for _, s := range loaded {
			s.Grade++
		}
		require.NoError(t, service.UpdateStudents(ctx, loaded))

		n, err := service.IncrementGrades(ctx, student.Filter{}, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		rows, err := service.GetNameGrades(ctx, student.Order{})
		require.NoError(t, err)
		assert.Equal(t, []student.NameGrade{
			{Name: "Albert Einstein", Grade: 8},
			{Name: "Alan Turing", Grade: 13},
		}, rows)

		filter := student.Filter{NameEquals: "Albert Einstein"}
		einstein, err := service.FindFirstStudent(ctx, filter)
		require.NoError(t, err)
		require.NoError(t, service.DeleteStudent(ctx, einstein))

		n, err = service.DeleteStudents(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		remaining, err := service.FindStudents(ctx, student.Filter{})
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, "Alan Turing", remaining[0].Name)
	})
}

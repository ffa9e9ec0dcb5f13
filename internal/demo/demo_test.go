package demo_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"student-sandbox/internal/db"
	"student-sandbox/internal/demo"
	"student-sandbox/internal/metrics"
	"student-sandbox/internal/student"
	"student-sandbox/testing/testdb"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func newRunner(t *testing.T, database *bun.DB, out io.Writer) (*demo.Runner, student.Service) {
	t.Helper()
	schema, err := student.NewSchema(student.EnrolledAtSchema, func() time.Time {
		return time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	})
	require.NoError(t, err)

	m := metrics.NewMock()
	service := student.NewService(student.NewRepository(database, schema, m), m)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return demo.NewRunner(database, schema, service, out, logger), service
}

func TestRunner_Transcript(t *testing.T) {
	database := testdb.SetupSQLite(t, nil)

	var out bytes.Buffer
	runner, _ := newRunner(t, database, &out)

	require.NoError(t, runner.Run(context.Background()))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "walkthrough", out.Bytes())
}

func TestRunner_FinalState(t *testing.T) {
	ctx := context.Background()
	database := testdb.SetupSQLite(t, nil)
	runner, service := newRunner(t, database, io.Discard)

	require.NoError(t, runner.Run(ctx))

	remaining, err := service.GetAllStudents(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "Alan Turing", remaining[0].Name)
	assert.Equal(t, 13, remaining[0].Grade)
	assert.Equal(t, int64(2), remaining[0].ID)
}

func TestRunner_Steps(t *testing.T) {
	ctx := context.Background()
	database := testdb.SetupSQLite(t, nil)

	var out bytes.Buffer
	runner, _ := newRunner(t, database, &out)

	require.NoError(t, runner.InitSchema(ctx))
	require.NoError(t, runner.BulkInsert(ctx))
	out.Reset()

	require.NoError(t, runner.Aggregate(ctx))
	assert.Equal(t, "2\n", out.String())
	out.Reset()

	require.NoError(t, runner.FilteredRead(ctx))
	assert.Equal(t, "Alan Turing\n", out.String())
	out.Reset()

	require.NoError(t, runner.UpdateByExpression(ctx))
	assert.Equal(t, "[(Albert Einstein, 7), (Alan Turing, 12)]\n", out.String())
	out.Reset()

	require.NoError(t, runner.DeleteByExpression(ctx))
	assert.Equal(t, "None\n", out.String())
	out.Reset()

	// Einstein is already gone, so there is nothing to load.
	err := runner.DeleteByObject(ctx)
	assert.ErrorIs(t, err, student.ErrStudentNotFound)
}

func TestRunner_PropagatesBackendErrors(t *testing.T) {
	database, err := db.NewInMemory()
	require.NoError(t, err)
	require.NoError(t, db.Close(database))

	runner, _ := newRunner(t, database, io.Discard)

	err = runner.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initialize schema")
}

// Package demo runs the scripted student record walkthrough: schema creation,
// bulk insert, projections, ordering, limits, aggregation, filtering, and the
// object and expression flavors of update and delete.
package demo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"student-sandbox/internal/db"
	"student-sandbox/internal/student"

	"github.com/uptrace/bun"
)

type step struct {
	name string
	run  func(ctx context.Context) error
}

type Runner struct {
	db      bun.IDB
	schema  *student.Schema
	service student.Service
	out     io.Writer
	logger  *slog.Logger
}

func NewRunner(database bun.IDB, schema *student.Schema, service student.Service, out io.Writer, logger *slog.Logger) *Runner {
	return &Runner{
		db:      database,
		schema:  schema,
		service: service,
		out:     out,
		logger:  logger,
	}
}

// Students returns the two records the walkthrough inserts.
func Students() []*student.Student {
	return []*student.Student{
		{
			Name:     "Albert Einstein",
			Email:    "albert.einstein@zurich.edu",
			Grade:    6,
			Birthday: time.Date(1879, time.March, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			Name:     "Alan Turing",
			Email:    "alan.turing@sherborne.edu",
			Grade:    11,
			Birthday: time.Date(1912, time.June, 23, 0, 0, 0, 0, time.UTC),
		},
	}
}

// Run executes every step in order and stops at the first error.
func (r *Runner) Run(ctx context.Context) error {
	steps := []step{
		{"initialize schema", r.InitSchema},
		{"bulk insert", r.BulkInsert},
		{"read unfiltered", r.ReadAll},
		{"read ordered", r.ReadOrdered},
		{"read limited", r.ReadLimited},
		{"aggregate", r.Aggregate},
		{"filtered read", r.FilteredRead},
		{"update per object", r.UpdatePerObject},
		{"update by expression", r.UpdateByExpression},
		{"delete by object", r.DeleteByObject},
		{"delete by expression", r.DeleteByExpression},
	}

	for _, s := range steps {
		r.logger.DebugContext(ctx, "running step", "step", s.name)
		if err := s.run(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	r.logger.InfoContext(ctx, "walkthrough finished", "steps", len(steps))
	return nil
}

func (r *Runner) InitSchema(ctx context.Context) error {
	return db.RunMigrations(ctx, r.db, r.schema)
}

func (r *Runner) BulkInsert(ctx context.Context) error {
	students := Students()
	if err := r.service.CreateStudents(ctx, students); err != nil {
		return err
	}
	for _, s := range students {
		r.printf("New student ID is %d.", s.ID)
	}
	return nil
}

func (r *Runner) ReadAll(ctx context.Context) error {
	for range 2 {
		students, err := r.service.GetAllStudents(ctx)
		if err != nil {
			return err
		}
		r.println(list(students))
	}

	names, err := r.service.GetNames(ctx, student.Order{})
	if err != nil {
		return err
	}
	r.println("[" + strings.Join(names, ", ") + "]")
	return nil
}

func (r *Runner) ReadOrdered(ctx context.Context) error {
	names, err := r.service.GetNames(ctx, student.ByName)
	if err != nil {
		return err
	}
	r.println("[" + strings.Join(names, ", ") + "]")

	rows, err := r.service.GetNameGrades(ctx, student.ByGradeDesc)
	if err != nil {
		return err
	}
	r.println(list(rows))
	return nil
}

func (r *Runner) ReadLimited(ctx context.Context) error {
	top, err := r.service.GetNameBirthdays(ctx, student.ByGradeDesc, 1)
	if err != nil {
		return err
	}
	r.println(list(top))

	first, err := r.service.GetFirstNameBirthday(ctx, student.ByGradeDesc)
	if err != nil {
		return err
	}
	r.println(first.String())
	return nil
}

func (r *Runner) Aggregate(ctx context.Context) error {
	count, err := r.service.CountStudents(ctx)
	if err != nil {
		return err
	}
	r.printf("%d", count)
	return nil
}

func (r *Runner) FilteredRead(ctx context.Context) error {
	matches, err := r.service.FindStudents(ctx, student.Filter{
		NameContains: "Alan",
		Grade:        student.GradeIs(11),
	})
	if err != nil {
		return err
	}
	for _, s := range matches {
		r.println(s.Name)
	}
	return nil
}

func (r *Runner) UpdatePerObject(ctx context.Context) error {
	students, err := r.service.GetAllStudents(ctx)
	if err != nil {
		return err
	}
	loaded := make([]*student.Student, len(students))
	for i := range students {
		students[i].Grade++
		loaded[i] = &students[i]
	}
	if err := r.service.UpdateStudents(ctx, loaded); err != nil {
		return err
	}
	return r.printGrades(ctx)
}

func (r *Runner) UpdateByExpression(ctx context.Context) error {
	if _, err := r.service.IncrementGrades(ctx, student.Filter{}, 1); err != nil {
		return err
	}
	return r.printGrades(ctx)
}

func (r *Runner) DeleteByObject(ctx context.Context) error {
	filter := student.Filter{NameEquals: "Albert Einstein"}

	einstein, err := r.service.FindFirstStudent(ctx, filter)
	if err != nil {
		return err
	}
	if err := r.service.DeleteStudent(ctx, einstein); err != nil {
		return err
	}
	return r.printFirst(ctx, filter)
}

func (r *Runner) DeleteByExpression(ctx context.Context) error {
	filter := student.Filter{NameEquals: "Albert Einstein"}

	n, err := r.service.DeleteStudents(ctx, filter)
	if err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "deleted by expression", "rows", n)
	return r.printFirst(ctx, filter)
}

func (r *Runner) printGrades(ctx context.Context) error {
	rows, err := r.service.GetNameGrades(ctx, student.Order{})
	if err != nil {
		return err
	}
	r.println(list(rows))
	return nil
}

func (r *Runner) printFirst(ctx context.Context, filter student.Filter) error {
	s, err := r.service.FindFirstStudent(ctx, filter)
	switch {
	case errors.Is(err, student.ErrStudentNotFound):
		r.println("None")
		return nil
	case err != nil:
		return err
	}
	r.println(s.String())
	return nil
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

func (r *Runner) println(line string) {
	fmt.Fprintln(r.out, line)
}

func list[T fmt.Stringer](items []T) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

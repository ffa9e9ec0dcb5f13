package student

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"student-sandbox/internal/metrics"

	"github.com/uptrace/bun"
)

const table = "students"

type Repository interface {
	BulkInsert(ctx context.Context, students []*Student) error
	All(ctx context.Context) ([]Student, error)
	Names(ctx context.Context, order Order) ([]string, error)
	NameGrades(ctx context.Context, order Order) ([]NameGrade, error)
	NameBirthdays(ctx context.Context, order Order, limit int) ([]NameBirthday, error)
	FirstNameBirthday(ctx context.Context, order Order) (*NameBirthday, error)
	Count(ctx context.Context) (int, error)
	Find(ctx context.Context, filter Filter) ([]Student, error)
	First(ctx context.Context, filter Filter) (*Student, error)
	SaveAll(ctx context.Context, students []*Student) error
	IncrementGrade(ctx context.Context, filter Filter, delta int) (int64, error)
	Delete(ctx context.Context, student *Student) error
	DeleteWhere(ctx context.Context, filter Filter) (int64, error)
}

type repository struct {
	db      *bun.DB
	schema  *Schema
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, schema *Schema, m *metrics.Metrics) Repository {
	return &repository{
		db:      db,
		schema:  schema,
		metrics: m,
	}
}

// BulkInsert writes all students with one INSERT and sets their IDs.
func (r *repository) BulkInsert(ctx context.Context, students []*Student) error {
	if len(students) == 0 {
		return nil
	}
	for _, s := range students {
		if s.EnrolledDate.IsZero() {
			s.EnrolledDate = r.schema.EnrolledDate()
		}
	}

	start := time.Now()
	_, err := r.db.NewInsert().Model(&students).Returning("id").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", table, time.Since(start), err)

	if err != nil {
		return err
	}
	r.metrics.Database.RecordRows(ctx, "insert", table, int64(len(students)))
	return nil
}

func (r *repository) All(ctx context.Context) ([]Student, error) {
	start := time.Now()
	var students []Student
	err := ByID.apply(r.db.NewSelect().Model(&students)).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", table, time.Since(start), err)

	return students, err
}

func (r *repository) Names(ctx context.Context, order Order) ([]string, error) {
	if err := order.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	var names []string
	q := r.db.NewSelect().Model((*Student)(nil)).Column("name")
	err := order.apply(q).Scan(ctx, &names)

	r.metrics.Database.RecordQuery(ctx, "select", table, time.Since(start), err)

	return names, err
}

func (r *repository) NameGrades(ctx context.Context, order Order) ([]NameGrade, error) {
	if err := order.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	var rows []NameGrade
	q := r.db.NewSelect().Model((*Student)(nil)).Column("name", "grade")
	err := order.apply(q).Scan(ctx, &rows)

	r.metrics.Database.RecordQuery(ctx, "select", table, time.Since(start), err)

	return rows, err
}

// NameBirthdays returns at most limit rows; limit <= 0 means no limit.
func (r *repository) NameBirthdays(ctx context.Context, order Order, limit int) ([]NameBirthday, error) {
	if err := order.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	var rows []NameBirthday
	q := order.apply(r.db.NewSelect().Model((*Student)(nil)).Column("name", "birthday"))
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Scan(ctx, &rows)

	r.metrics.Database.RecordQuery(ctx, "select", table, time.Since(start), err)

	return rows, err
}

func (r *repository) FirstNameBirthday(ctx context.Context, order Order) (*NameBirthday, error) {
	if err := order.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	row := new(NameBirthday)
	q := r.db.NewSelect().Model((*Student)(nil)).Column("name", "birthday")
	err := order.apply(q).Limit(1).Scan(ctx, row)

	r.metrics.Database.RecordQuery(ctx, "select", table, time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return row, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	start := time.Now()
	var count int
	err := r.db.NewSelect().
		Model((*Student)(nil)).
		ColumnExpr("count(?)", bun.Ident("s.id")).
		Scan(ctx, &count)

	r.metrics.Database.RecordQuery(ctx, "count", table, time.Since(start), err)

	return count, err
}

func (r *repository) Find(ctx context.Context, filter Filter) ([]Student, error) {
	start := time.Now()
	var students []Student
	q := r.db.NewSelect().Model(&students).ApplyQueryBuilder(filter.apply)
	err := ByID.apply(q).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", table, time.Since(start), err)

	return students, err
}

// First returns the lowest-id student matching filter.
func (r *repository) First(ctx context.Context, filter Filter) (*Student, error) {
	start := time.Now()
	student := new(Student)
	q := r.db.NewSelect().Model(student).ApplyQueryBuilder(filter.apply)
	err := ByID.apply(q).Limit(1).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", table, time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}

// SaveAll writes every loaded student back by primary key in one transaction.
// Nothing is committed if any of them no longer exists.
func (r *repository) SaveAll(ctx context.Context, students []*Student) error {
	start := time.Now()
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, s := range students {
			result, err := tx.NewUpdate().Model(s).WherePK().Exec(ctx)
			if err != nil {
				return err
			}
			rowsAffected, err := result.RowsAffected()
			if err != nil {
				return err
			}
			if rowsAffected == 0 {
				return fmt.Errorf("%w: id %d", ErrStudentNotFound, s.ID)
			}
		}
		return nil
	})

	r.metrics.Database.RecordQuery(ctx, "update", table, time.Since(start), err)

	if err != nil {
		return err
	}
	r.metrics.Database.RecordRows(ctx, "update", table, int64(len(students)))
	return nil
}

// IncrementGrade adds delta to grade for every matching row without loading it.
func (r *repository) IncrementGrade(ctx context.Context, filter Filter, delta int) (int64, error) {
	start := time.Now()
	result, err := r.db.NewUpdate().
		Model((*Student)(nil)).
		Set("grade = grade + ?", delta).
		ApplyQueryBuilder(filter.apply).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", table, time.Since(start), err)

	if err != nil {
		return 0, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	r.metrics.Database.RecordRows(ctx, "update", table, rowsAffected)
	return rowsAffected, nil
}

// Delete removes a loaded student in its own transaction.
func (r *repository) Delete(ctx context.Context, student *Student) error {
	start := time.Now()
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewDelete().Model(student).WherePK().Exec(ctx)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return ErrStudentNotFound
		}
		return nil
	})

	r.metrics.Database.RecordQuery(ctx, "delete", table, time.Since(start), err)

	if err != nil {
		return err
	}
	r.metrics.Database.RecordRows(ctx, "delete", table, 1)
	return nil
}

// DeleteWhere removes every matching row. Matching nothing is not an error.
func (r *repository) DeleteWhere(ctx context.Context, filter Filter) (int64, error) {
	start := time.Now()
	result, err := r.db.NewDelete().
		Model((*Student)(nil)).
		ApplyQueryBuilder(filter.apply).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", table, time.Since(start), err)

	if err != nil {
		return 0, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	r.metrics.Database.RecordRows(ctx, "delete", table, rowsAffected)
	return rowsAffected, nil
}

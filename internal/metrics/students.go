package metrics

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

type StudentMetrics struct {
	studentsCreated metric.Int64Counter
	gradesRaised    metric.Int64Counter
	studentsDeleted metric.Int64Counter
}

func NewStudentMetrics(meter metric.Meter) (*StudentMetrics, error) {
	m := &StudentMetrics{}

	var err error

	m.studentsCreated, err = meter.Int64Counter(
		"sandbox.students.created",
		metric.WithDescription("Total number of students inserted"),
		metric.WithUnit("{student}"),
	)
	if err != nil {
		return nil, err
	}

	m.gradesRaised, err = meter.Int64Counter(
		"sandbox.students.grades_raised",
		metric.WithDescription("Total number of student grade increments"),
		metric.WithUnit("{student}"),
	)
	if err != nil {
		return nil, err
	}

	m.studentsDeleted, err = meter.Int64Counter(
		"sandbox.students.deleted",
		metric.WithDescription("Total number of students deleted"),
		metric.WithUnit("{student}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *StudentMetrics) RecordCreated(ctx context.Context, n int64) {
	if m != nil && m.studentsCreated != nil {
		m.studentsCreated.Add(ctx, n)
	}
}

func (m *StudentMetrics) RecordGradesRaised(ctx context.Context, n int64) {
	if m != nil && m.gradesRaised != nil {
		m.gradesRaised.Add(ctx, n)
	}
}

func (m *StudentMetrics) RecordDeleted(ctx context.Context, n int64) {
	if m != nil && m.studentsDeleted != nil {
		m.studentsDeleted.Add(ctx, n)
	}
}

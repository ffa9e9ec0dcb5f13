package metrics

import (
	"database/sql"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	Database *DatabaseMetrics
	Students *StudentMetrics
	meter    metric.Meter
}

func New(meter metric.Meter, logger *slog.Logger) (*Metrics, error) {
	database, err := NewDatabaseMetrics(meter)
	if err != nil {
		return nil, err
	}

	students, err := NewStudentMetrics(meter)
	if err != nil {
		return nil, err
	}

	logger.Debug("metrics collectors initialized")

	return &Metrics{
		Database: database,
		Students: students,
		meter:    meter,
	}, nil
}

// RegisterDB hooks connection pool gauges up to db.
func (m *Metrics) RegisterDB(db *sql.DB) error {
	if m == nil || m.meter == nil {
		return nil
	}
	return m.Database.RegisterDB(db, m.meter)
}

// NewMock creates a no-op Metrics instance for testing
// The returned Metrics will safely ignore all Record* calls
func NewMock() *Metrics {
	return &Metrics{
		Database: &DatabaseMetrics{},
		Students: &StudentMetrics{},
	}
}

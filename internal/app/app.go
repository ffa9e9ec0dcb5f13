package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"student-sandbox/internal/config"
	"student-sandbox/internal/db"
	"student-sandbox/internal/demo"
	"student-sandbox/internal/logger"
	"student-sandbox/internal/student"
	"student-sandbox/internal/telemetry"

	"github.com/uptrace/bun"
)

type App struct {
	config    *config.Config
	logger    *slog.Logger
	db        *bun.DB
	telemetry *telemetry.Telemetry
	runner    *demo.Runner
}

// New wires the walkthrough. The transcript goes to out, logs go to logOut.
func New(ctx context.Context, cfg *config.Config, out, logOut io.Writer) (*App, error) {
	slogLogger := logger.NewWithServiceContext(logOut, ServiceName, Version, cfg.Env, cfg.Log.Level)
	slog.SetDefault(slogLogger)

	slogLogger.Debug("initializing application", "commit", GitCommit, "built", BuildTime)

	tel, err := telemetry.Init(ctx, ServiceName, Version, slogLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	database, err := db.New(cfg.Database)
	if err != nil {
		_ = telemetry.Shutdown(ctx, tel, slogLogger)
		return nil, err
	}
	if err := tel.Metrics.RegisterDB(database.DB); err != nil {
		slogLogger.Warn("failed to register database metrics", "error", err)
	}

	schema, err := student.NewSchema(student.EnrolledDefault(cfg.Schema.EnrolledDefault), nil)
	if err != nil {
		_ = db.Close(database)
		_ = telemetry.Shutdown(ctx, tel, slogLogger)
		return nil, err
	}

	studentRepo := student.NewRepository(database, schema, tel.Metrics)
	studentService := student.NewService(studentRepo, tel.Metrics)

	slogLogger.Debug("application initialized",
		"dsn", cfg.Database.DSN,
		"enrolled_default", schema.Policy(),
	)

	return &App{
		config:    cfg,
		logger:    slogLogger,
		db:        database,
		telemetry: tel,
		runner:    demo.NewRunner(database, schema, studentService, out, slogLogger),
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting walkthrough", "env", a.config.Env)
	return a.runner.Run(ctx)
}

// Close releases the database and flushes telemetry.
func (a *App) Close(ctx context.Context) error {
	a.logger.Debug("closing application")
	return errors.Join(
		db.Close(a.db),
		telemetry.Shutdown(ctx, a.telemetry, a.logger),
	)
}

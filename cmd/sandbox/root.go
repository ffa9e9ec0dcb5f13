package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"student-sandbox/internal/app"
	"student-sandbox/internal/config"

	"github.com/spf13/cobra"
)

// RootOptions holds the command's flags.
type RootOptions struct {
	Env        string
	ConfigDirs []string
}

// NewRootCommand creates the sandbox command. It runs the student record
// walkthrough against a fresh in-memory database and prints each result.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Student record ORM walkthrough",
		Long: `Creates the students schema in a throwaway in-memory SQLite database,
inserts two students, and walks through reads, projections, ordering,
limits, aggregation, filtering, updates and deletes, printing each result.

Configuration comes from config.<env>.yaml when present and SANDBOX_*
environment variables.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", app.Version, app.GitCommit, app.BuildTime),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, out, errOut)
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.Flags().StringVar(&opts.Env, "env", "", "config environment (defaults to $ENV, then local)")
	cmd.Flags().StringSliceVar(&opts.ConfigDirs, "config-dir", nil, "directories searched for config.<env>.yaml")

	return cmd
}

func run(ctx context.Context, opts *RootOptions, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(opts.Env, opts.ConfigDirs...)
	if err != nil {
		fmt.Fprintf(errOut, "failed to load config: %v\n", err)
		return err
	}

	application, err := app.New(ctx, cfg, out, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "failed to initialize: %v\n", err)
		return err
	}

	runErr := application.Run(ctx)
	if runErr != nil {
		slog.ErrorContext(ctx, "walkthrough failed", "error", runErr)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := application.Close(closeCtx); err != nil {
		slog.Error("failed to close application", "error", err)
		return errors.Join(runErr, err)
	}
	return runErr
}

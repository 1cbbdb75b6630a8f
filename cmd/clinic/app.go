package main

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinic/exams/internal/config"
	"github.com/clinic/exams/internal/domain/exam"
	"github.com/clinic/exams/internal/domain/patient"
	"github.com/clinic/exams/internal/domain/registry"
	"github.com/clinic/exams/internal/domain/scheduling"
	"github.com/clinic/exams/internal/platform/db"
	"github.com/clinic/exams/internal/platform/reporting"
)

// app is the wired object graph shared by the server and the CLI
// commands. It owns the gateway and must be closed.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	gw       *db.Gateway
	registry *registry.Service
	patients *patient.Service
	exams    *exam.Service
	sched    *scheduling.Service
	reports  *reporting.Service
}

func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	if cfg.IsDev() {
		out = zerolog.ConsoleWriter{Out: out}
	}
	return zerolog.New(out).Level(cfg.Level()).With().Timestamp().Logger()
}

func newGateway(cfg *config.Config, log zerolog.Logger) *db.Gateway {
	settings, err := config.LoadSettings(cfg.DBConfigFile)
	if err != nil {
		// The defaults are still usable when the file cannot be rewritten.
		log.Warn().Err(err).Str("file", cfg.DBConfigFile).Msg("using default connection settings")
	}
	return db.NewGateway(settings.DSN(), db.Options{
		MaxConns: cfg.DBMaxConns,
		Retry: db.RetryPolicy{
			MaxAttempts: cfg.DBRetries,
			Backoff:     cfg.DBRetryBackoff,
		},
		Logger: log,
	})
}

func newApp(cfg *config.Config, log zerolog.Logger, gw *db.Gateway) *app {
	return &app{
		cfg: cfg,
		log: log,
		gw:  gw,
		registry: registry.NewService(
			registry.NewCompanyRepoPG(gw),
			registry.NewUnitRepoPG(gw),
			registry.NewProfessionalRepoPG(gw),
		),
		patients: patient.NewService(patient.NewPatientRepoPG(gw)),
		exams:    exam.NewService(exam.NewExamRepoPG(gw)),
		sched: scheduling.NewService(
			scheduling.NewAppointmentRepoPG(gw),
			scheduling.NewResultRepoPG(gw),
			scheduling.NewAvailabilityRepoPG(gw),
		),
		reports: reporting.NewService(gw),
	}
}

// openApp loads the configuration, connects the gateway and wires the
// services. Logs go to logOut.
func openApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg, logOut)

	gw := newGateway(cfg, log)
	if err := gw.Connect(ctx); err != nil {
		return nil, err
	}
	return newApp(cfg, log, gw), nil
}

func (a *app) Close() {
	a.gw.Close()
}

// withApp runs fn against a connected app for the duration of one
// command.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

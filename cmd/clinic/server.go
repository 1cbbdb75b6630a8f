package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/clinic/exams/internal/domain/exam"
	"github.com/clinic/exams/internal/domain/patient"
	"github.com/clinic/exams/internal/domain/registry"
	"github.com/clinic/exams/internal/domain/scheduling"
	"github.com/clinic/exams/internal/platform/db"
	"github.com/clinic/exams/internal/platform/middleware"
	"github.com/clinic/exams/internal/platform/reporting"
	"github.com/clinic/exams/internal/platform/validation"
)

// newServer builds the echo instance with every route registered. It
// does not open the gateway.
func newServer(a *app) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.Echo{}

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.log))
	e.Use(middleware.Recovery(a.log))
	e.Use(middleware.RequestTimeout(a.cfg.RequestTimeout, "/health"))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(echomw.Secure())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: a.cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderContentType, middleware.RequestIDHeader},
	}))

	apiV1 := e.Group("/api/v1")
	registry.NewHandler(a.registry).RegisterRoutes(apiV1)
	patient.NewHandler(a.patients).RegisterRoutes(apiV1)
	exam.NewHandler(a.exams).RegisterRoutes(apiV1)
	scheduling.NewHandler(a.sched).RegisterRoutes(apiV1)
	reporting.NewHandler(a.reports).RegisterRoutes(apiV1)

	e.GET("/health/db", db.HealthHandler(a.gw))
	return e
}

func runServer(ctx context.Context) error {
	a, err := openApp(ctx, os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()

	e := newServer(a)
	errCh := make(chan error, 1)
	go func() {
		addr := ":" + a.cfg.Port
		a.log.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.log.Error().Err(err).Msg("server error")
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	a.log.Info().Msg("server stopped")
	return nil
}

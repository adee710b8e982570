package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/chart/internal/config"
	"github.com/ehr/chart/internal/domain/allergy"
	"github.com/ehr/chart/internal/domain/condition"
	"github.com/ehr/chart/internal/domain/medication"
	"github.com/ehr/chart/internal/domain/patient"
	"github.com/ehr/chart/internal/platform/auth"
	"github.com/ehr/chart/internal/platform/fhirclient"
	"github.com/ehr/chart/internal/platform/middleware"
	"github.com/ehr/chart/internal/platform/notify"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chart-server",
		Short: "Patient chart API server",
	}

	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the patient chart API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Notification channel and its provider
	notifier := notify.NewChannel(logger)
	provider := notify.NewProvider(notifier)

	// Upstream FHIR client
	client := fhirclient.New(fhirclient.Config{
		BaseURL:    cfg.FHIRBaseURL,
		Timeout:    cfg.FHIRTimeout(),
		RetryCount: cfg.FHIRRetryCount,
		LoginPath:  cfg.LoginPath,
	}, notifier, logger)
	logger.Info().Str("fhir_base_url", cfg.FHIRBaseURL).Msg("upstream FHIR server configured")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestTimeout(cfg.FHIRTimeout() + 5*time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	e.Use(auth.Middleware(auth.Config{
		Mode:      cfg.ResolvedAuthMode(),
		LoginPath: cfg.LoginPath,
	}))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	// API group
	apiV1 := e.Group("/api/v1")

	patientSvc := patient.NewService(client, notifier, logger)
	patient.NewHandler(patientSvc, notifier, logger).RegisterRoutes(apiV1)

	allergySvc := allergy.NewService(client, notifier, logger)
	allergy.NewHandler(allergySvc, notifier, logger).RegisterRoutes(apiV1)

	conditionSvc := condition.NewService(client, notifier, logger)
	condition.NewHandler(conditionSvc, notifier, logger).RegisterRoutes(apiV1)

	medicationSvc := medication.NewService(client, notifier, logger)
	medication.NewHandler(medicationSvc, notifier, logger).RegisterRoutes(apiV1)

	notify.NewHandler(provider).RegisterRoutes(apiV1)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting chart server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

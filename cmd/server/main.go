package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/benmeehan/trailprint/internal/handlers"
	"github.com/benmeehan/trailprint/internal/metrics"
	"github.com/benmeehan/trailprint/internal/service_registry"
	"github.com/benmeehan/trailprint/internal/utils"
	"github.com/benmeehan/trailprint/pkg/file"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const configFile = "configs/config.yaml"

func main() {
	// Set up structured logging with JSON output
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "trailprint").Logger()

	// A missing .env is fine; the environment may already be populated
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Err(err).Msg("Failed to load .env file")
	}

	// Initialize file operations handler
	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig(configFile, fileClient)
	if err != nil {
		logger.Fatal().Err(err).Str("file", configFile).Msg("Failed to load configuration")
	}

	level, err := zerolog.ParseLevel(config.Log.Level)
	if err != nil {
		logger.Fatal().Err(err).Str("level", config.Log.Level).Msg("Invalid log level")
	}
	logger = logger.Level(level)
	if level > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(config.Metrics.Host, logger)

	// Build the collaborators enabled in the configuration
	registry := service_registry.NewServiceRegistry(config, fileClient, m, logger)
	handlerConfig, err := registry.Build(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build services")
	}
	defer registry.Close()

	router := handlers.NewRouter(handlers.NewReportHandler(handlerConfig), m.Registry, logger)
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("Server stopped with error")
		registry.Close()
		os.Exit(1)
	}
	logger.Info().Msg("Server stopped")
}

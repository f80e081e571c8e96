package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forecast-verifier/internal/config"
	"forecast-verifier/internal/scheduler"
	"forecast-verifier/internal/store"
	"forecast-verifier/pkg/client"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	logger.Info("Starting Forecast Verifier Ingest Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize record store
	recordStore, err := store.NewMySQLStore(cfg.Database.DSN, cfg.Location.TZ, logger)
	if err != nil {
		logger.Fatal("Failed to initialize record store", zap.Error(err))
	}
	defer recordStore.Close()

	// Initialize weather API client
	weatherClient := client.NewOpenMeteoClient(
		cfg.WeatherAPI.BaseURL,
		cfg.Location.Latitude,
		cfg.Location.Longitude,
		cfg.Location.Timezone,
		client.ClientConfig{
			Timeout:        cfg.WeatherAPI.HTTPTimeout,
			BreakerTimeout: 30 * time.Second,
		},
		logger,
	)

	// Sampling instants are taken in the configured location
	now := func() time.Time {
		return time.Now().In(cfg.Location.TZ)
	}

	// Initialize sampling scheduler
	runner := scheduler.NewRunner(weatherClient, recordStore, now, logger)
	samplingScheduler := scheduler.NewScheduler(runner, cfg.Scheduler.SampleInterval, logger)

	// Create Fiber app for liveness and metrics
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("Forecast Verifier is running!")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Start scheduler
	samplingScheduler.Start()

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.IngestPort
		logger.Info("Starting ingest server", zap.String("address", addr))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down ingest service...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop scheduler; waits for an in-flight cycle
	samplingScheduler.Stop()

	// Shutdown Fiber app
	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Ingest service stopped")
}

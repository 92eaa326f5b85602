package main

import (
	"context"
	"fmt"
	"log"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartcity/tripduration/internal/config"
	"github.com/smartcity/tripduration/internal/delivery/http"
	"github.com/smartcity/tripduration/internal/domain"
	"github.com/smartcity/tripduration/internal/metrics"
	"github.com/smartcity/tripduration/internal/publisher"
	"github.com/smartcity/tripduration/internal/regressor"
	"github.com/smartcity/tripduration/internal/repository/filesystem"
	"github.com/smartcity/tripduration/internal/repository/postgres"
	"github.com/smartcity/tripduration/internal/service"
)

func main() {
	// Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var collector *metrics.Collector
	opts := []service.Option{service.WithStrictBounds(cfg.StrictBounds)}
	if cfg.MetricsEnabled {
		collector = metrics.NewCollector()
		opts = append(opts, service.WithMetrics(collector))
	}

	// Database connection, only needed for postgres artifacts
	var pool *pgxpool.Pool
	if cfg.ArtifactSource == config.SourcePostgres {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.Printf("Warning: Could not connect to database: %v", err)
			pool = nil
		} else {
			defer pool.Close()
			log.Println("Connected to PostgreSQL")
		}
	}

	// Dependency Injection: Repositories
	modelOpts := regressor.Options{RemoteURL: cfg.MLServiceURL}
	var artifactRepo service.ArtifactRepository
	switch cfg.ArtifactSource {
	case config.SourcePostgres:
		if pool != nil {
			artifactRepo = postgres.NewPostgresRepository(pool, modelOpts)
		}
	case config.SourceFixture:
		artifactRepo = postgres.NewMockRepository()
	default:
		artifactRepo = filesystem.NewRepository(cfg.ArtifactDir, modelOpts)
	}

	// Optional event publisher
	if cfg.NATSURL != "" {
		var pm publisher.PublisherMetrics
		if collector != nil {
			pm = collector
		}
		natsPub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject, pm)
		if err != nil {
			log.Printf("Warning: NATS unavailable, prediction events disabled: %v", err)
		} else {
			defer natsPub.Close()
			opts = append(opts, service.WithPublisher(natsPub))
		}
	}

	// Artifacts are loaded once; a failure leaves the service degraded instead of exiting
	bundle, loadErr := loadBundle(artifactRepo, cfg.ArtifactVersion)
	if loadErr != nil {
		log.Printf("Warning: Running without a model: %v", loadErr)
	} else {
		log.Printf("Loaded bundle %q (%d features, direction %s)", bundle.Version, bundle.Manifest.Len(), bundle.Direction)
	}
	predictionSvc := service.NewPredictionService(bundle, loadErr, opts...)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "Trip Duration API v1.0",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Routes
	var metricsHandler nethttp.Handler
	if collector != nil {
		metricsHandler = collector.Handler()
	}
	http.SetupRoutes(app, predictionSvc, metricsHandler)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited gracefully")
}

func loadBundle(repo service.ArtifactRepository, version string) (*domain.Bundle, error) {
	if repo == nil {
		return nil, fmt.Errorf("%w: no artifact repository, database unavailable", domain.ErrArtifactLoad)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	set, err := repo.LoadArtifacts(ctx, version)
	if err != nil {
		return nil, err
	}
	bundle, _, err := service.NewBundle(set)
	return bundle, err
}

package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"userreg/internal/config"
	"userreg/internal/database"
	"userreg/internal/repositories"
	"userreg/internal/server"
	"userreg/internal/services"
	"userreg/pkg/logger"
	"userreg/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	app, cleanup, err := newApp(cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize application", zap.Error(err))
	}

	// --- Start HTTP Server ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		zlog.Info("starting server", zap.String("addr", cfg.Addr()))
		if err := app.Listen(cfg.Addr()); err != nil {
			zlog.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	zlog.Info("shutting down server")

	if err := app.Shutdown(); err != nil {
		zlog.Error("error during fiber shutdown", zap.Error(err))
	}
	cleanup()
	zlog.Info("server gracefully stopped")
}

// newApp wires storage, the optional event broker, the service and the HTTP
// app. cleanup releases whatever was opened.
func newApp(cfg config.Config, zlog *zap.Logger) (*fiber.App, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				zlog.Warn("cleanup failed", zap.Error(err))
			}
		}
	}

	// --- Initialize Repositories ---
	var userRepo repositories.UserRepository
	if cfg.Database.Driver == config.DriverMemory {
		zlog.Warn("using in-memory storage, records are lost on exit")
		userRepo = repositories.NewMemoryUserRepository()
	} else {
		db, err := database.Open(cfg.Database, zlog)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		closers = append(closers, func() error { return database.Close(db) })
		userRepo = repositories.NewGORMUserRepository(db)
	}

	// --- Initialize RabbitMQ Client ---
	var opts []services.Option
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, zlog)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		closers = append(closers, mqClient.Close)
		opts = append(opts, services.WithEventPublisher(mqClient))

		if err := mqClient.ConsumeUserEvents(rabbitmq.LogUserEvent(zlog.Named("events"))); err != nil {
			zlog.Warn("failed to start user event consumer", zap.Error(err))
		}
	}

	// --- Initialize Services ---
	userService := services.NewUserService(userRepo, zlog, opts...)

	app := server.New(server.Config{AccessLog: cfg.Log.Dev}, userService, zlog)
	return app, cleanup, nil
}

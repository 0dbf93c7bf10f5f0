package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"timetrack-backend/internal/admin"
	"timetrack-backend/internal/auth"
	"timetrack-backend/internal/config"
	"timetrack-backend/internal/settings"
	"timetrack-backend/internal/store"
	"timetrack-backend/internal/timelog"
	"timetrack-backend/internal/webhook"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Config loaded (port: %d, db: %s)", cfg.Server.Port, cfg.Database.Name)

	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	if err := db.Bootstrap(ctx); err != nil {
		log.Fatalf("Failed to bootstrap tables: %v", err)
	}

	settingsStore := settings.NewDBStore(db)
	if err := settingsStore.EnsureDefaults(ctx); err != nil {
		log.Fatalf("Failed to seed webhook settings: %v", err)
	}
	log.Println("Tables ready")

	// Webhook pipeline: bounded worker pool, DB-audited dispatcher, and
	// the mutation listener wired into the host's lifecycle hooks.
	pool := webhook.NewPool(cfg.Webhook.Workers, cfg.Webhook.QueueSize)
	dispatcher := webhook.NewDispatcher(webhook.NewDBRecorder(db))

	repo := timelog.NewRepository(db)
	hooks := timelog.NewHooks()
	hooks.Register(webhook.NewListener(settingsStore, repo, dispatcher, pool))
	service := timelog.NewService(repo, hooks)

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authHandler := auth.NewHandler(db, cfg.JWTSecret)
	auth.RegisterRoutes(app, authHandler)

	authMW := auth.Middleware(cfg.JWTSecret)
	adminMW := auth.RequireAdmin()

	admin.RegisterRoutes(app, admin.NewHandler(settingsStore), authMW, adminMW)
	timelog.RegisterRoutes(app, timelog.NewHandler(service), authMW)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down")
	if err := app.Shutdown(); err != nil {
		log.Printf("ERROR: server shutdown: %v", err)
	}
	// Drain queued deliveries before exiting; anything still in flight
	// when the process is killed is lost, which delivery semantics allow.
	pool.Stop()
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	var appErr *timelog.AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(timelog.ErrorResponse{Error: appErr})
	}

	log.Printf("ERROR: %v", err)
	return c.Status(code).JSON(timelog.ErrorResponse{
		Error: &timelog.AppError{
			Code:    "INTERNAL_ERROR",
			Message: "Internal server error",
		},
	})
}

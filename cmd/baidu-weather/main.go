package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	httpapi "github.com/xyzmos/hass-weather-baidu/internal/api/http"
	"github.com/xyzmos/hass-weather-baidu/internal/baidu"
	"github.com/xyzmos/hass-weather-baidu/internal/config"
	"github.com/xyzmos/hass-weather-baidu/internal/setup"
	"github.com/xyzmos/hass-weather-baidu/internal/store"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	// Shared HTTP client for outbound vendor calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Packaged administrative-region reference table.
	districts, err := baidu.LoadDistricts()
	if err != nil {
		log.WithError(err).Fatal("failed to load district table")
	}

	// Persisted config entries.
	entryStore, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("failed to open entry store")
	}
	defer entryStore.Close()

	// Setup service owning the per-entry coordinators.
	svc := setup.New(log, entryStore, districts, httpClient, cfg.Home, cfg.Zones)

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := svc.Boot(bootCtx); err != nil {
		cancelBoot()
		log.WithError(err).Fatal("failed to restore config entries")
	}
	cancelBoot()
	defer svc.Shutdown()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "hass-weather-baidu",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "hass-weather-baidu",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, svc)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Error("fiber server stopped")
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
}

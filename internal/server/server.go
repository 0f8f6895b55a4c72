// Package server assembles the Fiber application for the user API.
package server

import (
	"errors"
	"time"

	"userreg/internal/handlers"
	"userreg/internal/middleware"
	"userreg/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// Config toggles optional middleware.
type Config struct {
	// AccessLog adds Fiber's plain-text access log next to the zap request log.
	AccessLog bool
}

// New builds the app with every route registered.
func New(cfg Config, userService *services.UserService, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "user-registration",
		ErrorHandler: errorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())
	app.Use(middleware.RequestLogger(logger))
	if cfg.AccessLog {
		app.Use(fiberlogger.New())
	}

	// Liveness probe
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"message": "User registration API is running",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	api := app.Group("/api")
	handlers.NewUserHandler(userService, logger).RegisterRoutes(api)

	return app
}

// errorHandler renders errors that escape the handlers, such as unknown
// routes or recovered panics, as `{ message }` bodies.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := handlers.MsgServerError

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			if code < fiber.StatusInternalServerError {
				message = fe.Message
			}
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error("unhandled error", zap.String("path", utils.CopyString(c.Path())), zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{"message": message})
	}
}

// Package app assembles the Fiber application: middleware, error handling and
// the route table.
package app

import (
	"errors"
	"time"

	"onlyfails/internal/handlers"
	"onlyfails/internal/logger"
	"onlyfails/internal/metrics"
	"onlyfails/internal/middleware"
	"onlyfails/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Welcome is the body of GET /api.
const Welcome = "Welcome to the OnlyFails API!"

// New builds the Fiber app serving the OnlyFails API.
func New(users *services.UserService, products *services.ProductService, verifier middleware.TokenVerifier) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "OnlyFails",
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(requestLogger())
	app.Use(metrics.Middleware())

	// --- Operational endpoints ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", metrics.Handler())

	// --- API Routes ---
	api := app.Group("/api")
	api.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(Welcome)
	})
	handlers.NewAuthHandler(users).RegisterRoutes(api)
	handlers.NewProductHandler(products, verifier).RegisterRoutes(api)

	return app
}

// errorHandler keeps errors that escape the handlers, such as unmatched routes
// or recovered panics, in the JSON error shape.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error."

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		logger.Log.Errorw("unhandled error",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.Locals("requestid"),
			"err", err,
		)
	}
	return c.Status(code).JSON(fiber.Map{"error": message})
}

// requestLogger writes one structured line per request.
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		logger.Log.Infow("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", time.Since(start).String(),
			"ip", c.IP(),
			"request_id", c.Locals("requestid"),
		)
		return err
	}
}

// Package app assembles the HTTP application served by `gcpiac serve`
package app

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/celestiaorg/gcpiac/internal/api/v1/handlers"
	"github.com/celestiaorg/gcpiac/internal/api/v1/middleware"
	"github.com/celestiaorg/gcpiac/internal/api/v1/routes"
	"github.com/celestiaorg/gcpiac/internal/metrics"
)

// Options are the parts the application is assembled from
type Options struct {
	Handler *handlers.Handler
	Metrics *metrics.Metrics // optional
	Log     logrus.FieldLogger
}

// NewApp creates the fiber application with every route registered
func NewApp(opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "gcpiac",
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(middleware.Logger(opts.Log))

	// Health check
	app.Get(routes.HealthCheck, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	}).Name("health")

	if opts.Metrics != nil {
		app.Get(routes.Metrics, adaptor.HTTPHandler(opts.Metrics.Handler())).Name("metrics")
	}

	// API v1 routes
	routes.Register(app, opts.Handler)

	return app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(handlers.Response{
		Slug:  handlers.ErrorSlug,
		Error: err.Error(),
	})
}

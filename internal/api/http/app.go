package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/quickdesk/helpdesk-api/internal/observability"
)

// AppOptions configures the fiber application.
type AppOptions struct {
	Name      string
	BodyLimit int
	Timeout   time.Duration
	Logger    *zap.Logger
	Metrics   *observability.Metrics
}

// NewApp builds the fiber application with global middleware and every route.
func NewApp(opts AppOptions, routes RouteConfig) *fiber.App {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		AppName:               opts.Name,
		BodyLimit:             opts.BodyLimit,
		ErrorHandler:          ErrorHandler(logger),
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, logger, opts.Metrics, opts.Timeout)
	if routes.Metrics == nil {
		routes.Metrics = opts.Metrics
	}
	RegisterRoutes(app, routes)
	return app
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/helpdesk-api/internal/api/http/handlers"
	"github.com/quickdesk/helpdesk-api/internal/auth"
	"github.com/quickdesk/helpdesk-api/internal/domain"
	"github.com/quickdesk/helpdesk-api/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Auth            *handlers.AuthHandler
	Tickets         *handlers.TicketsHandler
	Attachments     *handlers.AttachmentsHandler
	Categories      *handlers.CategoriesHandler
	Users           *handlers.UsersHandler
	UpgradeRequests *handlers.UpgradeRequestsHandler
	AuthMiddleware  *auth.AuthMiddleware
	RateLimiter     fiber.Handler
	Metrics         *observability.Metrics
}

// RegisterRoutes wires HTTP routes. Role checks here are coarse; services
// repeat them together with ownership checks.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authn := cfg.AuthMiddleware.Handle
	if cfg.Metrics != nil {
		app.Get("/metrics", authn, auth.RequireCapability(domain.CapManageUsers), cfg.Metrics.Handler)
	}
	rateLimit := cfg.RateLimiter
	if rateLimit == nil {
		rateLimit = func(c *fiber.Ctx) error { return c.Next() }
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", rateLimit, cfg.Auth.Register)
	authGroup.Post("/login", rateLimit, cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/me", authn, cfg.Auth.Me)
	authGroup.Post("/password/change", authn, cfg.Auth.ChangePassword)

	tickets := app.Group("/tickets", authn)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", auth.RequireCapability(domain.CapCreateTicket), cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/history", auth.RequireCapability(domain.CapViewInternal), cfg.Tickets.History)
	tickets.Patch("/:id/status", auth.RequireCapability(domain.CapChangeStatus), cfg.Tickets.UpdateStatus)
	tickets.Patch("/:id/priority", auth.RequireCapability(domain.CapTriage), cfg.Tickets.UpdatePriority)
	tickets.Patch("/:id/assign", auth.RequireCapability(domain.CapTriage), cfg.Tickets.Assign)
	tickets.Post("/:id/comments", auth.RequireCapability(domain.CapComment), cfg.Tickets.AddComment)
	tickets.Post("/:id/vote", auth.RequireCapability(domain.CapVote), cfg.Tickets.Vote)

	app.Get("/attachments/*", authn, cfg.Attachments.Download)

	categories := app.Group("/categories")
	categories.Get("/", cfg.Categories.List)
	manageCategories := []fiber.Handler{authn, auth.RequireCapability(domain.CapManageCategories)}
	categories.Post("/", append(manageCategories, cfg.Categories.Create)...)
	categories.Put("/:id", append(manageCategories, cfg.Categories.Update)...)
	categories.Delete("/:id", append(manageCategories, cfg.Categories.Delete)...)

	users := app.Group("/users", authn, auth.RequireCapability(domain.CapManageUsers))
	users.Get("/", cfg.Users.List)
	users.Patch("/:id/role", cfg.Users.UpdateRole)
	users.Patch("/:id/deactivate", cfg.Users.Deactivate)

	upgrades := app.Group("/upgrade-requests", authn)
	upgrades.Post("/", cfg.UpgradeRequests.Create)
	upgrades.Get("/my-requests", cfg.UpgradeRequests.Mine)
	upgrades.Get("/", auth.RequireCapability(domain.CapReviewUpgrades), cfg.UpgradeRequests.List)
	upgrades.Put("/:id", auth.RequireCapability(domain.CapReviewUpgrades), cfg.UpgradeRequests.Review)
}

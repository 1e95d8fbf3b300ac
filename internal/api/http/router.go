package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-desk/internal/api/http/handlers"
	"github.com/spec-kit/ticket-desk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Metrics    *handlers.MetricsHandler
	Tickets    *handlers.TicketsHandler
	MasterData *handlers.MasterDataHandler
	APIKey     *auth.APIKeyMiddleware
}

// RegisterRoutes wires HTTP routes. Health probes bypass the api-key gate;
// everything else goes through it.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	protected := app.Group("", cfg.APIKey.Handle)
	protected.Get("/metrics", cfg.Metrics.Snapshot)

	tickets := protected.Group("/tickets")

	master := tickets.Group("/master")
	master.Get("/users", cfg.MasterData.Users)
	master.Get("/accounts", cfg.MasterData.Accounts)
	master.Get("/categories", cfg.MasterData.Categories)
	master.Get("/category-details", cfg.MasterData.CategoryDetails)
	master.Get("/statuses", cfg.MasterData.Statuses)
	master.Get("/request-channels", cfg.MasterData.RequestChannels)
	master.Get("/response-categories", cfg.MasterData.ResponseCategories)

	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)
	tickets.Post("/:id/history", cfg.Tickets.AddHistory)
	tickets.Get("/:id/attachments", cfg.Tickets.ListAttachments)
}

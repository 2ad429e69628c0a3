package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/core-crm/internal/api/http/handlers"
	"github.com/spec-kit/core-crm/internal/auth"
	"github.com/spec-kit/core-crm/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Users          *handlers.UsersHandler
	Articles       *handlers.ArticlesHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes. Everything under /api requires a
// valid identity-provider session.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	api.Get("/users/me", cfg.Users.Me)
	api.Post("/users/:id/role", auth.RequireRole(domain.RoleManager), cfg.Users.AssignRole)

	api.Get("/tickets", cfg.Tickets.ListTickets)
	api.Post("/tickets", cfg.Tickets.CreateTicket)
	api.Get("/tickets/:id", cfg.Tickets.GetTicket)
	api.Patch("/tickets/:id", cfg.Tickets.UpdateTicket)
	api.Patch("/tickets/:id/read", auth.RequireRole(domain.RoleManager, domain.RoleAgent), cfg.Tickets.MarkRead)
	api.Get("/tickets/:id/messages", cfg.Tickets.ListMessages)
	api.Post("/tickets/:id/messages", cfg.Tickets.AddMessage)

	api.Get("/kb/articles", cfg.Articles.ListArticles)
	api.Post("/kb/articles", auth.RequireRole(domain.RoleManager), cfg.Articles.CreateArticle)
	api.Get("/kb/articles/:id", cfg.Articles.GetArticle)
	api.Put("/kb/articles/:id", auth.RequireRole(domain.RoleManager), cfg.Articles.UpdateArticle)
	api.Delete("/kb/articles/:id", auth.RequireRole(domain.RoleManager), cfg.Articles.DeleteArticle)
}

package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/core-crm/internal/persistence"
)

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	service  string
	version  string
	postgres *persistence.Postgres
	redis    *persistence.Redis
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(service, version string, postgres *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{service: service, version: version, postgres: postgres, redis: redis}
}

// Live reports process liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.service,
		"version": h.version,
	})
}

// Ready pings the backing stores and reports readiness.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	checks := fiber.Map{}
	ready := true
	for name, ping := range map[string]func(context.Context) error{
		"postgres": h.postgres.Ping,
		"redis":    h.redis.Ping,
	} {
		if err := ping(ctx); err != nil {
			checks[name] = err.Error()
			ready = false
		} else {
			checks[name] = "ok"
		}
	}

	if !ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "DEPENDENCY_UNAVAILABLE",
				"message": "one or more dependencies unavailable",
				"details": checks,
			},
		})
	}
	return c.JSON(fiber.Map{
		"status":       "ready",
		"dependencies": checks,
	})
}

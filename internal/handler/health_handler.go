package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Pinger is an interface for health check ping operations.
type Pinger interface {
	Ping(ctx context.Context) error
}

type namedCheck struct {
	name   string
	pinger Pinger
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	pool   Pinger
	checks []namedCheck
}

// NewHealthHandler creates a new HealthHandler with the given database pool.
func NewHealthHandler(pool Pinger) *HealthHandler {
	return &HealthHandler{pool: pool}
}

// WithCheck adds a non-critical dependency check. A failing non-critical
// check is reported as "degraded" but keeps the status code at 200.
func (h *HealthHandler) WithCheck(name string, p Pinger) *HealthHandler {
	h.checks = append(h.checks, namedCheck{name: name, pinger: p})
	return h
}

// Check performs a health check by pinging the database and any extra dependencies.
// Returns 200 OK with {"status": "healthy"} when database is reachable.
// Returns 503 Service Unavailable with {"status": "unhealthy", "error": "..."} when database is unreachable.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if err := h.pool.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("health check failed: database unreachable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  "database connection failed",
		})
	}

	status := "healthy"
	results := fiber.Map{"database": "ok"}
	for _, chk := range h.checks {
		if err := chk.pinger.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("check", chk.name).Msg("health check degraded")
			results[chk.name] = err.Error()
			status = "degraded"
			continue
		}
		results[chk.name] = "ok"
	}
	return c.JSON(fiber.Map{
		"status": status,
		"checks": results,
	})
}

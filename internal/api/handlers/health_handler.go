package handlers

import (
	"context"
	"time"

	"recipe-share/domain"
	"recipe-share/internal/api/presenters"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck reports whether one backing service is reachable.
type HealthCheck func(ctx context.Context) error

type (
	HealthHandler interface {
		Ping(c *fiber.Ctx) error
		Health(c *fiber.Ctx) error
	}

	healthHandler struct {
		checks  map[string]HealthCheck
		timeout time.Duration
	}
)

func NewHealthHandler(checks map[string]HealthCheck) HealthHandler {
	return &healthHandler{checks: checks, timeout: 2 * time.Second}
}

func (h *healthHandler) Ping(c *fiber.Ctx) error {
	return presenters.SuccessResponse(c, "pong", fiber.StatusOK, domain.MessageSuccessPing)
}

func (h *healthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(presenters.Response{
			Status:  false,
			Message: domain.MessageFailedHealth,
			Data:    status,
		})
	}
	return presenters.SuccessResponse(c, status, fiber.StatusOK, domain.MessageSuccessHealth)
}

package api

import (
	"github.com/gofiber/fiber/v2"
)

func (handler *Handler) GetStats(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	handler.ensureDependencies()
	now := handler.currentTime().In(handler.location)
	stats, err := handler.statsService.BuildDashboard(user.ID, now, handler.location)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to fetch stats")
	}

	return c.JSON(stats)
}

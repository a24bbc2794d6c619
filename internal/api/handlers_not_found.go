package api

import "github.com/gofiber/fiber/v2"

// NotFound is the catch-all registered after every route.
func (handler *Handler) NotFound(c *fiber.Ctx) error {
	return apiError(c, fiber.StatusNotFound, "not found")
}

package api

import "github.com/gofiber/fiber/v2"

func (handler *Handler) ExportSummary(c *fiber.Ctx) error {
	user, from, to, rejected := handler.exportUserAndRange(c)
	if user == nil {
		return rejected
	}

	handler.ensureDependencies()
	summary, err := handler.exportService.BuildSummary(user.ID, from, to, handler.location)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to fetch readings")
	}
	return c.JSON(summary)
}

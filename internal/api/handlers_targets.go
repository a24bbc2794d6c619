package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/pulselog/internal/services"
)

func (handler *Handler) GetTargets(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	handler.ensureDependencies()
	targets, err := handler.targetsService.Get(user.ID)
	if err != nil {
		return targetsErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"targets": targets})
}

func (handler *Handler) UpdateTargets(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	payload := targetsPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	handler.ensureDependencies()
	targets, err := handler.targetsService.Update(user.ID, services.TargetsInput{
		Systolic:  payload.Systolic,
		Diastolic: payload.Diastolic,
		Pulse:     payload.Pulse,
	})
	if err != nil {
		return targetsErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"targets": targets})
}

func (handler *Handler) ResetTargets(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	handler.ensureDependencies()
	targets, err := handler.targetsService.Reset(user.ID)
	if err != nil {
		return targetsErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"targets": targets})
}

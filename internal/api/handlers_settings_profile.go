package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/pulselog/internal/services"
)

func (handler *Handler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	input := profileInput{}
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	handler.ensureDependencies()
	displayName, err := handler.profileService.UpdateDisplayName(user.ID, input.DisplayName)
	if err != nil {
		if errors.Is(err, services.ErrDisplayNameTooLong) {
			return apiError(c, fiber.StatusBadRequest, "display name too long")
		}
		return apiError(c, fiber.StatusInternalServerError, "failed to update profile")
	}

	user.DisplayName = displayName
	return c.JSON(fiber.Map{"user": user})
}

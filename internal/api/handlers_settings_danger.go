package api

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/pulselog/internal/services"
)

func (handler *Handler) DeleteAccount(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	input := deleteAccountInput{}
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	handler.ensureDependencies()
	if err := handler.profileService.ValidateDeleteAccountPassword(user.PasswordHash, input.Password); err != nil {
		switch {
		case errors.Is(err, services.ErrProfilePasswordMissing):
			return apiError(c, fiber.StatusBadRequest, "password is required")
		default:
			return apiError(c, fiber.StatusUnauthorized, "invalid password")
		}
	}

	handler.revokeCalendarGrant(c, user.ID)
	if err := handler.profileService.DeleteAccount(user.ID, user.PasswordHash, input.Password); err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to delete account")
	}

	handler.clearAuthCookie(c)
	return c.JSON(fiber.Map{"ok": true})
}

// revokeCalendarGrant is best effort: the account goes away either way.
func (handler *Handler) revokeCalendarGrant(c *fiber.Ctx, userID uint) {
	cfg, err := handler.repositories.CalendarConfigs.Load(userID)
	if err != nil {
		log.Printf("user %d: load calendar config before account deletion: %v", userID, err)
		return
	}
	if !cfg.Connected() || handler.calendarSync == nil {
		return
	}
	handler.calendarSync.Disconnect(c.UserContext(), cfg)
}

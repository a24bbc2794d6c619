package api

import (
	"github.com/gofiber/fiber/v2"
)

// ChangePassword reissues the session cookie because the old one is bound
// to the previous password hash.
func (handler *Handler) ChangePassword(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	input := changePasswordInput{}
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	handler.ensureDependencies()
	newHash, err := handler.profileService.ChangePassword(user.ID, user.PasswordHash, input.CurrentPassword, input.NewPassword, input.ConfirmPassword)
	if err != nil {
		return passwordChangeErrorResponse(c, err)
	}

	user.PasswordHash = newHash
	user.MustChangePassword = false
	if err := handler.setAuthCookie(c, user); err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to create session")
	}
	return c.JSON(fiber.Map{"ok": true})
}

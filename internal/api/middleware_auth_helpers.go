package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/pulselog/internal/models"
	"github.com/terraincognita07/pulselog/internal/services"
)

func (handler *Handler) authenticateRequest(c *fiber.Ctx) (*models.User, error) {
	rawToken := strings.TrimSpace(c.Cookies(authCookieName))
	claims, err := services.ParseSessionToken(handler.secretKey, rawToken, handler.currentTime())
	if err != nil {
		return nil, err
	}

	handler.ensureDependencies()
	user, err := handler.authService.FindByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	if err := services.ValidateSessionPasswordState(claims, user.PasswordHash); err != nil {
		return nil, err
	}

	return &user, nil
}

// passwordChangeExempt lists the routes a user with a temporary password may
// still reach.
func passwordChangeExempt(path string) bool {
	switch strings.TrimRight(strings.TrimSpace(path), "/") {
	case "/api/auth/me", "/api/auth/logout", "/api/profile/password":
		return true
	default:
		return false
	}
}

package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/pulselog/internal/models"
)

const (
	authCookieName        = "pulselog_auth"
	oauthStateCookieName  = "pulselog_oauth_state"
	oauthReturnCookieName = "pulselog_oauth_return"
	contextUserKey        = "current_user"
)

func currentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(contextUserKey).(*models.User)
	return user, ok
}

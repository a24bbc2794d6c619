package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/pulselog/internal/models"
	"github.com/terraincognita07/pulselog/internal/services"
)

const oauthFlowCookieTTL = 10 * time.Minute

func (handler *Handler) setAuthCookie(c *fiber.Ctx, user *models.User) error {
	now := handler.currentTime()
	token, err := services.BuildSessionToken(handler.secretKey, user.ID, user.PasswordHash, services.DefaultSessionTTL, now)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  now.Add(services.DefaultSessionTTL),
	})
	return nil
}

func (handler *Handler) clearAuthCookie(c *fiber.Ctx) {
	handler.expireCookie(c, authCookieName, "/")
}

// setOAuthFlowCookie stores a sealed, short-lived value scoped to the calendar
// routes for the duration of the consent round trip.
func (handler *Handler) setOAuthFlowCookie(c *fiber.Ctx, name string, value string) error {
	sealed, err := handler.cookieCodec.seal(name, value)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    sealed,
		Path:     "/api/calendar",
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  handler.currentTime().Add(oauthFlowCookieTTL),
	})
	return nil
}

// readOAuthFlowCookie returns "" for a missing, forged or foreign value.
func (handler *Handler) readOAuthFlowCookie(c *fiber.Ctx, name string) string {
	raw := c.Cookies(name)
	if raw == "" {
		return ""
	}
	value, err := handler.cookieCodec.open(name, raw)
	if err != nil {
		return ""
	}
	return value
}

func (handler *Handler) clearOAuthFlowCookies(c *fiber.Ctx) {
	handler.expireCookie(c, oauthStateCookieName, "/api/calendar")
	handler.expireCookie(c, oauthReturnCookieName, "/api/calendar")
}

func (handler *Handler) expireCookie(c *fiber.Ctx, name string, path string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}

package api

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/pulselog/internal/models"
	"github.com/terraincognita07/pulselog/internal/services"
)

func (handler *Handler) CalendarStatus(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	cfg, err := handler.loadCalendarConfig(user.ID)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to load calendar settings")
	}
	return c.JSON(buildCalendarStatus(cfg, handler.calendarSync.OAuthConfigured()))
}

func (handler *Handler) ConnectCalendar(c *fiber.Ctx) error {
	if _, ok := currentUser(c); !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	authURL, state, err := handler.calendarSync.BeginAuthorization(handler.calendarRedirectURI(c))
	if err != nil {
		return calendarErrorResponse(c, err)
	}

	if err := handler.setOAuthFlowCookie(c, oauthStateCookieName, state); err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to start calendar authorization")
	}
	if returnTo := sanitizeRedirectPath(c.Query("return_to"), ""); returnTo != "" {
		if err := handler.setOAuthFlowCookie(c, oauthReturnCookieName, returnTo); err != nil {
			return apiError(c, fiber.StatusInternalServerError, "failed to start calendar authorization")
		}
	}
	return c.JSON(fiber.Map{"auth_url": authURL})
}

func (handler *Handler) CalendarCallback(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	returnTo := sanitizeRedirectPath(handler.readOAuthFlowCookie(c, oauthReturnCookieName), "")
	expectedState := handler.readOAuthFlowCookie(c, oauthStateCookieName)
	handler.clearOAuthFlowCookies(c)

	if denied := strings.TrimSpace(c.Query("error")); denied != "" {
		if returnTo != "" {
			return redirectAfterCalendarCallback(c, returnTo, "denied")
		}
		return apiError(c, fiber.StatusBadRequest, "calendar authorization denied")
	}

	cfg, err := handler.loadCalendarConfig(user.ID)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to load calendar settings")
	}

	cfg, err = handler.calendarSync.CompleteAuthorization(c.UserContext(), cfg, c.Query("code"), c.Query("state"), expectedState, handler.calendarRedirectURI(c))
	if err != nil {
		log.Printf("user %d: complete calendar authorization: %v", user.ID, err)
		if returnTo != "" {
			return redirectAfterCalendarCallback(c, returnTo, "failed")
		}
		return calendarErrorResponse(c, err)
	}
	if err := handler.repositories.CalendarConfigs.Save(&cfg); err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to save calendar settings")
	}

	if returnTo != "" {
		return redirectAfterCalendarCallback(c, returnTo, "connected")
	}
	return c.JSON(buildCalendarStatus(cfg, true))
}

// redirectAfterCalendarCallback sends the browser back to the page that
// started the consent flow.
func redirectAfterCalendarCallback(c *fiber.Ctx, returnTo string, outcome string) error {
	separator := "?"
	if strings.Contains(returnTo, "?") {
		separator = "&"
	}
	return c.Redirect(returnTo+separator+"calendar="+outcome, fiber.StatusSeeOther)
}

func (handler *Handler) DisconnectCalendar(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	cfg, err := handler.loadCalendarConfig(user.ID)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to load calendar settings")
	}

	cleared := handler.calendarSync.Disconnect(c.UserContext(), cfg)
	if err := handler.repositories.CalendarConfigs.Save(&cleared); err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to save calendar settings")
	}
	return c.JSON(buildCalendarStatus(cleared, handler.calendarSync.OAuthConfigured()))
}

func (handler *Handler) UpdateCalendarSettings(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	payload := calendarSettingsPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	cfg, err := handler.loadCalendarConfig(user.ID)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to load calendar settings")
	}
	if payload.CalendarID != nil {
		calendarID := strings.TrimSpace(*payload.CalendarID)
		if len(calendarID) > maxCalendarIDLength {
			return apiError(c, fiber.StatusBadRequest, "calendar id too long")
		}
		if calendarID == "" {
			calendarID = models.DefaultCalendarID
		}
		cfg.CalendarID = calendarID
	}
	if payload.AutoSync != nil {
		cfg.AutoSync = *payload.AutoSync
	}

	if err := handler.repositories.CalendarConfigs.Save(&cfg); err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to save calendar settings")
	}
	return c.JSON(buildCalendarStatus(cfg, handler.calendarSync.OAuthConfigured()))
}

func (handler *Handler) ListCalendars(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	cfg, err := handler.loadCalendarConfig(user.ID)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to load calendar settings")
	}

	cfg, calendars, err := handler.calendarSync.ListCalendars(c.UserContext(), cfg)
	if !errors.Is(err, services.ErrCalendarNotConnected) {
		handler.saveCalendarConfig(cfg)
	}
	if err != nil {
		return calendarErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"calendars": calendars})
}

func (handler *Handler) SyncCalendar(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	cfg, readings, err := handler.loadCalendarWork(user.ID)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to load readings")
	}

	cfg, result, err := handler.calendarSync.SyncReadings(c.UserContext(), cfg, user.ID, readings, logSyncProgress(user.ID))
	if !errors.Is(err, services.ErrCalendarNotConnected) {
		handler.saveCalendarConfig(cfg)
	}
	if err != nil {
		return calendarErrorResponse(c, err)
	}
	return c.JSON(result)
}

func (handler *Handler) RebuildCalendarTracking(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	cfg, readings, err := handler.loadCalendarWork(user.ID)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to load readings")
	}

	cfg, result, err := handler.calendarSync.RebuildSyncTracking(c.UserContext(), cfg, user.ID, readings)
	if !errors.Is(err, services.ErrCalendarNotConnected) {
		handler.saveCalendarConfig(cfg)
	}
	if err != nil {
		return calendarErrorResponse(c, err)
	}
	return c.JSON(result)
}

func (handler *Handler) loadCalendarWork(userID uint) (models.CalendarSyncConfig, []models.Reading, error) {
	cfg, err := handler.loadCalendarConfig(userID)
	if err != nil {
		return models.CalendarSyncConfig{}, nil, err
	}
	readings, err := handler.readingService.List(userID, nil, nil, handler.location)
	if err != nil {
		return models.CalendarSyncConfig{}, nil, err
	}
	return cfg, readings, nil
}

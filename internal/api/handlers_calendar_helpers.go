package api

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/pulselog/internal/models"
	"github.com/terraincognita07/pulselog/internal/services"
)

const (
	calendarCallbackPath  = "/api/calendar/callback"
	maxCalendarIDLength   = 255
	syncProgressLogEvery  = 25
	calendarWarningFailed = "calendar update failed"
)

func (handler *Handler) loadCalendarConfig(userID uint) (models.CalendarSyncConfig, error) {
	handler.ensureDependencies()
	cfg, err := handler.repositories.CalendarConfigs.Load(userID)
	if err != nil {
		return models.CalendarSyncConfig{}, err
	}
	cfg.UserID = userID
	return cfg, nil
}

// saveCalendarConfig persists whatever the sync service handed back, which
// may carry a refreshed token even when the call itself failed.
func (handler *Handler) saveCalendarConfig(cfg models.CalendarSyncConfig) {
	if err := handler.repositories.CalendarConfigs.Save(&cfg); err != nil {
		log.Printf("user %d: save calendar config: %v", cfg.UserID, err)
	}
}

func (handler *Handler) calendarRedirectURI(c *fiber.Ctx) string {
	if handler.calendarRedirectURL != "" {
		return handler.calendarRedirectURL
	}
	return strings.TrimRight(c.BaseURL(), "/") + calendarCallbackPath
}

func buildCalendarStatus(cfg models.CalendarSyncConfig, configured bool) calendarStatusResponse {
	status := calendarStatusResponse{
		Configured:   configured,
		Connected:    cfg.Connected(),
		CalendarID:   cfg.EffectiveCalendarID(),
		AutoSync:     cfg.AutoSync,
		LastSyncedAt: cfg.LastSyncedAt,
	}
	if expiresAt := cfg.ExpiresAtTime(); status.Connected && !expiresAt.IsZero() {
		status.ExpiresAt = &expiresAt
	}
	return status
}

func logSyncProgress(userID uint) func(services.SyncProgress) {
	return func(progress services.SyncProgress) {
		if progress.Done%syncProgressLogEvery == 0 || progress.Done == progress.Total {
			log.Printf("user %d: calendar sync %d/%d", userID, progress.Done, progress.Total)
		}
	}
}

// syncCreatedReading runs auto-sync for a new reading. The returned warning is
// empty unless the remote call failed; the local write stands regardless.
func (handler *Handler) syncCreatedReading(c *fiber.Ctx, userID uint, reading models.Reading) (models.Reading, string) {
	cfg, err := handler.loadCalendarConfig(userID)
	if err != nil {
		log.Printf("user %d: load calendar config: %v", userID, err)
		return reading, ""
	}

	cfg, ran, err := handler.calendarSync.AutoSyncReading(c.UserContext(), cfg, userID, reading)
	if !ran {
		return reading, ""
	}
	handler.saveCalendarConfig(cfg)
	if err != nil {
		log.Printf("user %d: auto-sync reading %s: %v", userID, reading.ID, err)
		return reading, calendarWarningFailed
	}
	return handler.reloadReading(userID, reading), ""
}

func (handler *Handler) syncUpdatedReading(c *fiber.Ctx, userID uint, reading models.Reading) string {
	if !reading.SyncedToCalendar {
		return ""
	}
	cfg, err := handler.loadCalendarConfig(userID)
	if err != nil || !cfg.Connected() {
		return ""
	}

	cfg, err = handler.calendarSync.UpdateEvent(c.UserContext(), cfg, userID, reading)
	handler.saveCalendarConfig(cfg)
	if err == nil {
		return ""
	}
	log.Printf("user %d: update calendar event for reading %s: %v", userID, reading.ID, err)
	if errors.Is(err, services.ErrCalendarEventNotFound) {
		if markErr := handler.repositories.Readings.MarkUnsynced(userID, reading.ID); markErr != nil {
			log.Printf("user %d: mark reading %s unsynced: %v", userID, reading.ID, markErr)
		}
		return "calendar event missing, reading will be synced again"
	}
	return calendarWarningFailed
}

func (handler *Handler) syncDeletedReading(c *fiber.Ctx, userID uint, reading models.Reading) string {
	if !reading.SyncedToCalendar && reading.CalendarEventID == "" {
		return ""
	}
	cfg, err := handler.loadCalendarConfig(userID)
	if err != nil || !cfg.Connected() {
		return ""
	}

	cfg, err = handler.calendarSync.DeleteEvent(c.UserContext(), cfg, userID, reading)
	handler.saveCalendarConfig(cfg)
	if err != nil {
		log.Printf("user %d: delete calendar event for reading %s: %v", userID, reading.ID, err)
		return calendarWarningFailed
	}
	return ""
}

func (handler *Handler) reloadReading(userID uint, fallback models.Reading) models.Reading {
	reading, err := handler.readingService.Get(userID, fallback.ID)
	if err != nil {
		return fallback
	}
	return reading
}

func readingResponse(reading models.Reading, calendarWarning string) fiber.Map {
	payload := fiber.Map{"reading": reading}
	if calendarWarning != "" {
		payload["calendar_warning"] = calendarWarning
	}
	return payload
}

package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/pulselog/internal/services"
)

func (handler *Handler) ListReadings(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	from, to, err := services.ParseDayRange(c.Query("from"), c.Query("to"), handler.location)
	if err != nil {
		return rangeErrorResponse(c, err)
	}

	handler.ensureDependencies()
	readings, err := handler.readingService.List(user.ID, from, to, handler.location)
	if err != nil {
		return readingErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"readings": readings})
}

func (handler *Handler) GetReading(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	handler.ensureDependencies()
	reading, err := handler.readingService.Get(user.ID, readingIDParam(c))
	if err != nil {
		return readingErrorResponse(c, err)
	}
	return c.JSON(readingResponse(reading, ""))
}

func (handler *Handler) CreateReading(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	input, err := parseReadingPayload(c)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	handler.ensureDependencies()
	reading, err := handler.readingService.Create(user.ID, input, handler.currentTime())
	if err != nil {
		return readingErrorResponse(c, err)
	}

	reading, warning := handler.syncCreatedReading(c, user.ID, reading)
	return c.Status(fiber.StatusCreated).JSON(readingResponse(reading, warning))
}

func (handler *Handler) UpdateReading(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	input, err := parseReadingPayload(c)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	handler.ensureDependencies()
	reading, err := handler.readingService.Update(user.ID, readingIDParam(c), input, handler.currentTime())
	if err != nil {
		return readingErrorResponse(c, err)
	}

	warning := handler.syncUpdatedReading(c, user.ID, reading)
	if warning != "" {
		reading = handler.reloadReading(user.ID, reading)
	}
	return c.JSON(readingResponse(reading, warning))
}

func (handler *Handler) DeleteReading(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	handler.ensureDependencies()
	deleted, err := handler.readingService.Delete(user.ID, readingIDParam(c))
	if err != nil {
		return readingErrorResponse(c, err)
	}

	payload := fiber.Map{"ok": true}
	if warning := handler.syncDeletedReading(c, user.ID, deleted); warning != "" {
		payload["calendar_warning"] = warning
	}
	return c.JSON(payload)
}

func (handler *Handler) PushReadingToCalendar(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	handler.ensureDependencies()
	reading, err := handler.readingService.Get(user.ID, readingIDParam(c))
	if err != nil {
		return readingErrorResponse(c, err)
	}
	cfg, err := handler.loadCalendarConfig(user.ID)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to load calendar settings")
	}

	cfg, eventID, err := handler.calendarSync.CreateEvent(c.UserContext(), cfg, user.ID, reading)
	if cfg.Connected() {
		handler.saveCalendarConfig(cfg)
	}
	if err != nil {
		return calendarErrorResponse(c, err)
	}

	payload := readingResponse(handler.reloadReading(user.ID, reading), "")
	payload["event_id"] = eventID
	return c.JSON(payload)
}

func (handler *Handler) RemoveReadingFromCalendar(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	handler.ensureDependencies()
	reading, err := handler.readingService.Get(user.ID, readingIDParam(c))
	if err != nil {
		return readingErrorResponse(c, err)
	}
	cfg, err := handler.loadCalendarConfig(user.ID)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to load calendar settings")
	}

	cfg, err = handler.calendarSync.DeleteEvent(c.UserContext(), cfg, user.ID, reading)
	if cfg.Connected() {
		handler.saveCalendarConfig(cfg)
	}
	if err != nil {
		return calendarErrorResponse(c, err)
	}
	return c.JSON(readingResponse(handler.reloadReading(user.ID, reading), ""))
}

func parseReadingPayload(c *fiber.Ctx) (services.ReadingInput, error) {
	payload := readingPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return services.ReadingInput{}, err
	}

	input := services.ReadingInput{
		Systolic:  payload.Systolic,
		Diastolic: payload.Diastolic,
		Pulse:     payload.Pulse,
		Notes:     payload.Notes,
	}
	if payload.TakenAt != nil {
		input.TakenAt = *payload.TakenAt
	}
	return input, nil
}

func readingIDParam(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Params("id"))
}

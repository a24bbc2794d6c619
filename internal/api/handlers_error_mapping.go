package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/pulselog/internal/calendar"
	"github.com/terraincognita07/pulselog/internal/services"
)

func readingErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrReadingNotFound):
		return apiError(c, fiber.StatusNotFound, "reading not found")
	case errors.Is(err, services.ErrReadingSystolicOutOfRange),
		errors.Is(err, services.ErrReadingDiastolicOutOfRange),
		errors.Is(err, services.ErrReadingPulseOutOfRange),
		errors.Is(err, services.ErrReadingPressureOrder),
		errors.Is(err, services.ErrReadingNotesTooLong):
		return apiError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrReadingLoadFailed):
		return apiError(c, fiber.StatusInternalServerError, "failed to load readings")
	case errors.Is(err, services.ErrReadingDeleteFailed):
		return apiError(c, fiber.StatusInternalServerError, "failed to delete reading")
	default:
		return apiError(c, fiber.StatusInternalServerError, "failed to save reading")
	}
}

func targetsErrorResponse(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrInvalidTargets) {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}
	if errors.Is(err, services.ErrTargetsLoadFailed) {
		return apiError(c, fiber.StatusInternalServerError, "failed to load targets")
	}
	return apiError(c, fiber.StatusInternalServerError, "failed to update targets")
}

func rangeErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrRangeFromDateInvalid):
		return apiError(c, fiber.StatusBadRequest, "invalid from date")
	case errors.Is(err, services.ErrRangeToDateInvalid):
		return apiError(c, fiber.StatusBadRequest, "invalid to date")
	case errors.Is(err, services.ErrRangeOrderInvalid):
		return apiError(c, fiber.StatusBadRequest, "invalid range")
	default:
		return apiError(c, fiber.StatusBadRequest, "invalid range")
	}
}

func registrationErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrAuthCredentialsInvalid):
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	case errors.Is(err, services.ErrAuthPasswordMismatch):
		return apiError(c, fiber.StatusBadRequest, "password mismatch")
	case errors.Is(err, services.ErrWeakPassword):
		return apiError(c, fiber.StatusBadRequest, "weak password")
	case errors.Is(err, services.ErrPasswordTooLong):
		return apiError(c, fiber.StatusBadRequest, "password too long")
	case errors.Is(err, services.ErrDisplayNameTooLong):
		return apiError(c, fiber.StatusBadRequest, "display name too long")
	case errors.Is(err, services.ErrAuthEmailTaken):
		return apiError(c, fiber.StatusConflict, "email already exists")
	default:
		return apiError(c, fiber.StatusInternalServerError, "failed to create account")
	}
}

func passwordChangeErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrProfilePasswordChangeInvalidInput):
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	case errors.Is(err, services.ErrProfilePasswordMismatch):
		return apiError(c, fiber.StatusBadRequest, "password mismatch")
	case errors.Is(err, services.ErrProfilePasswordInvalid):
		return apiError(c, fiber.StatusUnauthorized, "invalid current password")
	case errors.Is(err, services.ErrProfileNewPasswordMustDiffer):
		return apiError(c, fiber.StatusBadRequest, "new password must differ")
	case errors.Is(err, services.ErrWeakPassword):
		return apiError(c, fiber.StatusBadRequest, "weak password")
	case errors.Is(err, services.ErrPasswordTooLong):
		return apiError(c, fiber.StatusBadRequest, "password too long")
	default:
		return apiError(c, fiber.StatusInternalServerError, "failed to update password")
	}
}

// calendarErrorResponse never echoes upstream bodies, which may quote tokens.
func calendarErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrCalendarCredentialsMissing):
		return apiError(c, fiber.StatusServiceUnavailable, "calendar integration is not configured")
	case errors.Is(err, services.ErrCalendarNotConnected):
		return apiError(c, fiber.StatusConflict, "calendar is not connected")
	case errors.Is(err, services.ErrRefreshTokenMissing):
		return apiError(c, fiber.StatusConflict, "calendar authorization expired, reconnect calendar")
	case errors.Is(err, services.ErrOAuthStateMismatch):
		return apiError(c, fiber.StatusBadRequest, "oauth state mismatch")
	case errors.Is(err, services.ErrOAuthCodeMissing):
		return apiError(c, fiber.StatusBadRequest, "authorization code missing")
	case errors.Is(err, services.ErrCalendarEventNotFound):
		return apiError(c, fiber.StatusNotFound, "calendar event not found")
	case calendar.IsUnauthorized(err):
		return apiError(c, fiber.StatusConflict, "calendar authorization rejected, reconnect calendar")
	default:
		return apiError(c, fiber.StatusBadGateway, "calendar request failed")
	}
}

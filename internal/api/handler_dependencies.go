package api

import (
	"github.com/terraincognita07/pulselog/internal/db"
	"github.com/terraincognita07/pulselog/internal/services"
	"gorm.io/gorm"
)

func (handler *Handler) withDependencies(database *gorm.DB) *Handler {
	handler.repositories = db.NewRepositories(database)
	handler.authService = services.NewAuthService(handler.repositories.Users)
	handler.profileService = services.NewProfileService(handler.repositories.Users)
	handler.readingService = services.NewReadingService(handler.repositories.Readings)
	handler.targetsService = services.NewTargetsService(handler.repositories.Targets)
	handler.statsService = services.NewStatsService(handler.repositories.Readings, handler.repositories.Targets)
	handler.exportService = services.NewExportService(handler.readingService, handler.targetsService)
	return handler
}

// ensureDependencies fills in whatever a hand-built test handler left out.
func (handler *Handler) ensureDependencies() {
	if handler.repositories == nil {
		if handler.db == nil {
			return
		}
		handler.repositories = db.NewRepositories(handler.db)
	}

	if handler.authService == nil {
		handler.authService = services.NewAuthService(handler.repositories.Users)
	}
	if handler.profileService == nil {
		handler.profileService = services.NewProfileService(handler.repositories.Users)
	}
	if handler.readingService == nil {
		handler.readingService = services.NewReadingService(handler.repositories.Readings)
	}
	if handler.targetsService == nil {
		handler.targetsService = services.NewTargetsService(handler.repositories.Targets)
	}
	if handler.statsService == nil {
		handler.statsService = services.NewStatsService(handler.repositories.Readings, handler.repositories.Targets)
	}
	if handler.exportService == nil {
		handler.exportService = services.NewExportService(handler.readingService, handler.targetsService)
	}
	if handler.loginLimiter == nil {
		handler.loginLimiter = newAttemptLimiter()
	}
}

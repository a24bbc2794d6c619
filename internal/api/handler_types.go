package api

import (
	"time"

	"github.com/terraincognita07/pulselog/internal/db"
	"github.com/terraincognita07/pulselog/internal/services"
	"gorm.io/gorm"
)

type Handler struct {
	db                  *gorm.DB
	secretKey           []byte
	location            *time.Location
	cookieSecure        bool
	cookieCodec         *secureCookieCodec
	calendarRedirectURL string
	loginLimiter        *attemptLimiter
	now                 func() time.Time

	repositories   *db.Repositories
	authService    *services.AuthService
	profileService *services.ProfileService
	readingService *services.ReadingService
	targetsService *services.TargetsService
	statsService   *services.StatsService
	exportService  *services.ExportService
	calendarSync   *services.CalendarSyncService
}

type credentialsInput struct {
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
	DisplayName     string `json:"display_name" form:"display_name"`
}

type profileInput struct {
	DisplayName string `json:"display_name" form:"display_name"`
}

type changePasswordInput struct {
	CurrentPassword string `json:"current_password" form:"current_password"`
	NewPassword     string `json:"new_password" form:"new_password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

type deleteAccountInput struct {
	Password string `json:"password" form:"password"`
}

type readingPayload struct {
	TakenAt   *time.Time `json:"taken_at"`
	Systolic  int        `json:"systolic"`
	Diastolic int        `json:"diastolic"`
	Pulse     int        `json:"pulse"`
	Notes     string     `json:"notes"`
}

type targetsPayload struct {
	Systolic  int `json:"systolic"`
	Diastolic int `json:"diastolic"`
	Pulse     int `json:"pulse"`
}

type calendarSettingsPayload struct {
	CalendarID *string `json:"calendar_id"`
	AutoSync   *bool   `json:"auto_sync"`
}

type calendarStatusResponse struct {
	Configured   bool       `json:"configured"`
	Connected    bool       `json:"connected"`
	CalendarID   string     `json:"calendar_id"`
	AutoSync     bool       `json:"auto_sync"`
	ExpiresAt    *time.Time `json:"expires_at"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
}

const (
	loginFailureLimit  = 8
	loginFailureWindow = 15 * time.Minute
)

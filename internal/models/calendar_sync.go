package models

import "time"

const DefaultCalendarID = "primary"

// CalendarSyncConfig is one OAuth grant toward one external calendar.
// Tokens never leave the server: they are excluded from JSON.
type CalendarSyncConfig struct {
	UserID       uint       `gorm:"primaryKey;autoIncrement:false" json:"-"`
	Enabled      bool       `gorm:"not null;default:false" json:"enabled"`
	AccessToken  string     `gorm:"not null;default:''" json:"-"`
	RefreshToken string     `gorm:"not null;default:''" json:"-"`
	ExpiresAt    int64      `gorm:"not null;default:0" json:"expires_at"`
	CalendarID   string     `gorm:"not null;default:primary" json:"calendar_id"`
	AutoSync     bool       `gorm:"not null;default:false" json:"auto_sync"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
	UpdatedAt    time.Time  `json:"-"`
}

// ExpiresAtTime converts the stored epoch milliseconds.
func (config CalendarSyncConfig) ExpiresAtTime() time.Time {
	if config.ExpiresAt <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(config.ExpiresAt)
}

func (config CalendarSyncConfig) Connected() bool {
	return config.Enabled && config.AccessToken != ""
}

func (config CalendarSyncConfig) EffectiveCalendarID() string {
	if config.CalendarID == "" {
		return DefaultCalendarID
	}
	return config.CalendarID
}

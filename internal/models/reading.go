package models

import "time"

// Reading is a single blood-pressure and pulse measurement.
type Reading struct {
	ID               string    `gorm:"primaryKey;type:text" json:"id"`
	UserID           uint      `gorm:"not null;index:idx_readings_user_taken_at" json:"-"`
	TakenAt          time.Time `gorm:"not null;index:idx_readings_user_taken_at" json:"taken_at"`
	Systolic         int       `gorm:"not null" json:"systolic"`
	Diastolic        int       `gorm:"not null" json:"diastolic"`
	Pulse            int       `gorm:"not null" json:"pulse"`
	Notes            string    `gorm:"not null;default:''" json:"notes"`
	SyncedToCalendar bool      `gorm:"not null;default:false" json:"synced_to_calendar"`
	CalendarEventID  string    `gorm:"not null;default:''" json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

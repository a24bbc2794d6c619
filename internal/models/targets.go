package models

import "time"

const (
	DefaultTargetSystolic  = 120
	DefaultTargetDiastolic = 80
	DefaultTargetPulse     = 70

	MinTargetSystolic  = 80
	MaxTargetSystolic  = 200
	MinTargetDiastolic = 50
	MaxTargetDiastolic = 120
	MinTargetPulse     = 50
	MaxTargetPulse     = 120
)

// Targets holds a user's desired upper bounds. Exactly one row exists per user.
type Targets struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"-"`
	Systolic  int       `gorm:"not null;default:120" json:"systolic"`
	Diastolic int       `gorm:"not null;default:80" json:"diastolic"`
	Pulse     int       `gorm:"not null;default:70" json:"pulse"`
	UpdatedAt time.Time `json:"updated_at"`
}

func DefaultTargets(userID uint) Targets {
	return Targets{
		UserID:    userID,
		Systolic:  DefaultTargetSystolic,
		Diastolic: DefaultTargetDiastolic,
		Pulse:     DefaultTargetPulse,
	}
}

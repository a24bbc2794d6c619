package services

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MinReadingSystolic  = 60
	MaxReadingSystolic  = 260
	MinReadingDiastolic = 30
	MaxReadingDiastolic = 160
	MinReadingPulse     = 30
	MaxReadingPulse     = 220
	MaxReadingNotes     = 500
)

var (
	ErrReadingSystolicOutOfRange  = errors.New("systolic out of range")
	ErrReadingDiastolicOutOfRange = errors.New("diastolic out of range")
	ErrReadingPulseOutOfRange     = errors.New("pulse out of range")
	ErrReadingPressureOrder       = errors.New("systolic must be greater than diastolic")
	ErrReadingNotesTooLong        = errors.New("notes too long")
)

type ReadingInput struct {
	TakenAt   time.Time
	Systolic  int
	Diastolic int
	Pulse     int
	Notes     string
}

// NormalizeReadingInput trims notes and defaults a missing timestamp to now.
func NormalizeReadingInput(input ReadingInput, now time.Time) (ReadingInput, error) {
	if input.Systolic < MinReadingSystolic || input.Systolic > MaxReadingSystolic {
		return input, ErrReadingSystolicOutOfRange
	}
	if input.Diastolic < MinReadingDiastolic || input.Diastolic > MaxReadingDiastolic {
		return input, ErrReadingDiastolicOutOfRange
	}
	if input.Pulse < MinReadingPulse || input.Pulse > MaxReadingPulse {
		return input, ErrReadingPulseOutOfRange
	}
	if input.Systolic <= input.Diastolic {
		return input, ErrReadingPressureOrder
	}

	input.Notes = strings.TrimSpace(input.Notes)
	if utf8.RuneCountInString(input.Notes) > MaxReadingNotes {
		return input, ErrReadingNotesTooLong
	}
	if input.TakenAt.IsZero() {
		input.TakenAt = now
	}
	input.TakenAt = input.TakenAt.UTC()
	return input, nil
}

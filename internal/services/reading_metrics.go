package services

import (
	"math"
	"time"

	"github.com/terraincognita07/pulselog/internal/models"
)

// ReadingAverage is the rounded mean of a window of readings.
type ReadingAverage struct {
	Systolic  int `json:"systolic"`
	Diastolic int `json:"diastolic"`
	Pulse     int `json:"pulse"`
	Count     int `json:"count"`
}

// RecentReadings returns the first n readings of a newest-first slice.
func RecentReadings(readings []models.Reading, n int) []models.Reading {
	if n <= 0 {
		return nil
	}
	if len(readings) <= n {
		return readings
	}
	return readings[:n]
}

// RollingAverage averages the n most recent readings of a newest-first slice.
func RollingAverage(readings []models.Reading, n int) ReadingAverage {
	window := RecentReadings(readings, n)
	if len(window) == 0 {
		return ReadingAverage{}
	}

	systolicSum, diastolicSum, pulseSum := 0, 0, 0
	for _, reading := range window {
		systolicSum += reading.Systolic
		diastolicSum += reading.Diastolic
		pulseSum += reading.Pulse
	}

	count := float64(len(window))
	return ReadingAverage{
		Systolic:  int(math.Round(float64(systolicSum) / count)),
		Diastolic: int(math.Round(float64(diastolicSum) / count)),
		Pulse:     int(math.Round(float64(pulseSum) / count)),
		Count:     len(window),
	}
}

// IsOnTarget requires both systolic and diastolic at or below target.
func IsOnTarget(reading models.Reading, targets models.Targets) bool {
	return reading.Systolic <= targets.Systolic && reading.Diastolic <= targets.Diastolic
}

// OnTargetCount counts on-target readings among the window most recent ones.
func OnTargetCount(readings []models.Reading, targets models.Targets, window int) int {
	count := 0
	for _, reading := range RecentReadings(readings, window) {
		if IsOnTarget(reading, targets) {
			count++
		}
	}
	return count
}

func readingDays(readings []models.Reading, location *time.Location) map[string]bool {
	days := make(map[string]bool, len(readings))
	for _, reading := range readings {
		days[DayKey(reading.TakenAt, location)] = true
	}
	return days
}

// CurrentStreak counts consecutive local days, starting today and walking
// backwards, that have at least one reading. A day without readings ends it.
func CurrentStreak(readings []models.Reading, now time.Time, location *time.Location) int {
	if len(readings) == 0 {
		return 0
	}

	days := readingDays(readings, location)
	streak := 0
	for cursor := DateAtLocation(now, location); days[cursor.Format(dayKeyLayout)]; cursor = cursor.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

// ActiveDaysInLastDays counts how many of the last span local days (today
// included) have at least one reading.
func ActiveDaysInLastDays(readings []models.Reading, now time.Time, location *time.Location, span int) int {
	if len(readings) == 0 || span <= 0 {
		return 0
	}

	days := readingDays(readings, location)
	active := 0
	cursor := DateAtLocation(now, location)
	for offset := 0; offset < span; offset++ {
		if days[cursor.Format(dayKeyLayout)] {
			active++
		}
		cursor = cursor.AddDate(0, 0, -1)
	}
	return active
}

// CalendarDaysBetween returns the number of local calendar days from earlier to later.
func CalendarDaysBetween(earlier time.Time, later time.Time, location *time.Location) int {
	if location == nil {
		location = time.UTC
	}
	fromYear, fromMonth, fromDay := earlier.In(location).Date()
	toYear, toMonth, toDay := later.In(location).Date()
	from := time.Date(fromYear, fromMonth, fromDay, 0, 0, 0, 0, time.UTC)
	to := time.Date(toYear, toMonth, toDay, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

func earliestReading(readings []models.Reading) (models.Reading, bool) {
	if len(readings) == 0 {
		return models.Reading{}, false
	}
	earliest := readings[0]
	for _, reading := range readings[1:] {
		if reading.TakenAt.Before(earliest.TakenAt) {
			earliest = reading
		}
	}
	return earliest, true
}

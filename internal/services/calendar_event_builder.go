package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/terraincognita07/pulselog/internal/calendar"
	"github.com/terraincognita07/pulselog/internal/models"
)

const CalendarEventDuration = 15 * time.Minute

// BuildCalendarEvent renders a reading as a timed event tagged with the
// reading id so it can be found again without a stored event id.
func BuildCalendarEvent(reading models.Reading, location *time.Location) calendar.Event {
	location, zoneName := calendarTimeZone(location)
	severity := ClassifyBloodPressure(reading.Systolic, reading.Diastolic)
	start := reading.TakenAt.In(location)
	end := start.Add(CalendarEventDuration)

	description := []string{
		fmt.Sprintf("Blood Pressure: %d/%d mmHg", reading.Systolic, reading.Diastolic),
		fmt.Sprintf("Pulse: %d bpm", reading.Pulse),
		fmt.Sprintf("Status: %s", severity.Label),
	}
	if notes := strings.TrimSpace(reading.Notes); notes != "" {
		description = append(description, "", "Notes: "+notes)
	}
	description = append(description, "", "Logged with PulseLog")

	return calendar.Event{
		Summary:     fmt.Sprintf("BP: %d/%d - %s", reading.Systolic, reading.Diastolic, severity.Label),
		Description: strings.Join(description, "\n"),
		Start:       calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: zoneName},
		End:         calendar.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: zoneName},
		ColorID:     severity.ColorID,
		ExtendedProperties: &calendar.ExtendedProperties{
			Private: map[string]string{
				calendar.ReadingIDProperty: reading.ID,
				calendar.SourceProperty:    calendar.SourceValue,
			},
		},
	}
}

// Google needs an IANA name; "Local" is not one.
func calendarTimeZone(location *time.Location) (*time.Location, string) {
	if location == nil {
		return time.UTC, "UTC"
	}
	name := location.String()
	if name == "" || name == "Local" {
		return time.UTC, "UTC"
	}
	if _, err := time.LoadLocation(name); err != nil {
		return time.UTC, "UTC"
	}
	return location, name
}

package calendar

const (
	ReadingIDProperty = "pulselogReadingId"
	SourceProperty    = "pulselogSource"
	SourceValue       = "pulselog"
)

// EventDateTime is a timed (not all-day) event boundary.
type EventDateTime struct {
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type ExtendedProperties struct {
	Private map[string]string `json:"private,omitempty"`
}

// Event is the subset of the Calendar v3 event resource used here.
type Event struct {
	ID                 string              `json:"id,omitempty"`
	Status             string              `json:"status,omitempty"`
	Summary            string              `json:"summary"`
	Description        string              `json:"description,omitempty"`
	Start              EventDateTime       `json:"start"`
	End                EventDateTime       `json:"end"`
	ColorID            string              `json:"colorId,omitempty"`
	ExtendedProperties *ExtendedProperties `json:"extendedProperties,omitempty"`
}

// ReadingID returns the private tag linking the event to a reading.
func (event Event) ReadingID() string {
	if event.ExtendedProperties == nil {
		return ""
	}
	return event.ExtendedProperties.Private[ReadingIDProperty]
}

type CalendarListEntry struct {
	ID         string `json:"id"`
	Summary    string `json:"summary"`
	Primary    bool   `json:"primary,omitempty"`
	AccessRole string `json:"accessRole,omitempty"`
}

type eventList struct {
	Items         []Event `json:"items"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

type calendarList struct {
	Items         []CalendarListEntry `json:"items"`
	NextPageToken string              `json:"nextPageToken,omitempty"`
}

type googleErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

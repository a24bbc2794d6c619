package services

type SeverityLevel string

const (
	SeverityCritical SeverityLevel = "critical"
	SeverityHigh     SeverityLevel = "high"
	SeverityElevated SeverityLevel = "elevated"
	SeverityLow      SeverityLevel = "low"
	SeverityOptimal  SeverityLevel = "optimal"
)

// Severity is the clinical bucket of a reading together with its display
// label and the calendar color used for exported events.
type Severity struct {
	Level   SeverityLevel `json:"level"`
	Label   string        `json:"label"`
	ColorID string        `json:"color_id"`
}

var severities = map[SeverityLevel]Severity{
	SeverityCritical: {Level: SeverityCritical, Label: "High Blood Pressure (Stage 2)", ColorID: "11"},
	SeverityHigh:     {Level: SeverityHigh, Label: "High Blood Pressure (Stage 1)", ColorID: "6"},
	SeverityElevated: {Level: SeverityElevated, Label: "Elevated", ColorID: "5"},
	SeverityLow:      {Level: SeverityLow, Label: "Low Blood Pressure", ColorID: "9"},
	SeverityOptimal:  {Level: SeverityOptimal, Label: "Normal", ColorID: "10"},
}

// ClassifyBloodPressure buckets a reading. Either value crossing a threshold
// is enough; higher buckets win.
func ClassifyBloodPressure(systolic int, diastolic int) Severity {
	switch {
	case systolic >= 140 || diastolic >= 90:
		return severities[SeverityCritical]
	case systolic >= 130 || diastolic >= 85:
		return severities[SeverityHigh]
	case systolic > 120 || diastolic > 80:
		return severities[SeverityElevated]
	case systolic < 90 || diastolic < 60:
		return severities[SeverityLow]
	default:
		return severities[SeverityOptimal]
	}
}

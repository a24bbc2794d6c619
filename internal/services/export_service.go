package services

import (
	"strconv"
	"time"

	"github.com/terraincognita07/pulselog/internal/models"
)

const (
	exportDateLayout = "2006-01-02"
	exportTimeLayout = "15:04"
)

var ExportCSVHeaders = []string{
	"Date",
	"Time",
	"Systolic",
	"Diastolic",
	"Pulse",
	"Category",
	"On Target",
	"Synced",
	"Notes",
}

type ExportReadingReader interface {
	List(userID uint, from *time.Time, to *time.Time, location *time.Location) ([]models.Reading, error)
}

type ExportTargetsReader interface {
	Get(userID uint) (models.Targets, error)
}

type ExportService struct {
	readings ExportReadingReader
	targets  ExportTargetsReader
}

type ExportSummary struct {
	TotalEntries int    `json:"total_entries"`
	HasData      bool   `json:"has_data"`
	DateFrom     string `json:"date_from"`
	DateTo       string `json:"date_to"`
}

type ExportCSVRow struct {
	Date      string
	Time      string
	Systolic  int
	Diastolic int
	Pulse     int
	Category  string
	OnTarget  bool
	Synced    bool
	Notes     string
}

func NewExportService(readings ExportReadingReader, targets ExportTargetsReader) *ExportService {
	return &ExportService{
		readings: readings,
		targets:  targets,
	}
}

func (service *ExportService) BuildSummary(userID uint, from *time.Time, to *time.Time, location *time.Location) (ExportSummary, error) {
	readings, err := service.readings.List(userID, from, to, location)
	if err != nil {
		return ExportSummary{}, err
	}
	if len(readings) == 0 {
		return ExportSummary{}, nil
	}

	first := readings[0].TakenAt
	last := readings[0].TakenAt
	for _, reading := range readings[1:] {
		if reading.TakenAt.Before(first) {
			first = reading.TakenAt
		}
		if reading.TakenAt.After(last) {
			last = reading.TakenAt
		}
	}

	return ExportSummary{
		TotalEntries: len(readings),
		HasData:      true,
		DateFrom:     DateAtLocation(first, location).Format(exportDateLayout),
		DateTo:       DateAtLocation(last, location).Format(exportDateLayout),
	}, nil
}

// BuildCSVRows lists readings oldest-first, which is what spreadsheets expect.
func (service *ExportService) BuildCSVRows(userID uint, from *time.Time, to *time.Time, location *time.Location) ([]ExportCSVRow, error) {
	readings, err := service.readings.List(userID, from, to, location)
	if err != nil {
		return nil, err
	}
	targets, err := service.targets.Get(userID)
	if err != nil {
		return nil, err
	}
	if location == nil {
		location = time.UTC
	}

	rows := make([]ExportCSVRow, 0, len(readings))
	for index := len(readings) - 1; index >= 0; index-- {
		reading := readings[index]
		localTime := reading.TakenAt.In(location)
		rows = append(rows, ExportCSVRow{
			Date:      localTime.Format(exportDateLayout),
			Time:      localTime.Format(exportTimeLayout),
			Systolic:  reading.Systolic,
			Diastolic: reading.Diastolic,
			Pulse:     reading.Pulse,
			Category:  ClassifyBloodPressure(reading.Systolic, reading.Diastolic).Label,
			OnTarget:  IsOnTarget(reading, targets),
			Synced:    reading.SyncedToCalendar,
			Notes:     reading.Notes,
		})
	}
	return rows, nil
}

func (row ExportCSVRow) Columns() []string {
	return []string{
		row.Date,
		row.Time,
		strconv.Itoa(row.Systolic),
		strconv.Itoa(row.Diastolic),
		strconv.Itoa(row.Pulse),
		row.Category,
		csvYesNo(row.OnTarget),
		csvYesNo(row.Synced),
		row.Notes,
	}
}

func csvYesNo(value bool) string {
	if value {
		return "Yes"
	}
	return "No"
}

package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/pulselog/internal/models"
)

var (
	ErrReadingNotFound     = errors.New("reading not found")
	ErrReadingLoadFailed   = errors.New("load reading failed")
	ErrReadingCreateFailed = errors.New("create reading failed")
	ErrReadingUpdateFailed = errors.New("update reading failed")
	ErrReadingDeleteFailed = errors.New("delete reading failed")
)

type ReadingRepository interface {
	ListByUser(userID uint) ([]models.Reading, error)
	ListByUserRange(userID uint, fromStart *time.Time, toEnd *time.Time) ([]models.Reading, error)
	FindByUserAndID(userID uint, readingID string) (models.Reading, bool, error)
	Create(reading *models.Reading) error
	Save(reading *models.Reading) error
	DeleteByUserAndID(userID uint, readingID string) (bool, error)
}

type ReadingService struct {
	readings ReadingRepository
}

func NewReadingService(readings ReadingRepository) *ReadingService {
	return &ReadingService{readings: readings}
}

// List returns readings newest-first. from and to are inclusive local days.
func (service *ReadingService) List(userID uint, from *time.Time, to *time.Time, location *time.Location) ([]models.Reading, error) {
	if from == nil && to == nil {
		return service.readings.ListByUser(userID)
	}

	var fromStart *time.Time
	if from != nil {
		start, _ := DayRange(*from, location)
		fromStart = &start
	}
	var toEnd *time.Time
	if to != nil {
		_, end := DayRange(*to, location)
		toEnd = &end
	}
	return service.readings.ListByUserRange(userID, fromStart, toEnd)
}

func (service *ReadingService) Get(userID uint, readingID string) (models.Reading, error) {
	reading, found, err := service.readings.FindByUserAndID(userID, readingID)
	if err != nil {
		return models.Reading{}, fmt.Errorf("%w: %v", ErrReadingLoadFailed, err)
	}
	if !found {
		return models.Reading{}, ErrReadingNotFound
	}
	return reading, nil
}

func (service *ReadingService) Create(userID uint, input ReadingInput, now time.Time) (models.Reading, error) {
	normalized, err := NormalizeReadingInput(input, now)
	if err != nil {
		return models.Reading{}, err
	}

	reading := models.Reading{
		ID:        uuid.NewString(),
		UserID:    userID,
		TakenAt:   normalized.TakenAt,
		Systolic:  normalized.Systolic,
		Diastolic: normalized.Diastolic,
		Pulse:     normalized.Pulse,
		Notes:     normalized.Notes,
	}
	if err := service.readings.Create(&reading); err != nil {
		return models.Reading{}, fmt.Errorf("%w: %v", ErrReadingCreateFailed, err)
	}
	return reading, nil
}

// Update keeps the sync flag and remote event id so the caller can mirror
// the edit to the calendar.
func (service *ReadingService) Update(userID uint, readingID string, input ReadingInput, now time.Time) (models.Reading, error) {
	reading, err := service.Get(userID, readingID)
	if err != nil {
		return models.Reading{}, err
	}
	if input.TakenAt.IsZero() {
		input.TakenAt = reading.TakenAt
	}

	normalized, err := NormalizeReadingInput(input, now)
	if err != nil {
		return models.Reading{}, err
	}

	reading.TakenAt = normalized.TakenAt
	reading.Systolic = normalized.Systolic
	reading.Diastolic = normalized.Diastolic
	reading.Pulse = normalized.Pulse
	reading.Notes = normalized.Notes
	if err := service.readings.Save(&reading); err != nil {
		return models.Reading{}, fmt.Errorf("%w: %v", ErrReadingUpdateFailed, err)
	}
	return reading, nil
}

// Delete returns the removed reading so a synced calendar event can be
// cleaned up afterwards.
func (service *ReadingService) Delete(userID uint, readingID string) (models.Reading, error) {
	reading, err := service.Get(userID, readingID)
	if err != nil {
		return models.Reading{}, err
	}

	deleted, err := service.readings.DeleteByUserAndID(userID, readingID)
	if err != nil {
		return models.Reading{}, fmt.Errorf("%w: %v", ErrReadingDeleteFailed, err)
	}
	if !deleted {
		return models.Reading{}, ErrReadingNotFound
	}
	return reading, nil
}

package services

import (
	"errors"
	"fmt"

	"github.com/terraincognita07/pulselog/internal/models"
)

var (
	ErrInvalidTargets      = errors.New("invalid targets")
	ErrTargetsLoadFailed   = errors.New("load targets failed")
	ErrTargetsUpdateFailed = errors.New("update targets failed")
)

type TargetsRepository interface {
	FindByUserID(userID uint) (models.Targets, bool, error)
	Upsert(targets *models.Targets) error
}

type TargetsService struct {
	targets TargetsRepository
}

type TargetsInput struct {
	Systolic  int
	Diastolic int
	Pulse     int
}

func NewTargetsService(targets TargetsRepository) *TargetsService {
	return &TargetsService{targets: targets}
}

// Get falls back to defaults for users without a stored row.
func (service *TargetsService) Get(userID uint) (models.Targets, error) {
	targets, found, err := service.targets.FindByUserID(userID)
	if err != nil {
		return models.Targets{}, fmt.Errorf("%w: %v", ErrTargetsLoadFailed, err)
	}
	if !found {
		return models.DefaultTargets(userID), nil
	}
	return targets, nil
}

func (service *TargetsService) Update(userID uint, input TargetsInput) (models.Targets, error) {
	if err := ValidateTargetsInput(input); err != nil {
		return models.Targets{}, err
	}

	targets := models.Targets{
		UserID:    userID,
		Systolic:  input.Systolic,
		Diastolic: input.Diastolic,
		Pulse:     input.Pulse,
	}
	if err := service.targets.Upsert(&targets); err != nil {
		return models.Targets{}, fmt.Errorf("%w: %v", ErrTargetsUpdateFailed, err)
	}
	return targets, nil
}

func (service *TargetsService) Reset(userID uint) (models.Targets, error) {
	defaults := models.DefaultTargets(userID)
	return service.Update(userID, TargetsInput{
		Systolic:  defaults.Systolic,
		Diastolic: defaults.Diastolic,
		Pulse:     defaults.Pulse,
	})
}

func ValidateTargetsInput(input TargetsInput) error {
	switch {
	case input.Systolic < models.MinTargetSystolic || input.Systolic > models.MaxTargetSystolic:
		return fmt.Errorf("%w: systolic must be between %d and %d", ErrInvalidTargets, models.MinTargetSystolic, models.MaxTargetSystolic)
	case input.Diastolic < models.MinTargetDiastolic || input.Diastolic > models.MaxTargetDiastolic:
		return fmt.Errorf("%w: diastolic must be between %d and %d", ErrInvalidTargets, models.MinTargetDiastolic, models.MaxTargetDiastolic)
	case input.Pulse < models.MinTargetPulse || input.Pulse > models.MaxTargetPulse:
		return fmt.Errorf("%w: pulse must be between %d and %d", ErrInvalidTargets, models.MinTargetPulse, models.MaxTargetPulse)
	}
	return nil
}

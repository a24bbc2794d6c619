package db

import (
	"time"

	"github.com/terraincognita07/pulselog/internal/models"
	"gorm.io/gorm"
)

type ReadingRepository struct {
	database *gorm.DB
}

func NewReadingRepository(database *gorm.DB) *ReadingRepository {
	return &ReadingRepository{database: database}
}

// ListByUser returns every reading of the user, newest first.
func (repo *ReadingRepository) ListByUser(userID uint) ([]models.Reading, error) {
	readings := make([]models.Reading, 0)
	if err := repo.database.
		Where("user_id = ?", userID).
		Order("taken_at DESC, id ASC").
		Find(&readings).Error; err != nil {
		return nil, err
	}
	return readings, nil
}

// ListByUserRange returns readings in [fromStart, toEnd), newest first. Nil bounds are open.
func (repo *ReadingRepository) ListByUserRange(userID uint, fromStart *time.Time, toEnd *time.Time) ([]models.Reading, error) {
	query := repo.database.Model(&models.Reading{}).Where("user_id = ?", userID)
	if fromStart != nil {
		query = query.Where("taken_at >= ?", *fromStart)
	}
	if toEnd != nil {
		query = query.Where("taken_at < ?", *toEnd)
	}

	readings := make([]models.Reading, 0)
	if err := query.Order("taken_at DESC, id ASC").Find(&readings).Error; err != nil {
		return nil, err
	}
	return readings, nil
}

func (repo *ReadingRepository) FindByUserAndID(userID uint, readingID string) (models.Reading, bool, error) {
	reading := models.Reading{}
	result := repo.database.
		Where("user_id = ? AND id = ?", userID, readingID).
		Limit(1).
		Find(&reading)
	if result.Error != nil {
		return models.Reading{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Reading{}, false, nil
	}
	return reading, true, nil
}

func (repo *ReadingRepository) Create(reading *models.Reading) error {
	return repo.database.Create(reading).Error
}

func (repo *ReadingRepository) Save(reading *models.Reading) error {
	return repo.database.Save(reading).Error
}

func (repo *ReadingRepository) DeleteByUserAndID(userID uint, readingID string) (bool, error) {
	result := repo.database.Where("user_id = ? AND id = ?", userID, readingID).Delete(&models.Reading{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (repo *ReadingRepository) MarkSynced(userID uint, readingID string, eventID string) error {
	return repo.updateSyncState(userID, readingID, map[string]any{
		"synced_to_calendar": true,
		"calendar_event_id":  eventID,
	})
}

func (repo *ReadingRepository) MarkUnsynced(userID uint, readingID string) error {
	return repo.updateSyncState(userID, readingID, map[string]any{
		"synced_to_calendar": false,
		"calendar_event_id":  "",
	})
}

func (repo *ReadingRepository) updateSyncState(userID uint, readingID string, updates map[string]any) error {
	result := repo.database.Model(&models.Reading{}).
		Where("user_id = ? AND id = ?", userID, readingID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

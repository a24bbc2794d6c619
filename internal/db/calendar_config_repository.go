package db

import (
	"github.com/terraincognita07/pulselog/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CalendarConfigRepository struct {
	database *gorm.DB
}

func NewCalendarConfigRepository(database *gorm.DB) *CalendarConfigRepository {
	return &CalendarConfigRepository{database: database}
}

// Load returns the stored grant or a disabled config when none exists.
func (repo *CalendarConfigRepository) Load(userID uint) (models.CalendarSyncConfig, error) {
	config := models.CalendarSyncConfig{}
	result := repo.database.Where("user_id = ?", userID).Limit(1).Find(&config)
	if result.Error != nil {
		return models.CalendarSyncConfig{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.CalendarSyncConfig{UserID: userID, CalendarID: models.DefaultCalendarID}, nil
	}
	return config, nil
}

func (repo *CalendarConfigRepository) Save(config *models.CalendarSyncConfig) error {
	return repo.database.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"enabled",
			"access_token",
			"refresh_token",
			"expires_at",
			"calendar_id",
			"auto_sync",
			"last_synced_at",
			"updated_at",
		}),
	}).Create(config).Error
}

func (repo *CalendarConfigRepository) Delete(userID uint) error {
	return repo.database.Where("user_id = ?", userID).Delete(&models.CalendarSyncConfig{}).Error
}

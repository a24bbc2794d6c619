package db

import (
	"github.com/terraincognita07/pulselog/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TargetsRepository struct {
	database *gorm.DB
}

func NewTargetsRepository(database *gorm.DB) *TargetsRepository {
	return &TargetsRepository{database: database}
}

func (repo *TargetsRepository) FindByUserID(userID uint) (models.Targets, bool, error) {
	targets := models.Targets{}
	result := repo.database.Where("user_id = ?", userID).Limit(1).Find(&targets)
	if result.Error != nil {
		return models.Targets{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Targets{}, false, nil
	}
	return targets, true, nil
}

// Upsert overwrites the single targets row of the user in place.
func (repo *TargetsRepository) Upsert(targets *models.Targets) error {
	return repo.database.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"systolic", "diastolic", "pulse", "updated_at"}),
	}).Create(targets).Error
}

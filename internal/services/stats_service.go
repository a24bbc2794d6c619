package services

import (
	"time"

	"github.com/terraincognita07/pulselog/internal/models"
)

const (
	WeeklyAverageWindow  = 7
	MonthlyAverageWindow = 30
)

type StatsReadingReader interface {
	ListByUser(userID uint) ([]models.Reading, error)
}

type StatsTargetsReader interface {
	FindByUserID(userID uint) (models.Targets, bool, error)
}

type StatsService struct {
	readings StatsReadingReader
	targets  StatsTargetsReader
}

type LatestReadingStats struct {
	Reading  models.Reading `json:"reading"`
	Severity Severity       `json:"severity"`
	OnTarget bool           `json:"on_target"`
}

type DashboardStats struct {
	TotalReadings   int                 `json:"total_readings"`
	Latest          *LatestReadingStats `json:"latest"`
	WeeklyAverage   ReadingAverage      `json:"weekly_average"`
	MonthlyAverage  ReadingAverage      `json:"monthly_average"`
	Streak          int                 `json:"streak"`
	OnTargetCount   int                 `json:"on_target_count"`
	OnTargetPercent float64             `json:"on_target_percent"`
	HealthScore     HealthScore         `json:"health_score"`
	Trend           *Trend              `json:"trend"`
	Achievements    []Achievement       `json:"achievements"`
	Targets         models.Targets      `json:"targets"`
}

func NewStatsService(readings StatsReadingReader, targets StatsTargetsReader) *StatsService {
	return &StatsService{
		readings: readings,
		targets:  targets,
	}
}

func (service *StatsService) BuildDashboard(userID uint, now time.Time, location *time.Location) (DashboardStats, error) {
	readings, err := service.readings.ListByUser(userID)
	if err != nil {
		return DashboardStats{}, err
	}

	targets, found, err := service.targets.FindByUserID(userID)
	if err != nil {
		return DashboardStats{}, err
	}
	if !found {
		targets = models.DefaultTargets(userID)
	}

	return BuildDashboardStats(readings, targets, now, location), nil
}

// BuildDashboardStats expects readings newest-first.
func BuildDashboardStats(readings []models.Reading, targets models.Targets, now time.Time, location *time.Location) DashboardStats {
	window := RecentReadings(readings, HealthScoreWindow)
	onTarget := OnTargetCount(window, targets, len(window))

	stats := DashboardStats{
		TotalReadings:   len(readings),
		WeeklyAverage:   RollingAverage(readings, WeeklyAverageWindow),
		MonthlyAverage:  RollingAverage(readings, MonthlyAverageWindow),
		Streak:          CurrentStreak(readings, now, location),
		OnTargetCount:   onTarget,
		OnTargetPercent: roundTo(percentOf(onTarget, len(window)), 1),
		HealthScore:     ComputeHealthScore(readings, targets, now, location),
		Achievements:    EvaluateAchievements(readings, targets, now, location),
		Targets:         targets,
	}

	if len(readings) > 0 {
		latest := readings[0]
		stats.Latest = &LatestReadingStats{
			Reading:  latest,
			Severity: ClassifyBloodPressure(latest.Systolic, latest.Diastolic),
			OnTarget: IsOnTarget(latest, targets),
		}
	}
	if trend, ok := ComputeTrend(readings); ok {
		stats.Trend = &trend
	}
	return stats
}

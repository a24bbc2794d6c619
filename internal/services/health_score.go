package services

import (
	"math"
	"time"

	"github.com/terraincognita07/pulselog/internal/models"
)

const (
	HealthScoreWindow         = 30
	ConsistencyWindowDays     = 30
	TrendWindow               = 15
	minReadingsForHealthScore = TrendWindow + 1
	neutralHealthScore        = 50

	onTargetWeight    = 0.40
	consistencyWeight = 0.30
	systolicWeight    = 0.15
	diastolicWeight   = 0.15

	trendStableBand = 2.0
)

const (
	HealthCategoryExcellent        = "Excellent"
	HealthCategoryGood             = "Good"
	HealthCategoryFair             = "Fair"
	HealthCategoryNeedsImprovement = "Needs Improvement"
	HealthCategoryInsufficientData = "Insufficient Data"
	HealthCategoryNoData           = "No Data"
)

const (
	TrendImproving = "improving"
	TrendWorsening = "worsening"
	TrendStable    = "stable"
)

type HealthScore struct {
	Score              int     `json:"score"`
	Category           string  `json:"category"`
	OnTargetPercent    float64 `json:"on_target_percent"`
	ConsistencyPercent float64 `json:"consistency_percent"`
	SystolicScore      float64 `json:"systolic_score"`
	DiastolicScore     float64 `json:"diastolic_score"`
}

// Trend compares mean (systolic+diastolic) of the latest 15 readings with
// the 15 before them. A negative delta means pressure went down.
type Trend struct {
	Delta     float64 `json:"delta"`
	Direction string  `json:"direction"`
}

// ComputeHealthScore expects readings newest-first.
func ComputeHealthScore(readings []models.Reading, targets models.Targets, now time.Time, location *time.Location) HealthScore {
	if len(readings) == 0 {
		return HealthScore{Score: 0, Category: HealthCategoryNoData}
	}
	if len(readings) < minReadingsForHealthScore {
		return HealthScore{Score: neutralHealthScore, Category: HealthCategoryInsufficientData}
	}

	window := RecentReadings(readings, HealthScoreWindow)
	onTargetPercent := percentOf(OnTargetCount(window, targets, len(window)), len(window))
	consistencyPercent := percentOf(ActiveDaysInLastDays(readings, now, location, ConsistencyWindowDays), ConsistencyWindowDays)

	systolicMean, diastolicMean := meanPressures(window)
	systolicScore := deviationScore(systolicMean, targets.Systolic)
	diastolicScore := deviationScore(diastolicMean, targets.Diastolic)

	raw := onTargetWeight*onTargetPercent +
		consistencyWeight*consistencyPercent +
		systolicWeight*systolicScore +
		diastolicWeight*diastolicScore
	score := clampScore(raw)

	return HealthScore{
		Score:              score,
		Category:           HealthCategory(score),
		OnTargetPercent:    roundTo(onTargetPercent, 1),
		ConsistencyPercent: roundTo(consistencyPercent, 1),
		SystolicScore:      roundTo(systolicScore, 1),
		DiastolicScore:     roundTo(diastolicScore, 1),
	}
}

func HealthCategory(score int) string {
	switch {
	case score >= 80:
		return HealthCategoryExcellent
	case score >= 60:
		return HealthCategoryGood
	case score >= 40:
		return HealthCategoryFair
	default:
		return HealthCategoryNeedsImprovement
	}
}

// ComputeTrend reports false unless both 15-reading windows are non-empty.
func ComputeTrend(readings []models.Reading) (Trend, bool) {
	window := RecentReadings(readings, TrendWindow*2)
	if len(window) <= TrendWindow {
		return Trend{}, false
	}

	recent := window[:TrendWindow]
	previous := window[TrendWindow:]
	delta := roundTo(meanCombinedPressure(recent)-meanCombinedPressure(previous), 1)

	direction := TrendStable
	switch {
	case delta < -trendStableBand:
		direction = TrendImproving
	case delta > trendStableBand:
		direction = TrendWorsening
	}
	return Trend{Delta: delta, Direction: direction}, true
}

func clampScore(raw float64) int {
	if math.IsNaN(raw) || raw < 0 {
		return 0
	}
	if raw > 100 {
		return 100
	}
	return int(math.Round(raw))
}

func deviationScore(mean float64, target int) float64 {
	return math.Max(0, 100-2*math.Abs(mean-float64(target)))
}

func meanPressures(readings []models.Reading) (float64, float64) {
	if len(readings) == 0 {
		return 0, 0
	}
	systolicSum, diastolicSum := 0, 0
	for _, reading := range readings {
		systolicSum += reading.Systolic
		diastolicSum += reading.Diastolic
	}
	count := float64(len(readings))
	return float64(systolicSum) / count, float64(diastolicSum) / count
}

func meanCombinedPressure(readings []models.Reading) float64 {
	systolic, diastolic := meanPressures(readings)
	return systolic + diastolic
}

func percentOf(part int, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func roundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}

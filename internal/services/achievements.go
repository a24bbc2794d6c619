package services

import (
	"time"

	"github.com/terraincognita07/pulselog/internal/models"
)

type Achievement struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
	Progress    int    `json:"progress"`
	Goal        int    `json:"goal"`
}

type achievementFacts struct {
	totalReadings  int
	streak         int
	trackingDays   int
	onTargetRecent int
}

type achievementRule struct {
	key         string
	title       string
	description string
	goal        int
	measure     func(achievementFacts) int
}

var achievementRules = []achievementRule{
	{key: "first_reading", title: "First Step", description: "Log your first reading", goal: 1, measure: totalReadingsFact},
	{key: "readings_10", title: "Getting Started", description: "Log 10 readings", goal: 10, measure: totalReadingsFact},
	{key: "readings_50", title: "Dedicated", description: "Log 50 readings", goal: 50, measure: totalReadingsFact},
	{key: "readings_100", title: "Century", description: "Log 100 readings", goal: 100, measure: totalReadingsFact},
	{key: "streak_7", title: "Week Streak", description: "Log a reading 7 days in a row", goal: 7, measure: streakFact},
	{key: "streak_30", title: "Month Streak", description: "Log a reading 30 days in a row", goal: 30, measure: streakFact},
	{key: "tracking_week", title: "One Week In", description: "Track for a week since your first reading", goal: 7, measure: trackingDaysFact},
	{key: "tracking_month", title: "One Month In", description: "Track for a month since your first reading", goal: 30, measure: trackingDaysFact},
	{key: "on_target_10", title: "On Target", description: "10 of your last 30 readings within target", goal: 10, measure: onTargetFact},
	{key: "on_target_25", title: "In the Zone", description: "25 of your last 30 readings within target", goal: 25, measure: onTargetFact},
}

func totalReadingsFact(facts achievementFacts) int { return facts.totalReadings }
func streakFact(facts achievementFacts) int { return facts.streak }
func trackingDaysFact(facts achievementFacts) int { return facts.trackingDays }
func onTargetFact(facts achievementFacts) int { return facts.onTargetRecent }

// EvaluateAchievements recomputes every achievement from scratch; nothing is
// persisted, so deleting readings can lock an achievement again.
func EvaluateAchievements(readings []models.Reading, targets models.Targets, now time.Time, location *time.Location) []Achievement {
	facts := achievementFacts{
		totalReadings:  len(readings),
		streak:         CurrentStreak(readings, now, location),
		onTargetRecent: OnTargetCount(readings, targets, HealthScoreWindow),
	}
	if first, ok := earliestReading(readings); ok {
		facts.trackingDays = CalendarDaysBetween(first.TakenAt, now, location)
	}

	achievements := make([]Achievement, 0, len(achievementRules))
	for _, rule := range achievementRules {
		progress := rule.measure(facts)
		if progress > rule.goal {
			progress = rule.goal
		}
		if progress < 0 {
			progress = 0
		}
		achievements = append(achievements, Achievement{
			Key:         rule.key,
			Title:       rule.title,
			Description: rule.description,
			Unlocked:    progress >= rule.goal,
			Progress:    progress,
			Goal:        rule.goal,
		})
	}
	return achievements
}

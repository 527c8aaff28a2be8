package models

// FeatureKey names a quota-governed action
type FeatureKey string

const (
	FeatureWordsAdded       FeatureKey = "wordsAdded"
	FeatureQuizzesPlayed    FeatureKey = "quizzesPlayed"
	FeatureMatchesPlayed    FeatureKey = "matchesPlayed"
	FeatureFlashcardsViewed FeatureKey = "flashcardsViewed"
	FeatureAIRequests       FeatureKey = "aiRequests"
)

// FeatureKeys lists every known quota key
var FeatureKeys = []FeatureKey{
	FeatureWordsAdded,
	FeatureQuizzesPlayed,
	FeatureMatchesPlayed,
	FeatureFlashcardsViewed,
	FeatureAIRequests,
}

// DailyUsage holds one user's counters for a calendar day
type DailyUsage struct {
	UserID   int64              `json:"-"`
	Date     string             `json:"date"` // YYYY-MM-DD in the governor's location
	Counters map[FeatureKey]int `json:"counters"`
}

// ProgressSnapshot is the derived gamification state of a word bank
type ProgressSnapshot struct {
	Level          int `json:"level"`
	TotalXP        int `json:"totalXP"`
	CurrentLevelXP int `json:"currentLevelXP"`
	XPForNextLevel int `json:"xpForNextLevel"`
	StreakDays     int `json:"streakDays"`
}

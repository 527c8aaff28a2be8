// Package gamification derives XP, level and streak from a word bank.
//
// Everything here is a pure function of the item collection and the
// caller-supplied clock, so results are recomputed on every read and never
// stored.
package gamification

import (
	"time"

	"palabras/internal/models"
)

const (
	XPPerItem    = 10
	XPPerLevel   = 100
	dayKeyLayout = "2006-01-02"
)

// Compute returns the progress snapshot for items as seen at now.
// Calendar days are taken in loc; a nil loc means time.Local.
func Compute(items []models.VocabularyItem, now time.Time, loc *time.Location) models.ProgressSnapshot {
	if loc == nil {
		loc = time.Local
	}

	totalXP := len(items) * XPPerItem

	created := make([]time.Time, len(items))
	for i, item := range items {
		created[i] = item.CreatedAt
	}

	return models.ProgressSnapshot{
		Level:          totalXP/XPPerLevel + 1,
		TotalXP:        totalXP,
		CurrentLevelXP: totalXP % XPPerLevel,
		XPForNextLevel: XPPerLevel,
		StreakDays:     Streak(created, now, loc),
	}
}

// Streak counts consecutive active calendar days ending today, or ending
// yesterday when nothing happened yet today.
func Streak(timestamps []time.Time, now time.Time, loc *time.Location) int {
	if len(timestamps) == 0 {
		return 0
	}
	if loc == nil {
		loc = time.Local
	}

	active := make(map[string]struct{}, len(timestamps))
	for _, ts := range timestamps {
		active[dayKey(ts.In(loc))] = struct{}{}
	}

	day := startOfDay(now.In(loc))
	if _, ok := active[dayKey(day)]; !ok {
		day = day.AddDate(0, 0, -1)
		if _, ok := active[dayKey(day)]; !ok {
			return 0
		}
	}

	streak := 0
	for {
		if _, ok := active[dayKey(day)]; !ok {
			break
		}
		streak++
		// AddDate keeps DST transitions on calendar boundaries
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// ActiveOn reports whether any timestamp falls on the calendar day of t
func ActiveOn(timestamps []time.Time, t time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	key := dayKey(t.In(loc))
	for _, ts := range timestamps {
		if dayKey(ts.In(loc)) == key {
			return true
		}
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func dayKey(t time.Time) string {
	return t.Format(dayKeyLayout)
}

package schedule

import (
	"time"

	"github.com/habitify/reminders/internal/model"
)

// StreakLookbackDays bounds how far back streaks are counted.
const StreakLookbackDays = 365

type StreakData struct {
	CurrentStreak int `json:"current_streak"`
	BestStreak    int `json:"best_streak"`
}

// CalculateStreak counts consecutive completed scheduled days ending at today.
//
// Days the habit is not scheduled on are skipped and never break a streak.
// Today is still open: if it is scheduled and not yet completed it is ignored
// instead of ending the current streak. The first missed scheduled day before
// today fixes the current streak; scanning continues only to find the best.
func CalculateStreak(completionDates []string, days model.Weekdays, today time.Time) StreakData {
	if len(completionDates) == 0 {
		return StreakData{}
	}

	completed := make(map[string]struct{}, len(completionDates))
	for _, d := range completionDates {
		if len(d) > len(DateLayout) {
			d = d[:len(DateLayout)]
		}
		completed[d] = struct{}{}
	}

	today = DateOf(today)

	var current, best, run int
	currentClosed := false

	for i := 0; i < StreakLookbackDays; i++ {
		day := today.AddDate(0, 0, -i)
		if !IsDue(days, day) {
			continue
		}

		if _, ok := completed[FormatDate(day)]; ok {
			run++
			continue
		}

		if !currentClosed {
			if i == 0 {
				continue
			}
			current = run
			currentClosed = true
		}
		best = max(best, run)
		run = 0
	}

	if !currentClosed {
		current = run
	}
	best = max(best, run)

	return StreakData{CurrentStreak: current, BestStreak: best}
}

// Package message picks the flavor text used in reminder notifications.
package message

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
)

// Provider returns notification copy. Implementations may be random.
type Provider interface {
	ReminderTitle(icon, habitName string) string
	ReminderBody(habitName string) string
	StreakTitle(icon string, streak int) string
	StreakBody(streak, incompleteCount int, urgent bool) string
}

var reminderLines = []string{
	"{habit} won't do itself. Probably.",
	"Quick check-in: {habit} is still waiting for you.",
	"You said {habit} mattered. Prove it.",
	"Five minutes of {habit} beats zero minutes of {habit}.",
	"{habit} o'clock. You know what to do.",
	"Future you would like a word about {habit}.",
}

var streakLines = []string{
	"Your {streak} day streak is looking at you. Do not look away.",
	"{streak} days in a row. It would be a shame if something happened to it.",
	"Streaks don't build themselves. Yours is at {streak} days and counting on you.",
	"Day {streak} is so close to becoming day {next}.",
	"Remember all {streak} of those days? They remember you.",
}

var multiHabitLines = []string{
	"{count} habits still open today, and a {streak} day streak riding on them.",
	"{count} habits left. One streak of {streak} days. Choose wisely.",
	"Your {count} open habits have formed a committee. Your {streak} day streak chairs it.",
}

var urgentLines = []string{
	"Last call: your {streak} day streak ends at midnight unless you act.",
	"The clock is winning. Save your {streak} day streak before the day is over.",
	"Only a few hours left to keep {streak} days alive.",
}

// Random picks lines at random. It is safe for concurrent use.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom returns a provider seeded from the runtime's random source.
func NewRandom() *Random {
	return &Random{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeeded returns a provider with a deterministic sequence.
func NewSeeded(seed1, seed2 uint64) *Random {
	return &Random{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

func (r *Random) ReminderTitle(icon, habitName string) string {
	return withIcon(icon, habitName)
}

func (r *Random) ReminderBody(habitName string) string {
	line := r.pick(reminderLines)
	return strings.ReplaceAll(line, "{habit}", habitName)
}

func (r *Random) StreakTitle(icon string, streak int) string {
	return withIcon(icon, fmt.Sprintf("Your %d day streak is in danger!", streak))
}

// StreakBody favors urgent lines late in the day and group lines when several
// habits are still open.
func (r *Random) StreakBody(streak, incompleteCount int, urgent bool) string {
	var lines []string
	switch {
	case urgent && r.chance(0.5):
		lines = urgentLines
	case incompleteCount > 1 && r.chance(0.4):
		lines = multiHabitLines
	default:
		lines = streakLines
	}

	return strings.NewReplacer(
		"{streak}", strconv.Itoa(streak),
		"{next}", strconv.Itoa(streak+1),
		"{count}", strconv.Itoa(incompleteCount),
	).Replace(r.pick(lines))
}

func (r *Random) pick(lines []string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lines[r.rng.IntN(len(lines))]
}

func (r *Random) chance(p float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64() < p
}

func withIcon(icon, text string) string {
	icon = strings.TrimSpace(icon)
	if icon == "" {
		return text
	}
	return icon + " " + text
}

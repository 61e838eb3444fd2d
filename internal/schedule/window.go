package schedule

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"
)

const (
	eveningStartHour        = 18
	eveningSlotHours        = 5 // slots start between 18:00 and 22:59
	EveningToleranceMinutes = 7
)

// ParseClock parses a wall clock time "HH:MM" or "HH:MM:SS" into minutes after
// midnight. Seconds are ignored.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q (expected HH:MM)", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}

	return hour*60 + minute, nil
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// WindowStart truncates the local minute of day down to a multiple of windowMinutes.
func WindowStart(now time.Time, loc *time.Location, windowMinutes int) int {
	if windowMinutes <= 0 {
		windowMinutes = 1
	}
	m := minuteOfDay(now.In(loc))
	return m - m%windowMinutes
}

// IsWithinWindow reports whether the local reminder time target falls in the
// window bucket that contains now. A trigger running once per window fires a
// reminder exactly once even when it runs late within the window.
func IsWithinWindow(now time.Time, loc *time.Location, target string, windowMinutes int) bool {
	targetMinute, err := ParseClock(target)
	if err != nil {
		return false
	}
	if windowMinutes <= 0 {
		windowMinutes = 1
	}

	start := WindowStart(now, loc, windowMinutes)
	return targetMinute >= start && targetMinute < start+windowMinutes
}

// EveningSlot returns the user's streak alert time as minutes after midnight.
// The slot is stable for a given user id and lies in 18:00-22:59.
func EveningSlot(userID string) int {
	h := fnv.New32a()
	h.Write([]byte(userID))
	sum := h.Sum32()

	hour := eveningStartHour + int(sum%eveningSlotHours)
	minute := int((sum / eveningSlotHours) % 60)
	return hour*60 + minute
}

// IsWithinEveningStreakWindow reports whether local now is within
// EveningToleranceMinutes of the user's evening slot.
func IsWithinEveningStreakWindow(userID string, now time.Time, loc *time.Location) bool {
	diff := minuteOfDay(now.In(loc)) - EveningSlot(userID)
	if diff < 0 {
		diff = -diff
	}
	return diff <= EveningToleranceMinutes
}

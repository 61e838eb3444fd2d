package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/habitify/reminders/internal/model"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestIsDue(t *testing.T) {
	tuesday := date(t, "2026-01-13")
	sunday := date(t, "2026-01-11")

	tests := []struct {
		name string
		days model.Weekdays
		date time.Time
		want bool
	}{
		{"empty schedule is daily", nil, tuesday, true},
		{"full week is daily", model.Weekdays{0, 1, 2, 3, 4, 5, 6}, sunday, true},
		{"scheduled weekday", model.Weekdays{2, 4}, tuesday, true},
		{"unscheduled weekday", model.Weekdays{1, 3}, tuesday, false},
		{"sunday is zero", model.Weekdays{0}, sunday, true},
		{"saturday only", model.Weekdays{6}, sunday, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDue(tt.days, tt.date))
		})
	}
}

func TestLocalDate(t *testing.T) {
	// 2026-01-13 23:30 UTC is already Wednesday in Tokyo and still Tuesday in Los Angeles.
	now := time.Date(2026, 1, 13, 23, 30, 0, 0, time.UTC)

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	assert.NoError(t, err)
	la, err := time.LoadLocation("America/Los_Angeles")
	assert.NoError(t, err)

	assert.Equal(t, "2026-01-14", FormatDate(LocalDate(now, tokyo)))
	assert.Equal(t, "2026-01-13", FormatDate(LocalDate(now, la)))
}

func TestParseDateAcceptsTimestampSuffix(t *testing.T) {
	d, err := ParseDate("2026-01-13T00:00:00Z")
	assert.NoError(t, err)
	assert.Equal(t, "2026-01-13", FormatDate(d))
}

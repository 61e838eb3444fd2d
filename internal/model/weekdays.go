package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Weekdays is a weekly schedule: weekday indices 0 (Sunday) to 6 (Saturday).
// Stored as a JSON array.
type Weekdays []int

const fullWeekMask = 1<<7 - 1

// Mask returns the schedule as a bitmask with bit n set for weekday n.
// Out of range values are ignored.
func (w Weekdays) Mask() uint8 {
	var mask uint8
	for _, d := range w {
		if d >= 0 && d <= 6 {
			mask |= 1 << uint(d)
		}
	}
	return mask
}

// IsDaily reports whether the schedule means "every day": empty or all seven days.
func (w Weekdays) IsDaily() bool {
	mask := w.Mask()
	return mask == 0 || mask == fullWeekMask
}

func (w Weekdays) Validate() error {
	seen := make(map[int]bool, len(w))
	for _, d := range w {
		if d < 0 || d > 6 {
			return fmt.Errorf("weekday %d out of range [0,6]", d)
		}
		if seen[d] {
			return fmt.Errorf("weekday %d listed twice", d)
		}
		seen[d] = true
	}
	return nil
}

func (w Weekdays) Value() (driver.Value, error) {
	if w == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int(w))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (w *Weekdays) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*w = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into Weekdays", src)
	}

	if len(raw) == 0 {
		*w = nil
		return nil
	}

	var days []int
	if err := json.Unmarshal(raw, &days); err != nil {
		return fmt.Errorf("invalid weekdays %q: %w", raw, err)
	}
	*w = days
	return nil
}

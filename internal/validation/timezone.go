package validation

import (
	"errors"
	"time"
)

// ValidateTimezone checks an IANA zone name reported by a device
func ValidateTimezone(name string) error {
	if name == "" {
		return errors.New("timezone is required")
	}

	// "Local" resolves to the server's zone, never the user's
	if name == "Local" {
		return errors.New("timezone must be an IANA name")
	}

	if len(name) > 64 {
		return errors.New("timezone is too long (max 64 characters)")
	}

	if _, err := time.LoadLocation(name); err != nil {
		return errors.New("unknown timezone")
	}

	return nil
}

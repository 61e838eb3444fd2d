package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassFor(t *testing.T) {
	for _, kind := range []string{"all", "reminders", "streaks"} {
		run, err := passFor(kind)
		require.NoError(t, err, kind)
		assert.NotNil(t, run, kind)
	}

	_, err := passFor("weekly")
	assert.ErrorContains(t, err, `unknown pass "weekly"`)
}

func TestLoopHelpNamesWindowKey(t *testing.T) {
	long := LoopCmd().Long
	assert.Contains(t, long, "REMINDER_WINDOW ")
	assert.NotContains(t, long, "REMINDER_WINDOW_MINUTES")
}

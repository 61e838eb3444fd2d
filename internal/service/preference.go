package service

import (
	"slices"

	"github.com/habitify/reminders/internal/model"
)

// EnabledChannels returns the channels the user has not switched off, in
// model.AllChannels order. Flags that were never set count as enabled.
func EnabledChannels(profile *model.Profile) []model.Channel {
	channels := make([]model.Channel, 0, len(model.AllChannels))
	for _, ch := range model.AllChannels {
		if profile.ChannelEnabled(ch) {
			channels = append(channels, ch)
		}
	}
	return channels
}

// intersectChannels keeps the channels of enabled that are also in allowed.
func intersectChannels(enabled, allowed []model.Channel) []model.Channel {
	var out []model.Channel
	for _, ch := range enabled {
		if slices.Contains(allowed, ch) {
			out = append(out, ch)
		}
	}
	return out
}

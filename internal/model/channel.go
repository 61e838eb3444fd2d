package model

import (
	"fmt"
	"strings"
)

// Channel is a notification delivery mechanism.
type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelNtfy  Channel = "ntfy"
	ChannelEmail Channel = "email"
)

// AllChannels lists every channel in fan-out order.
var AllChannels = []Channel{ChannelPush, ChannelNtfy, ChannelEmail}

func ParseChannel(s string) (Channel, error) {
	ch := Channel(strings.ToLower(strings.TrimSpace(s)))
	switch ch {
	case ChannelPush, ChannelNtfy, ChannelEmail:
		return ch, nil
	}
	return "", fmt.Errorf("unknown notification channel %q", s)
}

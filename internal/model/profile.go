package model

import "time"

const DefaultTimezone = "UTC"

type Profile struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Name        string    `db:"name"`
	Timezone    string    `db:"timezone"` // IANA name
	NotifyPush  *bool     `db:"notify_push"`
	NotifyNtfy  *bool     `db:"notify_ntfy"`
	NotifyEmail *bool     `db:"notify_email"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`

	// Joined from users (not in profiles table)
	Email string `db:"email"`
}

// ChannelEnabled reports the user's toggle for a channel.
// A flag that was never set counts as enabled.
func (p *Profile) ChannelEnabled(ch Channel) bool {
	var flag *bool
	switch ch {
	case ChannelPush:
		flag = p.NotifyPush
	case ChannelNtfy:
		flag = p.NotifyNtfy
	case ChannelEmail:
		flag = p.NotifyEmail
	default:
		return false
	}
	return flag == nil || *flag
}

package data

import (
	"fmt"
	"time"
)

// RelativeTime renders an RFC 3339 timestamp relative to now, like
// "42 seconds ago" or "3 days ago". It returns "" if the timestamp is empty or
// can't be parsed.
func RelativeTime(iso string, now time.Time) string {
	if iso == "" {
		return ""
	}
	past, err := time.Parse(time.RFC3339Nano, iso)
	if err != nil {
		return ""
	}

	// clock skew can put a fresh favorite slightly in the future
	d := now.Sub(past)
	if d < 0 {
		d = 0
	}

	switch {
	case d < time.Minute:
		return fmt.Sprintf("%d seconds ago", int64(d/time.Second))
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int64(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int64(d/time.Hour))
	default:
		return fmt.Sprintf("%d days ago", int64(d/(24*time.Hour)))
	}
}

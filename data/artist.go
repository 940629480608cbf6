package data

import "time"

// Artist is the display shape for an artist. We build it from three different
// API shapes (a search hit, a favorite record, and a direct fetch), and each of
// them knows a different subset of the fields. Empty strings mean "unknown".
//
// ID is stable across all three shapes, so it is the only thing that should be
// used to decide whether two Artists are the same artist.
type Artist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Nationality string `json:"nationality,omitempty"`
	Biography   string `json:"biography,omitempty"`

	// like "1881", or "October 25, 1881"
	Birthday string `json:"birthday,omitempty"`
	Deathday string `json:"deathday,omitempty"`

	// RFC 3339 timestamp of when the artist was favorited; only present on
	// artists built from a favorite record.
	AddedAt string `json:"addedAt,omitempty"`

	ImageURL string `json:"imageUrl,omitempty"`
}

// AddedAgo renders AddedAt relative to now, like "3 minutes ago".
func (a Artist) AddedAgo(now time.Time) string {
	return RelativeTime(a.AddedAt, now)
}

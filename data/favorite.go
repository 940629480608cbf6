package data

import "strconv"

// Favorite is the server-owned record linking the signed-in user to an artist.
type Favorite struct {
	ArtistID       string `json:"artistId"`
	ArtistName     string `json:"artistName"`
	ArtistImageURL string `json:"artistImageURL"`
	BirthYear      *int   `json:"birthYear,omitempty"`
	DeathYear      *int   `json:"deathYear,omitempty"`
	Nationality    string `json:"nationality,omitempty"`
	FavoritedAt    string `json:"favoritedAt"`
}

// Artist converts the record into the display shape.
func (f Favorite) Artist() Artist {
	return Artist{
		ID:          f.ArtistID,
		Name:        f.ArtistName,
		Nationality: f.Nationality,
		Birthday:    yearString(f.BirthYear),
		Deathday:    yearString(f.DeathYear),
		AddedAt:     f.FavoritedAt,
		ImageURL:    f.ArtistImageURL,
	}
}

// Artists converts a list of favorite records, preserving order.
func Artists(favs []Favorite) []Artist {
	artists := make([]Artist, len(favs))
	for i, fav := range favs {
		artists[i] = fav.Artist()
	}
	return artists
}

func yearString(year *int) string {
	if year == nil {
		return ""
	}
	return strconv.Itoa(*year)
}

// Year parses a birthday or deathday string as a bare year, returning nil if
// it isn't one.
func Year(s string) *int {
	year, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &year
}

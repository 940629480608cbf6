package data

// Artwork belongs to an artist. Artworks are fetched per artist and never
// cached.
type Artwork struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	ImageURL string `json:"imageUrl"`
}

// Gene is a category attached to an artwork, like "Cubism".
type Gene struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

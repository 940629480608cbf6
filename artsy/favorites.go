package artsy

import (
	"context"
	"net/http"
	"net/url"

	"github.com/amonks/artsy/data"
	"github.com/rs/zerolog/log"
)

type favoritesResponse struct {
	Favorites []data.Favorite `json:"favorites"`
}

// Favorites fetches the signed-in user's favorites. Unlike most reads, the
// caller must be able to tell "no favorites" from "couldn't fetch them", so a
// failure is always an error and never an empty list.
func (c *Client) Favorites(ctx context.Context) ([]data.Favorite, error) {
	resp, err := c.do(ctx, http.MethodGet, "artsy/favorites", nil, nil)
	if err != nil {
		return nil, err
	}
	body, err := decode[favoritesResponse](resp, "artsy/favorites")
	if err != nil {
		return nil, err
	}
	return body.Favorites, nil
}

type favoriteRequest struct {
	ArtistName     string `json:"artistName"`
	ArtistImageURL string `json:"artistImageURL"`
	BirthYear      *int   `json:"birthYear"`
	DeathYear      *int   `json:"deathYear"`
	Nationality    string `json:"nationality"`
}

// FavoriteArtist adds artist to the signed-in user's favorites.
func (c *Client) FavoriteArtist(ctx context.Context, artist data.Artist) error {
	resp, err := c.do(ctx, http.MethodPost, "artsy/artist/"+url.PathEscape(artist.ID), nil, favoriteRequest{
		ArtistName:     artist.Name,
		ArtistImageURL: artist.ImageURL,
		BirthYear:      data.Year(artist.Birthday),
		DeathYear:      data.Year(artist.Deathday),
		Nationality:    artist.Nationality,
	})
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

// UnfavoriteArtist removes an artist from the signed-in user's favorites.
//
// The service has two removal endpoints. We use the path-addressed one, and
// fall back to the body-addressed one if the server doesn't know the first.
func (c *Client) UnfavoriteArtist(ctx context.Context, artistID string) error {
	resp, err := c.do(ctx, http.MethodDelete, "artsy/delete/"+url.PathEscape(artistID), nil, nil)
	if status := Status(err); status == http.StatusNotFound || status == http.StatusMethodNotAllowed {
		log.Debug().Str("artist", artistID).Int("status", status).Msg("falling back to artsy/favorite")
		return c.RemoveFavorite(ctx, artistID)
	} else if err != nil {
		return err
	}
	drain(resp)
	return nil
}

// RemoveFavorite removes an artist through the body-addressed endpoint.
func (c *Client) RemoveFavorite(ctx context.Context, artistID string) error {
	resp, err := c.do(ctx, http.MethodDelete, "artsy/favorite", nil, map[string]string{"artistId": artistID})
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

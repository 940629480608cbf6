package artsy

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/amonks/artsy/data"
	"github.com/amonks/artsy/request"
)

type href struct {
	Href string `json:"href"`
}

func (h *href) String() string {
	if h == nil {
		return ""
	}
	return h.Href
}

type artist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Nationality string `json:"nationality"`
	Biography   string `json:"biography"`
	Birthday    string `json:"birthday"`
	Deathday    string `json:"deathday"`
	Links       *struct {
		Thumbnail *href `json:"thumbnail"`
	} `json:"_links"`
}

func (a artist) toArtist() data.Artist {
	artist := data.Artist{
		ID:          a.ID,
		Name:        a.Name,
		Nationality: a.Nationality,
		Biography:   request.Text(a.Biography),
		Birthday:    a.Birthday,
		Deathday:    a.Deathday,
	}
	if a.Links != nil {
		artist.ImageURL = a.Links.Thumbnail.String()
	}
	return artist
}

type searchResults struct {
	Embedded *struct {
		Results []struct {
			Title *string `json:"title"`
			Links *struct {
				Self      href  `json:"self"`
				Permalink href  `json:"permalink"`
				Thumbnail *href `json:"thumbnail"`
			} `json:"_links"`
		} `json:"results"`
		Artists []artist `json:"artists"`
	} `json:"_embedded"`
}

// SearchArtists runs a free-text artist search. A blank query returns no
// results without asking the server.
func (c *Client) SearchArtists(ctx context.Context, query string) ([]data.Artist, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	resp, err := c.do(ctx, http.MethodGet, "artsy/search", url.Values{"query": {query}}, nil)
	if err != nil {
		return nil, err
	}
	results, err := decode[searchResults](resp, "artsy/search")
	if err != nil {
		return nil, err
	}
	if results.Embedded == nil {
		return nil, nil
	}

	var artists []data.Artist
	for _, hit := range results.Embedded.Results {
		if hit.Title == nil || hit.Links == nil {
			continue
		}
		self := hit.Links.Self.Href
		artists = append(artists, data.Artist{
			ID:       self[strings.LastIndexByte(self, '/')+1:],
			Name:     *hit.Title,
			ImageURL: hit.Links.Thumbnail.String(),
		})
	}
	return artists, nil
}

// Artist fetches one artist.
func (c *Client) Artist(ctx context.Context, id string) (*data.Artist, error) {
	path := "artsy/artists/" + url.PathEscape(id)
	resp, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	fetched, err := decode[artist](resp, path)
	if err != nil {
		return nil, err
	}
	if fetched.ID == "" {
		return nil, fmt.Errorf("%s: no artist in response: %w", path, ErrDecode)
	}
	a := fetched.toArtist()
	return &a, nil
}

type artworksResponse struct {
	Embedded *struct {
		Artworks []*struct {
			ID    string `json:"id"`
			Title string `json:"title"`
			Date  string `json:"date"`
			Links *struct {
				Thumbnail *href `json:"thumbnail"`
			} `json:"_links"`
		} `json:"artworks"`
	} `json:"_embedded"`
}

// Artworks fetches an artist's artworks.
func (c *Client) Artworks(ctx context.Context, artistID string) ([]data.Artwork, error) {
	path := "artsy/artworks/" + url.PathEscape(artistID)
	resp, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	body, err := decode[artworksResponse](resp, path)
	if err != nil {
		return nil, err
	}
	if body.Embedded == nil {
		return nil, nil
	}

	artworks := make([]data.Artwork, 0, len(body.Embedded.Artworks))
	for _, fetched := range body.Embedded.Artworks {
		if fetched == nil {
			continue
		}
		artwork := data.Artwork{
			ID:    fetched.ID,
			Title: fetched.Title,
			Date:  fetched.Date,
		}
		if fetched.Links != nil {
			artwork.ImageURL = fetched.Links.Thumbnail.String()
		}
		artworks = append(artworks, artwork)
	}
	return artworks, nil
}

type genesResponse struct {
	Embedded *struct {
		Genes []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
			Links       *struct {
				Thumbnail *href `json:"thumbnail"`
			} `json:"_links"`
		} `json:"genes"`
	} `json:"_embedded"`
}

// Genes fetches the categories of an artwork.
func (c *Client) Genes(ctx context.Context, artworkID string) ([]data.Gene, error) {
	resp, err := c.do(ctx, http.MethodGet, "artsy/genes", url.Values{"artwork_id": {artworkID}}, nil)
	if err != nil {
		return nil, err
	}
	body, err := decode[genesResponse](resp, "artsy/genes")
	if err != nil {
		return nil, err
	}
	if body.Embedded == nil {
		return nil, nil
	}

	genes := make([]data.Gene, len(body.Embedded.Genes))
	for i, fetched := range body.Embedded.Genes {
		genes[i] = data.Gene{
			ID:          fetched.ID,
			Name:        fetched.Name,
			Description: request.Text(fetched.Description),
		}
		if fetched.Links != nil {
			genes[i].ThumbnailURL = fetched.Links.Thumbnail.String()
		}
	}
	return genes, nil
}

// SimilarArtists fetches artists related to the given one.
func (c *Client) SimilarArtists(ctx context.Context, artistID string) ([]data.Artist, error) {
	path := "artsy/artists/similar/" + url.PathEscape(artistID)
	resp, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	body, err := decode[searchResults](resp, path)
	if err != nil {
		return nil, err
	}
	if body.Embedded == nil {
		return nil, nil
	}

	artists := make([]data.Artist, len(body.Embedded.Artists))
	for i, fetched := range body.Embedded.Artists {
		artists[i] = fetched.toArtist()
	}
	return artists, nil
}

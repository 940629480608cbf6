// Package detail loads everything shown about a single artist.
package detail

import (
	"context"
	"fmt"
	"sync"

	"github.com/amonks/artsy/artsy"
	"github.com/amonks/artsy/data"
	"github.com/amonks/artsy/favorites"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// geneConcurrency bounds how many artworks' genes are fetched at once.
const geneConcurrency = 4

// Detail is an artist with its artworks and related artists. Favorited and
// AddedAt come from the favorites cache, so every screen agrees about them.
type Detail struct {
	Artist    data.Artist
	Artworks  []data.Artwork
	Similar   []data.Artist
	Favorited bool
}

// Loader fetches artist details.
type Loader struct {
	client    *artsy.Client
	favorites *favorites.Cache
}

// New creates a Loader. favs may be nil, in which case nothing is ever
// reported as favorited.
func New(client *artsy.Client, favs *favorites.Cache) *Loader {
	return &Loader{client: client, favorites: favs}
}

// Load fetches the artist, its artworks and similar artists at the same time.
// Only a failure to fetch the artist itself is an error; missing artworks or
// similar artists are logged and left empty.
func (l *Loader) Load(ctx context.Context, artistID string) (*Detail, error) {
	var (
		g        errgroup.Group
		artist   *data.Artist
		artworks []data.Artwork
		similar  []data.Artist
	)

	g.Go(func() error {
		var err error
		if artist, err = l.client.Artist(ctx, artistID); err != nil {
			return fmt.Errorf("loading artist %s: %w", artistID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if artworks, err = l.client.Artworks(ctx, artistID); err != nil {
			log.Warn().Err(err).Str("artist", artistID).Msg("error loading artworks")
			artworks = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if similar, err = l.client.SimilarArtists(ctx, artistID); err != nil {
			log.Warn().Err(err).Str("artist", artistID).Msg("error loading similar artists")
			similar = nil
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("artist detail")
		return nil, err
	}

	detail := &Detail{Artist: *artist, Artworks: artworks, Similar: similar}
	if l.favorites != nil {
		if fav, ok := l.favorites.Get(artistID); ok {
			detail.Favorited = true
			detail.Artist.AddedAt = fav.AddedAt
		}
	}
	log.Debug().
		Str("artist", artistID).
		Int("artworks", len(artworks)).
		Int("similar", len(similar)).
		Msg("loaded artist detail")
	return detail, nil
}

// Genes fetches an artwork's categories. Failure yields none.
func (l *Loader) Genes(ctx context.Context, artworkID string) []data.Gene {
	genes, err := l.client.Genes(ctx, artworkID)
	if err != nil {
		log.Warn().Err(err).Str("artwork", artworkID).Msg("error loading genes")
		return nil
	}
	return genes
}

// AllGenes fetches the categories of every artwork, a few at a time, keyed by
// artwork id.
func (l *Loader) AllGenes(ctx context.Context, artworks []data.Artwork) map[string][]data.Gene {
	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	g.SetLimit(geneConcurrency)

	out := make(map[string][]data.Gene, len(artworks))
	for _, artwork := range artworks {
		g.Go(func() error {
			genes := l.Genes(ctx, artwork.ID)

			mu.Lock()
			defer mu.Unlock()
			out[artwork.ID] = genes
			return nil
		})
	}
	// Genes never fails; a failed fetch is an empty list.
	_ = g.Wait()
	return out
}

// Package favorites caches the signed-in user's favorite artists.
//
// The server is the source of truth. The cache never edits its list locally:
// every change is a round-trip followed by a reload, and a reload that fails
// leaves the last good list in place.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/amonks/artsy/artsy"
	"github.com/amonks/artsy/data"
	"github.com/amonks/artsy/state"
	"github.com/amonks/artsy/tokens"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const loadKey = "favorites"

// Cache is safe for concurrent use.
type Cache struct {
	client *artsy.Client
	tokens *tokens.Store
	group  singleflight.Group

	mu      sync.Mutex
	started uint64
	applied uint64
	epoch   uint64

	artists *state.Value[[]data.Artist]
}

// New creates an empty Cache.
func New(client *artsy.Client, tokens *tokens.Store) *Cache {
	return &Cache{
		client:  client,
		tokens:  tokens,
		artists: state.New[[]data.Artist](nil),
	}
}

// Load fetches the favorites and replaces the cached list. On failure the
// list is left untouched and the error returned. Concurrent calls share one
// request.
//
// A result is dropped if a load that started later has already landed, or if
// the user signed out while it was in flight.
//
// The shared request is not tied to any one caller's ctx: a caller whose ctx
// is done stops waiting and gets ctx.Err(), while the request carries on for
// the others.
func (c *Cache) Load(ctx context.Context) error {
	shared := context.WithoutCancel(ctx)
	results := c.group.DoChan(loadKey, func() (any, error) {
		return nil, c.load(shared)
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-results:
		return res.Err
	}
}

func (c *Cache) load(ctx context.Context) error {
	c.mu.Lock()
	c.started++
	seq, epoch := c.started, c.epoch
	c.mu.Unlock()

	favs, err := c.client.Favorites(ctx)
	if err != nil {
		log.Error().Err(err).Msg("error fetching favorites")
		return fmt.Errorf("loading favorites: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch || seq < c.applied {
		log.Debug().Uint64("load", seq).Msg("dropping stale favorites")
		return nil
	}
	c.applied = seq
	c.artists.Set(data.Artists(favs))
	log.Debug().Int("count", len(favs)).Msg("fetched favorites")
	return nil
}

// Artists returns the cached list, in server order.
func (c *Cache) Artists() []data.Artist {
	return slices.Clone(c.artists.Get())
}

// Subscribe delivers the cached list and every replacement of it.
func (c *Cache) Subscribe() (<-chan []data.Artist, func()) {
	return c.artists.Subscribe()
}

// Get returns the cached entry for artistID.
func (c *Cache) Get(artistID string) (data.Artist, bool) {
	for _, artist := range c.artists.Get() {
		if artist.ID == artistID {
			return artist, true
		}
	}
	return data.Artist{}, false
}

// IsFavorited reports whether artistID is in the cached list.
func (c *Cache) IsFavorited(artistID string) bool {
	_, ok := c.Get(artistID)
	return ok
}

// Toggle favorites the artist if it isn't in the cached list, and unfavorites
// it otherwise. Either way it then reloads, even if the change failed.
func (c *Cache) Toggle(ctx context.Context, artist data.Artist) error {
	var err error
	if c.IsFavorited(artist.ID) {
		if err = c.client.UnfavoriteArtist(ctx, artist.ID); err != nil {
			log.Error().Err(err).Str("artist", artist.ID).Msg("error removing favorite")
			err = fmt.Errorf("unfavorite %s: %w", artist.ID, err)
		}
	} else {
		if err = c.client.FavoriteArtist(ctx, artist); err != nil {
			log.Error().Err(err).Str("artist", artist.ID).Msg("error adding favorite")
			err = fmt.Errorf("favorite %s: %w", artist.ID, err)
		}
	}

	// A load already in flight may have started before the change.
	c.group.Forget(loadKey)
	return errors.Join(err, c.Load(ctx))
}

// IsLoggedIn reports whether session tokens are stored. It is a fast hint
// for gating the UI and can be true for a session the server has already
// expired; session.Manager has the confirmed answer.
func (c *Cache) IsLoggedIn() bool {
	return c.tokens.Present()
}

// OnSignedOut empties the list.
func (c *Cache) OnSignedOut() {
	c.reset()
}

// OnAccountDeleted empties the list.
func (c *Cache) OnAccountDeleted() {
	c.reset()
}

func (c *Cache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	c.artists.Set(nil)
}

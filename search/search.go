// Package search drives search-as-you-type over the artist catalog.
package search

import (
	"context"
	"slices"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/amonks/artsy/data"
	"github.com/amonks/artsy/state"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultDebounce is how long the query must sit still before we search.
	DefaultDebounce = 300 * time.Millisecond

	// DefaultMinLength is the shortest query, in characters, worth searching.
	DefaultMinLength = 3
)

// Searcher runs an artist search. *artsy.Client is one.
type Searcher interface {
	SearchArtists(ctx context.Context, query string) ([]data.Artist, error)
}

// Controller holds the query text and the results for it.
//
// Short queries clear the results at once. Longer ones are searched after
// the query has been still for the debounce window, and only the newest
// search's results ever land.
type Controller struct {
	searcher  Searcher
	debounce  time.Duration
	minLength int

	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	timer         *time.Timer
	tick          uint64
	gen           uint64
	lastEvaluated string
	closed        bool

	query   *state.Value[string]
	results *state.Value[[]data.Artist]
}

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce replaces DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// WithMinLength replaces DefaultMinLength.
func WithMinLength(n int) Option {
	return func(c *Controller) { c.minLength = n }
}

// New creates a Controller with an empty query. Call Close when done.
func New(searcher Searcher, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		searcher:  searcher,
		debounce:  DefaultDebounce,
		minLength: DefaultMinLength,
		ctx:       ctx,
		cancel:    cancel,
		query:     state.New(""),
		results:   state.New[[]data.Artist](nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnQueryChange records new query text and schedules a search for it.
func (c *Controller) OnQueryChange(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.query.Set(query)
	if c.short(query) {
		c.clearResults()
	}

	c.tick++
	tick := c.tick
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() { c.evaluate(tick, query) })
}

// Clear empties the query and the results without searching.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tick++
	if c.timer != nil {
		c.timer.Stop()
	}
	c.query.Set("")
	c.clearResults()
}

// clearResults must be called with mu held. It also forgets the last
// evaluated query, so typing it again searches again.
func (c *Controller) clearResults() {
	c.gen++
	c.lastEvaluated = ""
	c.results.Set(nil)
}

func (c *Controller) short(query string) bool {
	return utf8.RuneCountInString(query) < c.minLength
}

func (c *Controller) evaluate(tick uint64, query string) {
	c.mu.Lock()
	if c.closed || tick != c.tick || query == c.lastEvaluated {
		c.mu.Unlock()
		return
	}
	c.lastEvaluated = query
	if c.short(query) {
		c.mu.Unlock()
		return
	}
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	results, err := c.searcher.SearchArtists(c.ctx, query)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("search failed")
		results = nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if gen != c.gen {
		log.Debug().Str("query", query).Msg("dropping stale search results")
		return
	}
	log.Debug().Str("query", query).Int("results", len(results)).Msg("search")
	c.results.Set(results)
}

// Query returns the current query text.
func (c *Controller) Query() string {
	return c.query.Get()
}

// Results returns a copy of the current results.
func (c *Controller) Results() []data.Artist {
	return slices.Clone(c.results.Get())
}

// SubscribeQuery delivers the query text and every change to it.
func (c *Controller) SubscribeQuery() (<-chan string, func()) {
	return c.query.Subscribe()
}

// SubscribeResults delivers the results and every change to them.
func (c *Controller) SubscribeResults() (<-chan []data.Artist, func()) {
	return c.results.Subscribe()
}

// Close stops any pending search and abandons any in flight.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.tick++
	if c.timer != nil {
		c.timer.Stop()
	}
	c.cancel()
}

// Package app wires the components together. An App is built once at
// startup and handed to whatever drives it; nothing in this module is a
// package-level singleton.
package app

import (
	"context"
	"fmt"

	"github.com/amonks/artsy/artsy"
	"github.com/amonks/artsy/config"
	"github.com/amonks/artsy/cookiejar"
	"github.com/amonks/artsy/db"
	"github.com/amonks/artsy/detail"
	"github.com/amonks/artsy/favorites"
	"github.com/amonks/artsy/limiter"
	"github.com/amonks/artsy/search"
	"github.com/amonks/artsy/session"
	"github.com/amonks/artsy/tokens"
	"github.com/rs/zerolog/log"
)

// App owns every component and the local database under them.
type App struct {
	Config    *config.Config
	DB        *db.DB
	Tokens    *tokens.Store
	Client    *artsy.Client
	Session   *session.Manager
	Favorites *favorites.Cache
	Search    *search.Controller
	Detail    *detail.Loader
}

// New opens the database and builds every component from cfg.
func New(cfg *config.Config) (*App, error) {
	d, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	store, err := tokens.New(d)
	if err != nil {
		d.Close()
		return nil, err
	}

	opts := []artsy.Option{
		artsy.WithTimeout(cfg.Timeout),
		artsy.WithLimiter(limiter.New(cfg.Rate, cfg.Burst)),
	}
	if cfg.PersistCookies {
		jar, err := cookiejar.New(d)
		if err != nil {
			d.Close()
			return nil, err
		}
		opts = append(opts, artsy.WithCookieJar(jar))
	}

	client, err := artsy.New(cfg.BaseURL, store, opts...)
	if err != nil {
		d.Close()
		return nil, err
	}

	favs := favorites.New(client, store)
	a := &App{
		Config:    cfg,
		DB:        d,
		Tokens:    store,
		Client:    client,
		Session:   session.New(client, store, session.WithRetryDelay(cfg.SessionRetryDelay)),
		Favorites: favs,
		Search: search.New(client,
			search.WithDebounce(cfg.SearchDebounce),
			search.WithMinLength(cfg.SearchMinLength),
		),
		Detail: detail.New(client, favs),
	}
	log.Debug().
		Str("base_url", cfg.BaseURL).
		Str("db", cfg.DBPath).
		Bool("cookies", cfg.PersistCookies).
		Msg("app ready")
	return a, nil
}

// Start validates the stored session, retrying as configured, and loads the
// favorites if it holds. A stale session is not an error.
func (a *App) Start(ctx context.Context) {
	if err := a.Session.ValidateSessionWithRetry(ctx, a.Config.SessionRetries); err != nil {
		log.Debug().Err(err).Msg("starting signed out")
		return
	}
	if err := a.Favorites.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("starting without favorites")
	}
}

// SignIn signs in and loads the new user's favorites.
func (a *App) SignIn(ctx context.Context, email, password string) error {
	if err := a.Session.SignIn(ctx, email, password); err != nil {
		return err
	}
	if err := a.Favorites.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("signed in without favorites")
	}
	return nil
}

// SignOut signs out and empties the favorites.
func (a *App) SignOut(ctx context.Context) error {
	defer a.Favorites.OnSignedOut()
	return a.Session.SignOut(ctx)
}

// DeleteAccount deletes the account and empties the favorites.
func (a *App) DeleteAccount(ctx context.Context) error {
	defer a.Favorites.OnAccountDeleted()
	return a.Session.DeleteAccount(ctx)
}

// Close stops the search controller and closes the database.
func (a *App) Close() error {
	a.Search.Close()
	if err := a.DB.Close(); err != nil {
		return fmt.Errorf("closing db: %w", err)
	}
	return nil
}

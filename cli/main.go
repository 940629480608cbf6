// artsy is a command-line client for the artist catalog: sign in, search for
// artists, look them up, and keep a list of favorites.
//
// Session tokens are kept in a sqlite3 file (ARTSY_DB) between runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/amonks/artsy/app"
	"github.com/amonks/artsy/config"
	"github.com/amonks/artsy/logging"
	"github.com/amonks/artsy/sigctx"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, flag.ErrHelp) {
		log.Fatal().Err(err).Msg("artsy")
	}
}

var usage = strings.TrimSpace(`
usage: artsy $cmd
valid $cmd are 'login', 'register', 'logout', 'whoami', 'delete-account',
               'favorites', 'fav', 'search', 'artist', 'serve'
for help: artsy $cmd -help
`)

func run() error {
	ctx := sigctx.New()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logging.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	if len(os.Args) < 2 {
		return errors.New(usage)
	}
	cmd, args := os.Args[1], os.Args[2:]

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	switch cmd {
	case "login":
		return login(ctx, a, args)

	case "register":
		return register(ctx, a, args)

	case "logout":
		return logout(ctx, a, args)

	case "whoami":
		return whoami(ctx, a, args)

	case "delete-account":
		return deleteAccount(ctx, a, args)

	case "favorites":
		return favorites(ctx, a, args)

	case "fav":
		return fav(ctx, a, args)

	case "search":
		return search(ctx, a, args)

	case "artist":
		return artist(ctx, a, args)

	case "serve":
		return serve(ctx, a, args)

	default:
		return fmt.Errorf("unknown cmd: '%s'\n%s", cmd, usage)
	}
}

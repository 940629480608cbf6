package main

import (
	"context"
	"fmt"

	"github.com/amonks/artsy/app"
	"github.com/amonks/artsy/server"
	"github.com/amonks/artsy/subcmd"
)

func serve(ctx context.Context, a *app.App, args []string) error {
	subcmd := subcmd.New("serve", "serve the client's state as a local JSON api")
	var (
		addr = subcmd.String("addr", a.Config.Listen, "listen address")
	)
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	a.Start(ctx)
	return server.Run(ctx, a, *addr)
}

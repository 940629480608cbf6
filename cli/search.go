package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/amonks/artsy/app"
	"github.com/amonks/artsy/subcmd"
)

func search(ctx context.Context, a *app.App, args []string) error {
	subcmd := subcmd.New("search", "search the catalog for artists")
	subcmd.RequireArg("query", "string", "artist name, or part of one")
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}
	query := strings.Join(subcmd.Args(), " ")

	a.Start(ctx)

	results, cancel := a.Search.SubscribeResults()
	defer cancel()
	<-results

	if utf8.RuneCountInString(query) < a.Config.SearchMinLength {
		return fmt.Errorf("'%s' is too short to search; use at least %d characters", query, a.Config.SearchMinLength)
	}
	a.Search.OnQueryChange(query)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-results:
	}

	artists := a.Search.Results()
	if len(artists) == 0 {
		fmt.Printf("no results for '%s'\n", query)
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "name\tid\tfavorite")
	for _, artist := range artists {
		favorite := ""
		if a.Favorites.IsFavorited(artist.ID) {
			favorite = "★"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", artist.Name, artist.ID, favorite)
	}
	tw.Flush()

	return nil
}

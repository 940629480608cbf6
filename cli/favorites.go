package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/amonks/artsy/app"
	"github.com/amonks/artsy/data"
	"github.com/amonks/artsy/subcmd"
	"golang.org/x/text/language"
	textmessage "golang.org/x/text/message"
)

func favorites(ctx context.Context, a *app.App, args []string) error {
	subcmd := subcmd.New("favorites", "list your favorite artists")
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	a.Start(ctx)
	if !a.Session.Authenticated() {
		return errors.New("not signed in")
	}

	artists := a.Favorites.Artists()
	p := textmessage.NewPrinter(language.English)
	p.Printf("%d favorites\n", len(artists))
	if len(artists) == 0 {
		return nil
	}

	printArtists(artists, time.Now())
	return nil
}

func fav(ctx context.Context, a *app.App, args []string) error {
	subcmd := subcmd.New("fav", "favorite an artist, or unfavorite one already favorited")
	subcmd.RequireArg("id", "string", "artist id, as printed by search")
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}
	id := subcmd.Arg(0)

	a.Start(ctx)
	if !a.Session.Authenticated() {
		return errors.New("not signed in")
	}

	artist, ok := a.Favorites.Get(id)
	if !ok {
		fetched, err := a.Client.Artist(ctx, id)
		if err != nil {
			return fmt.Errorf("error finding artist '%s': %w", id, err)
		}
		artist = *fetched
	}

	err := a.Favorites.Toggle(ctx, artist)
	if a.Favorites.IsFavorited(id) {
		fmt.Printf("%s is a favorite\n", artist.Name)
	} else {
		fmt.Printf("%s is not a favorite\n", artist.Name)
	}
	return err
}

// printArtists writes a table of artists to stdout.
func printArtists(artists []data.Artist, now time.Time) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join([]string{"name", "nationality", "lifetime", "added", "id"}, "\t"))
	for _, artist := range artists {
		fmt.Fprintln(tw, strings.Join([]string{
			artist.Name,
			artist.Nationality,
			lifetime(artist),
			artist.AddedAgo(now),
			artist.ID,
		}, "\t"))
	}
	tw.Flush()
}

func lifetime(artist data.Artist) string {
	switch {
	case artist.Birthday == "" && artist.Deathday == "":
		return ""
	case artist.Deathday == "":
		return "b. " + artist.Birthday
	default:
		return artist.Birthday + "–" + artist.Deathday
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/amonks/artsy/app"
	"github.com/amonks/artsy/data"
	"github.com/amonks/artsy/setflag"
	"github.com/amonks/artsy/subcmd"
	"golang.org/x/text/language"
	textmessage "golang.org/x/text/message"
)

func artist(ctx context.Context, a *app.App, args []string) error {
	subcmd := subcmd.New("artist", "show an artist")
	subcmd.RequireArg("id", "string", "artist id, as printed by search")
	show := setflag.New("artworks", "similar", "genes")
	subcmd.Var(show, "show", "extra sections to print: artworks, similar, genes (genes implies artworks)")
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}
	id := subcmd.Arg(0)

	a.Start(ctx)

	detail, err := a.Detail.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("error loading artist '%s': %w", id, err)
	}
	now := time.Now()
	p := textmessage.NewPrinter(language.English)

	artist := detail.Artist
	fmt.Println(artist.Name)
	if life := lifetime(artist); life != "" || artist.Nationality != "" {
		fmt.Println(strings.TrimSpace(strings.Join([]string{artist.Nationality, life}, " ")))
	}
	if detail.Favorited {
		fmt.Printf("★ favorited %s\n", artist.AddedAgo(now))
	}
	if artist.Biography != "" {
		fmt.Printf("\n%s\n", artist.Biography)
	}

	if show.Has("artworks") || show.Has("genes") {
		fmt.Println()
		if len(detail.Artworks) == 0 {
			fmt.Println("No Artworks")
		} else {
			p.Printf("%d artworks\n", len(detail.Artworks))
			printArtworks(ctx, a, detail.Artworks, show.Has("genes"))
		}
	}

	if show.Has("similar") {
		fmt.Println()
		if len(detail.Similar) == 0 {
			fmt.Println("No Similar Artists")
		} else {
			p.Printf("%d similar artists\n", len(detail.Similar))
			printArtists(detail.Similar, now)
		}
	}

	return nil
}

func printArtworks(ctx context.Context, a *app.App, artworks []data.Artwork, withGenes bool) {
	var genes map[string][]data.Gene
	if withGenes {
		genes = a.Detail.AllGenes(ctx, artworks)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := []string{"title", "date", "id"}
	if withGenes {
		header = append(header, "genes")
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, artwork := range artworks {
		row := []string{artwork.Title, artwork.Date, artwork.ID}
		if withGenes {
			names := make([]string, len(genes[artwork.ID]))
			for i, gene := range genes[artwork.ID] {
				names[i] = gene.Name
			}
			row = append(row, strings.Join(names, ", "))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

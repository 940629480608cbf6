package setflag_test

import (
	"flag"
	"io"
	"testing"

	"github.com/amonks/artsy/setflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetFlag(t *testing.T) {
	fs := flag.NewFlagSet("artist", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	show := setflag.New("artworks", "similar", "genes")
	fs.Var(show, "show", "")

	require.NoError(t, fs.Parse([]string{"-show", "similar, artworks", "-show", "similar"}))
	assert.Equal(t, []string{"artworks", "similar"}, show.List())
	assert.True(t, show.Has("artworks"))
	assert.False(t, show.Has("genes"))
	assert.Equal(t, "artworks,similar", show.String())

	assert.Error(t, fs.Parse([]string{"-show", "auction-results"}))
}

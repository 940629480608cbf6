package artsytest

import (
	"path/filepath"
	"testing"

	"github.com/amonks/artsy/artsy"
	"github.com/amonks/artsy/db"
	"github.com/amonks/artsy/tokens"
	"github.com/stretchr/testify/require"
)

// Client returns a client for s backed by a fresh token store in a temporary
// sqlite file.
func (s *Server) Client(t testing.TB, opts ...artsy.Option) (*artsy.Client, *tokens.Store) {
	t.Helper()

	d, err := db.Open(filepath.Join(t.TempDir(), "artsy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	store, err := tokens.New(d)
	require.NoError(t, err)

	client, err := artsy.New(s.BaseURL(), store, opts...)
	require.NoError(t, err)
	return client, store
}

package db_test

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/amonks/artsy/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T, filename string) *db.DB {
	t.Helper()
	d, err := db.Open(filename)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestTokensSurviveReopen(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "artsy.db")

	d := open(t, filename)
	require.NoError(t, d.SetToken("artsyToken", "a1"))
	require.NoError(t, d.SetToken("jwtToken", "j1"))
	require.NoError(t, d.SetToken("artsyToken", "a2"))
	require.NoError(t, d.Close())

	d = open(t, filename)
	tokens, err := d.GetTokens()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"artsyToken": "a2", "jwtToken": "j1"}, tokens)

	require.NoError(t, d.DeleteToken("jwtToken"))
	tokens, err = d.GetTokens()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"artsyToken": "a2"}, tokens)

	require.NoError(t, d.ClearTokens())
	tokens, err = d.GetTokens()
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestReplaceCookies(t *testing.T) {
	d := open(t, filepath.Join(t.TempDir(), "artsy.db"))

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, d.ReplaceCookies("example.com", []db.Cookie{
		{Name: "artsyToken", Value: "a", Path: "/", ExpiresAt: sql.NullTime{Time: expires, Valid: true}},
		{Name: "jwtToken", Value: "j", HttpOnly: true},
	}))
	require.NoError(t, d.ReplaceCookies("other.com", []db.Cookie{{Name: "x", Value: "y"}}))

	cookies, err := d.GetCookies()
	require.NoError(t, err)
	require.Len(t, cookies["example.com"], 2)
	assert.Equal(t, "artsyToken", cookies["example.com"][0].Name)
	assert.True(t, cookies["example.com"][0].ExpiresAt.Time.Equal(expires))
	assert.True(t, cookies["example.com"][1].HttpOnly)

	require.NoError(t, d.ReplaceCookies("example.com", nil))
	cookies, err = d.GetCookies()
	require.NoError(t, err)
	assert.NotContains(t, cookies, "example.com")
	assert.Len(t, cookies["other.com"], 1)
}

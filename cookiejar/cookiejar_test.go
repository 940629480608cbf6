package cookiejar

import (
	"net/http"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/amonks/artsy/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJarPersistsAndPrunes(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "artsy.db")
	d, err := db.Open(filename)
	require.NoError(t, err)
	defer d.Close()

	now := time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC)
	jar, err := New(d)
	require.NoError(t, err)
	jar.now = func() time.Time { return now }

	u, _ := url.Parse("https://api.example.com/api/user/signin")
	jar.SetCookies(u, []*http.Cookie{
		{Name: "GAESA", Value: "a", Expires: now.Add(time.Hour)},
		{Name: "affinity", Value: "b", MaxAge: 60},
		{Name: "gone", Value: "x", MaxAge: -1},
		{Name: "jwtToken", Value: "j"},
	})

	reloaded, err := New(d)
	require.NoError(t, err)
	reloaded.now = func() time.Time { return now.Add(2 * time.Minute) }

	cookies := reloaded.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, "GAESA", cookies[0].Name)

	// the pruned cookie is gone from disk too
	stored, err := d.GetCookies()
	require.NoError(t, err)
	assert.Len(t, stored["api.example.com"], 1)

	other, _ := url.Parse("https://elsewhere.example.com/")
	assert.Empty(t, reloaded.Cookies(other))
}

func TestJarKeepsLastCookieOfAName(t *testing.T) {
	d, err := db.Open(filepath.Join(t.TempDir(), "artsy.db"))
	require.NoError(t, err)
	defer d.Close()

	jar, err := New(d)
	require.NoError(t, err)

	u, _ := url.Parse("https://api.example.com/api/user/signin")
	jar.SetCookies(u, []*http.Cookie{
		{Name: "GAESA", Value: "first"},
		{Name: "affinity", Value: "b"},
		{Name: "GAESA", Value: "second"},
		{Name: "affinity", Value: "", MaxAge: -1},
	})

	cookies := jar.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, "second", cookies[0].Value)

	reloaded, err := New(d)
	require.NoError(t, err)
	stored := reloaded.Cookies(u)
	require.Len(t, stored, 1)
	assert.Equal(t, "GAESA", stored[0].Name)
	assert.Equal(t, "second", stored[0].Value)
}

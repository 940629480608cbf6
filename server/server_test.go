package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amonks/artsy/app"
	"github.com/amonks/artsy/artsytest"
	"github.com/amonks/artsy/config"
	"github.com/amonks/artsy/data"
	"github.com/amonks/artsy/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	fake *artsytest.Server
	app  *app.App
	url  string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	fake := artsytest.New(t)
	fake.AddUser("Hilma af Klint", "hilma@example.com", "swan")
	fake.AddArtist(data.Artist{ID: "klee", Name: "Paul Klee", Birthday: "1879", Biography: "<p>Painter.</p>"})
	fake.AddArtist(data.Artist{ID: "kandinsky", Name: "Wassily Kandinsky"})
	fake.AddSimilar("klee", "kandinsky")
	fake.AddArtworks("klee", data.Artwork{ID: "w1", Title: "Senecio"})
	fake.AddGenes("w1", data.Gene{ID: "g1", Name: "Expressionism"})

	cfg, err := config.Parse()
	require.NoError(t, err)
	cfg.BaseURL = fake.BaseURL()
	cfg.DBPath = filepath.Join(t.TempDir(), "artsy.db")
	cfg.SearchDebounce = 10 * time.Millisecond
	cfg.Rate = 0

	a, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	srv := httptest.NewServer(server.Handler(a))
	t.Cleanup(srv.Close)
	return &fixture{fake: fake, app: a, url: srv.URL}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.url+path, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func (f *fixture) signIn(t *testing.T) {
	t.Helper()
	status, _ := f.do(t, http.MethodPost, "/session/signin", map[string]string{"email": "hilma@example.com", "password": "swan"})
	require.Equal(t, http.StatusOK, status)
}

func TestSession(t *testing.T) {
	f := setup(t)

	status, body := f.do(t, http.MethodGet, "/session", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "idle", body["state"])
	assert.Equal(t, false, body["loggedIn"])

	status, body = f.do(t, http.MethodPost, "/session/signin", map[string]string{"email": "hilma@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "error", body["state"])
	assert.Equal(t, "Username or Password is incorrect", body["message"])

	f.signIn(t)
	_, body = f.do(t, http.MethodGet, "/session", nil)
	assert.Equal(t, "success", body["state"])
	assert.Equal(t, true, body["loggedIn"])
	assert.NotEmpty(t, body["tokenExpiry"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "Hilma af Klint", user["fullName"])

	_, body = f.do(t, http.MethodPost, "/session/signout", nil)
	assert.Equal(t, "idle", body["state"])
	assert.Equal(t, false, body["loggedIn"])
}

func TestFavorites(t *testing.T) {
	f := setup(t)
	f.signIn(t)

	status, body := f.do(t, http.MethodPost, "/favorites/klee/toggle", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["favorited"])

	_, body = f.do(t, http.MethodGet, "/favorites", nil)
	artists := body["artists"].([]any)
	require.Len(t, artists, 1)
	klee := artists[0].(map[string]any)
	assert.Equal(t, "Paul Klee", klee["name"])
	assert.Equal(t, "1879", klee["birthday"])
	assert.True(t, strings.HasSuffix(klee["addedAgo"].(string), "ago"))

	f.fake.Fail(artsytest.Favorites, http.StatusInternalServerError)
	status, body = f.do(t, http.MethodGet, "/favorites?reload=true", nil)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Len(t, body["artists"], 1)
	f.fake.Heal(artsytest.Favorites)

	_, body = f.do(t, http.MethodPost, "/favorites/klee/toggle", nil)
	assert.Equal(t, false, body["favorited"])

	status, _ = f.do(t, http.MethodPost, "/favorites/nobody/toggle", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSearch(t *testing.T) {
	f := setup(t)

	_, body := f.do(t, http.MethodGet, "/search?q=kle", nil)
	assert.Equal(t, "kle", body["query"])

	require.Eventually(t, func() bool {
		_, body := f.do(t, http.MethodGet, "/search", nil)
		results, _ := body["results"].([]any)
		return len(results) == 1
	}, time.Second, 10*time.Millisecond)

	_, body = f.do(t, http.MethodGet, "/search?q=kl", nil)
	assert.Empty(t, body["results"])

	status, _ := f.do(t, http.MethodDelete, "/search", nil)
	assert.Equal(t, http.StatusNoContent, status)
	assert.Equal(t, "", f.app.Search.Query())
}

func TestArtist(t *testing.T) {
	f := setup(t)
	f.signIn(t)
	require.NoError(t, f.app.Favorites.Toggle(context.Background(), data.Artist{ID: "klee", Name: "Paul Klee"}))

	status, body := f.do(t, http.MethodGet, "/artists/klee", nil)
	require.Equal(t, http.StatusOK, status)
	artist := body["artist"].(map[string]any)
	assert.Equal(t, "Painter.", artist["biography"])
	assert.Equal(t, true, artist["favorited"])
	assert.Len(t, body["artworks"], 1)
	similar := body["similar"].([]any)
	require.Len(t, similar, 1)
	assert.Equal(t, false, similar[0].(map[string]any)["favorited"])

	status, _ = f.do(t, http.MethodGet, "/artists/nobody", nil)
	assert.Equal(t, http.StatusNotFound, status)

	_, body = f.do(t, http.MethodGet, "/artworks/w1/genes", nil)
	genes := body["genes"].([]any)
	require.Len(t, genes, 1)
	assert.Equal(t, "Expressionism", genes[0].(map[string]any)["name"])

	_, body = f.do(t, http.MethodGet, "/artworks/w2/genes", nil)
	assert.Equal(t, []any{}, body["genes"])
}

func TestRun(t *testing.T) {
	f := setup(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() { done <- server.Run(ctx, f.app, "127.0.0.1:0") }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("server did not shut down")
	}
}

package favorites_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/amonks/artsy/artsytest"
	"github.com/amonks/artsy/data"
	"github.com/amonks/artsy/favorites"
	"github.com/amonks/artsy/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const email = "hilma@example.com"

var (
	klee      = data.Artist{ID: "klee", Name: "Paul Klee", Nationality: "Swiss", Birthday: "1879", Deathday: "1940"}
	kandinsky = data.Artist{ID: "kandinsky", Name: "Wassily Kandinsky", Birthday: "1866"}
	munter    = data.Artist{ID: "munter", Name: "Gabriele Münter"}
)

func favorite(a data.Artist) data.Favorite {
	return data.Favorite{
		ArtistID:    a.ID,
		ArtistName:  a.Name,
		BirthYear:   data.Year(a.Birthday),
		Nationality: a.Nationality,
		FavoritedAt: "2025-04-01T10:00:00Z",
	}
}

func setup(t *testing.T) (*artsytest.Server, *favorites.Cache, *tokens.Store) {
	t.Helper()
	fake := artsytest.New(t)
	fake.AddUser("Hilma af Klint", email, "swan")
	client, store := fake.Client(t)

	result, err := client.SignIn(context.Background(), email, "swan")
	require.NoError(t, err)
	require.NoError(t, store.SetAll(result.Tokens))

	return fake, favorites.New(client, store), store
}

func ids(artists []data.Artist) []string {
	var out []string
	for _, a := range artists {
		out = append(out, a.ID)
	}
	return out
}

func TestLoad(t *testing.T) {
	fake, cache, _ := setup(t)
	fake.SetFavorites(email, favorite(klee), favorite(kandinsky))

	require.NoError(t, cache.Load(context.Background()))
	assert.Equal(t, []string{"klee", "kandinsky"}, ids(cache.Artists()))

	got, ok := cache.Get("klee")
	require.True(t, ok)
	assert.Equal(t, "1879", got.Birthday)
	assert.Equal(t, "2025-04-01T10:00:00Z", got.AddedAt)
	assert.True(t, cache.IsFavorited("kandinsky"))
	assert.False(t, cache.IsFavorited("munter"))
}

func TestFailedLoadKeepsList(t *testing.T) {
	ctx := context.Background()
	fake, cache, _ := setup(t)

	steps := []struct {
		favorites []data.Favorite
		fail      bool
	}{
		{favorites: []data.Favorite{favorite(klee), favorite(kandinsky)}},
		{fail: true},
		{favorites: []data.Favorite{favorite(munter)}},
		{fail: true},
		{fail: true},
		{favorites: []data.Favorite{favorite(klee), favorite(kandinsky), favorite(munter)}},
		{fail: true},
	}

	for i, step := range steps {
		before := cache.Artists()
		if step.fail {
			fake.Fail(artsytest.Favorites, http.StatusInternalServerError)
			assert.Error(t, cache.Load(ctx), i)
			assert.Equal(t, before, cache.Artists(), i)
			continue
		}
		fake.Heal(artsytest.Favorites)
		fake.SetFavorites(email, step.favorites...)
		require.NoError(t, cache.Load(ctx), i)
		assert.Len(t, cache.Artists(), len(step.favorites), i)
	}
}

func TestToggleNegatesMembership(t *testing.T) {
	ctx := context.Background()
	_, cache, _ := setup(t)
	require.NoError(t, cache.Load(ctx))

	for _, artist := range []data.Artist{klee, kandinsky, klee, munter, kandinsky} {
		before := cache.IsFavorited(artist.ID)
		require.NoError(t, cache.Toggle(ctx, artist))
		assert.Equal(t, !before, cache.IsFavorited(artist.ID), artist.ID)
	}
	assert.Equal(t, []string{"munter"}, ids(cache.Artists()))
}

func TestToggleWithLegacyRemoval(t *testing.T) {
	ctx := context.Background()
	fake, cache, _ := setup(t)
	fake.LegacyUnfavorite()
	fake.SetFavorites(email, favorite(klee))
	require.NoError(t, cache.Load(ctx))

	require.NoError(t, cache.Toggle(ctx, klee))
	assert.False(t, cache.IsFavorited("klee"))
	assert.Equal(t, 1, fake.Calls(artsytest.Remove))
}

func TestToggleReloadsAfterFailure(t *testing.T) {
	ctx := context.Background()
	fake, cache, _ := setup(t)
	require.NoError(t, cache.Load(ctx))
	loads := fake.Calls(artsytest.Favorites)

	fake.Fail(artsytest.Favorite, http.StatusInternalServerError)
	assert.Error(t, cache.Toggle(ctx, klee))
	assert.False(t, cache.IsFavorited("klee"))
	assert.Equal(t, loads+1, fake.Calls(artsytest.Favorites))
}

func TestSignOutClearsList(t *testing.T) {
	ctx := context.Background()
	fake, cache, _ := setup(t)
	fake.SetFavorites(email, favorite(klee))
	require.NoError(t, cache.Load(ctx))

	cache.OnSignedOut()
	assert.Empty(t, cache.Artists())

	require.NoError(t, cache.Load(ctx))
	cache.OnAccountDeleted()
	assert.Empty(t, cache.Artists())
}

func TestLoadInFlightDuringSignOutIsDropped(t *testing.T) {
	fake, cache, _ := setup(t)
	fake.SetFavorites(email, favorite(klee))

	release := fake.Hold(artsytest.Favorites)
	defer release()

	done := make(chan error)
	go func() { done <- cache.Load(context.Background()) }()
	require.Eventually(t, func() bool { return fake.Calls(artsytest.Favorites) == 1 },
		time.Second, 5*time.Millisecond)

	cache.OnSignedOut()
	release()
	require.NoError(t, <-done)
	assert.Empty(t, cache.Artists())
}

func TestConcurrentLoadsShareRequest(t *testing.T) {
	fake, cache, _ := setup(t)
	fake.SetFavorites(email, favorite(klee))

	release := fake.Hold(artsytest.Favorites)
	defer release()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, cache.Load(context.Background()))
		}()
	}
	require.Eventually(t, func() bool { return fake.Calls(artsytest.Favorites) == 1 },
		time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	release()
	wg.Wait()

	assert.Equal(t, 1, fake.Calls(artsytest.Favorites))
	assert.True(t, cache.IsFavorited("klee"))
}

func TestCancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	fake, cache, _ := setup(t)
	fake.SetFavorites(email, favorite(klee))

	release := fake.Hold(artsytest.Favorites)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error)
	go func() { first <- cache.Load(ctx) }()
	require.Eventually(t, func() bool { return fake.Calls(artsytest.Favorites) == 1 },
		time.Second, 5*time.Millisecond)

	second := make(chan error)
	go func() { second <- cache.Load(context.Background()) }()
	time.Sleep(20 * time.Millisecond)

	cancel()
	select {
	case err := <-first:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	release()
	require.NoError(t, <-second)
	assert.True(t, cache.IsFavorited("klee"))
	assert.Equal(t, 1, fake.Calls(artsytest.Favorites))
}

func TestSubscribe(t *testing.T) {
	fake, cache, _ := setup(t)
	fake.SetFavorites(email, favorite(klee))

	lists, cancel := cache.Subscribe()
	defer cancel()
	assert.Empty(t, <-lists)

	require.NoError(t, cache.Load(context.Background()))
	assert.Equal(t, []string{"klee"}, ids(<-lists))
}

func TestIsLoggedInFollowsTokens(t *testing.T) {
	fake, cache, store := setup(t)
	assert.True(t, cache.IsLoggedIn())

	// Still true for a session the server has forgotten.
	fake.ExpireSessions()
	assert.True(t, cache.IsLoggedIn())
	assert.Error(t, cache.Load(context.Background()))

	require.NoError(t, store.Clear())
	assert.False(t, cache.IsLoggedIn())
}

package search_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/amonks/artsy/artsytest"
	"github.com/amonks/artsy/data"
	"github.com/amonks/artsy/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const debounce = 30 * time.Millisecond

func setup(t *testing.T) (*artsytest.Server, *search.Controller) {
	t.Helper()
	fake := artsytest.New(t)
	fake.AddArtist(data.Artist{ID: "picasso", Name: "Pablo Picasso"})
	fake.AddArtist(data.Artist{ID: "klee", Name: "Paul Klee"})
	client, _ := fake.Client(t)

	c := search.New(client, search.WithDebounce(debounce))
	t.Cleanup(c.Close)
	return fake, c
}

func names(artists []data.Artist) []string {
	var out []string
	for _, a := range artists {
		out = append(out, a.Name)
	}
	return out
}

func waitForResults(t *testing.T, c *search.Controller, expect ...string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual(expect, names(c.Results()))
	}, time.Second, 5*time.Millisecond, "waiting for %v, have %v", expect, names(c.Results()))
}

func TestShortThenLongSearchesOnce(t *testing.T) {
	fake, c := setup(t)

	c.OnQueryChange("pa")
	c.OnQueryChange("pab")
	assert.Equal(t, "pab", c.Query())

	waitForResults(t, c, "Pablo Picasso")
	time.Sleep(3 * debounce)
	assert.Equal(t, []string{"pab"}, fake.Searches())
}

func TestDebounceWaitsForQuiet(t *testing.T) {
	fake, c := setup(t)

	for _, q := range []string{"p", "pa", "pab", "pabl", "pablo"} {
		c.OnQueryChange(q)
		time.Sleep(debounce / 5)
	}
	waitForResults(t, c, "Pablo Picasso")
	time.Sleep(3 * debounce)
	assert.Equal(t, []string{"pablo"}, fake.Searches())
}

func TestShortQueryClearsAtOnce(t *testing.T) {
	_, c := setup(t)

	c.OnQueryChange("klee")
	waitForResults(t, c, "Paul Klee")

	c.OnQueryChange("kl")
	assert.Empty(t, c.Results())

	c.OnQueryChange("klee")
	waitForResults(t, c, "Paul Klee")

	c.OnQueryChange("")
	assert.Empty(t, c.Results())
	assert.Equal(t, "", c.Query())
}

func TestRetypingSearchesAgainAfterClear(t *testing.T) {
	fake, c := setup(t)

	c.OnQueryChange("kle")
	waitForResults(t, c, "Paul Klee")
	c.OnQueryChange("kl")
	c.OnQueryChange("kle")
	waitForResults(t, c, "Paul Klee")
	assert.Equal(t, []string{"kle", "kle"}, fake.Searches())
}

func TestUnchangedQueryIsNotSearchedAgain(t *testing.T) {
	fake, c := setup(t)

	c.OnQueryChange("kle")
	waitForResults(t, c, "Paul Klee")

	c.OnQueryChange("klee")
	c.OnQueryChange("kle")
	time.Sleep(3 * debounce)
	assert.Equal(t, []string{"kle"}, fake.Searches())
	assert.Equal(t, []string{"Paul Klee"}, names(c.Results()))
}

func TestLatestSearchWins(t *testing.T) {
	fake, c := setup(t)
	fake.DelaySearch("pab", 10*debounce)

	c.OnQueryChange("pab")
	require.Eventually(t, func() bool { return len(fake.Searches()) == 1 },
		time.Second, 5*time.Millisecond)

	c.OnQueryChange("kle")
	waitForResults(t, c, "Paul Klee")

	time.Sleep(12 * debounce)
	assert.Equal(t, []string{"Paul Klee"}, names(c.Results()))
}

func TestEmptyResultsReplaceOldOnes(t *testing.T) {
	fake, c := setup(t)

	c.OnQueryChange("kle")
	waitForResults(t, c, "Paul Klee")

	c.OnQueryChange("zzz")
	require.Eventually(t, func() bool { return len(fake.Searches()) == 2 },
		time.Second, 5*time.Millisecond)
	waitForResults(t, c)

	c.OnQueryChange("kle")
	waitForResults(t, c, "Paul Klee")
	fake.Fail(artsytest.Search, http.StatusInternalServerError)
	c.OnQueryChange("pab")
	require.Eventually(t, func() bool { return fake.Calls(artsytest.Search) == 4 },
		time.Second, 5*time.Millisecond)
	waitForResults(t, c)
}

func TestClear(t *testing.T) {
	fake, c := setup(t)

	c.OnQueryChange("kle")
	waitForResults(t, c, "Paul Klee")

	c.OnQueryChange("pab")
	c.Clear()
	assert.Equal(t, "", c.Query())
	assert.Empty(t, c.Results())

	time.Sleep(3 * debounce)
	assert.Equal(t, []string{"kle"}, fake.Searches())
	assert.Empty(t, c.Results())
}

func TestClosedControllerDoesNotSearch(t *testing.T) {
	fake, c := setup(t)

	c.OnQueryChange("kle")
	c.Close()
	time.Sleep(3 * debounce)
	assert.Empty(t, fake.Searches())

	c.OnQueryChange("pab")
	time.Sleep(3 * debounce)
	assert.Empty(t, fake.Searches())
}

func TestResultsAreACopy(t *testing.T) {
	_, c := setup(t)
	c.OnQueryChange("kle")
	waitForResults(t, c, "Paul Klee")

	got := c.Results()
	got[0].Name = "someone else"
	assert.Equal(t, []string{"Paul Klee"}, names(c.Results()))
}

func TestSubscribeResults(t *testing.T) {
	_, c := setup(t)
	results, cancel := c.SubscribeResults()
	defer cancel()
	assert.Empty(t, <-results)

	c.OnQueryChange("kle")
	require.Eventually(t, func() bool {
		select {
		case got := <-results:
			return assert.ObjectsAreEqual([]string{"Paul Klee"}, names(got))
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

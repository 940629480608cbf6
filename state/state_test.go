package state_test

import (
	"sync"
	"testing"

	"github.com/amonks/artsy/state"
	"github.com/stretchr/testify/assert"
)

func TestGetSet(t *testing.T) {
	v := state.New("idle")
	assert.Equal(t, "idle", v.Get())
	v.Set("loading")
	assert.Equal(t, "loading", v.Get())
	assert.Equal(t, "loading!", v.Update(func(s string) string { return s + "!" }))
}

func TestSubscribeSeesLatest(t *testing.T) {
	v := state.New(0)
	ch, cancel := v.Subscribe()
	defer cancel()

	assert.Equal(t, 0, <-ch)

	v.Set(1)
	v.Set(2)
	v.Set(3)
	assert.Equal(t, 3, <-ch)

	select {
	case got := <-ch:
		t.Fatalf("unexpected value %d", got)
	default:
	}
}

func TestCancelClosesChannel(t *testing.T) {
	v := state.New(0)
	ch, cancel := v.Subscribe()
	<-ch
	cancel()
	cancel()

	v.Set(1)
	_, open := <-ch
	assert.False(t, open)
}

func TestConcurrentSet(t *testing.T) {
	v := state.New(0)
	ch, cancel := v.Subscribe()
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v.Update(func(n int) int { return n + 1 })
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, v.Get())
	assert.Equal(t, 50, <-ch)
}

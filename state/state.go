// Package state holds values that a view layer watches for changes.
package state

import "sync"

// Value is a piece of observable state. Every Set is delivered to every
// subscriber, but a slow subscriber only ever sees the newest value: its
// channel holds one pending value, and a new one replaces it.
type Value[T any] struct {
	mu     sync.Mutex
	value  T
	nextID int
	subs   map[int]chan T
}

// New returns a Value holding initial.
func New[T any](initial T) *Value[T] {
	return &Value[T]{value: initial, subs: map[int]chan T{}}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

// Set replaces the current value and notifies subscribers.
func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.value = value
	for _, ch := range v.subs {
		publish(ch, value)
	}
}

// Update applies fn to the current value under the lock, stores the result,
// and notifies subscribers.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.value = fn(v.value)
	for _, ch := range v.subs {
		publish(ch, v.value)
	}
	return v.value
}

// Subscribe returns a channel that receives the current value immediately and
// every later one, and a function that unsubscribes and closes the channel.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextID
	v.nextID++
	ch := make(chan T, 1)
	ch <- v.value
	v.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			delete(v.subs, id)
			close(ch)
		})
	}
}

// publish must be called with the lock held, which makes it the only sender.
func publish[T any](ch chan T, value T) {
	select {
	case <-ch:
	default:
	}
	ch <- value
}

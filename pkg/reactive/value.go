// Package reactive provides a minimal observable value.
package reactive

import (
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type WatchFunc[T comparable] func(newValue, oldValue T)

// Value holds a value and notifies watchers when Set changes it.
type Value[T comparable] struct {
	mu       sync.Mutex
	value    T
	watchers map[int]WatchFunc[T]
	nextID   int
}

func New[T comparable](initial T) *Value[T] {
	return &Value[T]{
		value:    initial,
		watchers: make(map[int]WatchFunc[T]),
	}
}

func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

// Set stores value and calls every watcher in subscription order when it
// differs from the previous one. Watchers run on the caller's goroutine.
func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	old := v.value
	if old == value {
		v.mu.Unlock()
		return
	}
	v.value = value

	ids := maps.Keys(v.watchers)
	slices.Sort(ids)
	fns := make([]WatchFunc[T], 0, len(ids))
	for _, id := range ids {
		fns = append(fns, v.watchers[id])
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn(value, old)
	}
}

// Watch subscribes fn and returns a func that cancels the subscription.
// Calling the returned func more than once is safe.
func (v *Value[T]) Watch(fn WatchFunc[T]) (stop func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextID
	v.nextID++
	v.watchers[id] = fn

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.watchers, id)
	}
}

func (v *Value[T]) Watchers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.watchers)
}

// Package viewmodel keeps in-memory copies of store tables current.
//
// A ListModel holds the last successfully loaded collection of one table.
// Listen refetches it whenever the change channel reports a write. There is no
// diffing: every event means "load the whole table again".
package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"
)

// ErrStale is returned by Load when a newer load was issued while this one was
// in flight. The response is discarded.
var ErrStale = errors.New("stale response discarded")

// Fetcher returns a full collection, newest first. Every store and client
// repository satisfies it.
type Fetcher[T any] interface {
	List(ctx context.Context) ([]T, error)
}

// Loader is anything that can be refetched.
type Loader interface {
	Load(ctx context.Context) error
}

// ListModel is the loaded state of one table.
type ListModel[T any] struct {
	name  string
	fetch Fetcher[T]
	now   func() time.Time

	mu       sync.Mutex
	issued   uint64
	items    []T
	loadedAt time.Time
	lastErr  error
	onChange func([]T)
}

// NewListModel creates an empty model for the named table.
func NewListModel[T any](name string, fetch Fetcher[T]) *ListModel[T] {
	return &ListModel[T]{
		name:  name,
		fetch: fetch,
		now:   time.Now,
	}
}

// OnChange registers fn to run after every applied load.
func (m *ListModel[T]) OnChange(fn func(items []T)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// Load fetches the whole table once. On failure the previous items are kept.
// Only the most recently issued load may apply its result; older ones return
// ErrStale.
func (m *ListModel[T]) Load(ctx context.Context) error {
	m.mu.Lock()
	m.issued++
	seq := m.issued
	m.mu.Unlock()

	items, err := m.fetch.List(ctx)

	m.mu.Lock()
	if seq != m.issued {
		m.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		m.lastErr = err
		m.mu.Unlock()
		log.Printf("Failed to load %s: %v", m.name, err)
		return fmt.Errorf("load %s: %w", m.name, err)
	}
	if items == nil {
		items = []T{}
	}
	m.items = items
	m.loadedAt = m.now()
	m.lastErr = nil
	cb := m.onChange
	m.mu.Unlock()

	if cb != nil {
		cb(slices.Clone(items))
	}
	return nil
}

// Items returns a copy of the loaded collection. It is nil before the first
// successful load.
func (m *ListModel[T]) Items() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.items)
}

// Loaded reports whether any load has succeeded.
func (m *ListModel[T]) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items != nil
}

// LoadedAt is the time of the last applied load.
func (m *ListModel[T]) LoadedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadedAt
}

// LastError is the error of the latest non-stale load, or nil after a success.
func (m *ListModel[T]) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Name is the table the model mirrors.
func (m *ListModel[T]) Name() string { return m.name }

package changefeed

import (
	"context"
	"log"
	"sync"
)

const defaultBuffer = 16

// Hub is an in-process Broker. Delivery never blocks the publisher: when a
// subscriber's buffer is full the event is dropped, which is harmless because
// the subscriber already has a pending refetch signal queued.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*hubSubscription]struct{}
	buffer int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs:   make(map[string]map[*hubSubscription]struct{}),
		buffer: defaultBuffer,
	}
}

// Publish fans ev out to the table's subscribers and to AllTables subscribers.
func (h *Hub) Publish(ctx context.Context, ev Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs[ev.Table] {
		s.deliver(ev)
	}
	for s := range h.subs[AllTables] {
		s.deliver(ev)
	}
	return nil
}

// Subscribe registers a subscription that lives until Close or ctx ends.
func (h *Hub) Subscribe(ctx context.Context, table string) (Subscription, error) {
	s := &hubSubscription{
		hub:   h,
		table: table,
		ch:    make(chan Event, h.buffer),
	}

	h.mu.Lock()
	if h.subs[table] == nil {
		h.subs[table] = make(map[*hubSubscription]struct{})
	}
	h.subs[table][s] = struct{}{}
	s.stop = context.AfterFunc(ctx, func() { s.Close() })
	h.mu.Unlock()

	return s, nil
}

// Subscribers returns the number of live subscriptions on table.
func (h *Hub) Subscribers(table string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[table])
}

type hubSubscription struct {
	hub   *Hub
	table string
	ch    chan Event
	stop  func() bool
	once  sync.Once
}

func (s *hubSubscription) Events() <-chan Event {
	return s.ch
}

// deliver is called with the hub read lock held, so ch cannot be closed underneath it.
func (s *hubSubscription) deliver(ev Event) {
	select {
	case s.ch <- ev:
	default:
		log.Printf("changefeed: subscriber on %q is full, dropping %s %s", s.table, ev.Op, ev.ID)
	}
}

func (s *hubSubscription) Close() error {
	s.once.Do(func() {
		s.hub.mu.Lock()
		stop := s.stop
		delete(s.hub.subs[s.table], s)
		if len(s.hub.subs[s.table]) == 0 {
			delete(s.hub.subs, s.table)
		}
		s.hub.mu.Unlock()

		if stop != nil {
			stop()
		}
		close(s.ch)
	})
	return nil
}

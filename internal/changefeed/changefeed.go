// Package changefeed carries "something changed" notifications for store tables.
//
// Subscribers are expected to treat every event as a signal to refetch the whole
// table; the payload only exists for logging and for push notifications.
package changefeed

import (
	"context"
	"time"
)

// Op is the kind of write that produced an event.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// AllTables subscribes to events from every table.
const AllTables = "*"

// Event describes one committed write.
type Event struct {
	Table string    `json:"table"`
	Op    Op        `json:"op"`
	ID    string    `json:"id"`
	At    time.Time `json:"at"`
}

// Publisher announces committed writes.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Subscriber opens a change stream for one table, or AllTables.
type Subscriber interface {
	Subscribe(ctx context.Context, table string) (Subscription, error)
}

// Subscription is a live change stream. Events is closed after Close returns
// or when the context passed to Subscribe ends.
type Subscription interface {
	Events() <-chan Event
	Close() error
}

// Broker is both ends of the channel.
type Broker interface {
	Publisher
	Subscriber
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) error { return nil }

package mw

import (
	"context"
	"log"

	"github.com/Dakshesh-max/society-man/internal/changefeed"
)

// InvalidateOnChange drops cached responses as writes are reported by other
// processes or by store calls that bypass the HTTP layer: an event on a table
// drops that table's route prefixes plus the always prefixes. It blocks until
// ctx ends.
func (rc *ResponseCache) InvalidateOnChange(ctx context.Context, sub changefeed.Subscriber, routes map[string][]string) error {
	s, err := sub.Subscribe(ctx, changefeed.AllTables)
	if err != nil {
		return err
	}
	defer s.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-s.Events():
			if !ok {
				return nil
			}
			prefixes := append(append([]string(nil), routes[ev.Table]...), rc.always...)
			if n := rc.Invalidate(prefixes...); n > 0 {
				log.Printf("Dropped %d cached responses after %s on %s", n, ev.Op, ev.Table)
			}
		}
	}
}

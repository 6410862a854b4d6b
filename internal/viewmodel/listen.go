package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Dakshesh-max/society-man/internal/changefeed"
)

// Listen subscribes to table and calls loader.Load for every event until ctx
// ends or the subscription closes. Each refetch runs in its own goroutine and
// overlapping refetches are not cancelled; the loader's stale guard decides
// which result wins. The subscription is always closed and in-flight refetches
// are awaited before Listen returns.
func Listen(ctx context.Context, sub changefeed.Subscriber, table string, loader Loader) error {
	s, err := sub.Subscribe(ctx, table)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", table, err)
	}

	var wg sync.WaitGroup
	defer wg.Wait()
	defer s.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-s.Events():
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := loader.Load(ctx); err != nil && !errors.Is(err, ErrStale) && ctx.Err() == nil {
					log.Printf("Refetch of %s after %s %s failed: %v", table, ev.Op, ev.ID, err)
				}
			}()
		}
	}
}

package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Dakshesh-max/society-man/config"
)

// RedisBroker shares change events between server instances over Redis pub/sub.
// Channels are named "<prefix>:<table>".
type RedisBroker struct {
	client *redis.Client
	prefix string
}

// NewRedisBroker connects to Redis and verifies the connection.
func NewRedisBroker(cfg config.RedisConfig, prefix string) (*RedisBroker, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisBroker{client: rdb, prefix: prefix}, nil
}

// Close closes the Redis connection.
func (b *RedisBroker) Close() error {
	return b.client.Close()
}

// Channel returns the Redis channel that carries events for table.
func (b *RedisBroker) Channel(table string) string {
	return b.prefix + ":" + table
}

// Publish sends ev on the table's channel.
func (b *RedisBroker) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if err := b.client.Publish(ctx, b.Channel(ev.Table), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", b.Channel(ev.Table), err)
	}
	return nil
}

// Subscribe listens on the table's channel, or on every table for AllTables.
func (b *RedisBroker) Subscribe(ctx context.Context, table string) (Subscription, error) {
	var ps *redis.PubSub
	if table == AllTables {
		ps = b.client.PSubscribe(ctx, b.Channel("*"))
	} else {
		ps = b.client.Subscribe(ctx, b.Channel(table))
	}

	// Wait for the subscription confirmation so events published after
	// Subscribe returns are not missed.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", table, err)
	}

	s := &redisSubscription{
		ps: ps,
		ch: make(chan Event, defaultBuffer),
	}
	go s.pump(ctx)
	return s, nil
}

type redisSubscription struct {
	ps   *redis.PubSub
	ch   chan Event
	once sync.Once
}

func (s *redisSubscription) pump(ctx context.Context) {
	defer close(s.ch)
	msgs := s.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("changefeed: ignoring malformed event on %s: %v", msg.Channel, err)
				continue
			}
			select {
			case s.ch <- ev:
			case <-ctx.Done():
				s.Close()
				return
			}
		}
	}
}

func (s *redisSubscription) Events() <-chan Event {
	return s.ch
}

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.ps.Close()
	})
	return err
}

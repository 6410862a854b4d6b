package client

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Dakshesh-max/society-man/internal/changefeed"
)

// Subscribe opens the server's change stream for table over a websocket. The
// returned subscription closes when ctx ends, when Close is called or when the
// server goes away.
func (c *Client) Subscribe(ctx context.Context, table string) (changefeed.Subscription, error) {
	u, err := url.Parse(c.baseURL + "/api/changes")
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.RawQuery = url.Values{"table": {table}}.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, fmt.Errorf("subscribe to %s: %w", table, statusError(resp))
		}
		return nil, fmt.Errorf("subscribe to %s: %w", table, err)
	}

	s := &wsSubscription{
		conn: conn,
		ch:   make(chan changefeed.Event, 16),
		done: make(chan struct{}),
	}
	stop := context.AfterFunc(ctx, func() { s.Close() })
	go s.pump(stop)
	return s, nil
}

type wsSubscription struct {
	conn *websocket.Conn
	ch   chan changefeed.Event
	done chan struct{}
	once sync.Once
}

func (s *wsSubscription) Events() <-chan changefeed.Event { return s.ch }

// Close ends the stream. Events is closed once the reader has stopped.
func (s *wsSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

func (s *wsSubscription) pump(stop func() bool) {
	defer close(s.ch)
	defer stop()
	for {
		var ev changefeed.Event
		if err := s.conn.ReadJSON(&ev); err != nil {
			select {
			case <-s.done:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
					!strings.Contains(err.Error(), "use of closed network connection") {
					log.Printf("Change stream read error: %v", err)
				}
				s.Close()
			}
			return
		}
		select {
		case s.ch <- ev:
		case <-s.done:
			return
		}
	}
}

var _ changefeed.Subscriber = (*Client)(nil)

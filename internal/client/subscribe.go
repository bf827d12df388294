package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/habitloop/internal/websocket"
)

func (c *Client) feedURL() string {
	u := c.baseURL + "/ws"
	if rest, ok := strings.CutPrefix(u, "https://"); ok {
		return "wss://" + rest
	}
	if rest, ok := strings.CutPrefix(u, "http://"); ok {
		return "ws://" + rest
	}
	return u
}

// Subscribe opens the change feed. Messages are delivered on the returned
// channel until ctx ends or the connection drops, after which it is closed.
func (c *Client) Subscribe(ctx context.Context) (<-chan websocket.Message, error) {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, resp, err := ws.Dial(ctx, c.feedURL(), &ws.DialOptions{HTTPHeader: header})
	if err != nil {
		if resp != nil && resp.StatusCode >= 300 {
			return nil, &APIError{StatusCode: resp.StatusCode}
		}
		return nil, &transportError{err: fmt.Errorf("dial change feed: %w", err)}
	}

	out := make(chan websocket.Message, 16)
	go func() {
		defer close(out)
		defer conn.Close(ws.StatusNormalClosure, "")
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var msg websocket.Message
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

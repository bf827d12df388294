// Package websocket is the per-user change feed. Handlers broadcast a Message
// after every write; the owner's sockets receive it as JSON and the owner's
// in-process engines receive a coalesced refetch signal.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

const (
	EntityHabit           = "habit"
	EntityHabitCompletion = "habit_completion"
)

// Message is a change notification for one user's rows.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     string         `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
	UserID int64          `json:"-"`
}

// NewMessage builds a Message whose Type is "<entity>_<action>".
func NewMessage(userID int64, entity, action, id string, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
		UserID: userID,
	}
}

// feed holds everything listening to one user's changes.
type feed struct {
	sockets map[*Client]struct{}
	signals map[chan struct{}]struct{}
}

func (f *feed) empty() bool {
	return len(f.sockets) == 0 && len(f.signals) == 0
}

// Hub routes each message only to the feed of the user that owns it.
type Hub struct {
	mu     sync.RWMutex
	feeds  map[int64]*feed
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		feeds:  make(map[int64]*feed),
		logger: logger,
	}
}

// feedLocked returns the user's feed, creating it. h.mu must be held.
func (h *Hub) feedLocked(userID int64) *feed {
	f := h.feeds[userID]
	if f == nil {
		f = &feed{
			sockets: make(map[*Client]struct{}),
			signals: make(map[chan struct{}]struct{}),
		}
		h.feeds[userID] = f
	}
	return f
}

// dropIfEmpty removes an unused feed. h.mu must be held.
func (h *Hub) dropIfEmpty(userID int64) {
	if f := h.feeds[userID]; f != nil && f.empty() {
		delete(h.feeds, userID)
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.feedLocked(c.userID).sockets[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes c and closes its send channel. Calling it twice is safe.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	f := h.feeds[c.userID]
	if f == nil {
		return
	}
	if _, ok := f.sockets[c]; !ok {
		return
	}
	delete(f.sockets, c)
	close(c.send)
	h.dropIfEmpty(c.userID)

	if n := c.Dropped(); n > 0 {
		h.logger.Debug("socket closed with dropped messages", "user_id", c.userID, "dropped", n)
	}
}

// Subscribe returns a channel that receives a signal whenever a message for
// userID is broadcast. Signals coalesce while the receiver is busy. The
// returned function unsubscribes and closes the channel.
func (h *Hub) Subscribe(userID int64) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	h.feedLocked(userID).signals[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			if f := h.feeds[userID]; f != nil {
				delete(f.signals, ch)
				h.dropIfEmpty(userID)
			}
			close(ch)
			h.mu.Unlock()
		})
	}
}

// Broadcast delivers msg to its owner's sockets and subscribers without
// blocking.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	f := h.feeds[msg.UserID]
	if f == nil {
		return
	}
	for c := range f.sockets {
		c.enqueue(data)
	}
	for ch := range f.signals {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// ClientCount returns the number of open sockets across all users.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, f := range h.feeds {
		n += len(f.sockets)
	}
	return n
}

// UserCount returns how many users have at least one listener.
func (h *Hub) UserCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.feeds)
}

// SubscriberCount returns the number of in-process subscribers across all
// users.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, f := range h.feeds {
		n += len(f.signals)
	}
	return n
}

package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// socket creates a Client with a send buffer but no connection.
func socket(hub *Hub, userID int64) *Client {
	return NewClient(hub, nil, userID)
}

func drain(c *Client) []Message {
	var out []Message
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return out
			}
			var m Message
			json.Unmarshal(data, &m)
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestFeedsArePerUser(t *testing.T) {
	hub := testHub()
	alice1, alice2, bob := socket(hub, 1), socket(hub, 1), socket(hub, 2)
	for _, c := range []*Client{alice1, alice2, bob} {
		hub.Register(c)
	}

	if got := hub.ClientCount(); got != 3 {
		t.Errorf("ClientCount = %d, want 3", got)
	}
	if got := hub.UserCount(); got != 2 {
		t.Errorf("UserCount = %d, want 2", got)
	}

	hub.Broadcast(NewMessage(1, EntityHabitCompletion, "created", "h-42", map[string]any{"date": "2025-04-10"}))

	for name, c := range map[string]*Client{"alice1": alice1, "alice2": alice2} {
		msgs := drain(c)
		if len(msgs) != 1 {
			t.Fatalf("%s got %d messages, want 1", name, len(msgs))
		}
		m := msgs[0]
		if m.Type != "habit_completion_created" || m.ID != "h-42" || m.Extra["date"] != "2025-04-10" {
			t.Errorf("%s got %+v", name, m)
		}
	}
	if msgs := drain(bob); len(msgs) != 0 {
		t.Errorf("bob received %+v", msgs)
	}
}

func TestUnregisterDropsEmptyFeed(t *testing.T) {
	hub := testHub()
	c := socket(hub, 1)
	hub.Register(c)
	hub.Unregister(c)
	hub.Unregister(c)

	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed")
	}
	if hub.ClientCount() != 0 || hub.UserCount() != 0 {
		t.Errorf("counts = %d clients, %d users; want 0, 0", hub.ClientCount(), hub.UserCount())
	}

	hub.Broadcast(NewMessage(1, EntityHabit, "created", "x", nil))
}

func TestLaggingSocketDropsFrames(t *testing.T) {
	hub := testHub()
	c := socket(hub, 1)
	hub.Register(c)
	defer hub.Unregister(c)

	for range sendBufferSize + 3 {
		hub.Broadcast(NewMessage(1, EntityHabit, "updated", "a", nil))
	}

	if got := len(drain(c)); got != sendBufferSize {
		t.Errorf("queued = %d, want %d", got, sendBufferSize)
	}
	if got := c.Dropped(); got != 3 {
		t.Errorf("Dropped = %d, want 3", got)
	}
}

func TestMessageJSON(t *testing.T) {
	msg := NewMessage(7, EntityHabit, "deleted", "abc", nil)
	if msg.Type != "habit_deleted" {
		t.Errorf("Type = %q, want habit_deleted", msg.Type)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	json.Unmarshal(data, &raw)
	for _, key := range []string{"user_id", "UserID", "extra"} {
		if _, ok := raw[key]; ok {
			t.Errorf("unexpected %q in %s", key, data)
		}
	}
}

func TestSubscribeCoalesces(t *testing.T) {
	hub := testHub()
	ch, unsubscribe := hub.Subscribe(1)

	for range 5 {
		hub.Broadcast(NewMessage(1, EntityHabit, "updated", "a", nil))
	}
	hub.Broadcast(NewMessage(2, EntityHabit, "updated", "b", nil))

	select {
	case <-ch:
	default:
		t.Fatal("expected a notification")
	}
	select {
	case <-ch:
		t.Fatal("notifications should coalesce into one")
	default:
	}

	unsubscribe()
	unsubscribe()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}
	if got := hub.SubscriberCount(); got != 0 {
		t.Errorf("subscribers = %d, want 0", got)
	}
	if got := hub.UserCount(); got != 0 {
		t.Errorf("UserCount = %d, want 0", got)
	}
}

func TestSubscriberCount(t *testing.T) {
	hub := testHub()
	_, unsub1 := hub.Subscribe(1)
	_, unsub2 := hub.Subscribe(2)
	_, unsub3 := hub.Subscribe(2)

	if got := hub.SubscriberCount(); got != 3 {
		t.Errorf("SubscriberCount = %d, want 3", got)
	}
	unsub2()
	if got := hub.SubscriberCount(); got != 2 {
		t.Errorf("SubscriberCount = %d, want 2", got)
	}
	unsub1()
	unsub3()
	if got := hub.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount = %d, want 0", got)
	}
}

func TestSocketAndSubscriberShareFeed(t *testing.T) {
	hub := testHub()
	c := socket(hub, 1)
	hub.Register(c)
	ch, unsubscribe := hub.Subscribe(1)

	hub.Unregister(c)
	if hub.UserCount() != 1 {
		t.Fatal("feed should stay while a subscriber remains")
	}

	hub.Broadcast(NewMessage(1, EntityHabit, "created", "x", nil))
	select {
	case <-ch:
	default:
		t.Error("subscriber should still be notified")
	}
	unsubscribe()
}

func TestConcurrentAccess(t *testing.T) {
	hub := testHub()
	var wg sync.WaitGroup

	for i := range 20 {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			c := socket(hub, userID)
			hub.Register(c)
			_, unsubscribe := hub.Subscribe(userID)
			hub.Broadcast(NewMessage(userID, EntityHabit, "updated", "", nil))
			unsubscribe()
			drain(c)
			hub.Unregister(c)
		}(int64(i % 3))
	}
	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("ClientCount = %d after concurrent use, want 0", got)
	}
	if got := hub.UserCount(); got != 0 {
		t.Errorf("UserCount = %d after concurrent use, want 0", got)
	}
}

package chat

import (
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

// fakeClient records delivered events and can be told to fail sends.
type fakeClient struct {
	events []Event
	fail   bool
}

func (c *fakeClient) SendJSON(v any) error {
	if c.fail {
		return errors.New("send failed")
	}
	c.events = append(c.events, v.(Event))
	return nil
}

func (c *fakeClient) last(t *testing.T) Event {
	t.Helper()
	if len(c.events) == 0 {
		t.Fatal("no events delivered")
	}
	return c.events[len(c.events)-1]
}

func newTestHub() *Hub {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewHub(log)
}

func TestJoinGreetsAndAnnounces(t *testing.T) {
	hub := newTestHub()
	alice := &fakeClient{}
	hub.Join(alice)

	if len(alice.events) != 2 {
		t.Fatalf("events = %d, want connected + joined", len(alice.events))
	}
	if alice.events[0].Type != "system" || !strings.Contains(alice.events[0].Message, "Connected") {
		t.Errorf("first event = %+v", alice.events[0])
	}
	if alice.events[0].ActiveUsers != 1 {
		t.Errorf("active users = %d, want 1", alice.events[0].ActiveUsers)
	}
	if !strings.Contains(alice.events[1].Message, "joined chat") {
		t.Errorf("second event = %+v", alice.events[1])
	}
	if !strings.HasPrefix(alice.events[1].Message, "Guest-") {
		t.Errorf("default name must be a guest name: %q", alice.events[1].Message)
	}

	bob := &fakeClient{}
	hub.Join(bob)
	if hub.ActiveCount() != 2 {
		t.Errorf("active count = %d, want 2", hub.ActiveCount())
	}
	// Alice sees Bob's join announcement with the updated count.
	if ev := alice.last(t); !strings.Contains(ev.Message, "joined chat") || ev.ActiveUsers != 2 {
		t.Errorf("join broadcast to peer = %+v", ev)
	}
}

func TestRenameEmptyNameIsPrivateError(t *testing.T) {
	hub := newTestHub()
	alice, bob := &fakeClient{}, &fakeClient{}
	hub.Join(alice)
	hub.Join(bob)
	bobEvents := len(bob.events)

	hub.Rename(alice, "   ")

	ev := alice.last(t)
	if ev.Type != "error" {
		t.Fatalf("expected private error, got %+v", ev)
	}
	if len(bob.events) != bobEvents {
		t.Errorf("empty rename must not broadcast")
	}
	if name := hub.clients[alice]; !strings.HasPrefix(name, "Guest-") {
		t.Errorf("registry changed on empty rename: %q", name)
	}
}

func TestRenameBroadcastsOnlyOnChange(t *testing.T) {
	hub := newTestHub()
	alice, bob := &fakeClient{}, &fakeClient{}
	hub.Join(alice)
	hub.Join(bob)
	bobEvents := len(bob.events)

	hub.Rename(alice, "Alice")
	if len(bob.events) != bobEvents+1 {
		t.Fatalf("first rename must broadcast once, got %d new events", len(bob.events)-bobEvents)
	}
	if ev := bob.last(t); !strings.Contains(ev.Message, "is now Alice") {
		t.Errorf("rename broadcast = %+v", ev)
	}

	hub.Rename(alice, "Alice")
	if len(bob.events) != bobEvents+1 {
		t.Errorf("unchanged rename must not broadcast again")
	}
}

func TestRenameTruncatesName(t *testing.T) {
	hub := newTestHub()
	alice := &fakeClient{}
	hub.Join(alice)

	hub.Rename(alice, strings.Repeat("x", 40))
	if name := hub.clients[alice]; len(name) != 24 {
		t.Errorf("name length = %d, want 24", len(name))
	}
}

func TestMessageEmptyIsDropped(t *testing.T) {
	hub := newTestHub()
	alice, bob := &fakeClient{}, &fakeClient{}
	hub.Join(alice)
	hub.Join(bob)
	aliceEvents, bobEvents := len(alice.events), len(bob.events)

	hub.Message(alice, "")
	hub.Message(alice, "   \t ")

	if len(alice.events) != aliceEvents || len(bob.events) != bobEvents {
		t.Errorf("empty message produced events")
	}
}

func TestMessageBroadcastsWithCurrentName(t *testing.T) {
	hub := newTestHub()
	alice, bob := &fakeClient{}, &fakeClient{}
	hub.Join(alice)
	hub.Join(bob)
	hub.Rename(alice, "Alice")

	hub.Message(alice, "  hello there  ")

	ev := bob.last(t)
	if ev.Type != "chat" || ev.User != "Alice" || ev.Message != "hello there" {
		t.Errorf("chat event = %+v", ev)
	}
	if ev.ActiveUsers != 2 {
		t.Errorf("active users = %d, want 2", ev.ActiveUsers)
	}
	if ev.Timestamp == "" {
		t.Errorf("chat event missing timestamp")
	}
	// Sender receives their own broadcast too.
	if ev := alice.last(t); ev.Type != "chat" || ev.Message != "hello there" {
		t.Errorf("sender did not receive own message: %+v", ev)
	}
}

func TestBroadcastPrunesFailedConnectionsSilently(t *testing.T) {
	hub := newTestHub()
	alice, bob, mallory := &fakeClient{}, &fakeClient{}, &fakeClient{}
	hub.Join(alice)
	hub.Join(bob)
	hub.Join(mallory)

	mallory.fail = true
	hub.Message(alice, "ping")

	if hub.ActiveCount() != 2 {
		t.Fatalf("active count = %d, want 2 after pruning", hub.ActiveCount())
	}
	// The pruned connection gets no "left" announcement.
	for _, ev := range bob.events {
		if strings.Contains(ev.Message, "left chat") {
			t.Errorf("prune must not broadcast a left event: %+v", ev)
		}
	}
}

func TestLeaveAnnouncesDeparture(t *testing.T) {
	hub := newTestHub()
	alice, bob := &fakeClient{}, &fakeClient{}
	hub.Join(alice)
	hub.Join(bob)
	hub.Rename(bob, "Bob")

	hub.Leave(bob)

	ev := alice.last(t)
	if ev.Type != "system" || !strings.Contains(ev.Message, "Bob left chat") {
		t.Errorf("leave broadcast = %+v", ev)
	}
	if ev.ActiveUsers != 1 {
		t.Errorf("active users = %d, want 1", ev.ActiveUsers)
	}

	// Leaving twice is a no-op.
	events := len(alice.events)
	hub.Leave(bob)
	if len(alice.events) != events {
		t.Errorf("second leave must not broadcast")
	}
}

func TestHandleInboundFrames(t *testing.T) {
	hub := newTestHub()
	alice, bob := &fakeClient{}, &fakeClient{}
	hub.Join(alice)
	hub.Join(bob)

	t.Run("invalid json", func(t *testing.T) {
		bobEvents := len(bob.events)
		hub.HandleInbound(alice, []byte("{not json"))
		if ev := alice.last(t); ev.Type != "error" || !strings.Contains(ev.Message, "Invalid JSON") {
			t.Errorf("event = %+v", ev)
		}
		if len(bob.events) != bobEvents {
			t.Errorf("bad frame must not broadcast")
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		hub.HandleInbound(alice, []byte(`{"type":"dance"}`))
		if ev := alice.last(t); ev.Type != "error" || !strings.Contains(ev.Message, "Unknown chat action") {
			t.Errorf("event = %+v", ev)
		}
	})

	t.Run("set_name", func(t *testing.T) {
		hub.HandleInbound(alice, []byte(`{"type":"set_name","name":"Alice"}`))
		if hub.clients[alice] != "Alice" {
			t.Errorf("name = %q", hub.clients[alice])
		}
	})

	t.Run("chat", func(t *testing.T) {
		hub.HandleInbound(alice, []byte(`{"type":"chat","text":"hi"}`))
		if ev := bob.last(t); ev.Type != "chat" || ev.Message != "hi" {
			t.Errorf("event = %+v", ev)
		}
	})
}

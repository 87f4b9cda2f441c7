// Package chat implements the live chat hub: a registry of connections and
// display names with fan-out broadcasting.
package chat

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	maxNameLen    = 24
	maxMessageLen = 500
)

// Client is a live connection handle the hub can deliver events to.
type Client interface {
	SendJSON(v any) error
}

// Event is one outbound chat frame.
type Event struct {
	Type        string `json:"type"`
	User        string `json:"user,omitempty"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
	ActiveUsers int    `json:"active_users,omitempty"`
}

// Hub owns the connection registry. All access goes through its mutex; a
// send that fails marks the client for removal without interrupting the
// rest of the fan-out.
type Hub struct {
	mu      sync.Mutex
	clients map[Client]string
	log     logrus.FieldLogger
}

// NewHub creates an empty hub.
func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		clients: make(map[Client]string),
		log:     log,
	}
}

// ActiveCount returns the number of registered connections.
func (h *Hub) ActiveCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Join registers a connection under a generated guest name, greets it
// privately, then announces it to everyone.
func (h *Hub) Join(c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	guestName := "Guest-" + uuid.NewString()[:4]
	h.clients[c] = guestName

	h.sendPersonal(c, Event{
		Type:        "system",
		Message:     "Connected to Cosmic Watch live chat.",
		Timestamp:   utcNow(),
		ActiveUsers: len(h.clients),
	})
	h.broadcast(Event{
		Type:        "system",
		Message:     guestName + " joined chat.",
		Timestamp:   utcNow(),
		ActiveUsers: len(h.clients),
	})
}

// Leave removes a connection whose own read loop ended and, if it was still
// registered, announces the departure. Connections pruned earlier because a
// send to them failed get no announcement.
func (h *Hub) Leave(c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	username, ok := h.clients[c]
	if !ok {
		return
	}
	delete(h.clients, c)
	h.broadcast(Event{
		Type:        "system",
		Message:     username + " left chat.",
		Timestamp:   utcNow(),
		ActiveUsers: len(h.clients),
	})
}

// Rename updates a connection's display name. Empty names (after trimming)
// earn the sender a private error; a broadcast goes out only when the name
// actually changed.
func (h *Hub) Rename(c Client, nextName string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	prevName := h.clients[c]
	candidate := truncate(strings.TrimSpace(nextName), maxNameLen)
	if candidate == "" {
		h.sendPersonal(c, Event{
			Type:      "error",
			Message:   "Display name cannot be empty.",
			Timestamp: utcNow(),
		})
		return
	}

	h.clients[c] = candidate
	if candidate != prevName {
		h.broadcast(Event{
			Type:        "system",
			Message:     prevName + " is now " + candidate + ".",
			Timestamp:   utcNow(),
			ActiveUsers: len(h.clients),
		})
	}
}

// Message broadcasts a chat message from a connection. Whitespace-only
// messages are dropped silently.
func (h *Hub) Message(c Client, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	body := truncate(strings.TrimSpace(text), maxMessageLen)
	if body == "" {
		return
	}
	h.broadcast(Event{
		Type:        "chat",
		User:        h.clients[c],
		Message:     body,
		Timestamp:   utcNow(),
		ActiveUsers: len(h.clients),
	})
}

// HandleInbound dispatches one raw inbound frame from a connection. Frames
// that are not JSON, or whose type is unknown, produce a private error event
// and nothing else.
func (h *Hub) HandleInbound(c Client, raw []byte) {
	var frame struct {
		Type string `json:"type"`
		Name string `json:"name"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &frame); err != nil {
		h.mu.Lock()
		h.sendPersonal(c, Event{
			Type:      "error",
			Message:   "Invalid JSON payload.",
			Timestamp: utcNow(),
		})
		h.mu.Unlock()
		return
	}

	switch frame.Type {
	case "set_name":
		h.Rename(c, frame.Name)
	case "chat":
		h.Message(c, frame.Text)
	default:
		h.mu.Lock()
		h.sendPersonal(c, Event{
			Type:      "error",
			Message:   "Unknown chat action.",
			Timestamp: utcNow(),
		})
		h.mu.Unlock()
	}
}

// sendPersonal delivers an event to one connection, dropping the connection
// from the registry on failure. Callers must hold the mutex.
func (h *Hub) sendPersonal(c Client, ev Event) {
	if err := c.SendJSON(ev); err != nil {
		delete(h.clients, c)
	}
}

// broadcast fans an event out to every registered connection. Failed sends
// are collected and pruned after the pass so the registry is not mutated
// while being iterated. Callers must hold the mutex.
func (h *Hub) broadcast(ev Event) {
	var stale []Client
	for client := range h.clients {
		if err := client.SendJSON(ev); err != nil {
			stale = append(stale, client)
		}
	}
	for _, client := range stale {
		delete(h.clients, client)
	}
	if len(stale) > 0 {
		h.log.WithField("pruned", len(stale)).Debug("dropped unreachable chat connections")
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func utcNow() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

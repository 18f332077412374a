package game

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/scythe504/trivia-backend/internal"
)

// =============================================================================
// BROADCASTING & MESSAGING
// =============================================================================

// Event is an outbound message. Events with a UserID go only to that user's
// connections; the rest go to everyone subscribed to the room.
type Event struct {
	Type   string
	Data   any
	UserID string
}

func roomEvent(eventType string, data any) Event {
	return Event{Type: eventType, Data: data}
}

func userEvent(userID, eventType string, data any) Event {
	return Event{Type: eventType, Data: data, UserID: userID}
}

// Subscriber is one live connection. Send must not block.
type Subscriber interface {
	ID() string
	UserID() string
	Send(payload []byte) bool
}

type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]Subscriber // room code -> connection id
	users  map[string]map[string]Subscriber // user id -> connection id
	joined map[string]map[string]struct{}   // connection id -> room codes
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[string]Subscriber),
		users:  make(map[string]map[string]Subscriber),
		joined: make(map[string]map[string]struct{}),
		logger: logger,
	}
}

// Register makes sub reachable through its user's private channel.
func (h *Hub) Register(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.register(sub)
}

func (h *Hub) register(sub Subscriber) {
	conns, ok := h.users[sub.UserID()]
	if !ok {
		conns = make(map[string]Subscriber)
		h.users[sub.UserID()] = conns
	}
	conns[sub.ID()] = sub
	if _, ok := h.joined[sub.ID()]; !ok {
		h.joined[sub.ID()] = make(map[string]struct{})
	}
}

func (h *Hub) Join(code string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.register(sub)
	subs, ok := h.rooms[code]
	if !ok {
		subs = make(map[string]Subscriber)
		h.rooms[code] = subs
	}
	subs[sub.ID()] = sub
	h.joined[sub.ID()][code] = struct{}{}
	h.logger.Debug("[Hub] joined room", "room", code, "conn", sub.ID(), "user", sub.UserID())
}

func (h *Hub) Leave(code string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leave(code, sub.ID())
}

func (h *Hub) leave(code, connID string) {
	if subs, ok := h.rooms[code]; ok {
		delete(subs, connID)
		if len(subs) == 0 {
			delete(h.rooms, code)
		}
	}
	if codes, ok := h.joined[connID]; ok {
		delete(codes, code)
	}
}

// Unregister drops sub from every room and from its user's channel.
func (h *Hub) Unregister(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for code := range h.joined[sub.ID()] {
		h.leave(code, sub.ID())
	}
	delete(h.joined, sub.ID())

	if conns, ok := h.users[sub.UserID()]; ok {
		delete(conns, sub.ID())
		if len(conns) == 0 {
			delete(h.users, sub.UserID())
		}
	}
}

// Publish fans events out in order. A subscriber with a full buffer misses
// the message.
func (h *Hub) Publish(code string, events ...Event) {
	for _, ev := range events {
		payload, err := encodeEvent(ev)
		if err != nil {
			h.logger.Error("[Hub] failed to encode event", "room", code, "type", ev.Type, "error", err)
			continue
		}

		// snapshot under the lock, send outside it
		h.mu.RLock()
		var targets []Subscriber
		if ev.UserID != "" {
			targets = collect(h.users[ev.UserID])
		} else {
			targets = collect(h.rooms[code])
		}
		h.mu.RUnlock()

		delivered := 0
		for _, sub := range targets {
			if sub.Send(payload) {
				delivered++
				continue
			}
			h.logger.Warn("[Hub] dropped event for slow subscriber",
				"room", code, "type", ev.Type, "conn", sub.ID(), "user", sub.UserID())
		}
		h.logger.Debug("[Hub] published", "room", code, "type", ev.Type,
			"delivered", delivered, "targets", len(targets))
	}
}

// Send delivers a single event to one connection.
func (h *Hub) Send(sub Subscriber, ev Event) bool {
	payload, err := encodeEvent(ev)
	if err != nil {
		h.logger.Error("[Hub] failed to encode event", "type", ev.Type, "error", err)
		return false
	}
	return sub.Send(payload)
}

func (h *Hub) RoomSize(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[code])
}

func collect(m map[string]Subscriber) []Subscriber {
	out := make([]Subscriber, 0, len(m))
	for _, sub := range m {
		out = append(out, sub)
	}
	return out
}

func encodeEvent(ev Event) ([]byte, error) {
	return json.Marshal(internal.Message[any]{Type: ev.Type, Data: ev.Data})
}

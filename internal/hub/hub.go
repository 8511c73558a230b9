// Package hub tracks the live session transports attached to each user id
// and fans inbound notifications out to them. It is used by the SSE handler
// to receive deliveries and by the subscription registry to broadcast.
package hub

import "sync"

// Hub groups session delivery channels by user id. Channels are buffered so
// a burst of notifications does not block the broadcaster; a session that
// cannot keep up has further deliveries dropped rather than stalling the
// rest of the group.
type Hub struct {
	mu     sync.Mutex
	groups map[string]map[string]chan []byte
}

// sessionBuffer is the per-session delivery backlog before drops occur.
const sessionBuffer = 16

// New creates a ready-to-use Hub.
func New() *Hub {
	return &Hub{
		groups: make(map[string]map[string]chan []byte),
	}
}

// Register adds a session to the user's group and returns its delivery
// channel plus the group size after the addition. A size of 1 means this is
// the user's first live session.
func (h *Hub) Register(userID, connID string) (chan []byte, int) {
	ch := make(chan []byte, sessionBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.groups[userID] == nil {
		h.groups[userID] = make(map[string]chan []byte)
	}
	h.groups[userID][connID] = ch
	return ch, len(h.groups[userID])
}

// Unregister removes a session from the user's group and returns the group
// size after removal. An empty group is cleaned up; removing an unknown
// session is a no-op.
func (h *Hub) Unregister(userID, connID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	group, ok := h.groups[userID]
	if !ok {
		return 0
	}
	delete(group, connID)
	if len(group) == 0 {
		delete(h.groups, userID)
		return 0
	}
	return len(group)
}

// Broadcast delivers payload to every session in the user's group. Sends are
// non-blocking: an error or backlog on one session's transport must not
// block delivery to the others.
func (h *Hub) Broadcast(userID string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.groups[userID] {
		select {
		case ch <- payload:
		default:
		}
	}
}

// Size returns the current number of sessions in the user's group.
func (h *Hub) Size(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[userID])
}

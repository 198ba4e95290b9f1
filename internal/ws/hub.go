package ws

import (
	"sync"

	"go.uber.org/zap"

	"github.com/park285/chess-arena/internal/coord"
	"github.com/park285/chess-arena/internal/obslog"
)

// Hub tracks which senders are in which rooms and fans room events out
// to all of them. It implements coord.Broadcaster; delivery itself is
// non-blocking per session, so Broadcast never stalls on a slow peer.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[coord.Sender]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[coord.Sender]struct{})}
}

func (h *Hub) Join(roomID string, s coord.Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members := h.rooms[roomID]
	if members == nil {
		members = make(map[coord.Sender]struct{})
		h.rooms[roomID] = members
	}
	members[s] = struct{}{}
}

func (h *Hub) Leave(roomID string, s coord.Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members := h.rooms[roomID]
	delete(members, s)
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
}

// Drop removes a sender from every room. Called when its connection
// closes; room state is untouched, the seat stays assigned.
func (h *Hub) Drop(s coord.Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID, members := range h.rooms {
		delete(members, s)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *Hub) Broadcast(roomID string, e coord.Event) {
	h.mu.RLock()
	members := make([]coord.Sender, 0, len(h.rooms[roomID]))
	for s := range h.rooms[roomID] {
		members = append(members, s)
	}
	h.mu.RUnlock()

	for _, s := range members {
		s.Deliver(e)
	}
	obslog.L().Debug("hub_broadcast",
		zap.String("room_id", roomID),
		zap.String("event", string(e.Type)),
		zap.Int("receivers", len(members)),
	)
}

// Members reports the current audience size of a room.
func (h *Hub) Members(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

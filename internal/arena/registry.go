package arena

import (
	"crypto/rand"
	"math/big"
	"sync"
)

// SeatPicker decides which seat the creator of a room receives. It is
// the only source of nondeterminism in the core; tests pin it to assert
// both branches.
type SeatPicker func() Seat

// CryptoSeatPicker flips a fair coin from crypto/rand.
func CryptoSeatPicker() Seat {
	if n, err := rand.Int(rand.Reader, big.NewInt(2)); err == nil && n.Int64() == 0 {
		return SeatBlack
	}
	return SeatWhite
}

// Registry owns every room in the process. It is the only place rooms
// are created or looked up; create-or-fail on an id is atomic under the
// registry mutex.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
	pick  SeatPicker
	limit int
}

// NewRegistry builds an empty registry. A nil picker falls back to
// CryptoSeatPicker.
func NewRegistry(pick SeatPicker) *Registry {
	if pick == nil {
		pick = CryptoSeatPicker
	}
	return &Registry{rooms: make(map[string]*Room), pick: pick}
}

// SetLimit caps the number of rooms the registry will hold. Zero or
// negative means unlimited.
func (g *Registry) SetLimit(n int) {
	g.mu.Lock()
	g.limit = n
	g.mu.Unlock()
}

// Create registers a new room under id with creator seated at a random
// color and the other seat empty. ErrAlreadyExists when id is taken.
func (g *Registry) Create(id, creator string) (*Room, Seat, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.rooms[id]; exists {
		return nil, "", ErrAlreadyExists
	}
	if g.limit > 0 && len(g.rooms) >= g.limit {
		return nil, "", ErrCapacity
	}
	seat := g.pick()
	room := newRoom(id, creator, seat)
	g.rooms[id] = room
	return room, seat, nil
}

// Get looks up a room by id.
func (g *Registry) Get(id string) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	room, ok := g.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return room, nil
}

// Len reports the number of rooms currently registered.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

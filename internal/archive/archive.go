package archive

import (
	"context"
	"time"

	"github.com/park285/chess-arena/internal/arena"
)

// Record is the flattened final state of a completed room, the only
// thing this package ever sees. Live rooms stay strictly in-memory.
type Record struct {
	RoomID    string    `json:"room_id"`
	White     string    `json:"white"`
	Black     string    `json:"black"`
	Winner    string    `json:"winner,omitempty"`
	Reason    string    `json:"reason"`
	MovesUCI  []string  `json:"moves_uci"`
	MovesSAN  []string  `json:"moves_san"`
	FEN       string    `json:"fen"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// FromView builds a record from a room view. ok is false while the
// room has not completed.
func FromView(v arena.View) (*Record, bool) {
	if v.Status != arena.StatusComplete || v.Outcome == nil {
		return nil, false
	}
	return &Record{
		RoomID:    v.ID,
		White:     v.White,
		Black:     v.Black,
		Winner:    string(v.Outcome.Winner),
		Reason:    v.Outcome.Reason,
		MovesUCI:  append([]string(nil), v.MovesUCI...),
		MovesSAN:  append([]string(nil), v.MovesSAN...),
		FEN:       v.FEN,
		StartedAt: v.CreatedAt,
		EndedAt:   v.UpdatedAt,
	}, true
}

// Sink receives completed games. Implementations must tolerate repeated
// saves of the same room id.
type Sink interface {
	SaveResult(ctx context.Context, rec *Record) error
	Close() error
}

// NopSink is used when no archive backend is configured.
type NopSink struct{}

func (NopSink) SaveResult(context.Context, *Record) error { return nil }
func (NopSink) Close() error                              { return nil }

// MultiSink fans a record out to several backends; the first error is
// returned but every sink is attempted.
type MultiSink []Sink

func (m MultiSink) SaveResult(ctx context.Context, rec *Record) error {
	var first error
	for _, s := range m {
		if err := s.SaveResult(ctx, rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m MultiSink) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

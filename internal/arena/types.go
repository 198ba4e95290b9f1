package arena

import (
	"time"

	"github.com/park285/chess-arena/internal/rules"
)

// Seat identifies one of the two player slots.
type Seat string

const (
	SeatWhite Seat = "white"
	SeatBlack Seat = "black"
)

// Other returns the opposing seat.
func (s Seat) Other() Seat {
	if s == SeatWhite {
		return SeatBlack
	}
	return SeatWhite
}

// Status is the room lifecycle state. Transitions only ever move
// forward: WAITING → ACTIVE → COMPLETE.
type Status string

const (
	StatusWaiting  Status = "WAITING"
	StatusActive   Status = "ACTIVE"
	StatusComplete Status = "COMPLETE"
)

// Outcome is set exactly when a room reaches COMPLETE. Winner is empty
// for draws; Reason is "checkmate", "resignation", or a draw kind from
// the rules oracle ("stalemate", "repetition", ...).
type Outcome struct {
	Winner Seat   `json:"winner,omitempty"`
	Reason string `json:"reason"`
}

const ReasonResignation = "resignation"

// LastMove is the most recently accepted move, kept for highlighting
// and late-joining spectator context.
type LastMove struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
	SAN       string `json:"san"`
}

// View is an immutable snapshot of a room, safe to hand to the
// transport layer after the room mutex has been released.
type View struct {
	ID         string    `json:"id"`
	White      string    `json:"white,omitempty"`
	Black      string    `json:"black,omitempty"`
	Spectators []string  `json:"spectators,omitempty"`
	FEN        string    `json:"fen"`
	MovesUCI   []string  `json:"moves"`
	MovesSAN   []string  `json:"movesSan"`
	Status     Status    `json:"status"`
	ToMove     Seat      `json:"toMove,omitempty"`
	LastMove   *LastMove `json:"lastMove,omitempty"`
	Outcome    *Outcome  `json:"outcome,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Position rebuilds the opaque rules position from the view.
func (v View) Position() rules.Position {
	return rules.Position{FEN: v.FEN, MovesUCI: v.MovesUCI}
}

// Recoverable rejections. None of them mutate room state; all are
// reported only to the originating connection.
var (
	ErrNotFound      = errf("room not found")
	ErrAlreadyExists = errf("room already exists")
	ErrNotAPlayer    = errf("sender does not occupy a seat")
	ErrNotYourTurn   = errf("not sender's turn")
	ErrNotActive     = errf("room is not active")
	ErrCapacity      = errf("room capacity reached")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }

package rules

import "strings"

// Move is a proposed move in coordinate form. Promotion is the piece
// letter ("q", "r", "b", "n") or empty.
type Move struct {
	From      string
	To        string
	Promotion string
}

// UCI renders the move in UCI text ("e2e4", "e7e8q").
func (m Move) UCI() string {
	return strings.ToLower(strings.TrimSpace(m.From) + strings.TrimSpace(m.To) + strings.TrimSpace(m.Promotion))
}

// Termination classifies how a position ended the game, if it did.
type Termination string

const (
	TermNone         Termination = ""
	TermCheckmate    Termination = "checkmate"
	TermStalemate    Termination = "stalemate"
	TermRepetition   Termination = "repetition"
	TermInsufficient Termination = "insufficient_material"
	TermFiftyMoves   Termination = "fifty_moves"
)

// IsDraw reports whether the termination ends the game without a winner.
func (t Termination) IsDraw() bool {
	return t != TermNone && t != TermCheckmate
}

// Position is the opaque board snapshot the coordinator carries around:
// a FEN string for presentation plus the full UCI move list. The move
// list is authoritative; the game is always replayed from the start
// position, so FEN and moves cannot drift apart.
type Position struct {
	FEN      string   `json:"fen"`
	MovesUCI []string `json:"moves_uci"`
}

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// StartPosition returns the initial position with an empty move list.
func StartPosition() Position {
	return Position{FEN: startFEN, MovesUCI: []string{}}
}

// Verdict is the oracle's answer to an accepted move.
type Verdict struct {
	Position    Position
	SAN         string
	Check       bool
	Termination Termination
}

// ErrIllegalMove is returned by Apply when the move is not legal in the
// given position.
var ErrIllegalMove = staticErr("illegal move")

type staticErr string

func (e staticErr) Error() string { return string(e) }

// Oracle is the pure, synchronous rules engine the coordinator consults.
// It holds no state; both methods are safe for concurrent use.
type Oracle interface {
	// LegalMoves lists every legal move in UCI for the side to move.
	LegalMoves(pos Position) ([]string, error)
	// Apply validates mv against pos and returns the successor position
	// together with check and termination facts. ErrIllegalMove when the
	// move is not playable.
	Apply(pos Position, mv Move) (Verdict, error)
}

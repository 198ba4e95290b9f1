package coord

import "github.com/park285/chess-arena/internal/arena"

// CommandType tags the closed set of client commands. Anything else is
// a protocol error to the sender, never a broadcast.
type CommandType string

const (
	CmdCreateRoom CommandType = "createRoom"
	CmdJoinRoom   CommandType = "joinRoom"
	CmdMove       CommandType = "move"
	CmdResign     CommandType = "resign"
)

// Command is the wire envelope for every client frame. Fields beyond
// Type and ID are populated per command.
type Command struct {
	Type CommandType `json:"type"`
	ID   string      `json:"id"`

	// joinRoom
	AsSpectator bool `json:"asSpectator,omitempty"`

	// move
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Promotion string `json:"promotion,omitempty"`
}

// EventType tags server frames.
type EventType string

const (
	EvtRoomCreated EventType = "roomCreated"
	EvtRoomJoined  EventType = "roomJoined"
	EvtRoomState   EventType = "roomState"
	EvtMoveApplied EventType = "moveApplied"
	EvtGameOver    EventType = "gameOver"
	EvtError       EventType = "error"
)

// Event is the wire envelope for every server frame.
type Event struct {
	Type EventType `json:"type"`
	ID   string    `json:"id,omitempty"`

	// roomCreated / roomJoined; empty seat means spectator
	Seat arena.Seat `json:"seat,omitempty"`

	// roomState
	Room *arena.View `json:"room,omitempty"`

	// moveApplied
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Promotion string `json:"promotion,omitempty"`
	SAN       string `json:"san,omitempty"`

	// gameOver
	Reason string     `json:"reason,omitempty"`
	Winner arena.Seat `json:"winner,omitempty"`

	// error
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func roomCreatedEvent(id string, seat arena.Seat) Event {
	return Event{Type: EvtRoomCreated, ID: id, Seat: seat}
}

func roomJoinedEvent(id string, seat arena.Seat) Event {
	return Event{Type: EvtRoomJoined, ID: id, Seat: seat}
}

func roomStateEvent(v arena.View) Event {
	return Event{Type: EvtRoomState, ID: v.ID, Room: &v}
}

func moveAppliedEvent(id string, lm arena.LastMove) Event {
	return Event{Type: EvtMoveApplied, ID: id, From: lm.From, To: lm.To, Promotion: lm.Promotion, SAN: lm.SAN}
}

func gameOverEvent(id string, out arena.Outcome) Event {
	return Event{Type: EvtGameOver, ID: id, Reason: out.Reason, Winner: out.Winner}
}

// ErrBadCommand covers malformed frames: unknown type, missing room id,
// missing move squares.
var ErrBadCommand = protoErr("malformed command")

type protoErr string

func (e protoErr) Error() string { return string(e) }

package coord

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/park285/chess-arena/internal/archive"
	"github.com/park285/chess-arena/internal/arena"
	"github.com/park285/chess-arena/internal/rules"
)

type fakeSender struct {
	user   string
	mu     sync.Mutex
	events []Event
}

func (f *fakeSender) UserID() string { return f.user }

func (f *fakeSender) Deliver(e Event) {
	f.mu.Lock()
	f.events = append(f.events, e)
	f.mu.Unlock()
}

func (f *fakeSender) last(t *testing.T) Event {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		t.Fatalf("sender %s received no events", f.user)
	}
	return f.events[len(f.events)-1]
}

func (f *fakeSender) byType(typ EventType) []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Event
	for _, e := range f.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// fakeHub fans events out to joined fake senders, mirroring the ws hub
// without any sockets.
type fakeHub struct {
	mu    sync.Mutex
	rooms map[string]map[Sender]struct{}
}

func newFakeHub() *fakeHub { return &fakeHub{rooms: make(map[string]map[Sender]struct{})} }

func (h *fakeHub) Join(roomID string, s Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[Sender]struct{})
	}
	h.rooms[roomID][s] = struct{}{}
}

func (h *fakeHub) Broadcast(roomID string, e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.rooms[roomID] {
		s.Deliver(e)
	}
}

type scriptOracle struct {
	illegal     map[string]bool
	terminateOn map[string]rules.Termination
}

func newScriptOracle() *scriptOracle {
	return &scriptOracle{illegal: map[string]bool{}, terminateOn: map[string]rules.Termination{}}
}

func (o *scriptOracle) LegalMoves(rules.Position) ([]string, error) { return nil, nil }

func (o *scriptOracle) Apply(pos rules.Position, mv rules.Move) (rules.Verdict, error) {
	uci := mv.UCI()
	if o.illegal[uci] {
		return rules.Verdict{}, rules.ErrIllegalMove
	}
	moves := append(append([]string(nil), pos.MovesUCI...), uci)
	return rules.Verdict{
		Position:    rules.Position{FEN: fmt.Sprintf("stub-fen-%d", len(moves)), MovesUCI: moves},
		SAN:         uci,
		Termination: o.terminateOn[uci],
	}, nil
}

type fixture struct {
	coord  *Coordinator
	oracle *scriptOracle
	white  *fakeSender
	black  *fakeSender
}

// newFixture builds a coordinator with a pinned seat picker (creator is
// always white) and an active room "g1" with alice/bob seated.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	oracle := newScriptOracle()
	reg := arena.NewRegistry(func() arena.Seat { return arena.SeatWhite })
	c := New(reg, oracle, newFakeHub())

	white := &fakeSender{user: "alice"}
	black := &fakeSender{user: "bob"}
	ctx := context.Background()
	c.Handle(ctx, white, Command{Type: CmdCreateRoom, ID: "g1"})
	c.Handle(ctx, black, Command{Type: CmdJoinRoom, ID: "g1"})
	return &fixture{coord: c, oracle: oracle, white: white, black: black}
}

func TestCreateRoomAssignsSeat(t *testing.T) {
	reg := arena.NewRegistry(func() arena.Seat { return arena.SeatBlack })
	c := New(reg, newScriptOracle(), newFakeHub())
	s := &fakeSender{user: "alice"}
	c.Handle(context.Background(), s, Command{Type: CmdCreateRoom, ID: "g1"})

	created := s.byType(EvtRoomCreated)
	if len(created) != 1 || created[0].Seat != arena.SeatBlack {
		t.Fatalf("unexpected roomCreated: %+v", created)
	}
	states := s.byType(EvtRoomState)
	if len(states) != 1 || states[0].Room.Status != arena.StatusWaiting {
		t.Fatalf("creator must see a WAITING roomState: %+v", states)
	}
}

func TestDuplicateCreateRejectedOnlyToOrigin(t *testing.T) {
	f := newFixture(t)
	intruder := &fakeSender{user: "carol"}
	whiteBefore := len(f.white.events)

	f.coord.Handle(context.Background(), intruder, Command{Type: CmdCreateRoom, ID: "g1"})

	e := intruder.last(t)
	if e.Type != EvtError || e.Code != "ALREADY_EXISTS" {
		t.Fatalf("expected ALREADY_EXISTS error, got %+v", e)
	}
	if len(f.white.events) != whiteBefore {
		t.Fatalf("rejection must not broadcast to the room")
	}
}

func TestJoinActivatesAndBroadcasts(t *testing.T) {
	f := newFixture(t)

	joined := f.black.byType(EvtRoomJoined)
	if len(joined) != 1 || joined[0].Seat != arena.SeatBlack {
		t.Fatalf("joiner must fill the empty seat: %+v", joined)
	}
	// Both players saw the activation roomState with white to move.
	for _, s := range []*fakeSender{f.white, f.black} {
		states := s.byType(EvtRoomState)
		last := states[len(states)-1]
		if last.Room.Status != arena.StatusActive || last.Room.ToMove != arena.SeatWhite {
			t.Fatalf("%s missed activation state: %+v", s.user, last.Room)
		}
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	f := newFixture(t)
	s := &fakeSender{user: "carol"}
	f.coord.Handle(context.Background(), s, Command{Type: CmdJoinRoom, ID: "nope"})
	if e := s.last(t); e.Type != EvtError || e.Code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %+v", e)
	}
}

func TestMoveBroadcastsAndFlipsTurn(t *testing.T) {
	f := newFixture(t)
	f.coord.Handle(context.Background(), f.white, Command{Type: CmdMove, ID: "g1", From: "e2", To: "e4"})

	applied := f.black.byType(EvtMoveApplied)
	if len(applied) != 1 || applied[0].From != "e2" || applied[0].To != "e4" {
		t.Fatalf("opponent missed moveApplied: %+v", applied)
	}
	states := f.black.byType(EvtRoomState)
	last := states[len(states)-1]
	if last.Room.ToMove != arena.SeatBlack {
		t.Fatalf("turn must flip to black: %+v", last.Room)
	}
	if last.Room.LastMove == nil || last.Room.LastMove.From != "e2" {
		t.Fatalf("lastMove missing from broadcast: %+v", last.Room)
	}
}

func TestIllegalMoveRejectedWithoutBroadcast(t *testing.T) {
	f := newFixture(t)
	f.oracle.illegal["e2e5"] = true
	blackBefore := len(f.black.events)

	f.coord.Handle(context.Background(), f.white, Command{Type: CmdMove, ID: "g1", From: "e2", To: "e5"})

	if e := f.white.last(t); e.Type != EvtError || e.Code != "ILLEGAL_MOVE" {
		t.Fatalf("expected ILLEGAL_MOVE, got %+v", e)
	}
	if len(f.black.events) != blackBefore {
		t.Fatalf("rejected move must not reach the opponent")
	}
}

func TestMoveOutOfTurn(t *testing.T) {
	f := newFixture(t)
	f.coord.Handle(context.Background(), f.black, Command{Type: CmdMove, ID: "g1", From: "e7", To: "e5"})
	if e := f.black.last(t); e.Type != EvtError || e.Code != "NOT_YOUR_TURN" {
		t.Fatalf("expected NOT_YOUR_TURN, got %+v", e)
	}
}

func TestSpectatorCannotMove(t *testing.T) {
	f := newFixture(t)
	spec := &fakeSender{user: "carol"}
	ctx := context.Background()
	f.coord.Handle(ctx, spec, Command{Type: CmdJoinRoom, ID: "g1"})

	joined := spec.byType(EvtRoomJoined)
	if len(joined) != 1 || joined[0].Seat != "" {
		t.Fatalf("late joiner must become spectator: %+v", joined)
	}
	// The spectator received the current room state for context.
	if states := spec.byType(EvtRoomState); len(states) == 0 {
		t.Fatalf("spectator must receive roomState on join")
	}

	f.coord.Handle(ctx, spec, Command{Type: CmdMove, ID: "g1", From: "e2", To: "e4"})
	if e := spec.last(t); e.Type != EvtError || e.Code != "NOT_A_PLAYER" {
		t.Fatalf("expected NOT_A_PLAYER, got %+v", e)
	}
}

func TestCheckmateEndsGame(t *testing.T) {
	f := newFixture(t)
	f.oracle.terminateOn["d8h4"] = rules.TermCheckmate
	ctx := context.Background()

	f.coord.Handle(ctx, f.white, Command{Type: CmdMove, ID: "g1", From: "f2", To: "f3"})
	f.coord.Handle(ctx, f.black, Command{Type: CmdMove, ID: "g1", From: "d8", To: "h4"})

	over := f.white.byType(EvtGameOver)
	if len(over) != 1 || over[0].Reason != "checkmate" || over[0].Winner != arena.SeatBlack {
		t.Fatalf("unexpected gameOver: %+v", over)
	}

	// Any further play is NOT_ACTIVE and the outcome is frozen.
	f.coord.Handle(ctx, f.white, Command{Type: CmdMove, ID: "g1", From: "e2", To: "e4"})
	if e := f.white.last(t); e.Type != EvtError || e.Code != "NOT_ACTIVE" {
		t.Fatalf("expected NOT_ACTIVE after completion, got %+v", e)
	}
	f.coord.Handle(ctx, f.black, Command{Type: CmdResign, ID: "g1"})
	if e := f.black.last(t); e.Type != EvtError || e.Code != "NOT_ACTIVE" {
		t.Fatalf("expected NOT_ACTIVE on resign after completion, got %+v", e)
	}
}

func TestResignAwardsOpponent(t *testing.T) {
	f := newFixture(t)
	f.coord.Handle(context.Background(), f.black, Command{Type: CmdResign, ID: "g1"})

	over := f.white.byType(EvtGameOver)
	if len(over) != 1 || over[0].Reason != arena.ReasonResignation || over[0].Winner != arena.SeatWhite {
		t.Fatalf("unexpected gameOver after resignation: %+v", over)
	}
	states := f.white.byType(EvtRoomState)
	last := states[len(states)-1]
	if last.Room.Status != arena.StatusComplete {
		t.Fatalf("room must be COMPLETE after resignation: %+v", last.Room)
	}
}

func TestCompletedGameIsArchived(t *testing.T) {
	f := newFixture(t)
	sink := &memSink{}
	f.coord.AttachSink(sink)

	f.coord.Handle(context.Background(), f.black, Command{Type: CmdResign, ID: "g1"})

	recs := sink.records()
	if len(recs) != 1 {
		t.Fatalf("expected one archived record, got %d", len(recs))
	}
	rec := recs[0]
	if rec.RoomID != "g1" || rec.Winner != "white" || rec.Reason != arena.ReasonResignation {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestUnknownCommandType(t *testing.T) {
	f := newFixture(t)
	f.coord.Handle(context.Background(), f.white, Command{Type: "shout", ID: "g1"})
	if e := f.white.last(t); e.Type != EvtError || e.Code != "BAD_COMMAND" {
		t.Fatalf("expected BAD_COMMAND, got %+v", e)
	}
}

func TestViewReplaysAgainstOracle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	line := []Command{
		{Type: CmdMove, ID: "g1", From: "e2", To: "e4"},
		{Type: CmdMove, ID: "g1", From: "e7", To: "e5"},
		{Type: CmdMove, ID: "g1", From: "g1", To: "f3"},
	}
	senders := []*fakeSender{f.white, f.black, f.white}
	for i, cmd := range line {
		f.coord.Handle(ctx, senders[i], cmd)
	}

	states := f.white.byType(EvtRoomState)
	final := states[len(states)-1].Room

	// Replaying the accepted moves through the oracle from the start
	// position reproduces the recorded position exactly.
	pos := rules.StartPosition()
	for _, uci := range final.MovesUCI {
		v, err := f.oracle.Apply(pos, rules.Move{From: uci[:2], To: uci[2:4]})
		if err != nil {
			t.Fatalf("replay %q: %v", uci, err)
		}
		pos = v.Position
	}
	if pos.FEN != final.FEN {
		t.Fatalf("position diverged: %q vs %q", pos.FEN, final.FEN)
	}
}

type memSink struct {
	mu   sync.Mutex
	recs []*archive.Record
}

func (m *memSink) SaveResult(_ context.Context, rec *archive.Record) error {
	m.mu.Lock()
	m.recs = append(m.recs, rec)
	m.mu.Unlock()
	return nil
}

func (m *memSink) Close() error { return nil }

func (m *memSink) records() []*archive.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*archive.Record(nil), m.recs...)
}

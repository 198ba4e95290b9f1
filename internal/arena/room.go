package arena

import (
	"sort"
	"sync"
	"time"

	"github.com/park285/chess-arena/internal/rules"
)

// Room is one game instance plus its spectators. Every mutation and
// every oracle consultation happens under the room mutex, so commands
// targeting the same room are fully serialized while distinct rooms
// proceed in parallel.
type Room struct {
	mu sync.Mutex

	id         string
	white      string
	black      string
	spectators map[string]struct{}

	pos      rules.Position
	movesSAN []string
	status   Status
	toMove   Seat
	lastMove *LastMove
	outcome  *Outcome

	createdAt time.Time
	updatedAt time.Time
}

func newRoom(id, creator string, seat Seat) *Room {
	now := time.Now()
	r := &Room{
		id:         id,
		spectators: make(map[string]struct{}),
		pos:        rules.StartPosition(),
		movesSAN:   []string{},
		status:     StatusWaiting,
		createdAt:  now,
		updatedAt:  now,
	}
	if seat == SeatBlack {
		r.black = creator
	} else {
		r.white = creator
	}
	return r
}

// ID is immutable after creation and safe to read without the lock.
func (r *Room) ID() string { return r.id }

// SeatOf reports the seat occupied by user, if any.
func (r *Room) SeatOf(user string) (Seat, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seatOf(user)
}

func (r *Room) seatOf(user string) (Seat, bool) {
	switch {
	case user != "" && user == r.white:
		return SeatWhite, true
	case user != "" && user == r.black:
		return SeatBlack, true
	default:
		return "", false
	}
}

// Join attaches user to the room. Without asSpectator the user fills
// the vacant seat when there is one, otherwise falls back to spectator;
// filling the second seat activates the room. Joining is idempotent: a
// seated user keeps their seat, a known spectator stays a spectator.
// The returned seat is empty for spectators.
func (r *Room) Join(user string, asSpectator bool) (Seat, View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seat, ok := r.seatOf(user); ok {
		return seat, r.view(), nil
	}

	vacant, hasVacant := r.vacantSeat()
	if asSpectator || !hasVacant || r.status != StatusWaiting {
		r.spectators[user] = struct{}{}
		return "", r.view(), nil
	}

	// A spectator claiming a seat gives up the spectator role; one
	// identity holds at most one role per room.
	delete(r.spectators, user)
	if vacant == SeatWhite {
		r.white = user
	} else {
		r.black = user
	}
	if r.white != "" && r.black != "" {
		r.status = StatusActive
		r.toMove = SeatWhite
	}
	r.updatedAt = time.Now()
	return vacant, r.view(), nil
}

func (r *Room) vacantSeat() (Seat, bool) {
	switch {
	case r.white == "":
		return SeatWhite, true
	case r.black == "":
		return SeatBlack, true
	default:
		return "", false
	}
}

// Move validates and applies mv for user. The oracle call happens under
// the room mutex; it is pure computation with no I/O. Rejections leave
// the room untouched.
func (r *Room) Move(user string, mv rules.Move, oracle rules.Oracle) (View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusActive {
		return View{}, ErrNotActive
	}
	seat, ok := r.seatOf(user)
	if !ok {
		return View{}, ErrNotAPlayer
	}
	if seat != r.toMove {
		return View{}, ErrNotYourTurn
	}

	verdict, err := oracle.Apply(r.pos, mv)
	if err != nil {
		return View{}, err
	}

	r.pos = verdict.Position
	r.movesSAN = append(r.movesSAN, verdict.SAN)
	r.lastMove = &LastMove{From: mv.From, To: mv.To, Promotion: mv.Promotion, SAN: verdict.SAN}
	r.updatedAt = time.Now()

	if verdict.Termination == rules.TermNone {
		r.toMove = seat.Other()
		return r.view(), nil
	}

	out := &Outcome{Reason: string(verdict.Termination)}
	if verdict.Termination == rules.TermCheckmate {
		out.Winner = seat
	}
	r.complete(out)
	return r.view(), nil
}

// Resign completes the room in favor of the opposing seat, regardless
// of board material.
func (r *Room) Resign(user string) (View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusActive {
		return View{}, ErrNotActive
	}
	seat, ok := r.seatOf(user)
	if !ok {
		return View{}, ErrNotAPlayer
	}
	r.complete(&Outcome{Winner: seat.Other(), Reason: ReasonResignation})
	r.updatedAt = time.Now()
	return r.view(), nil
}

func (r *Room) complete(out *Outcome) {
	r.status = StatusComplete
	r.toMove = ""
	r.outcome = out
}

// View returns a consistent snapshot of the room.
func (r *Room) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view()
}

func (r *Room) view() View {
	specs := make([]string, 0, len(r.spectators))
	for s := range r.spectators {
		specs = append(specs, s)
	}
	sort.Strings(specs)

	v := View{
		ID:         r.id,
		White:      r.white,
		Black:      r.black,
		Spectators: specs,
		FEN:        r.pos.FEN,
		MovesUCI:   append([]string(nil), r.pos.MovesUCI...),
		MovesSAN:   append([]string(nil), r.movesSAN...),
		Status:     r.status,
		ToMove:     r.toMove,
		CreatedAt:  r.createdAt,
		UpdatedAt:  r.updatedAt,
	}
	if r.lastMove != nil {
		lm := *r.lastMove
		v.LastMove = &lm
	}
	if r.outcome != nil {
		out := *r.outcome
		v.Outcome = &out
	}
	return v
}

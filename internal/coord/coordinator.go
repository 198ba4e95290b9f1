package coord

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/chess-arena/internal/archive"
	"github.com/park285/chess-arena/internal/arena"
	"github.com/park285/chess-arena/internal/msgcat"
	"github.com/park285/chess-arena/internal/obslog"
	"github.com/park285/chess-arena/internal/rules"
)

// Sender is one connected participant as the coordinator sees it:
// a stable identity plus a way to answer only that connection.
type Sender interface {
	UserID() string
	Deliver(Event)
}

// Broadcaster is the transport surface the coordinator pushes through:
// room membership plus fan-out to everyone currently in a room.
type Broadcaster interface {
	Join(roomID string, s Sender)
	Broadcast(roomID string, e Event)
}

// Coordinator validates every inbound command against room, seat and
// turn invariants before touching room state or the rules oracle.
// Commands from one connection arrive in order because the transport
// calls Handle synchronously from its read loop; per-room serialization
// is the room's own mutex.
type Coordinator struct {
	registry *arena.Registry
	oracle   rules.Oracle
	hub      Broadcaster
	sink     archive.Sink
	cat      *msgcat.Catalog
}

func New(registry *arena.Registry, oracle rules.Oracle, hub Broadcaster) *Coordinator {
	return &Coordinator{registry: registry, oracle: oracle, hub: hub, sink: archive.NopSink{}}
}

// AttachSink wires a completed-game archive. Optional; the default is
// a no-op.
func (c *Coordinator) AttachSink(s archive.Sink) {
	if c != nil && s != nil {
		c.sink = s
	}
}

// AttachCatalog wires the client-facing message catalog. Optional;
// without it reject messages fall back to the sentinel error text.
func (c *Coordinator) AttachCatalog(cat *msgcat.Catalog) {
	if c != nil {
		c.cat = cat
	}
}

// Handle processes one command from sender. Rejections go only to the
// originating connection and never mutate room state or broadcast.
func (c *Coordinator) Handle(ctx context.Context, sender Sender, cmd Command) {
	switch cmd.Type {
	case CmdCreateRoom:
		c.handleCreate(sender, cmd)
	case CmdJoinRoom:
		c.handleJoin(sender, cmd)
	case CmdMove:
		c.handleMove(ctx, sender, cmd)
	case CmdResign:
		c.handleResign(ctx, sender, cmd)
	default:
		c.reject(sender, cmd, ErrBadCommand)
	}
}

func (c *Coordinator) handleCreate(sender Sender, cmd Command) {
	id := strings.TrimSpace(cmd.ID)
	if id == "" {
		c.reject(sender, cmd, ErrBadCommand)
		return
	}
	room, seat, err := c.registry.Create(id, sender.UserID())
	if err != nil {
		c.reject(sender, cmd, err)
		return
	}
	c.hub.Join(id, sender)
	sender.Deliver(roomCreatedEvent(id, seat))
	c.hub.Broadcast(id, roomStateEvent(room.View()))
	obslog.L().Info("room_create",
		zap.String("room_id", id),
		zap.String("user_id", sender.UserID()),
		zap.String("seat", string(seat)),
	)
}

func (c *Coordinator) handleJoin(sender Sender, cmd Command) {
	room, err := c.registry.Get(strings.TrimSpace(cmd.ID))
	if err != nil {
		c.reject(sender, cmd, err)
		return
	}
	seat, view, err := room.Join(sender.UserID(), cmd.AsSpectator)
	if err != nil {
		c.reject(sender, cmd, err)
		return
	}
	c.hub.Join(room.ID(), sender)
	sender.Deliver(roomJoinedEvent(room.ID(), seat))
	c.hub.Broadcast(room.ID(), roomStateEvent(view))
	obslog.L().Info("room_join",
		zap.String("room_id", room.ID()),
		zap.String("user_id", sender.UserID()),
		zap.String("seat", string(seat)),
		zap.String("status", string(view.Status)),
	)
}

func (c *Coordinator) handleMove(ctx context.Context, sender Sender, cmd Command) {
	if strings.TrimSpace(cmd.From) == "" || strings.TrimSpace(cmd.To) == "" {
		c.reject(sender, cmd, ErrBadCommand)
		return
	}
	room, err := c.registry.Get(strings.TrimSpace(cmd.ID))
	if err != nil {
		c.reject(sender, cmd, err)
		return
	}
	mv := rules.Move{From: cmd.From, To: cmd.To, Promotion: cmd.Promotion}
	view, err := room.Move(sender.UserID(), mv, c.oracle)
	if err != nil {
		c.reject(sender, cmd, err)
		return
	}

	c.hub.Broadcast(room.ID(), moveAppliedEvent(room.ID(), *view.LastMove))
	c.hub.Broadcast(room.ID(), roomStateEvent(view))
	obslog.L().Info("move_apply",
		zap.String("room_id", room.ID()),
		zap.String("user_id", sender.UserID()),
		zap.String("uci", mv.UCI()),
		zap.String("status", string(view.Status)),
	)
	c.finishIfComplete(ctx, view)
}

func (c *Coordinator) handleResign(ctx context.Context, sender Sender, cmd Command) {
	room, err := c.registry.Get(strings.TrimSpace(cmd.ID))
	if err != nil {
		c.reject(sender, cmd, err)
		return
	}
	view, err := room.Resign(sender.UserID())
	if err != nil {
		c.reject(sender, cmd, err)
		return
	}
	c.hub.Broadcast(room.ID(), roomStateEvent(view))
	obslog.L().Info("resign",
		zap.String("room_id", room.ID()),
		zap.String("user_id", sender.UserID()),
		zap.String("winner", string(view.Outcome.Winner)),
	)
	c.finishIfComplete(ctx, view)
}

// finishIfComplete broadcasts the terminal event and hands the final
// game to the archive. Runs after the room mutex is released; archive
// failures are logged, never surfaced into play.
func (c *Coordinator) finishIfComplete(ctx context.Context, view arena.View) {
	rec, ok := archive.FromView(view)
	if !ok {
		return
	}
	c.hub.Broadcast(view.ID, gameOverEvent(view.ID, *view.Outcome))
	obslog.L().Info("game_over",
		zap.String("room_id", view.ID),
		zap.String("reason", view.Outcome.Reason),
		zap.String("winner", string(view.Outcome.Winner)),
	)
	if err := c.sink.SaveResult(ctx, rec); err != nil {
		obslog.L().Error("archive_error", zap.String("room_id", view.ID), zap.Error(err))
	}
}

func (c *Coordinator) reject(sender Sender, cmd Command, err error) {
	code := codeFor(err)
	data := map[string]string{
		"ID":   strings.TrimSpace(cmd.ID),
		"Move": rules.Move{From: cmd.From, To: cmd.To, Promotion: cmd.Promotion}.UCI(),
	}
	msg := c.cat.RenderOr("reject."+strings.ToLower(code), data, err.Error())
	sender.Deliver(Event{Type: EvtError, ID: strings.TrimSpace(cmd.ID), Code: code, Message: msg})
	obslog.L().Debug("command_reject",
		zap.String("room_id", strings.TrimSpace(cmd.ID)),
		zap.String("user_id", sender.UserID()),
		zap.String("type", string(cmd.Type)),
		zap.String("code", code),
	)
	if code == "INTERNAL" {
		obslog.L().Error("command_error",
			zap.String("room_id", strings.TrimSpace(cmd.ID)),
			zap.String("type", string(cmd.Type)),
			zap.Error(err),
		)
	}
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, arena.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, arena.ErrAlreadyExists):
		return "ALREADY_EXISTS"
	case errors.Is(err, arena.ErrNotAPlayer):
		return "NOT_A_PLAYER"
	case errors.Is(err, arena.ErrNotYourTurn):
		return "NOT_YOUR_TURN"
	case errors.Is(err, arena.ErrNotActive):
		return "NOT_ACTIVE"
	case errors.Is(err, arena.ErrCapacity):
		return "CAPACITY"
	case errors.Is(err, rules.ErrIllegalMove):
		return "ILLEGAL_MOVE"
	case errors.Is(err, ErrBadCommand):
		return "BAD_COMMAND"
	default:
		return "INTERNAL"
	}
}

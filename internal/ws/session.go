package ws

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/chess-arena/internal/coord"
	"github.com/park285/chess-arena/internal/obslog"
)

const (
	// Per-session egress buffer. A session that cannot drain this many
	// frames is considered stuck and starts dropping.
	egressBuffer = 64

	writeTimeout = 5 * time.Second
)

// Session is one websocket connection bound to one user identity. All
// writes go through the out channel so a single writer goroutine owns
// the connection; wsjson.Write is not safe for concurrent use.
type Session struct {
	id   string
	user string
	conn *websocket.Conn

	out       chan coord.Event
	closeOnce sync.Once
	done      chan struct{}
}

func newSession(user string, conn *websocket.Conn) *Session {
	return &Session{
		id:   uuid.NewString(),
		user: user,
		conn: conn,
		out:  make(chan coord.Event, egressBuffer),
		done: make(chan struct{}),
	}
}

func (s *Session) UserID() string { return s.user }

// Deliver queues an event for the writer goroutine. Never blocks the
// caller: a full buffer means the peer stopped reading, and one slow
// connection must not stall a room broadcast.
func (s *Session) Deliver(e coord.Event) {
	select {
	case <-s.done:
	case s.out <- e:
	default:
		obslog.L().Warn("session_egress_drop",
			zap.String("session_id", s.id),
			zap.String("user_id", s.user),
			zap.String("event", string(e.Type)),
		)
	}
}

// writeLoop drains the egress buffer onto the wire. Exits on the first
// write failure or when the session is closed; the read loop notices
// via the connection.
func (s *Session) writeLoop(ctx context.Context) {
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case e := <-s.out:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, s.conn, e)
			cancel()
			if err != nil {
				obslog.L().Debug("session_write_error",
					zap.String("session_id", s.id),
					zap.String("user_id", s.user),
					zap.Error(err),
				)
				return
			}
		}
	}
}

func (s *Session) close(code websocket.StatusCode, reason string) {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close(code, reason)
	})
}

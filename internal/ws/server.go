package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/chess-arena/internal/coord"
	"github.com/park285/chess-arena/internal/obslog"
)

// Server upgrades HTTP requests to websocket sessions and pumps each
// connection's frames through the coordinator. Handle is called
// synchronously from the read loop, so commands from one connection are
// processed in arrival order.
type Server struct {
	coord          *coord.Coordinator
	hub            *Hub
	allowedOrigins []string
}

func NewServer(c *coord.Coordinator, hub *Hub, allowedOrigins []string) *Server {
	return &Server{coord: c, hub: hub, allowedOrigins: allowedOrigins}
}

// ServeHTTP handles the /ws endpoint. Identity comes from the
// X-User-Id header, falling back to the user query parameter; requests
// without one are refused before the upgrade.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if user == "" {
		user = strings.TrimSpace(r.URL.Query().Get("user"))
	}
	if user == "" {
		http.Error(w, "missing user identity", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  s.allowedOrigins,
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		obslog.L().Warn("ws_accept_error", zap.String("user_id", user), zap.Error(err))
		return
	}

	sess := newSession(user, conn)
	obslog.L().Info("session_open",
		zap.String("session_id", sess.id),
		zap.String("user_id", user),
		zap.String("remote", r.RemoteAddr),
	)

	ctx := r.Context()
	go sess.writeLoop(ctx)
	s.readLoop(ctx, sess)

	s.hub.Drop(sess)
	sess.close(websocket.StatusNormalClosure, "bye")
	obslog.L().Info("session_close",
		zap.String("session_id", sess.id),
		zap.String("user_id", user),
	)
}

func (s *Server) readLoop(ctx context.Context, sess *Session) {
	for {
		var cmd coord.Command
		if err := wsjson.Read(ctx, sess.conn, &cmd); err != nil {
			var ce websocket.CloseError
			if errors.As(err, &ce) && ce.Code == websocket.StatusNormalClosure {
				return
			}
			obslog.L().Debug("session_read_error",
				zap.String("session_id", sess.id),
				zap.String("user_id", sess.user),
				zap.Error(err),
			)
			return
		}
		s.coord.Handle(ctx, sess, cmd)
	}
}

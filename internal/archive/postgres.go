package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// PostgresSink upserts completed games into the games table, including
// a rendered PGN so records are useful outside this service.
type PostgresSink struct {
	db *sql.DB
}

func NewPostgresSink(databaseURL string) (*PostgresSink, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("database url required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &PostgresSink{db: db}, nil
}

func (s *PostgresSink) SaveResult(ctx context.Context, rec *Record) error {
	if rec == nil {
		return nil
	}
	movesUCI, _ := json.Marshal(rec.MovesUCI)
	movesSAN, _ := json.Marshal(rec.MovesSAN)
	duration := rec.EndedAt.Sub(rec.StartedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	const q = `INSERT INTO games (
	    room_id, white_id, black_id,
	    winner, reason, final_fen,
	    moves_uci, moves_san, pgn,
	    started_at, ended_at, duration_ms
	  ) VALUES (
	    $1,$2,$3,$4,$5,$6,$7::jsonb,$8::jsonb,$9,$10,$11,$12
	  ) ON CONFLICT (room_id) DO UPDATE SET
	    white_id=EXCLUDED.white_id,
	    black_id=EXCLUDED.black_id,
	    winner=EXCLUDED.winner,
	    reason=EXCLUDED.reason,
	    final_fen=EXCLUDED.final_fen,
	    moves_uci=EXCLUDED.moves_uci,
	    moves_san=EXCLUDED.moves_san,
	    pgn=EXCLUDED.pgn,
	    started_at=EXCLUDED.started_at,
	    ended_at=EXCLUDED.ended_at,
	    duration_ms=EXCLUDED.duration_ms`

	_, err := s.db.ExecContext(ctx, q,
		rec.RoomID, rec.White, rec.Black,
		rec.Winner, rec.Reason, rec.FEN,
		string(movesUCI), string(movesSAN), BuildPGN(rec),
		rec.StartedAt, rec.EndedAt, duration,
	)
	return err
}

func (s *PostgresSink) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

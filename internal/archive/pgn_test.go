package archive

import (
	"strings"
	"testing"
	"time"
)

func TestBuildPGNWinner(t *testing.T) {
	rec := &Record{
		RoomID:   "g1",
		White:    "alice",
		Black:    "bob",
		Winner:   "black",
		Reason:   "checkmate",
		MovesSAN: []string{"f3", "e5", "g4", "Qh4#"},
		EndedAt:  time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC),
	}
	pgn := BuildPGN(rec)
	for _, want := range []string{
		"[White \"alice\"]",
		"[Black \"bob\"]",
		"[Date \"2025.03.09\"]",
		"[Termination \"checkmate\"]",
		"[Result \"0-1\"]",
		"1. f3 e5",
		"2. g4 Qh4#",
	} {
		if !strings.Contains(pgn, want) {
			t.Fatalf("PGN missing %q:\n%s", want, pgn)
		}
	}
	if !strings.HasSuffix(pgn, "0-1") {
		t.Fatalf("movetext must end with result token:\n%s", pgn)
	}
}

func TestBuildPGNDraw(t *testing.T) {
	rec := &Record{RoomID: "g2", Reason: "stalemate", MovesSAN: []string{"e4"}}
	if pgn := BuildPGN(rec); !strings.Contains(pgn, "[Result \"1/2-1/2\"]") {
		t.Fatalf("draw must render 1/2-1/2:\n%s", pgn)
	}
}

func TestBuildPGNSanitizesNames(t *testing.T) {
	rec := &Record{RoomID: "g3", White: `al"ice`, Winner: "white"}
	if pgn := BuildPGN(rec); strings.Contains(pgn, `al"ice`) {
		t.Fatalf("quotes must be sanitized:\n%s", pgn)
	}
}

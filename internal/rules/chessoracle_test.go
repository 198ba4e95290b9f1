package rules

import (
	"errors"
	"strings"
	"testing"
)

func TestLegalMovesAtStart(t *testing.T) {
	o := NewChessOracle()
	moves, err := o.LegalMoves(StartPosition())
	if err != nil {
		t.Fatalf("LegalMoves: %v", err)
	}
	if len(moves) != 20 {
		t.Fatalf("expected 20 legal opening moves, got %d (%v)", len(moves), moves)
	}
	found := false
	for _, mv := range moves {
		if mv == "e2e4" {
			found = true
		}
	}
	if !found {
		t.Fatalf("e2e4 missing from legal moves: %v", moves)
	}
}

func TestApplyLegalMove(t *testing.T) {
	o := NewChessOracle()
	v, err := o.Apply(StartPosition(), Move{From: "e2", To: "e4"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if v.SAN != "e4" {
		t.Fatalf("unexpected SAN: %q", v.SAN)
	}
	if v.Termination != TermNone || v.Check {
		t.Fatalf("unexpected verdict flags: term=%q check=%v", v.Termination, v.Check)
	}
	if len(v.Position.MovesUCI) != 1 || v.Position.MovesUCI[0] != "e2e4" {
		t.Fatalf("move list not extended: %v", v.Position.MovesUCI)
	}
	if !strings.Contains(v.Position.FEN, " b ") {
		t.Fatalf("FEN should show black to move: %q", v.Position.FEN)
	}
}

func TestApplyIllegalMove(t *testing.T) {
	o := NewChessOracle()
	cases := []Move{
		{From: "e2", To: "e5"}, // pawn cannot triple-step
		{From: "e7", To: "e5"}, // not white's piece
		{From: "zz", To: "e4"}, // malformed square
		{},
	}
	for _, mv := range cases {
		if _, err := o.Apply(StartPosition(), mv); !errors.Is(err, ErrIllegalMove) {
			t.Fatalf("Apply(%+v): expected ErrIllegalMove, got %v", mv, err)
		}
	}
}

func TestApplyDetectsCheckmate(t *testing.T) {
	o := NewChessOracle()
	pos := StartPosition()
	// Fool's mate.
	line := []Move{
		{From: "f2", To: "f3"},
		{From: "e7", To: "e5"},
		{From: "g2", To: "g4"},
	}
	for _, mv := range line {
		v, err := o.Apply(pos, mv)
		if err != nil {
			t.Fatalf("Apply(%+v): %v", mv, err)
		}
		if v.Termination != TermNone {
			t.Fatalf("premature termination %q after %+v", v.Termination, mv)
		}
		pos = v.Position
	}
	v, err := o.Apply(pos, Move{From: "d8", To: "h4"})
	if err != nil {
		t.Fatalf("mating move: %v", err)
	}
	if v.Termination != TermCheckmate {
		t.Fatalf("expected checkmate, got %q", v.Termination)
	}
	if !v.Check {
		t.Fatalf("mating move should carry check")
	}
	if v.SAN != "Qh4#" {
		t.Fatalf("unexpected SAN for mate: %q", v.SAN)
	}
}

func TestReplayDeterminism(t *testing.T) {
	o := NewChessOracle()
	pos := StartPosition()
	line := []Move{
		{From: "e2", To: "e4"},
		{From: "e7", To: "e5"},
		{From: "g1", To: "f3"},
		{From: "b8", To: "c6"},
	}
	fens := make([]string, 0, len(line))
	for _, mv := range line {
		v, err := o.Apply(pos, mv)
		if err != nil {
			t.Fatalf("Apply(%+v): %v", mv, err)
		}
		pos = v.Position
		fens = append(fens, v.Position.FEN)
	}

	// Replaying the recorded move list step by step reproduces every FEN.
	replay := StartPosition()
	for i, uci := range pos.MovesUCI {
		v, err := o.Apply(replay, Move{From: uci[:2], To: uci[2:4]})
		if err != nil {
			t.Fatalf("replay %q: %v", uci, err)
		}
		if v.Position.FEN != fens[i] {
			t.Fatalf("replay diverged at %d: %q vs %q", i, v.Position.FEN, fens[i])
		}
		replay = v.Position
	}
}

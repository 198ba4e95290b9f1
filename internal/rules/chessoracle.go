package rules

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// ChessOracle implements Oracle on top of corentings/chess. It is
// stateless: every call replays the position's move list from the start
// position before answering.
type ChessOracle struct{}

func NewChessOracle() *ChessOracle { return &ChessOracle{} }

func (o *ChessOracle) LegalMoves(pos Position) ([]string, error) {
	game, err := reconstruct(pos)
	if err != nil {
		return nil, err
	}
	valid := game.ValidMoves()
	out := make([]string, 0, len(valid))
	for _, mv := range valid {
		out = append(out, mv.String())
	}
	return out, nil
}

func (o *ChessOracle) Apply(pos Position, mv Move) (Verdict, error) {
	game, err := reconstruct(pos)
	if err != nil {
		return Verdict{}, err
	}
	uci := mv.UCI()
	if uci == "" {
		return Verdict{}, ErrIllegalMove
	}
	before := game.Position()
	decoded, err := nchess.UCINotation{}.Decode(before, uci)
	if err != nil {
		return Verdict{}, ErrIllegalMove
	}
	san := nchess.AlgebraicNotation{}.Encode(before, decoded)
	if err := game.PushNotationMove(uci, nchess.UCINotation{}, nil); err != nil {
		return Verdict{}, ErrIllegalMove
	}

	moves := append(append([]string(nil), pos.MovesUCI...), uci)
	return Verdict{
		Position:    Position{FEN: game.FEN(), MovesUCI: moves},
		SAN:         san,
		Check:       decoded.HasTag(nchess.Check),
		Termination: terminationOf(game),
	}, nil
}

// reconstruct replays the stored UCI moves onto a fresh game. A replay
// failure means the stored move list is corrupt, which is an internal
// error rather than a user-facing rejection.
func reconstruct(pos Position) (*nchess.Game, error) {
	game := nchess.NewGame()
	for _, mv := range pos.MovesUCI {
		if err := game.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
			return nil, fmt.Errorf("replay move %q: %w", mv, err)
		}
	}
	return game, nil
}

func terminationOf(game *nchess.Game) Termination {
	switch game.Outcome() {
	case nchess.WhiteWon, nchess.BlackWon:
		return TermCheckmate
	case nchess.Draw:
		return drawTermination(game.Method())
	default:
		return TermNone
	}
}

func drawTermination(method nchess.Method) Termination {
	s := strings.ToLower(method.String())
	switch {
	case strings.Contains(s, "stalemate"):
		return TermStalemate
	case strings.Contains(s, "repetition"):
		return TermRepetition
	case strings.Contains(s, "insufficient"):
		return TermInsufficient
	case strings.Contains(s, "fifty"), strings.Contains(s, "seventy"):
		return TermFiftyMoves
	default:
		return Termination(s)
	}
}

package notation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/chdb/checkers/internal/board"
	"github.com/chdb/checkers/internal/models"
	"github.com/chdb/checkers/internal/rules"
)

var moveNumberRegex = regexp.MustCompile(`\d+\.+`)

// Position is the board after a complete ply.
type Position struct {
	Ply        int
	Board      board.Board
	SideToMove board.Side
}

// MoveTokens splits cleaned move text into ply tokens, stopping at the
// result marker.
func MoveTokens(moveText string) []string {
	moveText = moveNumberRegex.ReplaceAllString(cleanMoves(moveText), " ")

	var tokens []string
	for _, part := range strings.Fields(moveText) {
		if isResultToken(part) {
			break
		}
		tokens = append(tokens, part)
	}
	return tokens
}

// Replay plays moveText from the starting position through the move
// rules and returns the position after every ply.
func Replay(moveText string) ([]Position, error) {
	g := models.NewGame("", 0)
	g.Status = models.GameActive

	tokens := MoveTokens(moveText)
	positions := make([]Position, 0, len(tokens))
	for i, s := range tokens {
		tok, err := ParseToken(s)
		if err != nil {
			return nil, fmt.Errorf("ply %d: %w", i+1, err)
		}
		if err := playToken(g, tok); err != nil {
			return nil, fmt.Errorf("ply %d %q: %w", i+1, s, err)
		}
		positions = append(positions, Position{
			Ply:        i + 1,
			Board:      g.Board,
			SideToMove: g.CurrentTurn,
		})
	}
	return positions, nil
}

func playToken(g *models.Game, tok Token) error {
	mover := g.CurrentTurn
	for i := 1; i < len(tok.Squares); i++ {
		from, to := tok.Squares[i-1], tok.Squares[i]
		if _, err := rules.ApplyMove(g, from.Row, from.Col, to.Row, to.Col); err != nil {
			return err
		}
	}
	if g.CurrentTurn == mover && g.ContinueFrom != nil {
		return fmt.Errorf("jump sequence stops at square %d before the capture chain ends", mustNumber(*g.ContinueFrom))
	}
	return nil
}

func mustNumber(sq models.Square) int {
	n, _ := SquareNumber(sq)
	return n
}

// Tokens groups a game's single-step move history into plies by
// replaying it: hops stay in one ply while the mover keeps the turn.
func Tokens(moves []models.Move) ([]Token, error) {
	g := models.NewGame("", 0)
	g.Status = models.GameActive

	var tokens []Token
	var cur *Token
	for i, mv := range moves {
		mover := g.CurrentTurn
		if _, err := rules.ApplyMove(g, mv.From.Row, mv.From.Col, mv.To.Row, mv.To.Col); err != nil {
			return nil, fmt.Errorf("move %d: %w", i+1, err)
		}

		if cur == nil {
			tokens = append(tokens, Token{Squares: []models.Square{mv.From}, Capture: mv.IsCapture()})
			cur = &tokens[len(tokens)-1]
		}
		cur.Squares = append(cur.Squares, mv.To)

		if g.CurrentTurn != mover {
			cur = nil
		}
	}
	return tokens, nil
}

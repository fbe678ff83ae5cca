// Package notation reads and writes games in Portable Draughts Notation.
//
// Playable squares are numbered 1-32 row by row from row 0, four per row:
// square n sits at row (n-1)/4. Moves are written "11-15" for a step and
// "15x24" for a jump; a multi-jump is chained as "6x15x24".
package notation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chdb/checkers/internal/board"
	"github.com/chdb/checkers/internal/models"
)

const squaresPerRow = board.Size / 2

// SquareNumber returns the PDN number of a playable square.
func SquareNumber(sq models.Square) (int, bool) {
	if !board.IsPlayableSquare(sq.Row, sq.Col) {
		return 0, false
	}
	return sq.Row*squaresPerRow + sq.Col/2 + 1, true
}

// SquareAt is the inverse of SquareNumber.
func SquareAt(n int) (models.Square, bool) {
	if n < 1 || n > squaresPerRow*board.Size {
		return models.Square{}, false
	}
	row := (n - 1) / squaresPerRow
	col := ((n - 1) % squaresPerRow) * 2
	if row%2 == 0 {
		col++
	}
	return models.Square{Row: row, Col: col}, true
}

// Token is one ply: the squares a piece visits, and whether it jumped.
type Token struct {
	Squares []models.Square
	Capture bool
}

// ParseToken reads "a-b" or "axbxc".
func ParseToken(s string) (Token, error) {
	sep := "-"
	capture := false
	if strings.Contains(s, "x") {
		sep, capture = "x", true
	}

	parts := strings.Split(s, sep)
	if len(parts) < 2 || (!capture && len(parts) != 2) {
		return Token{}, fmt.Errorf("malformed move %q", s)
	}

	tok := Token{Capture: capture, Squares: make([]models.Square, 0, len(parts))}
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Token{}, fmt.Errorf("malformed move %q: %w", s, err)
		}
		sq, ok := SquareAt(n)
		if !ok {
			return Token{}, fmt.Errorf("malformed move %q: no square %d", s, n)
		}
		tok.Squares = append(tok.Squares, sq)
	}
	return tok, nil
}

func (t Token) String() string {
	sep := "-"
	if t.Capture {
		sep = "x"
	}
	parts := make([]string, 0, len(t.Squares))
	for _, sq := range t.Squares {
		n, _ := SquareNumber(sq)
		parts = append(parts, strconv.Itoa(n))
	}
	return strings.Join(parts, sep)
}

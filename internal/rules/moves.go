package rules

import (
	"github.com/chdb/checkers/internal/board"
	"github.com/chdb/checkers/internal/models"
)

// Step is a single from/to hop; a capture jumps exactly two squares.
type Step struct {
	FromRow int
	FromCol int
	ToRow   int
	ToCol   int
	Capture bool
}

func (s Step) Piece(g *models.Game) board.Piece {
	return g.Board.Get(s.FromRow, s.FromCol)
}

// LegalMoves lists every step the side to move may play, scanning pieces
// row by row. When any capture exists only captures are returned. During
// a multi-jump only the jumping piece is considered.
func LegalMoves(g *models.Game) []Step {
	captureAvailable := HasAnyCapture(g)

	var steps []Step
	for row := 0; row < board.Size; row++ {
		for col := 0; col < board.Size; col++ {
			piece := g.Board.Get(row, col)
			if !piece.BelongsTo(g.CurrentTurn) {
				continue
			}
			if g.ContinueFrom != nil && (g.ContinueFrom.Row != row || g.ContinueFrom.Col != col) {
				continue
			}
			steps = append(steps, pieceSteps(g, row, col, piece, captureAvailable)...)
		}
	}
	return steps
}

func pieceSteps(g *models.Game, row, col int, piece board.Piece, captureAvailable bool) []Step {
	var steps []Step
	dirs := directions(piece, g.CurrentTurn)
	enemy := g.CurrentTurn.Opposite()

	for _, d := range dirs {
		toRow, toCol := row+2*d[0], col+2*d[1]
		if toRow < 0 || toRow >= board.Size || toCol < 0 || toCol >= board.Size {
			continue
		}
		if g.Board.Get(row+d[0], col+d[1]).BelongsTo(enemy) && g.Board.Get(toRow, toCol).IsEmpty() {
			steps = append(steps, Step{FromRow: row, FromCol: col, ToRow: toRow, ToCol: toCol, Capture: true})
		}
	}

	if captureAvailable {
		return steps
	}

	for _, d := range dirs {
		toRow, toCol := row+d[0], col+d[1]
		if toRow < 0 || toRow >= board.Size || toCol < 0 || toCol >= board.Size {
			continue
		}
		if g.Board.Get(toRow, toCol).IsEmpty() {
			steps = append(steps, Step{FromRow: row, FromCol: col, ToRow: toRow, ToCol: toCol})
		}
	}
	return steps
}

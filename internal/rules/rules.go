// Package rules validates and applies checkers moves against a game snapshot.
//
// Captures are mandatory and evaluated over the whole board. A capture
// that leaves the landed piece able to jump again keeps the turn with the
// same side; that piece must make the next jump. Promotion always ends
// the turn. Every function here is pure with respect to the game passed
// in: on error the game is left untouched.
package rules

import (
	"github.com/chdb/checkers/internal/apperrors"
	"github.com/chdb/checkers/internal/board"
	"github.com/chdb/checkers/internal/models"
)

var (
	kingDirs     = [][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	redManDirs   = [][2]int{{1, -1}, {1, 1}}
	blackManDirs = [][2]int{{-1, -1}, {-1, 1}}
)

// directions returns the diagonals piece may travel when turn is to move.
func directions(piece board.Piece, turn board.Side) [][2]int {
	if piece.IsKing() {
		return kingDirs
	}
	if turn == board.Red {
		return redManDirs
	}
	return blackManDirs
}

func forward(turn board.Side, fromRow, toRow int) bool {
	if turn == board.Red {
		return toRow > fromRow
	}
	return toRow < fromRow
}

func promotes(piece board.Piece, toRow int) bool {
	switch piece {
	case board.RedMan:
		return toRow == board.Size-1
	case board.BlackMan:
		return toRow == 0
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// ApplyMove validates a single step and applies it to g.
func ApplyMove(g *models.Game, fromRow, fromCol, toRow, toCol int) (models.Move, error) {
	if !board.IsPlayableSquare(fromRow, fromCol) || !board.IsPlayableSquare(toRow, toCol) {
		return models.Move{}, apperrors.ErrInvalidSquare
	}

	turn := g.CurrentTurn
	piece := g.Board.Get(fromRow, fromCol)
	if !piece.BelongsTo(turn) {
		return models.Move{}, apperrors.ErrNotYourPiece
	}

	if g.ContinueFrom != nil && (g.ContinueFrom.Row != fromRow || g.ContinueFrom.Col != fromCol) {
		return models.Move{}, apperrors.ErrMustContinueJump
	}

	if !g.Board.Get(toRow, toCol).IsEmpty() {
		return models.Move{}, apperrors.ErrDestinationOccupied
	}

	rowDiff := abs(toRow - fromRow)
	colDiff := abs(toCol - fromCol)
	if rowDiff != colDiff {
		return models.Move{}, apperrors.ErrMustMoveDiagonally
	}

	mv := models.Move{
		From:      models.Square{Row: fromRow, Col: fromCol},
		To:        models.Square{Row: toRow, Col: toCol},
		Timestamp: g.UpdatedAt,
	}

	switch rowDiff {
	case 1:
		if !piece.IsKing() && !forward(turn, fromRow, toRow) {
			return models.Move{}, apperrors.ErrInvalidDirection
		}
		if HasAnyCapture(g) {
			return models.Move{}, apperrors.ErrMustCapture
		}

		promoted := promotes(piece, toRow)
		landed := piece
		if promoted {
			landed = piece.Crowned()
		}
		g.Board = g.Board.Set(fromRow, fromCol, board.Empty).Set(toRow, toCol, landed)
		mv.Promoted = promoted
		g.CurrentTurn = turn.Opposite()
		g.ContinueFrom = nil
		return mv, nil

	case 2:
		midRow := (fromRow + toRow) / 2
		midCol := (fromCol + toCol) / 2
		if !g.Board.Get(midRow, midCol).BelongsTo(turn.Opposite()) {
			return models.Move{}, apperrors.ErrNoPieceToCapture
		}
		if !piece.IsKing() && !forward(turn, fromRow, toRow) {
			return models.Move{}, apperrors.ErrInvalidCaptureDirection
		}

		promoted := promotes(piece, toRow)
		landed := piece
		if promoted {
			landed = piece.Crowned()
		}
		g.Board = g.Board.
			Set(fromRow, fromCol, board.Empty).
			Set(midRow, midCol, board.Empty).
			Set(toRow, toCol, landed)
		mv.Captured = &models.Square{Row: midRow, Col: midCol}
		mv.Promoted = promoted

		if !promoted && PieceHasCapture(g, toRow, toCol, landed) {
			g.ContinueFrom = &models.Square{Row: toRow, Col: toCol}
		} else {
			g.CurrentTurn = turn.Opposite()
			g.ContinueFrom = nil
		}
		return mv, nil
	}

	return models.Move{}, apperrors.ErrInvalidMoveDistance
}

// HasAnyCapture reports whether any piece of the side to move can jump.
func HasAnyCapture(g *models.Game) bool {
	for row := 0; row < board.Size; row++ {
		for col := 0; col < board.Size; col++ {
			piece := g.Board.Get(row, col)
			if piece.BelongsTo(g.CurrentTurn) && PieceHasCapture(g, row, col, piece) {
				return true
			}
		}
	}
	return false
}

// PieceHasCapture checks the jump diagonals of piece at (row, col): an
// enemy on the adjacent square and an empty, in-bounds landing square.
func PieceHasCapture(g *models.Game, row, col int, piece board.Piece) bool {
	enemy := g.CurrentTurn.Opposite()
	for _, d := range directions(piece, g.CurrentTurn) {
		toRow, toCol := row+2*d[0], col+2*d[1]
		if toRow < 0 || toRow >= board.Size || toCol < 0 || toCol >= board.Size {
			continue
		}
		if g.Board.Get(row+d[0], col+d[1]).BelongsTo(enemy) && g.Board.Get(toRow, toCol).IsEmpty() {
			return true
		}
	}
	return false
}

func pieceHasSimpleMove(g *models.Game, row, col int, piece board.Piece) bool {
	for _, d := range directions(piece, g.CurrentTurn) {
		toRow, toCol := row+d[0], col+d[1]
		if toRow < 0 || toRow >= board.Size || toCol < 0 || toCol >= board.Size {
			continue
		}
		if g.Board.Get(toRow, toCol).IsEmpty() {
			return true
		}
	}
	return false
}

// HasAnyLegalMove reports whether the side to move has a capture or a simple move.
func HasAnyLegalMove(g *models.Game) bool {
	for row := 0; row < board.Size; row++ {
		for col := 0; col < board.Size; col++ {
			piece := g.Board.Get(row, col)
			if !piece.BelongsTo(g.CurrentTurn) {
				continue
			}
			if PieceHasCapture(g, row, col, piece) || pieceHasSimpleMove(g, row, col, piece) {
				return true
			}
		}
	}
	return false
}

// CheckGameOver finishes g when a side has no pieces left or the side to
// move is blocked; a blocked side loses. A game that is already finished
// keeps its result.
func CheckGameOver(g *models.Game) bool {
	if g.Status == models.GameFinished {
		return true
	}

	red, black := g.Board.Count()
	switch {
	case red == 0:
		g.Finish(models.ResultBlackWins)
		return true
	case black == 0:
		g.Finish(models.ResultRedWins)
		return true
	case !HasAnyLegalMove(g):
		g.Finish(models.LossFor(g.CurrentTurn))
		return true
	}
	return false
}

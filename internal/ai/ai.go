// Package ai picks a move for the computer-controlled side with a single
// ply heuristic. Selection is deterministic: the same game state always
// yields the same move.
package ai

import (
	"math"

	"github.com/chdb/checkers/internal/board"
	"github.com/chdb/checkers/internal/models"
	"github.com/chdb/checkers/internal/rules"
)

const (
	captureBonus   = 100
	advanceWeight  = 2
	backRankBonus  = 50
	centerRow      = 4
	centerCol      = 4
	tiebreakModulo = 5
)

// SelectMove returns the highest scoring legal step for the side to move.
// Ties keep the first step found in row-major piece order. It returns
// false when the side to move has no legal step.
func SelectMove(g *models.Game) (rules.Step, bool) {
	best := rules.Step{}
	bestScore := math.MinInt
	found := false

	for _, step := range rules.LegalMoves(g) {
		score := Score(g, step)
		if score > bestScore {
			best, bestScore, found = step, score, true
		}
	}
	return best, found
}

// Score rates a single candidate step for the side to move.
func Score(g *models.Game, step rules.Step) int {
	piece := step.Piece(g)
	score := 0

	if step.Capture {
		score += captureBonus
	}

	if !piece.IsKing() {
		if g.CurrentTurn == board.Red {
			score += step.ToRow * advanceWeight
			if step.ToRow == board.Size-1 {
				score += backRankBonus
			}
		} else {
			score += (board.Size - 1 - step.ToRow) * advanceWeight
			if step.ToRow == 0 {
				score += backRankBonus
			}
		}
	}

	score -= abs(step.ToRow-centerRow) + abs(step.ToCol-centerCol)
	score += (step.FromRow*13 + step.FromCol*17 + g.MoveCount) % tiebreakModulo
	return score
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

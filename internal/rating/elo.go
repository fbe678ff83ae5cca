// Package rating implements the per time-control Elo update.
package rating

import (
	"math"

	"github.com/chdb/checkers/internal/board"
	"github.com/chdb/checkers/internal/clock"
	"github.com/chdb/checkers/internal/models"
)

const (
	// AIRating is the fixed strength assumed for the computer opponent.
	AIRating = 1500

	MinRating = 100
	MaxRating = 3000

	provisionalGames = 30
)

type Outcome float64

const (
	Loss Outcome = 0
	Draw Outcome = 0.5
	Win  Outcome = 1
)

// Expected is the score player a is expected to take from player b.
func Expected(a, b int) float64 {
	return 1 / (1 + math.Pow(10, float64(b-a)/400))
}

// KFactor is 32 for players still provisional in a category, 16 after.
func KFactor(games int) float64 {
	if games < provisionalGames {
		return 32
	}
	return 16
}

// Update returns the new rating for a player rated r with games played in
// the category, after outcome against an opponent rated opp.
func Update(r, games, opp int, outcome Outcome) int {
	change := KFactor(games) * (float64(outcome) - Expected(r, opp))
	next := int(math.Round(float64(r) + change))
	if next < MinRating {
		return MinRating
	}
	if next > MaxRating {
		return MaxRating
	}
	return next
}

// Apply updates the category rating of s and counts the game there.
func Apply(s *models.PlayerStats, cat clock.Category, opp int, outcome Outcome) {
	s.SetRating(cat, Update(s.Rating(cat), s.GamesIn(cat), opp, outcome))
}

// Category returns the rating bucket a game counts towards. Games without
// a clock are rated as blitz.
func Category(g *models.Game) clock.Category {
	if g.Clock == nil {
		return clock.DefaultTimeControl.Category()
	}
	return g.Clock.TimeControl().Category()
}

// RecordGame applies the result of a finished game to both players.
// A nil stats pointer marks a side that keeps no stats, such as the AI;
// that side is rated at AIRating. Ratings move only for rated games, and
// both updates use the ratings held before the game.
func RecordGame(g *models.Game, red, black *models.PlayerStats) {
	if g.Status != models.GameFinished || g.Result == models.ResultNone {
		return
	}

	cat := Category(g)
	redBefore, blackBefore := AIRating, AIRating
	if red != nil {
		redBefore = red.Rating(cat)
	}
	if black != nil {
		blackBefore = black.Rating(cat)
	}

	record(red, board.Red, g, cat, blackBefore)
	record(black, board.Black, g, cat, redBefore)
}

func record(s *models.PlayerStats, side board.Side, g *models.Game, cat clock.Category, opp int) {
	if s == nil {
		return
	}

	var outcome Outcome
	switch g.Result {
	case models.ResultDraw:
		outcome = Draw
		s.RecordDraw()
	case models.WinFor(side):
		outcome = Win
		s.RecordWin()
	default:
		outcome = Loss
		s.RecordLoss()
	}

	if g.IsRated {
		Apply(s, cat, opp, outcome)
	}
}

package models

import "github.com/chdb/checkers/internal/clock"

const DefaultRating = 1200

type PlayerStats struct {
	PlayerID     string `json:"player_id"`
	GamesPlayed  int    `json:"games_played"`
	GamesWon     int    `json:"games_won"`
	GamesLost    int    `json:"games_lost"`
	GamesDrawn   int    `json:"games_drawn"`
	WinStreak    int    `json:"win_streak"`
	BestStreak   int    `json:"best_streak"`
	BulletRating int    `json:"bullet_rating"`
	BulletGames  int    `json:"bullet_games"`
	BlitzRating  int    `json:"blitz_rating"`
	BlitzGames   int    `json:"blitz_games"`
	RapidRating  int    `json:"rapid_rating"`
	RapidGames   int    `json:"rapid_games"`
}

func NewPlayerStats(playerID string) *PlayerStats {
	return &PlayerStats{
		PlayerID:     playerID,
		BulletRating: DefaultRating,
		BlitzRating:  DefaultRating,
		RapidRating:  DefaultRating,
	}
}

func (s *PlayerStats) Rating(c clock.Category) int {
	switch c {
	case clock.Bullet:
		return s.BulletRating
	case clock.Rapid:
		return s.RapidRating
	}
	return s.BlitzRating
}

func (s *PlayerStats) GamesIn(c clock.Category) int {
	switch c {
	case clock.Bullet:
		return s.BulletGames
	case clock.Rapid:
		return s.RapidGames
	}
	return s.BlitzGames
}

// SetRating stores a new rating for c and counts one more rated game there.
func (s *PlayerStats) SetRating(c clock.Category, rating int) {
	switch c {
	case clock.Bullet:
		s.BulletRating = rating
		s.BulletGames++
	case clock.Rapid:
		s.RapidRating = rating
		s.RapidGames++
	default:
		s.BlitzRating = rating
		s.BlitzGames++
	}
}

func (s *PlayerStats) RecordWin() {
	s.GamesPlayed++
	s.GamesWon++
	s.WinStreak++
	if s.WinStreak > s.BestStreak {
		s.BestStreak = s.WinStreak
	}
}

func (s *PlayerStats) RecordLoss() {
	s.GamesPlayed++
	s.GamesLost++
	s.WinStreak = 0
}

func (s *PlayerStats) RecordDraw() {
	s.GamesPlayed++
	s.GamesDrawn++
}

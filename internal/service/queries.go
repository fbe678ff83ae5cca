package service

import (
	"sort"

	"github.com/chdb/checkers/internal/apperrors"
	"github.com/chdb/checkers/internal/clock"
	"github.com/chdb/checkers/internal/models"
)

// Queries read straight from the store without taking the operation lock.

func (s *Service) Game(id string) (*models.Game, error) {
	return s.loadGame(id)
}

func (s *Service) PendingGames() ([]*models.Game, error) {
	games, err := s.store.ListPendingGames()
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	return games, nil
}

func (s *Service) PlayerGames(player string) ([]*models.Game, error) {
	games, err := s.store.ListPlayerGames(player)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	return games, nil
}

// PlayerStats returns default stats for players who have not finished a game.
func (s *Service) PlayerStats(player string) (*models.PlayerStats, error) {
	stats, err := s.store.GetPlayerStats(player)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	return stats, nil
}

// Leaderboard orders players by games won, then by id. A limit of zero or
// less returns everyone.
func (s *Service) Leaderboard(limit int) ([]*models.PlayerStats, error) {
	all, err := s.store.ListPlayerStats()
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].GamesWon != all[j].GamesWon {
			return all[i].GamesWon > all[j].GamesWon
		}
		return all[i].PlayerID < all[j].PlayerID
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// QueueCounts reports how many players wait on each time control.
func (s *Service) QueueCounts() ([]models.QueueStatus, error) {
	entries, err := s.store.QueueEntries()
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	counts := make(map[clock.TimeControl]int)
	for _, e := range entries {
		counts[e.TimeControl]++
	}

	out := make([]models.QueueStatus, 0, len(clock.All()))
	for _, tc := range clock.All() {
		out = append(out, models.QueueStatus{TimeControl: tc, PlayerCount: counts[tc]})
	}
	return out, nil
}

// QueueEntry returns nil when player is not queued.
func (s *Service) QueueEntry(player string) (*models.QueueEntry, error) {
	entries, err := s.store.QueueEntries()
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	for i := range entries {
		if entries[i].PlayerID == player {
			return &entries[i], nil
		}
	}
	return nil, nil
}

func (s *Service) Tournament(id string) (*models.Tournament, error) {
	return s.loadTournament(id)
}

func (s *Service) TournamentByCode(code string) (*models.Tournament, error) {
	t, err := s.store.GetTournamentByInviteCode(code)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	if t == nil {
		return nil, apperrors.ErrInvalidInviteCode
	}
	return t, nil
}

func (s *Service) Tournaments(filter models.TournamentFilter) ([]*models.Tournament, error) {
	all, err := s.store.ListTournaments()
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	out := make([]*models.Tournament, 0, len(all))
	for _, t := range all {
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Service) PlayerTournaments(player string) ([]*models.Tournament, error) {
	all, err := s.store.ListTournaments()
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	out := make([]*models.Tournament, 0)
	for _, t := range all {
		if t.IsRegistered(player) {
			out = append(out, t)
		}
	}
	return out, nil
}

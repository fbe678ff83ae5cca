package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/chdb/checkers/internal/apperrors"
	"github.com/chdb/checkers/internal/clock"
	"github.com/chdb/checkers/internal/models"
	"github.com/chdb/checkers/internal/tournament"
)

func (s *Service) loadTournament(id string) (*models.Tournament, error) {
	t, err := s.store.GetTournament(id)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	if t == nil {
		return nil, apperrors.ErrTournamentNotFound
	}
	return t, nil
}

func (s *Service) saveTournament(t *models.Tournament) error {
	if err := s.store.SaveTournament(t); err != nil {
		return apperrors.Persistence(err)
	}
	return nil
}

func (s *Service) createTournament(r CreateTournament) (Result, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return Result{}, apperrors.Validation("Tournament name is required", "")
	}
	opts := tournament.Options{
		Name:           name,
		Creator:        r.PlayerID,
		TimeControl:    r.TimeControl,
		MaxPlayers:     r.MaxPlayers,
		IsPublic:       r.IsPublic,
		ScheduledStart: r.ScheduledStart,
	}
	// Validate before the id counter is consumed.
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	id, err := s.store.NextTournamentID()
	if err != nil {
		return Result{}, apperrors.Persistence(err)
	}
	opts.ID = id

	t, err := tournament.New(opts, s.nowMs())
	if err != nil {
		return Result{}, err
	}
	if err := s.saveTournament(t); err != nil {
		return Result{}, err
	}
	if t.InviteCode != "" {
		if err := s.store.SaveInviteCode(t.InviteCode, t.ID); err != nil {
			return Result{}, apperrors.Persistence(err)
		}
	}

	s.logger.Info("tournament created",
		zap.String("tournament_id", t.ID),
		zap.String("creator", t.Creator),
		zap.Int("max_players", t.MaxPlayers),
		zap.Bool("public", t.IsPublic))
	return Result{
		Kind:           KindTournamentCreated,
		TournamentID:   t.ID,
		TournamentName: t.Name,
		InviteCode:     t.InviteCode,
		TimeControl:    t.TimeControl,
	}, nil
}

// mutateTournament loads id, applies fn and saves the result.
func (s *Service) mutateTournament(id string, fn func(t *models.Tournament) error) (*models.Tournament, error) {
	t, err := s.loadTournament(id)
	if err != nil {
		return nil, err
	}
	if err := fn(t); err != nil {
		return nil, err
	}
	if err := s.saveTournament(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) joinTournament(r JoinTournament) (Result, error) {
	if r.PlayerID == "" {
		return Result{}, apperrors.Validation("Player id is required", "")
	}
	t, err := s.mutateTournament(r.TournamentID, func(t *models.Tournament) error {
		return tournament.Join(t, r.PlayerID)
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Kind: KindTournamentJoined, TournamentID: t.ID, TournamentName: t.Name}, nil
}

func (s *Service) joinTournamentByCode(r JoinTournamentByCode) (Result, error) {
	if r.PlayerID == "" {
		return Result{}, apperrors.Validation("Player id is required", "")
	}
	t, err := s.store.GetTournamentByInviteCode(r.InviteCode)
	if err != nil {
		return Result{}, apperrors.Persistence(err)
	}
	if t == nil {
		return Result{}, apperrors.ErrInvalidInviteCode
	}
	if err := tournament.JoinWithCode(t, r.InviteCode, r.PlayerID); err != nil {
		return Result{}, err
	}
	if err := s.saveTournament(t); err != nil {
		return Result{}, err
	}
	return Result{Kind: KindTournamentJoinedByCode, TournamentID: t.ID, TournamentName: t.Name}, nil
}

func (s *Service) leaveTournament(r LeaveTournament) (Result, error) {
	t, err := s.mutateTournament(r.TournamentID, func(t *models.Tournament) error {
		return tournament.Leave(t, r.PlayerID)
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Kind: KindTournamentLeft, TournamentID: t.ID}, nil
}

func (s *Service) startTournament(r StartTournament) (Result, error) {
	now := s.nowMs()
	t, err := s.mutateTournament(r.TournamentID, func(t *models.Tournament) error {
		return tournament.Start(t, r.PlayerID, now)
	})
	if err != nil {
		return Result{}, err
	}
	s.logger.Info("tournament started",
		zap.String("tournament_id", t.ID),
		zap.Int("players", len(t.RegisteredPlayers)),
		zap.Int("rounds", t.NumRounds))
	return Result{Kind: KindTournamentStarted, TournamentID: t.ID}, nil
}

// startTournamentMatch claims a ready match and creates its game. The
// tournament is saved first so a match can never be claimed twice.
func (s *Service) startTournamentMatch(ctx context.Context, r StartTournamentMatch) (Result, error) {
	t, err := s.loadTournament(r.TournamentID)
	if err != nil {
		return Result{}, err
	}
	// Dry run on a copy so a rejected claim does not consume a game id.
	if _, _, err := tournament.ClaimMatch(t.Clone(), r.MatchID, r.PlayerID, "pending"); err != nil {
		return Result{}, err
	}

	gameID, err := s.newGameID()
	if err != nil {
		return Result{}, err
	}
	p1, p2, err := tournament.ClaimMatch(t, r.MatchID, r.PlayerID, gameID)
	if err != nil {
		return Result{}, err
	}
	if err := s.saveTournament(t); err != nil {
		return Result{}, err
	}

	now := s.nowMs()
	g := models.NewGame(gameID, now)
	if now%2 == 0 {
		g.RedPlayer, g.BlackPlayer = p1, p2
	} else {
		g.RedPlayer, g.BlackPlayer = p2, p1
	}
	g.Status = models.GameActive
	g.ColorPreference = models.PreferRandom
	g.TournamentID = t.ID
	g.TournamentMatchID = r.MatchID
	g.Clock = clock.New(t.TimeControl)
	g.Clock.Start(now)

	if err := s.saveGame(g); err != nil {
		return Result{}, err
	}
	s.notifyBoth(ctx, models.NotifyGameStarted, g)
	return Result{
		Kind:         KindTournamentMatchStarted,
		TournamentID: t.ID,
		MatchID:      r.MatchID,
		GameID:       g.ID,
	}, nil
}

// forfeitTournamentMatch resolves the match first, then ends its game, if
// one is still running, as a loss for the forfeiting player.
func (s *Service) forfeitTournamentMatch(ctx context.Context, r ForfeitTournamentMatch) (Result, error) {
	now := s.nowMs()
	var winner, gameID string
	t, err := s.mutateTournament(r.TournamentID, func(t *models.Tournament) error {
		if idx := t.Match(r.MatchID); idx >= 0 {
			gameID = t.Matches[idx].GameID
		}
		w, err := tournament.Forfeit(t, r.MatchID, r.PlayerID, now)
		winner = w
		return err
	})
	if err != nil {
		return Result{}, err
	}
	if gameID != "" {
		if err := s.finishForfeitedGame(ctx, gameID, r.PlayerID, now); err != nil {
			s.logger.Error("failed to finish forfeited game",
				zap.String("tournament_id", t.ID),
				zap.String("match_id", r.MatchID),
				zap.String("game_id", gameID),
				zap.Error(err))
		}
	}
	return Result{
		Kind:         KindTournamentMatchForfeited,
		TournamentID: t.ID,
		MatchID:      r.MatchID,
		Winner:       winner,
	}, nil
}

func (s *Service) finishForfeitedGame(ctx context.Context, gameID, player string, now int64) error {
	g, err := s.store.GetGame(gameID)
	if err != nil || g == nil || g.Status != models.GameActive {
		return err
	}
	side, ok := g.SideOf(player)
	if !ok {
		return nil
	}
	g.Finish(models.LossFor(side))
	g.UpdatedAt = now
	if err := s.store.SaveGame(g); err != nil {
		return err
	}
	s.gameFinished(ctx, g)
	return nil
}

func (s *Service) cancelTournament(r CancelTournament) (Result, error) {
	now := s.nowMs()
	t, err := s.mutateTournament(r.TournamentID, func(t *models.Tournament) error {
		return tournament.Cancel(t, r.PlayerID, now)
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Kind: KindTournamentCancelled, TournamentID: t.ID}, nil
}

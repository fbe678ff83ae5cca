package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/chdb/checkers/internal/apperrors"
	"github.com/chdb/checkers/internal/clock"
	"github.com/chdb/checkers/internal/models"
)

func (s *Service) joinQueue(ctx context.Context, r JoinQueue) (Result, error) {
	if r.PlayerID == "" {
		return Result{}, apperrors.Validation("Player id is required", "")
	}
	tc := r.TimeControl
	if tc == "" {
		tc = clock.DefaultTimeControl
	}
	if !tc.Valid() {
		return Result{}, apperrors.Validation("Invalid time control", string(tc))
	}

	now := s.nowMs()
	opponent, err := s.store.JoinQueue(models.QueueEntry{
		PlayerID:    r.PlayerID,
		TimeControl: tc,
		JoinedAt:    now,
	})
	if err != nil {
		return Result{}, apperrors.Persistence(err)
	}
	if opponent == "" {
		return Result{Kind: KindQueueJoined, TimeControl: tc}, nil
	}

	id, err := s.newGameID()
	if err != nil {
		return Result{}, err
	}
	g := models.NewGame(id, now)
	g.RedPlayer = opponent
	g.BlackPlayer = r.PlayerID
	g.Status = models.GameActive
	g.Clock = clock.New(tc)
	g.Clock.Start(now)

	if err := s.saveGame(g); err != nil {
		return Result{}, err
	}
	s.logger.Info("queue match found",
		zap.String("game_id", g.ID),
		zap.String("red", opponent),
		zap.String("black", r.PlayerID),
		zap.String("time_control", string(tc)))

	s.notifyBoth(ctx, models.NotifyMatchFound, g)
	return Result{Kind: KindMatchFound, GameID: g.ID, Opponent: opponent, TimeControl: tc}, nil
}

func (s *Service) leaveQueue(r LeaveQueue) (Result, error) {
	left, err := s.store.LeaveQueue(r.PlayerID)
	if err != nil {
		return Result{}, apperrors.Persistence(err)
	}
	return Result{Kind: KindQueueLeft, Left: left}, nil
}

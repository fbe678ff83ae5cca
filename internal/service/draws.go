package service

import (
	"context"

	"github.com/chdb/checkers/internal/apperrors"
	"github.com/chdb/checkers/internal/board"
	"github.com/chdb/checkers/internal/models"
)

// drawGame loads a game a draw can be negotiated in and returns the
// requesting player's side.
func (s *Service) drawGame(gameID, player string) (*models.Game, board.Side, error) {
	g, err := s.activeGame(gameID)
	if err != nil {
		return nil, board.Red, err
	}
	if g.IsTournamentGame() {
		return nil, board.Red, apperrors.Rejected("Draws not allowed in tournament games")
	}
	side, ok := g.SideOf(player)
	if !ok {
		return nil, board.Red, apperrors.ErrNotInThisGame
	}
	return g, side, nil
}

func (s *Service) offerDraw(ctx context.Context, r OfferDraw) (Result, error) {
	g, side, err := s.drawGame(r.GameID, r.PlayerID)
	if err != nil {
		return Result{}, err
	}
	if g.DrawOffer != models.DrawOfferNone {
		return Result{}, apperrors.Rejected("Draw already offered")
	}

	g.DrawOffer = models.DrawOfferFrom(side)
	g.UpdatedAt = s.nowMs()
	if err := s.saveGame(g); err != nil {
		return Result{}, err
	}
	s.notify(ctx, models.NotifyDrawOffered, opponentOf(g, side), g, nil, r.PlayerID)
	return Result{Kind: KindDrawOffered, GameID: g.ID}, nil
}

func (s *Service) acceptDraw(ctx context.Context, r AcceptDraw) (Result, error) {
	g, side, err := s.drawGame(r.GameID, r.PlayerID)
	if err != nil {
		return Result{}, err
	}
	if g.DrawOffer != models.DrawOfferFrom(side.Opposite()) {
		return Result{}, apperrors.Rejected("No draw offer to accept")
	}

	g.DrawOffer = models.DrawOfferNone
	g.Finish(models.ResultDraw)
	g.UpdatedAt = s.nowMs()
	if err := s.saveGame(g); err != nil {
		return Result{}, err
	}
	s.notify(ctx, models.NotifyDrawAccepted, opponentOf(g, side), g, nil, r.PlayerID)
	s.gameFinished(ctx, g)
	return Result{Kind: KindDrawAccepted, GameID: g.ID, GameOver: true}, nil
}

func (s *Service) declineDraw(ctx context.Context, r DeclineDraw) (Result, error) {
	g, side, err := s.drawGame(r.GameID, r.PlayerID)
	if err != nil {
		return Result{}, err
	}
	if g.DrawOffer != models.DrawOfferFrom(side.Opposite()) {
		return Result{}, apperrors.Rejected("No draw offer to decline")
	}

	g.DrawOffer = models.DrawOfferNone
	g.UpdatedAt = s.nowMs()
	if err := s.saveGame(g); err != nil {
		return Result{}, err
	}
	s.notify(ctx, models.NotifyDrawDeclined, opponentOf(g, side), g, nil, r.PlayerID)
	return Result{Kind: KindDrawDeclined, GameID: g.ID}, nil
}

func (s *Service) claimTimeWin(ctx context.Context, r ClaimTimeWin) (Result, error) {
	g, err := s.activeGame(r.GameID)
	if err != nil {
		return Result{}, err
	}
	side, ok := g.SideOf(r.PlayerID)
	if !ok {
		return Result{}, apperrors.ErrNotInThisGame
	}
	if g.Clock == nil {
		return Result{}, apperrors.Rejected("Not a timed game")
	}

	now := s.nowMs()
	flagged, out := g.Clock.TimedOut(now)
	if !out {
		return Result{}, apperrors.Rejected("Opponent has not timed out")
	}
	if flagged == side {
		return Result{}, apperrors.Rejected("You timed out, not your opponent")
	}

	g.Finish(models.LossFor(flagged))
	g.UpdatedAt = now
	if err := s.saveGame(g); err != nil {
		return Result{}, err
	}
	s.gameFinished(ctx, g)
	return Result{Kind: KindTimeWinClaimed, GameID: g.ID, GameOver: true, Winner: g.Winner()}, nil
}

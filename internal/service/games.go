package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/chdb/checkers/internal/ai"
	"github.com/chdb/checkers/internal/apperrors"
	"github.com/chdb/checkers/internal/board"
	"github.com/chdb/checkers/internal/clock"
	"github.com/chdb/checkers/internal/models"
	"github.com/chdb/checkers/internal/rating"
	"github.com/chdb/checkers/internal/rules"
	"github.com/chdb/checkers/internal/tournament"
)

func (s *Service) createGame(ctx context.Context, r CreateGame) (Result, error) {
	if r.PlayerID == "" {
		return Result{}, apperrors.Validation("Player id is required", "")
	}
	if r.TimeControl != "" && !r.TimeControl.Valid() {
		return Result{}, apperrors.Validation("Invalid time control", string(r.TimeControl))
	}
	pref := r.ColorPreference
	switch pref {
	case "":
		pref = models.PreferRed
	case models.PreferRed, models.PreferBlack, models.PreferRandom:
	default:
		return Result{}, apperrors.Validation("Invalid color preference", string(pref))
	}

	id, err := s.newGameID()
	if err != nil {
		return Result{}, err
	}
	now := s.nowMs()

	g := models.NewGame(id, now)
	g.ColorPreference = pref
	if r.IsRated != nil {
		g.IsRated = *r.IsRated
	}
	if r.TimeControl != "" {
		g.Clock = clock.New(r.TimeControl)
	}

	if r.VsAI {
		creatorRed := pref == models.PreferRed || (pref == models.PreferRandom && now%2 == 0)
		if creatorRed {
			g.RedPlayer, g.BlackPlayer = r.PlayerID, models.AIPlayer
			g.BlackPlayerType = models.AI
		} else {
			g.RedPlayer, g.BlackPlayer = models.AIPlayer, r.PlayerID
			g.RedPlayerType = models.AI
		}
		g.Status = models.GameActive
		if g.Clock != nil {
			g.Clock.Start(now)
		}
	} else {
		switch pref {
		case models.PreferBlack:
			g.BlackPlayer = r.PlayerID
		case models.PreferRandom:
			g.RedPlayer = r.PlayerID
			g.CreatorWantsRandom = true
		default:
			g.RedPlayer = r.PlayerID
		}
	}

	if err := s.saveGame(g); err != nil {
		return Result{}, err
	}
	s.logger.Info("game created",
		zap.String("game_id", g.ID),
		zap.String("player_id", r.PlayerID),
		zap.Bool("vs_ai", r.VsAI))
	return Result{Kind: KindGameCreated, GameID: g.ID}, nil
}

func (s *Service) joinGame(ctx context.Context, r JoinGame) (Result, error) {
	if r.PlayerID == "" {
		return Result{}, apperrors.Validation("Player id is required", "")
	}
	g, err := s.loadGame(r.GameID)
	if err != nil {
		return Result{}, err
	}
	if g.Status != models.GamePending {
		return Result{}, apperrors.Rejected("Game not available")
	}
	if _, ok := g.SideOf(r.PlayerID); ok {
		return Result{}, apperrors.Rejected("Cannot join own game")
	}

	now := s.nowMs()
	creator := g.RedPlayer
	if creator == "" {
		creator = g.BlackPlayer
	}

	switch {
	case g.CreatorWantsRandom && now%2 == 0:
		g.RedPlayer, g.BlackPlayer = r.PlayerID, creator
	case g.RedPlayer == "":
		g.RedPlayer = r.PlayerID
	default:
		g.BlackPlayer = r.PlayerID
	}
	g.RedPlayerType, g.BlackPlayerType = models.Human, models.Human
	g.Status = models.GameActive
	g.UpdatedAt = now
	if g.Clock != nil {
		g.Clock.Start(now)
	}

	if err := s.saveGame(g); err != nil {
		return Result{}, err
	}
	s.notify(ctx, models.NotifyGameStarted, creator, g, nil, r.PlayerID)
	return Result{Kind: KindGameJoined, GameID: g.ID, Opponent: creator}, nil
}

func (s *Service) makeMove(ctx context.Context, r MakeMove) (Result, error) {
	g, err := s.activeGame(r.GameID)
	if err != nil {
		return Result{}, err
	}
	if !g.CanPlayerMove(r.PlayerID) {
		return Result{}, apperrors.ErrNotYourTurn
	}

	now := s.nowMs()
	if g.Clock != nil {
		if side, out := g.Clock.TimedOut(now); out {
			g.Finish(models.LossFor(side))
			g.UpdatedAt = now
			if err := s.saveGame(g); err != nil {
				return Result{}, err
			}
			s.gameFinished(ctx, g)
			return Result{}, apperrors.ErrTimeExpired
		}
	}

	mv, err := s.play(g, r.From, r.To, now)
	if err != nil {
		return Result{}, err
	}
	if err := s.saveGame(g); err != nil {
		return Result{}, err
	}
	s.metrics.MoveApplied("human")

	side, _ := g.SideOf(r.PlayerID)
	s.notify(ctx, models.NotifyMoveMade, opponentOf(g, side), g, &mv, r.PlayerID)
	if g.Status == models.GameFinished {
		s.gameFinished(ctx, g)
	}
	return Result{Kind: KindMoveMade, GameID: g.ID, GameOver: g.Status == models.GameFinished, Move: &mv}, nil
}

// play applies one step for the side to move. The clock is charged only
// when the turn passes, so a multi-jump is timed as a single move; a flag
// that falls during the move loses the game for the mover.
func (s *Service) play(g *models.Game, from, to models.Square, now int64) (models.Move, error) {
	mover := g.CurrentTurn
	g.UpdatedAt = now

	mv, err := rules.ApplyMove(g, from.Row, from.Col, to.Row, to.Col)
	if err != nil {
		return models.Move{}, err
	}
	g.Moves = append(g.Moves, mv)
	g.MoveCount++

	if g.Clock != nil && g.CurrentTurn != mover {
		if !g.Clock.MakeMove(now) && g.Clock.Running {
			g.Finish(models.LossFor(mover))
		}
	}
	g.DrawOffer = models.DrawOfferNone
	rules.CheckGameOver(g)
	return mv, nil
}

func (s *Service) resign(ctx context.Context, r Resign) (Result, error) {
	g, err := s.activeGame(r.GameID)
	if err != nil {
		return Result{}, err
	}
	side, ok := g.SideOf(r.PlayerID)
	if !ok {
		return Result{}, apperrors.ErrNotInThisGame
	}

	g.Finish(models.LossFor(side))
	g.UpdatedAt = s.nowMs()
	if err := s.saveGame(g); err != nil {
		return Result{}, err
	}
	s.gameFinished(ctx, g)
	return Result{Kind: KindResigned, GameID: g.ID, GameOver: true, Winner: g.Winner()}, nil
}

func (s *Service) requestAIMove(ctx context.Context, r RequestAIMove) (Result, error) {
	g, err := s.activeGame(r.GameID)
	if err != nil {
		return Result{}, err
	}
	if !g.IsAI(g.CurrentTurn) {
		return Result{}, apperrors.Rejected("Not AI's turn")
	}

	now := s.nowMs()
	aiSide := g.CurrentTurn
	step, ok := ai.SelectMove(g)
	if !ok {
		g.Finish(models.LossFor(aiSide))
		g.UpdatedAt = now
		if err := s.saveGame(g); err != nil {
			return Result{}, err
		}
		s.gameFinished(ctx, g)
		return Result{Kind: KindAIMoveMade, GameID: g.ID, GameOver: true}, nil
	}

	from := models.Square{Row: step.FromRow, Col: step.FromCol}
	to := models.Square{Row: step.ToRow, Col: step.ToCol}
	mv, err := s.play(g, from, to, now)
	if err != nil {
		return Result{}, err
	}
	if err := s.saveGame(g); err != nil {
		return Result{}, err
	}
	s.metrics.MoveApplied("ai")

	s.notify(ctx, models.NotifyMoveMade, opponentOf(g, aiSide), g, &mv, models.AIPlayer)
	if g.Status == models.GameFinished {
		s.gameFinished(ctx, g)
	}
	return Result{Kind: KindAIMoveMade, GameID: g.ID, GameOver: g.Status == models.GameFinished, Move: &mv}, nil
}

// gameFinished runs the side effects of a finished game that has already
// been saved: player stats, the tournament bracket and game_ended
// notifications. The game result stands even if these writes fail, so
// failures are logged rather than returned.
func (s *Service) gameFinished(ctx context.Context, g *models.Game) {
	if err := s.recordStats(g); err != nil {
		s.logger.Error("failed to record player stats", zap.String("game_id", g.ID), zap.Error(err))
	}
	if err := s.recordTournamentResult(g); err != nil {
		s.logger.Error("failed to record tournament result", zap.String("game_id", g.ID), zap.Error(err))
	}
	s.metrics.GameFinished(string(g.Result))
	s.notifyBoth(ctx, models.NotifyGameEnded, g)
	s.logger.Info("game finished",
		zap.String("game_id", g.ID),
		zap.String("result", string(g.Result)))
}

func (s *Service) recordStats(g *models.Game) error {
	red, err := s.statsFor(g, board.Red)
	if err != nil {
		return err
	}
	black, err := s.statsFor(g, board.Black)
	if err != nil {
		return err
	}

	rating.RecordGame(g, red, black)

	for _, st := range []*models.PlayerStats{red, black} {
		if st == nil {
			continue
		}
		if err := s.store.SavePlayerStats(st); err != nil {
			return err
		}
	}
	return nil
}

// statsFor returns nil for seats that keep no stats.
func (s *Service) statsFor(g *models.Game, side board.Side) (*models.PlayerStats, error) {
	player := g.Player(side)
	if player == "" || g.IsAI(side) {
		return nil, nil
	}
	return s.store.GetPlayerStats(player)
}

func (s *Service) recordTournamentResult(g *models.Game) error {
	if !g.IsTournamentGame() {
		return nil
	}
	t, err := s.store.GetTournament(g.TournamentID)
	if err != nil || t == nil {
		return err
	}

	draw := g.Result == models.ResultDraw
	winner, loser := g.RedPlayer, g.BlackPlayer
	if g.Result == models.ResultBlackWins {
		winner, loser = g.BlackPlayer, g.RedPlayer
	}
	if !tournament.RecordGameResult(t, g.TournamentMatchID, winner, loser, draw, g.UpdatedAt) {
		return nil
	}
	return s.store.SaveTournament(t)
}

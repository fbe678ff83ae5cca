// Package service executes player operations against the game, queue and
// tournament state held by a Store. Every mutating operation runs under a
// single lock, reads a fresh snapshot, and writes it back before any
// notification is sent.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chdb/checkers/internal/apperrors"
	"github.com/chdb/checkers/internal/board"
	"github.com/chdb/checkers/internal/metrics"
	"github.com/chdb/checkers/internal/models"
)

// Store is the persistence the service needs. Get lookups return (nil, nil)
// when the item does not exist.
type Store interface {
	NextGameID() (string, error)
	NextTournamentID() (string, error)

	GetGame(id string) (*models.Game, error)
	SaveGame(g *models.Game) error
	ListPendingGames() ([]*models.Game, error)
	ListPlayerGames(player string) ([]*models.Game, error)

	GetTournament(id string) (*models.Tournament, error)
	SaveTournament(t *models.Tournament) error
	ListTournaments() ([]*models.Tournament, error)
	SaveInviteCode(code, tournamentID string) error
	GetTournamentByInviteCode(code string) (*models.Tournament, error)

	GetPlayerStats(player string) (*models.PlayerStats, error)
	SavePlayerStats(stats *models.PlayerStats) error
	ListPlayerStats() ([]*models.PlayerStats, error)

	JoinQueue(entry models.QueueEntry) (string, error)
	LeaveQueue(player string) (bool, error)
	QueueEntries() ([]models.QueueEntry, error)
}

type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

type Options struct {
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Notifier Notifier
	Now      func() time.Time
}

type Service struct {
	store    Store
	logger   *zap.Logger
	metrics  *metrics.Metrics
	notifier Notifier
	now      func() time.Time

	mu sync.Mutex
}

// New returns a service over store. Nil options fall back to a no-op
// logger, no metrics, no notifications and time.Now.
func New(store Store, opts Options) *Service {
	s := &Service{
		store:    store,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		notifier: opts.Notifier,
		now:      opts.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Execute runs one request to completion. Mutating requests are
// serialised; a failed request leaves the stored state untouched unless
// the failure itself is the recorded outcome (an expired clock).
func (s *Service) Execute(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	s.mu.Lock()
	res, err := s.dispatch(ctx, req)
	s.mu.Unlock()

	s.metrics.ObserveOperation(req.operation(), err, time.Since(start))
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodePersistence {
			s.logger.Error("operation failed",
				zap.String("operation", req.operation()),
				zap.Error(err))
		} else {
			s.logger.Debug("operation rejected",
				zap.String("operation", req.operation()),
				zap.Error(err))
		}
		return Result{}, err
	}
	return res, nil
}

func (s *Service) dispatch(ctx context.Context, req Request) (Result, error) {
	switch r := req.(type) {
	case CreateGame:
		return s.createGame(ctx, r)
	case JoinGame:
		return s.joinGame(ctx, r)
	case MakeMove:
		return s.makeMove(ctx, r)
	case Resign:
		return s.resign(ctx, r)
	case RequestAIMove:
		return s.requestAIMove(ctx, r)
	case JoinQueue:
		return s.joinQueue(ctx, r)
	case LeaveQueue:
		return s.leaveQueue(r)
	case OfferDraw:
		return s.offerDraw(ctx, r)
	case AcceptDraw:
		return s.acceptDraw(ctx, r)
	case DeclineDraw:
		return s.declineDraw(ctx, r)
	case ClaimTimeWin:
		return s.claimTimeWin(ctx, r)
	case CreateTournament:
		return s.createTournament(r)
	case JoinTournament:
		return s.joinTournament(r)
	case JoinTournamentByCode:
		return s.joinTournamentByCode(r)
	case LeaveTournament:
		return s.leaveTournament(r)
	case StartTournament:
		return s.startTournament(r)
	case StartTournamentMatch:
		return s.startTournamentMatch(ctx, r)
	case ForfeitTournamentMatch:
		return s.forfeitTournamentMatch(ctx, r)
	case CancelTournament:
		return s.cancelTournament(r)
	}
	return Result{}, apperrors.Validation("Unknown operation", req.operation())
}

func (s *Service) nowMs() int64 {
	return s.now().UnixMilli()
}

// activeGame loads a game and requires it to be in progress.
func (s *Service) activeGame(id string) (*models.Game, error) {
	g, err := s.loadGame(id)
	if err != nil {
		return nil, err
	}
	if g.Status != models.GameActive {
		return nil, apperrors.ErrGameNotActive
	}
	return g, nil
}

func (s *Service) loadGame(id string) (*models.Game, error) {
	g, err := s.store.GetGame(id)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	if g == nil {
		return nil, apperrors.ErrGameNotFound
	}
	return g, nil
}

func (s *Service) saveGame(g *models.Game) error {
	if err := s.store.SaveGame(g); err != nil {
		return apperrors.Persistence(err)
	}
	return nil
}

func (s *Service) newGameID() (string, error) {
	id, err := s.store.NextGameID()
	if err != nil {
		return "", apperrors.Persistence(err)
	}
	return id, nil
}

// notify sends n to a human recipient. AI and unassigned seats are skipped
// and delivery failures are only logged.
func (s *Service) notify(ctx context.Context, typ models.NotificationType, recipient string, g *models.Game, mv *models.Move, opponent string) {
	if s.notifier == nil || recipient == "" || recipient == models.AIPlayer {
		return
	}
	if side, ok := g.SideOf(recipient); ok && g.IsAI(side) {
		return
	}

	n := models.Notification{
		ID:        uuid.New().String(),
		Type:      typ,
		Recipient: recipient,
		GameID:    g.ID,
		Move:      mv,
		Board:     g.Board,
		Turn:      g.CurrentTurn,
		Status:    g.Status,
		Result:    g.Result,
		Opponent:  opponent,
		SentAt:    g.UpdatedAt,
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn("notification not delivered",
			zap.String("type", string(typ)),
			zap.String("recipient", recipient),
			zap.String("game_id", g.ID),
			zap.Error(err))
	}
}

// notifyBoth sends typ to both seats, each naming the other as opponent.
func (s *Service) notifyBoth(ctx context.Context, typ models.NotificationType, g *models.Game) {
	s.notify(ctx, typ, g.RedPlayer, g, nil, g.BlackPlayer)
	s.notify(ctx, typ, g.BlackPlayer, g, nil, g.RedPlayer)
}

func opponentOf(g *models.Game, side board.Side) string {
	return g.Player(side.Opposite())
}

package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chdb/checkers/internal/apperrors"
	"github.com/chdb/checkers/internal/board"
	"github.com/chdb/checkers/internal/clock"
	"github.com/chdb/checkers/internal/kvstore"
	"github.com/chdb/checkers/internal/metrics"
	"github.com/chdb/checkers/internal/models"
)

type fakeClock struct {
	mu sync.Mutex
	ms int64
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.UnixMilli(c.ms)
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.ms += d.Milliseconds()
	c.mu.Unlock()
}

func (c *fakeClock) set(ms int64) {
	c.mu.Lock()
	c.ms = ms
	c.mu.Unlock()
}

type recorder struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (r *recorder) Notify(_ context.Context, n models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *recorder) of(typ models.NotificationType) []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.sent {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

type fixture struct {
	svc     *Service
	store   *kvstore.Store
	clock   *fakeClock
	notes   *recorder
	metrics *metrics.Metrics
	ctx     context.Context
}

// Timestamps start odd so random colour assignment keeps the default seats.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := kvstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		store:   store,
		clock:   &fakeClock{ms: 1_700_000_000_001},
		notes:   &recorder{},
		metrics: metrics.New(prometheus.NewRegistry()),
		ctx:     context.Background(),
	}
	f.svc = New(store, Options{
		Metrics:  f.metrics,
		Notifier: f.notes,
		Now:      f.clock.now,
	})
	return f
}

func (f *fixture) exec(t *testing.T, req Request) Result {
	t.Helper()
	res, err := f.svc.Execute(f.ctx, req)
	require.NoError(t, err)
	return res
}

func (f *fixture) game(t *testing.T, id string) *models.Game {
	t.Helper()
	g, err := f.svc.Game(id)
	require.NoError(t, err)
	return g
}

// startGame creates a game for alice (red) and seats bob (black).
func (f *fixture) startGame(t *testing.T, tc clock.TimeControl) string {
	t.Helper()
	res := f.exec(t, CreateGame{PlayerID: "alice", TimeControl: tc})
	f.exec(t, JoinGame{GameID: res.GameID, PlayerID: "bob"})
	return res.GameID
}

func sq(row, col int) models.Square {
	return models.Square{Row: row, Col: col}
}

func assertCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperrors.CodeOf(err), err.Error())
}

func TestCreateAndJoinGame(t *testing.T) {
	f := newFixture(t)

	res := f.exec(t, CreateGame{PlayerID: "alice", TimeControl: clock.Blitz3_0})
	assert.Equal(t, KindGameCreated, res.Kind)
	assert.Equal(t, "game_000001", res.GameID)

	g := f.game(t, res.GameID)
	assert.Equal(t, models.GamePending, g.Status)
	assert.Equal(t, "alice", g.RedPlayer)
	assert.Empty(t, g.BlackPlayer)
	require.NotNil(t, g.Clock)
	assert.False(t, g.Clock.Running)

	pending, err := f.svc.PendingGames()
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	joined := f.exec(t, JoinGame{GameID: res.GameID, PlayerID: "bob"})
	assert.Equal(t, KindGameJoined, joined.Kind)
	assert.Equal(t, "alice", joined.Opponent)

	g = f.game(t, res.GameID)
	assert.Equal(t, models.GameActive, g.Status)
	assert.Equal(t, "bob", g.BlackPlayer)
	assert.True(t, g.Clock.Running)

	started := f.notes.of(models.NotifyGameStarted)
	require.Len(t, started, 1)
	assert.Equal(t, "alice", started[0].Recipient)
	assert.Equal(t, "bob", started[0].Opponent)
	assert.NotEmpty(t, started[0].ID)

	pending, err = f.svc.PendingGames()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestJoinGameGuards(t *testing.T) {
	f := newFixture(t)
	res := f.exec(t, CreateGame{PlayerID: "alice"})

	_, err := f.svc.Execute(f.ctx, JoinGame{GameID: res.GameID, PlayerID: "alice"})
	assertCode(t, err, apperrors.CodeInvalidOperation)
	assert.Contains(t, err.Error(), "Cannot join own game")

	f.exec(t, JoinGame{GameID: res.GameID, PlayerID: "bob"})
	_, err = f.svc.Execute(f.ctx, JoinGame{GameID: res.GameID, PlayerID: "carol"})
	assertCode(t, err, apperrors.CodeInvalidOperation)
	assert.Contains(t, err.Error(), "Game not available")

	_, err = f.svc.Execute(f.ctx, JoinGame{GameID: "game_999999", PlayerID: "carol"})
	assert.ErrorIs(t, err, apperrors.ErrGameNotFound)
}

func TestCreateGameValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Execute(f.ctx, CreateGame{})
	assertCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.Execute(f.ctx, CreateGame{PlayerID: "alice", TimeControl: "classical_90_30"})
	assertCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.Execute(f.ctx, CreateGame{PlayerID: "alice", ColorPreference: "green"})
	assertCode(t, err, apperrors.CodeValidation)

	// Rejected requests must not consume ids.
	res := f.exec(t, CreateGame{PlayerID: "alice"})
	assert.Equal(t, "game_000001", res.GameID)
}

func TestColorPreferences(t *testing.T) {
	f := newFixture(t)

	black := f.exec(t, CreateGame{PlayerID: "alice", ColorPreference: models.PreferBlack})
	g := f.game(t, black.GameID)
	assert.Equal(t, "alice", g.BlackPlayer)
	f.exec(t, JoinGame{GameID: black.GameID, PlayerID: "bob"})
	assert.Equal(t, "bob", f.game(t, black.GameID).RedPlayer)

	random := f.exec(t, CreateGame{PlayerID: "carol", ColorPreference: models.PreferRandom})
	g = f.game(t, random.GameID)
	assert.Equal(t, "carol", g.RedPlayer)
	assert.True(t, g.CreatorWantsRandom)

	f.clock.set(1_700_000_000_002)
	f.exec(t, JoinGame{GameID: random.GameID, PlayerID: "dave"})
	g = f.game(t, random.GameID)
	assert.Equal(t, "dave", g.RedPlayer)
	assert.Equal(t, "carol", g.BlackPlayer)
}

func TestMakeMove(t *testing.T) {
	f := newFixture(t)
	id := f.startGame(t, clock.Blitz5_3)

	_, err := f.svc.Execute(f.ctx, MakeMove{GameID: id, PlayerID: "bob", From: sq(5, 0), To: sq(4, 1)})
	assert.ErrorIs(t, err, apperrors.ErrNotYourTurn)

	_, err = f.svc.Execute(f.ctx, MakeMove{GameID: id, PlayerID: "alice", From: sq(2, 1), To: sq(4, 3)})
	assert.ErrorIs(t, err, apperrors.ErrNoPieceToCapture)

	f.clock.advance(2 * time.Second)
	res := f.exec(t, MakeMove{GameID: id, PlayerID: "alice", From: sq(2, 1), To: sq(3, 2)})
	assert.Equal(t, KindMoveMade, res.Kind)
	assert.False(t, res.GameOver)

	g := f.game(t, id)
	assert.Equal(t, board.Black, g.CurrentTurn)
	assert.Equal(t, 1, g.MoveCount)
	assert.Equal(t, board.RedMan, g.Board.Get(3, 2))
	assert.Equal(t, board.Black, g.Clock.Active)
	assert.Equal(t, int64(300_000-2_000+3_000), g.Clock.RedRemainingMs)

	moved := f.notes.of(models.NotifyMoveMade)
	require.Len(t, moved, 1)
	assert.Equal(t, "bob", moved[0].Recipient)
	require.NotNil(t, moved[0].Move)
	assert.Equal(t, sq(3, 2), moved[0].Move.To)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Moves.WithLabelValues("human")))
}

func TestMultiJumpChargesClockOnce(t *testing.T) {
	f := newFixture(t)
	id := f.startGame(t, clock.Blitz5_3)

	// Red man on (2,1) can jump (3,2) then (5,4); the landing squares are cleared.
	var b board.Board
	b = b.Set(2, 1, board.RedMan).
		Set(3, 2, board.BlackMan).
		Set(5, 4, board.BlackMan).
		Set(7, 0, board.BlackMan)
	g := f.game(t, id)
	g.Board = b
	require.NoError(t, f.store.SaveGame(g))

	f.clock.advance(time.Second)
	f.exec(t, MakeMove{GameID: id, PlayerID: "alice", From: sq(2, 1), To: sq(4, 3)})

	g = f.game(t, id)
	assert.Equal(t, board.Red, g.CurrentTurn)
	require.NotNil(t, g.ContinueFrom)
	assert.Equal(t, board.Red, g.Clock.Active)
	assert.Equal(t, int64(300_000), g.Clock.RedRemainingMs)

	f.clock.advance(time.Second)
	f.exec(t, MakeMove{GameID: id, PlayerID: "alice", From: sq(4, 3), To: sq(6, 5)})

	g = f.game(t, id)
	assert.Equal(t, board.Black, g.CurrentTurn)
	assert.Nil(t, g.ContinueFrom)
	assert.Equal(t, int64(300_000-2_000+3_000), g.Clock.RedRemainingMs)
	assert.Equal(t, 2, g.MoveCount)
}

func TestMoveAfterTimeoutFinishesGame(t *testing.T) {
	f := newFixture(t)
	id := f.startGame(t, clock.Bullet1_0)

	f.clock.advance(61 * time.Second)
	_, err := f.svc.Execute(f.ctx, MakeMove{GameID: id, PlayerID: "alice", From: sq(2, 1), To: sq(3, 2)})
	assert.ErrorIs(t, err, apperrors.ErrTimeExpired)

	g := f.game(t, id)
	assert.Equal(t, models.GameFinished, g.Status)
	assert.Equal(t, models.ResultBlackWins, g.Result)
	assert.Equal(t, 0, g.MoveCount)

	bob, err := f.svc.PlayerStats("bob")
	require.NoError(t, err)
	assert.Equal(t, 1, bob.GamesWon)
	assert.Greater(t, bob.BulletRating, models.DefaultRating)

	alice, err := f.svc.PlayerStats("alice")
	require.NoError(t, err)
	assert.Equal(t, 1, alice.GamesLost)

	assert.Len(t, f.notes.of(models.NotifyGameEnded), 2)
}

func TestResign(t *testing.T) {
	f := newFixture(t)
	id := f.startGame(t, "")

	_, err := f.svc.Execute(f.ctx, Resign{GameID: id, PlayerID: "mallory"})
	assert.ErrorIs(t, err, apperrors.ErrNotInThisGame)

	res := f.exec(t, Resign{GameID: id, PlayerID: "alice"})
	assert.Equal(t, KindResigned, res.Kind)
	assert.Equal(t, "bob", res.Winner)

	g := f.game(t, id)
	assert.Equal(t, models.ResultBlackWins, g.Result)
	assert.Nil(t, g.Clock)

	_, err = f.svc.Execute(f.ctx, Resign{GameID: id, PlayerID: "bob"})
	assert.ErrorIs(t, err, apperrors.ErrGameNotActive)

	leaders, err := f.svc.Leaderboard(10)
	require.NoError(t, err)
	require.Len(t, leaders, 2)
	assert.Equal(t, "bob", leaders[0].PlayerID)
	assert.Equal(t, "alice", leaders[1].PlayerID)
}

func TestAIGame(t *testing.T) {
	f := newFixture(t)

	res := f.exec(t, CreateGame{PlayerID: "alice", VsAI: true, ColorPreference: models.PreferBlack, TimeControl: clock.Rapid10_0})
	g := f.game(t, res.GameID)
	assert.Equal(t, models.GameActive, g.Status)
	assert.Equal(t, models.AIPlayer, g.RedPlayer)
	assert.Equal(t, models.AI, g.RedPlayerType)
	assert.True(t, g.Clock.Running)

	ai := f.exec(t, RequestAIMove{GameID: res.GameID})
	assert.Equal(t, KindAIMoveMade, ai.Kind)
	require.NotNil(t, ai.Move)

	g = f.game(t, res.GameID)
	assert.Equal(t, board.Black, g.CurrentTurn)
	assert.Equal(t, 1, g.MoveCount)

	_, err := f.svc.Execute(f.ctx, RequestAIMove{GameID: res.GameID})
	assertCode(t, err, apperrors.CodeInvalidOperation)
	assert.Contains(t, err.Error(), "Not AI's turn")

	moved := f.notes.of(models.NotifyMoveMade)
	require.Len(t, moved, 1)
	assert.Equal(t, "alice", moved[0].Recipient)

	f.exec(t, Resign{GameID: res.GameID, PlayerID: "alice"})
	ended := f.notes.of(models.NotifyGameEnded)
	require.Len(t, ended, 1, "the AI seat is never notified")

	stats, err := f.svc.Leaderboard(0)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "alice", stats[0].PlayerID)
}

func TestAIWithoutMovesLoses(t *testing.T) {
	f := newFixture(t)
	res := f.exec(t, CreateGame{PlayerID: "alice", VsAI: true, ColorPreference: models.PreferBlack})

	// Red's only man is blocked by two black men it cannot jump.
	var b board.Board
	b = b.Set(6, 1, board.RedMan).
		Set(7, 0, board.BlackMan).
		Set(7, 2, board.BlackMan)
	g := f.game(t, res.GameID)
	g.Board = b
	require.NoError(t, f.store.SaveGame(g))

	ai := f.exec(t, RequestAIMove{GameID: res.GameID})
	assert.True(t, ai.GameOver)
	assert.Equal(t, models.ResultBlackWins, f.game(t, res.GameID).Result)
}

func TestQueueMatchmaking(t *testing.T) {
	f := newFixture(t)

	res := f.exec(t, JoinQueue{PlayerID: "alice", TimeControl: clock.Blitz3_0})
	assert.Equal(t, KindQueueJoined, res.Kind)

	entry, err := f.svc.QueueEntry("alice")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, clock.Blitz3_0, entry.TimeControl)

	f.exec(t, JoinQueue{PlayerID: "carol", TimeControl: clock.Rapid10_0})

	counts, err := f.svc.QueueCounts()
	require.NoError(t, err)
	require.Len(t, counts, len(clock.All()))
	assert.Equal(t, clock.Bullet1_0, counts[0].TimeControl)
	assert.Equal(t, 1, counts[2].PlayerCount)
	assert.Equal(t, 1, counts[4].PlayerCount)

	match := f.exec(t, JoinQueue{PlayerID: "bob", TimeControl: clock.Blitz3_0})
	assert.Equal(t, KindMatchFound, match.Kind)
	assert.Equal(t, "alice", match.Opponent)

	g := f.game(t, match.GameID)
	assert.Equal(t, "alice", g.RedPlayer)
	assert.Equal(t, "bob", g.BlackPlayer)
	assert.Equal(t, models.GameActive, g.Status)
	assert.True(t, g.IsRated)
	assert.Equal(t, clock.Blitz3_0, g.Clock.TimeControl())

	found := f.notes.of(models.NotifyMatchFound)
	assert.Len(t, found, 2)

	entry, err = f.svc.QueueEntry("alice")
	require.NoError(t, err)
	assert.Nil(t, entry)

	left := f.exec(t, LeaveQueue{PlayerID: "carol"})
	assert.True(t, left.Left)
	left = f.exec(t, LeaveQueue{PlayerID: "carol"})
	assert.False(t, left.Left)
}

func TestDraws(t *testing.T) {
	f := newFixture(t)
	id := f.startGame(t, "")

	_, err := f.svc.Execute(f.ctx, AcceptDraw{GameID: id, PlayerID: "bob"})
	assert.Contains(t, err.Error(), "No draw offer to accept")

	f.exec(t, OfferDraw{GameID: id, PlayerID: "alice"})
	assert.Equal(t, models.DrawOfferedByRed, f.game(t, id).DrawOffer)

	_, err = f.svc.Execute(f.ctx, OfferDraw{GameID: id, PlayerID: "bob"})
	assert.Contains(t, err.Error(), "Draw already offered")

	_, err = f.svc.Execute(f.ctx, AcceptDraw{GameID: id, PlayerID: "alice"})
	assert.Contains(t, err.Error(), "No draw offer to accept")

	f.exec(t, DeclineDraw{GameID: id, PlayerID: "bob"})
	assert.Equal(t, models.DrawOfferNone, f.game(t, id).DrawOffer)
	assert.Len(t, f.notes.of(models.NotifyDrawDeclined), 1)

	f.exec(t, OfferDraw{GameID: id, PlayerID: "bob"})
	res := f.exec(t, AcceptDraw{GameID: id, PlayerID: "alice"})
	assert.True(t, res.GameOver)

	g := f.game(t, id)
	assert.Equal(t, models.ResultDraw, g.Result)
	assert.Equal(t, models.DrawOfferNone, g.DrawOffer)

	alice, err := f.svc.PlayerStats("alice")
	require.NoError(t, err)
	assert.Equal(t, 1, alice.GamesDrawn)
}

func TestMoveClearsDrawOffer(t *testing.T) {
	f := newFixture(t)
	id := f.startGame(t, "")

	f.exec(t, OfferDraw{GameID: id, PlayerID: "bob"})
	f.exec(t, MakeMove{GameID: id, PlayerID: "alice", From: sq(2, 1), To: sq(3, 2)})
	assert.Equal(t, models.DrawOfferNone, f.game(t, id).DrawOffer)
}

func TestClaimTimeWin(t *testing.T) {
	f := newFixture(t)

	untimed := f.startGame(t, "")
	_, err := f.svc.Execute(f.ctx, ClaimTimeWin{GameID: untimed, PlayerID: "bob"})
	assert.Contains(t, err.Error(), "Not a timed game")

	id := f.startGame(t, clock.Bullet1_0)
	_, err = f.svc.Execute(f.ctx, ClaimTimeWin{GameID: id, PlayerID: "bob"})
	assert.Contains(t, err.Error(), "Opponent has not timed out")

	f.clock.advance(time.Minute)
	_, err = f.svc.Execute(f.ctx, ClaimTimeWin{GameID: id, PlayerID: "alice"})
	assert.Contains(t, err.Error(), "You timed out, not your opponent")

	_, err = f.svc.Execute(f.ctx, ClaimTimeWin{GameID: id, PlayerID: "mallory"})
	assert.ErrorIs(t, err, apperrors.ErrNotInThisGame)

	res := f.exec(t, ClaimTimeWin{GameID: id, PlayerID: "bob"})
	assert.Equal(t, KindTimeWinClaimed, res.Kind)
	assert.Equal(t, "bob", res.Winner)
	assert.Equal(t, models.ResultBlackWins, f.game(t, id).Result)
}

func TestTournamentLifecycle(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Execute(f.ctx, CreateTournament{PlayerID: "alice", Name: "Open", MaxPlayers: 100, IsPublic: true})
	assertCode(t, err, apperrors.CodeValidation)

	created := f.exec(t, CreateTournament{PlayerID: "alice", Name: "Open", MaxPlayers: 4, IsPublic: true, TimeControl: clock.Blitz3_0})
	assert.Equal(t, "t000001", created.TournamentID)
	assert.Empty(t, created.InviteCode)

	f.exec(t, JoinTournament{TournamentID: created.TournamentID, PlayerID: "bob"})
	_, err = f.svc.Execute(f.ctx, JoinTournament{TournamentID: created.TournamentID, PlayerID: "bob"})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyRegistered)

	_, err = f.svc.Execute(f.ctx, StartTournament{TournamentID: created.TournamentID, PlayerID: "bob"})
	assertCode(t, err, apperrors.CodeForbidden)

	f.exec(t, StartTournament{TournamentID: created.TournamentID, PlayerID: "alice"})

	matchID := created.TournamentID + "_r1_m1"
	_, err = f.svc.Execute(f.ctx, StartTournamentMatch{TournamentID: created.TournamentID, MatchID: matchID, PlayerID: "carol"})
	assert.ErrorIs(t, err, apperrors.ErrNotInThisMatch)

	started := f.exec(t, StartTournamentMatch{TournamentID: created.TournamentID, MatchID: matchID, PlayerID: "bob"})
	assert.Equal(t, "game_000001", started.GameID, "rejected claims must not consume game ids")

	g := f.game(t, started.GameID)
	assert.Equal(t, "alice", g.BlackPlayer)
	assert.Equal(t, "bob", g.RedPlayer)
	assert.True(t, g.IsRated)
	assert.True(t, g.IsTournamentGame())
	assert.True(t, g.Clock.Running)
	assert.Equal(t, clock.Blitz3_0, g.Clock.TimeControl())
	assert.Len(t, f.notes.of(models.NotifyGameStarted), 2)

	_, err = f.svc.Execute(f.ctx, StartTournamentMatch{TournamentID: created.TournamentID, MatchID: matchID, PlayerID: "alice"})
	assert.ErrorIs(t, err, apperrors.ErrMatchNotReady)

	_, err = f.svc.Execute(f.ctx, OfferDraw{GameID: g.ID, PlayerID: "alice"})
	assert.Contains(t, err.Error(), "Draws not allowed in tournament games")

	f.exec(t, Resign{GameID: g.ID, PlayerID: "bob"})

	tour, err := f.svc.Tournament(created.TournamentID)
	require.NoError(t, err)
	idx := tour.Match(matchID)
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, models.MatchFinished, tour.Matches[idx].Status)
	assert.Equal(t, "alice", tour.Matches[idx].Winner)
	assert.Equal(t, 2, tour.CurrentRound)

	mine, err := f.svc.PlayerTournaments("bob")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestPrivateTournamentByCode(t *testing.T) {
	f := newFixture(t)

	created := f.exec(t, CreateTournament{PlayerID: "alice", Name: "Club night", MaxPlayers: 8})
	require.NotEmpty(t, created.InviteCode)

	_, err := f.svc.Execute(f.ctx, JoinTournament{TournamentID: created.TournamentID, PlayerID: "bob"})
	assertCode(t, err, apperrors.CodeInvalidOperation)

	_, err = f.svc.Execute(f.ctx, JoinTournamentByCode{InviteCode: "NOPE00", PlayerID: "bob"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInviteCode)

	res := f.exec(t, JoinTournamentByCode{InviteCode: " " + strings.ToLower(created.InviteCode) + " ", PlayerID: "bob"})
	assert.Equal(t, KindTournamentJoinedByCode, res.Kind)
	assert.Equal(t, "Club night", res.TournamentName)

	public, err := f.svc.Tournaments(models.FilterPublic)
	require.NoError(t, err)
	assert.Empty(t, public)

	found, err := f.svc.TournamentByCode(created.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, found.RegisteredPlayers)

	f.exec(t, LeaveTournament{TournamentID: created.TournamentID, PlayerID: "bob"})
	f.exec(t, CancelTournament{TournamentID: created.TournamentID, PlayerID: "alice"})

	active, err := f.svc.Tournaments(models.FilterActive)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestForfeitTournamentMatch(t *testing.T) {
	f := newFixture(t)

	created := f.exec(t, CreateTournament{PlayerID: "alice", Name: "Open", MaxPlayers: 4, IsPublic: true})
	f.exec(t, JoinTournament{TournamentID: created.TournamentID, PlayerID: "bob"})
	f.exec(t, StartTournament{TournamentID: created.TournamentID, PlayerID: "alice"})

	res := f.exec(t, ForfeitTournamentMatch{TournamentID: created.TournamentID, MatchID: created.TournamentID + "_r1_m1", PlayerID: "alice"})
	assert.Equal(t, "bob", res.Winner)

	_, err := f.svc.Execute(f.ctx, ForfeitTournamentMatch{TournamentID: "t999999", MatchID: "x", PlayerID: "alice"})
	assert.ErrorIs(t, err, apperrors.ErrTournamentNotFound)
}

func TestForfeitFinishesRunningGame(t *testing.T) {
	f := newFixture(t)

	created := f.exec(t, CreateTournament{PlayerID: "alice", Name: "Open", MaxPlayers: 4, IsPublic: true})
	f.exec(t, JoinTournament{TournamentID: created.TournamentID, PlayerID: "bob"})
	f.exec(t, StartTournament{TournamentID: created.TournamentID, PlayerID: "alice"})

	matchID := created.TournamentID + "_r1_m1"
	started := f.exec(t, StartTournamentMatch{TournamentID: created.TournamentID, MatchID: matchID, PlayerID: "alice"})

	res := f.exec(t, ForfeitTournamentMatch{TournamentID: created.TournamentID, MatchID: matchID, PlayerID: "alice"})
	assert.Equal(t, "bob", res.Winner)

	g := f.game(t, started.GameID)
	assert.Equal(t, models.GameFinished, g.Status)
	assert.Equal(t, "bob", g.Winner())
	assert.Len(t, f.notes.of(models.NotifyGameEnded), 2)

	_, err := f.svc.Execute(f.ctx, MakeMove{
		GameID:   g.ID,
		PlayerID: g.RedPlayer,
		From:     models.Square{Row: 2, Col: 1},
		To:       models.Square{Row: 3, Col: 2},
	})
	assert.ErrorIs(t, err, apperrors.ErrGameNotActive)

	bob, err := f.svc.PlayerStats("bob")
	require.NoError(t, err)
	assert.Equal(t, 1, bob.GamesWon)
	alice, err := f.svc.PlayerStats("alice")
	require.NoError(t, err)
	assert.Equal(t, 1, alice.GamesLost)

	tour, err := f.svc.Tournament(created.TournamentID)
	require.NoError(t, err)
	m := tour.Matches[tour.Match(matchID)]
	assert.Equal(t, models.MatchFinished, m.Status)
	assert.Equal(t, "bob", m.Winner)
	assert.Equal(t, 2, tour.Participant("bob").Score)
}

type failingStore struct {
	*kvstore.Store
}

func (failingStore) SaveGame(*models.Game) error {
	return errors.New("disk full")
}

func TestPersistenceFailureKeepsStoredState(t *testing.T) {
	f := newFixture(t)
	res := f.exec(t, CreateGame{PlayerID: "alice"})

	broken := New(failingStore{f.store}, Options{Now: f.clock.now})
	_, err := broken.Execute(f.ctx, JoinGame{GameID: res.GameID, PlayerID: "bob"})
	assertCode(t, err, apperrors.CodePersistence)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)

	g := f.game(t, res.GameID)
	assert.Equal(t, models.GamePending, g.Status)
	assert.Empty(t, g.BlackPlayer)
}

func TestExecuteRecordsOperationMetrics(t *testing.T) {
	f := newFixture(t)
	f.exec(t, CreateGame{PlayerID: "alice"})
	_, _ = f.svc.Execute(f.ctx, CreateGame{})

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Operations.WithLabelValues("create_game", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Operations.WithLabelValues("create_game", "error")))
}

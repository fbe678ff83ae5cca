package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chdb/checkers/internal/clock"
	"github.com/chdb/checkers/internal/models"
)

func TestExpected(t *testing.T) {
	assert.InDelta(t, 0.5, Expected(1200, 1200), 1e-9)
	assert.InDelta(t, 0.909, Expected(1600, 1200), 0.001)
	assert.InDelta(t, 1.0, Expected(1200, 1600)+Expected(1600, 1200), 1e-9)
}

func TestKFactor(t *testing.T) {
	assert.Equal(t, 32.0, KFactor(0))
	assert.Equal(t, 32.0, KFactor(29))
	assert.Equal(t, 16.0, KFactor(30))
}

func TestUpdateEqualPlayers(t *testing.T) {
	assert.Equal(t, 1216, Update(1200, 0, 1200, Win))
	assert.Equal(t, 1184, Update(1200, 0, 1200, Loss))
	assert.Equal(t, 1200, Update(1200, 0, 1200, Draw))
	assert.Equal(t, 1208, Update(1200, 30, 1200, Win))

	back := Update(1216, 1, 1200, Loss)
	assert.InDelta(t, 1200, back, 1)
}

func TestUpdateClamps(t *testing.T) {
	r := 300
	for i := 0; i < 50; i++ {
		r = Update(r, i, 100, Loss)
		assert.GreaterOrEqual(t, r, MinRating)
	}
	assert.Equal(t, MinRating, r)

	r = 2900
	for i := 0; i < 50; i++ {
		r = Update(r, i, MaxRating, Win)
		assert.LessOrEqual(t, r, MaxRating)
	}
	assert.Equal(t, MaxRating, r)
}

func finishedGame(result models.GameResult, rated bool, tc clock.TimeControl) *models.Game {
	g := models.NewGame("game_000001", 0)
	g.RedPlayer = "alice"
	g.BlackPlayer = "bob"
	g.IsRated = rated
	if tc != "" {
		g.Clock = clock.New(tc)
	}
	g.Finish(result)
	return g
}

func TestRecordGameRated(t *testing.T) {
	red := models.NewPlayerStats("alice")
	black := models.NewPlayerStats("bob")

	RecordGame(finishedGame(models.ResultRedWins, true, clock.Bullet1_0), red, black)

	assert.Equal(t, 1216, red.BulletRating)
	assert.Equal(t, 1184, black.BulletRating)
	assert.Equal(t, 1, red.BulletGames)
	assert.Equal(t, 1, black.BulletGames)
	assert.Equal(t, models.DefaultRating, red.BlitzRating)

	assert.Equal(t, 1, red.GamesWon)
	assert.Equal(t, 1, red.WinStreak)
	assert.Equal(t, 1, black.GamesLost)
	assert.Equal(t, 1, black.GamesPlayed)
}

func TestRecordGameUsesPreGameRatings(t *testing.T) {
	red := models.NewPlayerStats("alice")
	black := models.NewPlayerStats("bob")
	red.RapidRating = 1400

	RecordGame(finishedGame(models.ResultDraw, true, clock.Rapid10_0), red, black)

	assert.Equal(t, Update(1400, 0, 1200, Draw), red.RapidRating)
	assert.Equal(t, Update(1200, 0, 1400, Draw), black.RapidRating)
	assert.Equal(t, 1, red.GamesDrawn)
	assert.Equal(t, 1, black.GamesDrawn)
}

func TestRecordGameCasual(t *testing.T) {
	red := models.NewPlayerStats("alice")
	black := models.NewPlayerStats("bob")
	black.WinStreak = 3
	black.BestStreak = 3

	RecordGame(finishedGame(models.ResultRedWins, false, clock.Blitz5_3), red, black)

	assert.Equal(t, models.DefaultRating, red.BlitzRating)
	assert.Equal(t, 0, red.BlitzGames)
	assert.Equal(t, 1, red.GamesWon)
	assert.Equal(t, 0, black.WinStreak)
	assert.Equal(t, 3, black.BestStreak)
}

func TestRecordGameAgainstAI(t *testing.T) {
	human := models.NewPlayerStats("alice")
	g := finishedGame(models.ResultBlackWins, true, "")
	g.RedPlayer = models.AIPlayer
	g.BlackPlayer = "alice"

	RecordGame(g, nil, human)

	assert.Equal(t, Update(1200, 0, AIRating, Win), human.BlitzRating)
	assert.Equal(t, 1, human.BlitzGames)
	assert.Equal(t, 1, human.GamesWon)
}

func TestRecordGameIgnoresUnfinished(t *testing.T) {
	red := models.NewPlayerStats("alice")
	g := models.NewGame("game_000001", 0)
	g.Status = models.GameActive

	RecordGame(g, red, nil)

	assert.Equal(t, 0, red.GamesPlayed)
}

package search

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chdb/checkers/internal/board"
	"github.com/chdb/checkers/internal/database"
	"github.com/chdb/checkers/internal/models"
	"github.com/chdb/checkers/internal/notation"
)

const sampleGame = `[Event "Club night"]
[Red "alice"]
[Black "bob"]
[Result "*"]

1. 10-14 23-18 2. 14x23 26x19 *
`

func seededMatcher(t *testing.T) *PatternMatcher {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	game, positions, err := notation.NewParser().ParseGame(sampleGame)
	require.NoError(t, err)
	_, err = db.InsertArchivedGame(game, positions)
	require.NoError(t, err)

	return NewPatternMatcher(db)
}

func TestMatchesPattern(t *testing.T) {
	pm := NewPatternMatcher(nil)
	start := board.Starting()

	tests := []struct {
		name    string
		build   func(p *models.Pattern)
		side    board.Side
		matches bool
	}{
		{"unconstrained", func(p *models.Pattern) {}, board.Red, true},
		{"red man on 1", func(p *models.Pattern) { p.Board[0][1].Pieces = []string{"r"} }, board.Red, true},
		{"either colour", func(p *models.Pattern) { p.Board[7][0].Pieces = []string{"r", "b"} }, board.Red, true},
		{"king required", func(p *models.Pattern) { p.Board[0][1].Pieces = []string{"R"} }, board.Red, false},
		{"empty centre", func(p *models.Pattern) { p.Board[3][2].Empty = true }, board.Red, true},
		{"empty where a man stands", func(p *models.Pattern) { p.Board[2][1].Empty = true }, board.Red, false},
		{"any overrides", func(p *models.Pattern) {
			p.Board[2][1].Any = true
			p.Board[2][1].Empty = true
		}, board.Red, true},
		{"side to move", func(p *models.Pattern) { p.SideToMove = "black" }, board.Red, false},
		{"side to move matches", func(p *models.Pattern) { p.SideToMove = "black" }, board.Black, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &models.Pattern{}
			tt.build(p)
			assert.Equal(t, tt.matches, pm.MatchesPattern(start, tt.side, p))
		})
	}
}

func TestSearchByMaterial(t *testing.T) {
	pm := seededMatcher(t)

	games, err := pm.SearchByMaterial(models.Material{RedMen: 11, BlackMen: 11}, 10)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "alice", games[0].Red)

	games, err = pm.SearchByMaterial(models.Material{RedMen: 12, BlackMen: 11}, 10)
	require.NoError(t, err)
	assert.Len(t, games, 1)

	games, err = pm.SearchByMaterial(models.Material{RedMen: 10, RedKings: 1, BlackMen: 11}, 10)
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestSearchByPattern(t *testing.T) {
	pm := seededMatcher(t)

	p := &models.Pattern{}
	p.Board[3][2].Pieces = []string{"r"}
	games, err := pm.SearchByPattern(p, 10)
	require.NoError(t, err)
	assert.Len(t, games, 1)

	p.SideToMove = "red"
	games, err = pm.SearchByPattern(p, 10)
	require.NoError(t, err)
	assert.Len(t, games, 1)

	p.Board[3][2].Pieces = []string{"B"}
	games, err = pm.SearchByPattern(p, 10)
	require.NoError(t, err)
	assert.Empty(t, games)
}

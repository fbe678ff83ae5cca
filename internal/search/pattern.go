package search

import (
	"github.com/chdb/checkers/internal/board"
	"github.com/chdb/checkers/internal/database"
	"github.com/chdb/checkers/internal/models"
)

type PatternMatcher struct {
	db *database.DB
}

func NewPatternMatcher(db *database.DB) *PatternMatcher {
	return &PatternMatcher{db: db}
}

// SearchByMaterial returns games that passed through a position with
// exactly the given piece counts.
func (pm *PatternMatcher) SearchByMaterial(material models.Material, limit int) ([]*models.ArchivedGame, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT DISTINCT game_id FROM archive_patterns
		WHERE pattern_hash = ?
		ORDER BY game_id DESC
		LIMIT ?
	`

	rows, err := pm.db.GetConn().Query(query, database.HashPattern(material.Signature()), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pm.games(ids)
}

// SearchByPattern scans indexed positions and keeps the games where at
// least one position matches pattern.
func (pm *PatternMatcher) SearchByPattern(pattern *models.Pattern, limit int) ([]*models.ArchivedGame, error) {
	if limit <= 0 {
		limit = 100
	}

	query := "SELECT game_id, board, side_to_move FROM archive_patterns ORDER BY game_id DESC, ply"
	args := []interface{}{}
	if pattern.SideToMove != "" {
		query = "SELECT game_id, board, side_to_move FROM archive_patterns WHERE side_to_move = ? ORDER BY game_id DESC, ply"
		args = append(args, pattern.SideToMove)
	}

	rows, err := pm.db.GetConn().Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[int64]bool)
	var ids []int64
	for rows.Next() && len(ids) < limit {
		var id int64
		var encoded, sideName string
		if err := rows.Scan(&id, &encoded, &sideName); err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}

		b, err := board.Decode(encoded)
		if err != nil {
			continue
		}
		var side board.Side
		if err := side.UnmarshalText([]byte(sideName)); err != nil {
			continue
		}
		if pm.MatchesPattern(b, side, pattern) {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	return pm.games(ids)
}

// MatchesPattern checks every square constraint and, when set, the side
// to move. Piece names are r, b, R and B.
func (pm *PatternMatcher) MatchesPattern(b board.Board, side board.Side, pattern *models.Pattern) bool {
	for row := 0; row < board.Size; row++ {
		for col := 0; col < board.Size; col++ {
			squarePattern := pattern.Board[row][col]

			if squarePattern.Any {
				continue
			}

			piece := b.Get(row, col)

			if squarePattern.Empty {
				if !piece.IsEmpty() {
					return false
				}
				continue
			}

			if len(squarePattern.Pieces) > 0 {
				found := false
				for _, allowed := range squarePattern.Pieces {
					if p, ok := board.ParsePiece(allowed); ok && p == piece {
						found = true
						break
					}
				}
				if !found {
					return false
				}
			}
		}
	}

	if pattern.SideToMove != "" && pattern.SideToMove != side.String() {
		return false
	}

	return true
}

func (pm *PatternMatcher) games(ids []int64) ([]*models.ArchivedGame, error) {
	games := make([]*models.ArchivedGame, 0, len(ids))
	for _, id := range ids {
		game, err := pm.db.GetArchivedGame(id)
		if err != nil {
			return nil, err
		}
		if game != nil {
			games = append(games, game)
		}
	}
	return games, nil
}

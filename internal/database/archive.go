package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/chdb/checkers/internal/board"
	"github.com/chdb/checkers/internal/models"
	"github.com/chdb/checkers/internal/notation"
)

const archiveColumns = `g.id, g.event, g.site, g.date, g.round, g.red, g.black, g.result,
	g.time_control, g.source_game, g.plies, g.final_board`

func (db *DB) InsertArchivedGame(game *models.ArchivedGame, positions []notation.Position) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	id, err := insertArchivedGameInTx(tx, game, positions)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	game.ID = id
	return id, nil
}

// insertArchivedGameInTx writes the game row, one position row per ply
// and one material pattern row per ply.
func insertArchivedGameInTx(tx *sql.Tx, game *models.ArchivedGame, positions []notation.Position) (int64, error) {
	result, err := tx.Exec(`
		INSERT INTO archive_games (
			event, site, date, round, red, black, result,
			time_control, source_game, pdn, moves, plies, final_board
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		game.Event, game.Site, game.Date, game.Round,
		game.Red, game.Black, game.Result,
		game.TimeControl, game.SourceGame,
		game.PDN, game.Moves, game.Plies, game.FinalBoard,
	)
	if err != nil {
		return 0, err
	}

	gameID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	posStmt, err := tx.Prepare("INSERT INTO archive_positions (game_id, ply, board, side_to_move, position_hash) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer posStmt.Close()

	patStmt, err := tx.Prepare("INSERT INTO archive_patterns (game_id, ply, pattern_hash, signature, board, side_to_move) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer patStmt.Close()

	for _, pos := range positions {
		encoded := pos.Board.Encode()
		side := pos.SideToMove.String()
		if _, err := posStmt.Exec(gameID, pos.Ply, encoded, side, HashPosition(pos.Board, pos.SideToMove)); err != nil {
			return 0, err
		}

		sig := models.MaterialOf(pos.Board).Signature()
		if _, err := patStmt.Exec(gameID, pos.Ply, HashPattern(sig), sig, encoded, side); err != nil {
			return 0, err
		}
	}

	return gameID, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanArchived(s scanner, withMoves bool) (*models.ArchivedGame, error) {
	game := &models.ArchivedGame{}
	var timeControl, source, finalBoard, site, date, round, event sql.NullString
	dest := []interface{}{
		&game.ID, &event, &site, &date, &round,
		&game.Red, &game.Black, &game.Result,
		&timeControl, &source, &game.Plies, &finalBoard,
	}
	if withMoves {
		dest = append(dest, &game.PDN, &game.Moves)
	}
	dest = append(dest, &game.CreatedAt, &game.UpdatedAt)

	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	game.Event = event.String
	game.Site = site.String
	game.Date = date.String
	game.Round = round.String
	game.TimeControl = timeControl.String
	game.SourceGame = source.String
	game.FinalBoard = finalBoard.String
	return game, nil
}

func scanArchivedRows(rows *sql.Rows, withMoves bool) ([]*models.ArchivedGame, error) {
	defer rows.Close()

	var games []*models.ArchivedGame
	for rows.Next() {
		game, err := scanArchived(rows, withMoves)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

func selectArchived(withMoves bool) string {
	query := "SELECT " + archiveColumns
	if withMoves {
		query += ", g.pdn, g.moves"
	}
	return query + ", g.created_at, g.updated_at FROM archive_games g"
}

// SearchArchive filters archived games by header fields and ply count.
// Position and pattern filters are served by SearchByPosition and the
// search package.
func (db *DB) SearchArchive(params *models.SearchParams) ([]*models.ArchivedGame, error) {
	var conditions []string
	var args []interface{}

	if params.Red != "" {
		conditions = append(conditions, "g.red LIKE ?")
		args = append(args, "%"+params.Red+"%")
	}

	if params.Black != "" {
		conditions = append(conditions, "g.black LIKE ?")
		args = append(args, "%"+params.Black+"%")
	}

	if params.Either != "" {
		conditions = append(conditions, "(g.red LIKE ? OR g.black LIKE ?)")
		args = append(args, "%"+params.Either+"%", "%"+params.Either+"%")
	}

	if params.Event != "" {
		conditions = append(conditions, "g.event LIKE ?")
		args = append(args, "%"+params.Event+"%")
	}

	if params.Result != "" {
		conditions = append(conditions, "g.result = ?")
		args = append(args, params.Result)
	}

	if params.DateFrom != "" {
		conditions = append(conditions, "g.date >= ?")
		args = append(args, params.DateFrom)
	}

	if params.DateTo != "" {
		conditions = append(conditions, "g.date <= ?")
		args = append(args, params.DateTo)
	}

	if params.MinPlies > 0 {
		conditions = append(conditions, "g.plies >= ?")
		args = append(args, params.MinPlies)
	}

	if params.MaxPlies > 0 {
		conditions = append(conditions, "g.plies <= ?")
		args = append(args, params.MaxPlies)
	}

	query := selectArchived(params.IncludeMoves)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY g.date DESC, g.id DESC"

	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", params.Limit)
		if params.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", params.Offset)
		}
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	return scanArchivedRows(rows, params.IncludeMoves)
}

// SearchByPosition returns games that reached b with side to move.
func (db *DB) SearchByPosition(b board.Board, side board.Side, limit int) ([]*models.ArchivedGame, error) {
	if limit <= 0 {
		limit = 100
	}
	query := selectArchived(false) + `
		WHERE g.id IN (SELECT game_id FROM archive_positions WHERE position_hash = ?)
		ORDER BY g.date DESC, g.id DESC
		LIMIT ?`

	rows, err := db.conn.Query(query, HashPosition(b, side), limit)
	if err != nil {
		return nil, err
	}
	return scanArchivedRows(rows, false)
}

func (db *DB) GetArchivedGame(id int64) (*models.ArchivedGame, error) {
	row := db.conn.QueryRow(selectArchived(true)+" WHERE g.id = ?", id)
	game, err := scanArchived(row, true)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return game, err
}

// DeleteArchivedGame removes the game and its index rows. It reports
// whether a game was removed.
func (db *DB) DeleteArchivedGame(id int64) (bool, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	for _, table := range []string{"archive_positions", "archive_patterns"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE game_id = ?", id); err != nil {
			return false, err
		}
	}
	res, err := tx.Exec("DELETE FROM archive_games WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, tx.Commit()
}

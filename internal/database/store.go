package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chdb/checkers/internal/clock"
	"github.com/chdb/checkers/internal/models"
	"github.com/chdb/checkers/internal/tournament"
)

// Platform state lives in the same file as the archive. Snapshots are
// stored as JSON next to the columns the list queries filter on.

func (db *DB) next(name string) (uint64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO counters (name, value) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1`, name)
	if err != nil {
		return 0, err
	}
	var n uint64
	if err := tx.QueryRow("SELECT value FROM counters WHERE name = ?", name).Scan(&n); err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

func (db *DB) NextGameID() (string, error) {
	n, err := db.next("game")
	if err != nil {
		return "", err
	}
	return models.GameID(n), nil
}

func (db *DB) NextTournamentID() (string, error) {
	n, err := db.next("tournament")
	if err != nil {
		return "", err
	}
	return models.TournamentID(n), nil
}

func (db *DB) GetGame(id string) (*models.Game, error) {
	var data []byte
	err := db.conn.QueryRow("SELECT data FROM games WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	g := &models.Game{}
	if err := json.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", id, err)
	}
	return g, nil
}

func (db *DB) SaveGame(g *models.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	_, err = db.conn.Exec(`
		INSERT INTO games (id, status, red_player, black_player, tournament_id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			red_player = excluded.red_player,
			black_player = excluded.black_player,
			tournament_id = excluded.tournament_id,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		g.ID, string(g.Status), g.RedPlayer, g.BlackPlayer, g.TournamentID, data, g.CreatedAt, g.UpdatedAt)
	return err
}

func (db *DB) queryGames(query string, args ...interface{}) ([]*models.Game, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		g := &models.Game{}
		if err := json.Unmarshal(data, g); err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func (db *DB) ListPendingGames() ([]*models.Game, error) {
	return db.queryGames("SELECT data FROM games WHERE status = ? ORDER BY id", string(models.GamePending))
}

func (db *DB) ListPlayerGames(player string) ([]*models.Game, error) {
	return db.queryGames("SELECT data FROM games WHERE red_player = ? OR black_player = ? ORDER BY id", player, player)
}

func (db *DB) GetTournament(id string) (*models.Tournament, error) {
	var data []byte
	err := db.conn.QueryRow("SELECT data FROM tournaments WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t := &models.Tournament{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("decode tournament %s: %w", id, err)
	}
	return t, nil
}

func (db *DB) SaveTournament(t *models.Tournament) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	_, err = db.conn.Exec(`
		INSERT INTO tournaments (id, status, is_public, data, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			is_public = excluded.is_public,
			data = excluded.data`,
		t.ID, string(t.Status), t.IsPublic, data, t.CreatedAt)
	return err
}

func (db *DB) ListTournaments() ([]*models.Tournament, error) {
	rows, err := db.conn.Query("SELECT data FROM tournaments ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Tournament
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		t := &models.Tournament{}
		if err := json.Unmarshal(data, t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (db *DB) SaveInviteCode(code, tournamentID string) error {
	_, err := db.conn.Exec(`INSERT INTO invite_codes (code, tournament_id) VALUES (?, ?)
		ON CONFLICT(code) DO UPDATE SET tournament_id = excluded.tournament_id`,
		tournament.NormalizeCode(code), tournamentID)
	return err
}

func (db *DB) GetTournamentByInviteCode(code string) (*models.Tournament, error) {
	var id string
	err := db.conn.QueryRow("SELECT tournament_id FROM invite_codes WHERE code = ?", tournament.NormalizeCode(code)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return db.GetTournament(id)
}

func (db *DB) GetPlayerStats(player string) (*models.PlayerStats, error) {
	var data []byte
	err := db.conn.QueryRow("SELECT data FROM player_stats WHERE player_id = ?", player).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewPlayerStats(player), nil
	}
	if err != nil {
		return nil, err
	}
	stats := &models.PlayerStats{}
	if err := json.Unmarshal(data, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (db *DB) SavePlayerStats(stats *models.PlayerStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	_, err = db.conn.Exec(`INSERT INTO player_stats (player_id, games_won, data) VALUES (?, ?, ?)
		ON CONFLICT(player_id) DO UPDATE SET games_won = excluded.games_won, data = excluded.data`,
		stats.PlayerID, stats.GamesWon, data)
	return err
}

func (db *DB) ListPlayerStats() ([]*models.PlayerStats, error) {
	rows, err := db.conn.Query("SELECT data FROM player_stats ORDER BY player_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.PlayerStats
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		stats := &models.PlayerStats{}
		if err := json.Unmarshal(data, stats); err != nil {
			return nil, err
		}
		out = append(out, stats)
	}
	return out, rows.Err()
}

// JoinQueue drops any entry the player already holds, then pairs with the
// longest-waiting entry on the same time control or enqueues.
func (db *DB) JoinQueue(entry models.QueueEntry) (string, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM queue WHERE player_id = ?", entry.PlayerID); err != nil {
		return "", err
	}

	var opponent string
	err = tx.QueryRow(`SELECT player_id FROM queue WHERE time_control = ?
		ORDER BY joined_at, player_id LIMIT 1`, string(entry.TimeControl)).Scan(&opponent)
	switch {
	case err == nil:
		if _, err := tx.Exec("DELETE FROM queue WHERE player_id = ?", opponent); err != nil {
			return "", err
		}
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.Exec("INSERT INTO queue (player_id, time_control, joined_at) VALUES (?, ?, ?)",
			entry.PlayerID, string(entry.TimeControl), entry.JoinedAt)
		if err != nil {
			return "", err
		}
	default:
		return "", err
	}
	return opponent, tx.Commit()
}

func (db *DB) LeaveQueue(player string) (bool, error) {
	res, err := db.conn.Exec("DELETE FROM queue WHERE player_id = ?", player)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (db *DB) QueueEntries() ([]models.QueueEntry, error) {
	rows, err := db.conn.Query("SELECT player_id, time_control, joined_at FROM queue ORDER BY joined_at, player_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.QueueEntry
	for rows.Next() {
		var e models.QueueEntry
		var tc string
		if err := rows.Scan(&e.PlayerID, &tc, &e.JoinedAt); err != nil {
			return nil, err
		}
		e.TimeControl = clock.TimeControl(tc)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

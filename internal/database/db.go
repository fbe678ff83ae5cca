package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	conn *sql.DB
}

func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.createTables(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		red_player TEXT,
		black_player TEXT,
		tournament_id TEXT,
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_games_status ON games(status);
	CREATE INDEX IF NOT EXISTS idx_games_red ON games(red_player);
	CREATE INDEX IF NOT EXISTS idx_games_black ON games(black_player);
	CREATE INDEX IF NOT EXISTS idx_games_tournament ON games(tournament_id);

	CREATE TABLE IF NOT EXISTS tournaments (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		is_public INTEGER NOT NULL,
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS invite_codes (
		code TEXT PRIMARY KEY,
		tournament_id TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS player_stats (
		player_id TEXT PRIMARY KEY,
		games_won INTEGER NOT NULL,
		data BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stats_won ON player_stats(games_won);

	CREATE TABLE IF NOT EXISTS counters (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS queue (
		player_id TEXT PRIMARY KEY,
		time_control TEXT NOT NULL,
		joined_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_queue_order ON queue(time_control, joined_at, player_id);

	CREATE TABLE IF NOT EXISTS archive_games (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event TEXT,
		site TEXT,
		date TEXT,
		round TEXT,
		red TEXT NOT NULL,
		black TEXT NOT NULL,
		result TEXT NOT NULL,
		time_control TEXT,
		source_game TEXT,
		pdn TEXT NOT NULL,
		moves TEXT NOT NULL,
		plies INTEGER NOT NULL DEFAULT 0,
		final_board TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_archive_red ON archive_games(red);
	CREATE INDEX IF NOT EXISTS idx_archive_black ON archive_games(black);
	CREATE INDEX IF NOT EXISTS idx_archive_date ON archive_games(date);
	CREATE INDEX IF NOT EXISTS idx_archive_result ON archive_games(result);
	CREATE INDEX IF NOT EXISTS idx_archive_red_black ON archive_games(red, black);
	CREATE INDEX IF NOT EXISTS idx_archive_date_result ON archive_games(date, result);
	CREATE INDEX IF NOT EXISTS idx_archive_source ON archive_games(source_game);

	CREATE TABLE IF NOT EXISTS archive_positions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		game_id INTEGER NOT NULL,
		ply INTEGER NOT NULL,
		board TEXT NOT NULL,
		side_to_move TEXT NOT NULL,
		position_hash TEXT NOT NULL,
		FOREIGN KEY (game_id) REFERENCES archive_games(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_position_hash ON archive_positions(position_hash);
	CREATE INDEX IF NOT EXISTS idx_position_game_id ON archive_positions(game_id);

	CREATE TABLE IF NOT EXISTS archive_patterns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		game_id INTEGER NOT NULL,
		ply INTEGER NOT NULL,
		pattern_hash TEXT NOT NULL,
		signature TEXT NOT NULL,
		board TEXT NOT NULL,
		side_to_move TEXT NOT NULL,
		FOREIGN KEY (game_id) REFERENCES archive_games(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_pattern_hash ON archive_patterns(pattern_hash);
	CREATE INDEX IF NOT EXISTS idx_pattern_game_id ON archive_patterns(game_id);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// GetConn exposes the connection to packages that run their own queries
// against the archive tables.
func (db *DB) GetConn() *sql.DB {
	return db.conn
}

func (db *DB) GetStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	counts := []struct {
		key   string
		query string
	}{
		{"total_games", "SELECT COUNT(*) FROM games"},
		{"active_games", "SELECT COUNT(*) FROM games WHERE status = 'active'"},
		{"total_tournaments", "SELECT COUNT(*) FROM tournaments"},
		{"total_players", "SELECT COUNT(*) FROM player_stats"},
		{"queued_players", "SELECT COUNT(*) FROM queue"},
		{"archived_games", "SELECT COUNT(*) FROM archive_games"},
		{"archived_positions", "SELECT COUNT(*) FROM archive_positions"},
	}
	for _, c := range counts {
		var n int
		if err := db.conn.QueryRow(c.query).Scan(&n); err != nil {
			return nil, err
		}
		stats[c.key] = n
	}

	var dbSize int64
	err := db.conn.QueryRow("SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()").Scan(&dbSize)
	if err != nil {
		return nil, err
	}
	stats["database_size_bytes"] = dbSize

	stats["last_updated"] = time.Now().UTC()

	return stats, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

package main

import (
	"database/sql"
	"log"
	"math"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// PlayerRow represents a registered account. Guests never get a row; their
// runs are recorded with a NULL player id.
type PlayerRow struct {
	ID        int64
	Username  string
	Email     string
	PassHash  string
	CreatedAt time.Time
}

// StatsRow represents lifetime account stats
type StatsRow struct {
	PlayerID    int64
	Kills       int
	Deaths      int
	DoorsOpened int
	KeysFound   int
	ItemsUsed   int
	BestScore   int
	Playtime    float64 // seconds
	XP          int
	Level       int
}

// RunRow represents one finished run inside a session
type RunRow struct {
	ID        int64
	SessionID string
	PlayerID  sql.NullInt64
	Name      string
	Score     int
	Kills     int
	Deaths    int
	Doors     int
	KeysFound int
	ItemsUsed int
	Duration  float64
	CreatedAt time.Time
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL DEFAULT '',
		pass_hash TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS stats (
		player_id INTEGER PRIMARY KEY REFERENCES players(id),
		kills INTEGER NOT NULL DEFAULT 0,
		deaths INTEGER NOT NULL DEFAULT 0,
		doors_opened INTEGER NOT NULL DEFAULT 0,
		keys_found INTEGER NOT NULL DEFAULT 0,
		items_used INTEGER NOT NULL DEFAULT 0,
		best_score INTEGER NOT NULL DEFAULT 0,
		playtime REAL NOT NULL DEFAULT 0,
		xp INTEGER NOT NULL DEFAULT 0,
		level INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		player_id INTEGER REFERENCES players(id),
		name TEXT NOT NULL DEFAULT '',
		score INTEGER NOT NULL DEFAULT 0,
		kills INTEGER NOT NULL DEFAULT 0,
		deaths INTEGER NOT NULL DEFAULT 0,
		doors INTEGER NOT NULL DEFAULT 0,
		keys_found INTEGER NOT NULL DEFAULT 0,
		items_used INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS achievements (
		player_id INTEGER NOT NULL REFERENCES players(id),
		achievement_id TEXT NOT NULL,
		unlocked_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (player_id, achievement_id)
	);

	CREATE TABLE IF NOT EXISTS analytics_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		player_id INTEGER,
		session_id TEXT,
		data TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_player ON runs(player_id);
	CREATE INDEX IF NOT EXISTS idx_runs_score ON runs(score);
	CREATE INDEX IF NOT EXISTS idx_players_username ON players(username);
	CREATE INDEX IF NOT EXISTS idx_analytics_type ON analytics_events(event_type, created_at);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("DB migration error: %v", err)
	}
	return err
}

// CreatePlayer creates a new player account (returns player ID)
func (db *DB) CreatePlayer(username, email, passHash string) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO players (username, email, pass_hash) VALUES (?, ?, ?)",
		username, email, passHash,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	// Create stats row
	_, err = db.conn.Exec("INSERT INTO stats (player_id) VALUES (?)", id)
	return id, err
}

// GetPlayerByUsername returns a player by username
func (db *DB) GetPlayerByUsername(username string) (*PlayerRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, pass_hash, created_at FROM players WHERE username = ?",
		username,
	)
	p := &PlayerRow{}
	err := row.Scan(&p.ID, &p.Username, &p.Email, &p.PassHash, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// GetPlayerByID returns a player by ID
func (db *DB) GetPlayerByID(id int64) (*PlayerRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, pass_hash, created_at FROM players WHERE id = ?",
		id,
	)
	p := &PlayerRow{}
	err := row.Scan(&p.ID, &p.Username, &p.Email, &p.PassHash, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// UsernameExists checks if a username is taken
func (db *DB) UsernameExists(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM players WHERE username = ?", username).Scan(&count)
	return count > 0, err
}

// GetStats returns lifetime stats for an account
func (db *DB) GetStats(playerID int64) (*StatsRow, error) {
	row := db.conn.QueryRow(
		`SELECT player_id, kills, deaths, doors_opened, keys_found, items_used,
			best_score, playtime, xp, level
		 FROM stats WHERE player_id = ?`,
		playerID,
	)
	s := &StatsRow{}
	err := row.Scan(&s.PlayerID, &s.Kills, &s.Deaths, &s.DoorsOpened, &s.KeysFound,
		&s.ItemsUsed, &s.BestScore, &s.Playtime, &s.XP, &s.Level)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// XPForLevel returns the total XP required to reach a given level.
// Level 1 requires 0 XP, level 2 requires 100, etc.
// Formula: sum of 100 * i^1.5 for i in 1..level-1
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	total := 0.0
	for i := 1; i < level; i++ {
		total += 100.0 * math.Pow(float64(i), 1.5)
	}
	return int(total)
}

// XPToNextLevel returns XP needed from current level to reach the next level
func XPToNextLevel(level int) int {
	return XPForLevel(level+1) - XPForLevel(level)
}

// CalculateLevel returns the level for a given total XP amount
func CalculateLevel(totalXP int) int {
	level := 1
	for {
		needed := XPForLevel(level + 1)
		if totalXP < needed {
			return level
		}
		level++
		if level > 100 { // cap at 100
			return 100
		}
	}
}

// runXP converts one run into earned XP: the run score plus a small
// time-survived bonus.
func runXP(sum RunSummary) int {
	return sum.Score + int(sum.Duration/60.0)*5
}

// ApplyRun folds a finished run into an account's lifetime stats.
// Returns whether the account leveled up and the resulting level.
func (db *DB) ApplyRun(playerID int64, sum RunSummary) (bool, int, error) {
	var oldLevel int
	err := db.conn.QueryRow("SELECT level FROM stats WHERE player_id = ?", playerID).Scan(&oldLevel)
	if err != nil {
		return false, 0, err
	}

	_, err = db.conn.Exec(`
		UPDATE stats SET
			kills = kills + ?,
			deaths = deaths + ?,
			doors_opened = doors_opened + ?,
			keys_found = keys_found + ?,
			items_used = items_used + ?,
			best_score = MAX(best_score, ?),
			playtime = playtime + ?,
			xp = xp + ?
		WHERE player_id = ?`,
		sum.Kills, sum.Deaths, sum.Doors, sum.KeysFound, sum.ItemsUsed,
		sum.Score, sum.Duration, runXP(sum), playerID,
	)
	if err != nil {
		return false, 0, err
	}

	var totalXP int
	err = db.conn.QueryRow("SELECT xp FROM stats WHERE player_id = ?", playerID).Scan(&totalXP)
	if err != nil {
		return false, 0, err
	}
	newLevel := CalculateLevel(totalXP)
	if newLevel != oldLevel {
		if _, err := db.conn.Exec("UPDATE stats SET level = ? WHERE player_id = ?", newLevel, playerID); err != nil {
			return false, 0, err
		}
	}
	return newLevel > oldLevel, newLevel, nil
}

// RecordRun stores one finished run. Guest runs carry a NULL player id and
// are identified by display name only.
func (db *DB) RecordRun(sessionID string, sum RunSummary) error {
	pid := sql.NullInt64{Int64: sum.AuthID, Valid: sum.AuthID > 0}
	_, err := db.conn.Exec(`
		INSERT INTO runs (session_id, player_id, name, score, kills, deaths, doors, keys_found, items_used, duration)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, pid, sum.Name, sum.Score, sum.Kills, sum.Deaths,
		sum.Doors, sum.KeysFound, sum.ItemsUsed, sum.Duration,
	)
	return err
}

// TopRuns returns the highest scoring runs ever recorded
func (db *DB) TopRuns(limit int) ([]RunRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, session_id, player_id, name, score, kills, deaths, doors, keys_found, items_used, duration, created_at
		FROM runs ORDER BY score DESC, created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.ID, &r.SessionID, &r.PlayerID, &r.Name, &r.Score, &r.Kills,
			&r.Deaths, &r.Doors, &r.KeysFound, &r.ItemsUsed, &r.Duration, &r.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// RunHistory returns an account's recent runs
func (db *DB) RunHistory(playerID int64, limit int) ([]RunRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, session_id, player_id, name, score, kills, deaths, doors, keys_found, items_used, duration, created_at
		FROM runs WHERE player_id = ? ORDER BY created_at DESC LIMIT ?`,
		playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.ID, &r.SessionID, &r.PlayerID, &r.Name, &r.Score, &r.Kills,
			&r.Deaths, &r.Doors, &r.KeysFound, &r.ItemsUsed, &r.Duration, &r.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// LeaderboardEntry represents one row in the leaderboard
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	Username    string `json:"username"`
	Level       int    `json:"level"`
	XP          int    `json:"xp"`
	Kills       int    `json:"kills"`
	Deaths      int    `json:"deaths"`
	BestScore   int    `json:"best_score"`
	DoorsOpened int    `json:"doors_opened"`
}

// GetLeaderboard returns top players sorted by the given field
func (db *DB) GetLeaderboard(orderBy string, limit int) ([]LeaderboardEntry, error) {
	// Whitelist valid order columns
	validCols := map[string]string{
		"best_score": "s.best_score", "kills": "s.kills",
		"level": "s.level", "xp": "s.xp", "doors": "s.doors_opened",
	}
	col, ok := validCols[orderBy]
	if !ok {
		col = "s.best_score"
	}

	query := `SELECT p.username, s.level, s.xp, s.kills, s.deaths, s.best_score, s.doors_opened
		FROM stats s JOIN players p ON p.id = s.player_id
		ORDER BY ` + col + ` DESC LIMIT ?`

	rows, err := db.conn.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LeaderboardEntry
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Level, &e.XP, &e.Kills, &e.Deaths, &e.BestScore, &e.DoorsOpened); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}

// GetSetting returns a settings value, or "" when unset
func (db *DB) GetSetting(key string) string {
	var value string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		return ""
	}
	return value
}

// SetSetting stores a settings value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// GetAchievements returns the IDs of all achievements an account unlocked
func (db *DB) GetAchievements(playerID int64) ([]string, error) {
	rows, err := db.conn.Query("SELECT achievement_id FROM achievements WHERE player_id = ?", playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UnlockAchievement records an achievement; reports whether it was new
func (db *DB) UnlockAchievement(playerID int64, achievementID string) (bool, error) {
	res, err := db.conn.Exec(
		"INSERT OR IGNORE INTO achievements (player_id, achievement_id) VALUES (?, ?)",
		playerID, achievementID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

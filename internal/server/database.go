package server

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// UserRow represents a user account
type UserRow struct {
	ID          int64
	Username    string
	DisplayName string
	PassHash    string
	CreatedAt   time.Time
}

// ScoreRow is one persisted round score
type ScoreRow struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	DisplayName string    `json:"displayName"`
	Role        string    `json:"role"`
	Score       int       `json:"score"`
	CreatedAt   time.Time `json:"date"`
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL mode for better concurrency
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

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		pass_hash TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS scores (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		display_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT '',
		score INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scores_score ON scores(score DESC);
	CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// CreateUser creates a new account and returns its id
func (db *DB) CreateUser(username, displayName, passHash string) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO users (username, display_name, pass_hash) VALUES (?, ?, ?)",
		username, displayName, passHash,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetUserByUsername returns a user by username, nil if absent
func (db *DB) GetUserByUsername(username string) (*UserRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, display_name, pass_hash, created_at FROM users WHERE username = ?",
		username,
	)
	u := &UserRow{}
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.PassHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// UsernameExists checks if a username is taken
func (db *DB) UsernameExists(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM users WHERE username = ?", username).Scan(&count)
	return count > 0, err
}

// RecordScore persists one participant's round score. Implements
// game.ScoreRecorder.
func (db *DB) RecordScore(userID int64, displayName, role string, score int) error {
	_, err := db.conn.Exec(
		"INSERT INTO scores (user_id, display_name, role, score) VALUES (?, ?, ?, ?)",
		userID, displayName, role, score,
	)
	return err
}

// TopScores returns the highest scores, newest first among ties
func (db *DB) TopScores(limit int) ([]ScoreRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, user_id, display_name, role, score, created_at
		FROM scores
		ORDER BY score DESC, created_at DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ScoreRow
	for rows.Next() {
		var s ScoreRow
		if err := rows.Scan(&s.ID, &s.UserID, &s.DisplayName, &s.Role, &s.Score, &s.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// GetSetting returns a settings value, empty string if absent
func (db *DB) GetSetting(key string) string {
	var value string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		return ""
	}
	return value
}

// SetSetting upserts a settings value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zhouzirui/mental-buddy/backend/internal/model/chat"
	"github.com/zhouzirui/mental-buddy/backend/internal/model/user"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	first_name    TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	age           INTEGER NOT NULL DEFAULT 0,
	gender        TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	last_login    TEXT
);
CREATE TABLE IF NOT EXISTS conversations (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	username    TEXT NOT NULL,
	message     TEXT NOT NULL,
	response    TEXT NOT NULL,
	emotion     TEXT NOT NULL DEFAULT 'neutral',
	crisis_tier TEXT NOT NULL DEFAULT 'none',
	sentiment   TEXT NOT NULL DEFAULT 'neutral',
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversations_username ON conversations (username, seq);
`

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at dbPath and creates the schema if
// it does not exist yet.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Append(ctx context.Context, turn chat.Turn) (chat.Turn, error) {
	turn, err := prepareTurn(turn)
	if err != nil {
		return chat.Turn{}, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, username, message, response, emotion, crisis_tier, sentiment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		turn.ID, turn.Username, turn.Message, turn.Response,
		orDefault(turn.Emotion, "neutral"), orDefault(turn.CrisisTier, "none"), orDefault(turn.Sentiment, "neutral"),
		turn.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return chat.Turn{}, fmt.Errorf("insert conversation: %w", err)
	}
	return turn, nil
}

func (s *SQLiteStore) Recent(ctx context.Context, username string, limit int) ([]chat.Turn, error) {
	query := `SELECT id, username, message, response, emotion, crisis_tier, sentiment, created_at
		FROM conversations WHERE username = ? ORDER BY seq DESC`
	args := []any{normalizeUsername(username)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var turns []chat.Turn
	for rows.Next() {
		var t chat.Turn
		var created string
		if err := rows.Scan(&t.ID, &t.Username, &t.Message, &t.Response, &t.Emotion, &t.CrisisTier, &t.Sentiment, &created); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		if t.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reverse(turns)
	return turns, nil
}

func (s *SQLiteStore) DeleteUser(ctx context.Context, username string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE username = ?`, normalizeUsername(username))
	if err != nil {
		return 0, fmt.Errorf("delete conversations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u *user.User) error {
	if err := prepareUser(u); err != nil {
		return err
	}

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE username = ?`, u.Username).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if exists > 0 {
		return ErrUserExists
	}
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, u.Email).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if exists > 0 {
		return ErrEmailExists
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, first_name, last_name, age, gender, password_hash, created_at, last_login)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.Age, u.Gender, u.PasswordHash,
		u.CreatedAt.Format(time.RFC3339Nano), formatOptionalTime(u.LastLogin),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

const userColumns = `id, username, email, first_name, last_name, age, gender, password_hash, created_at, last_login`

func (s *SQLiteStore) UserByUsername(ctx context.Context, username string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, normalizeUsername(username))
	return scanSQLiteUser(row)
}

func (s *SQLiteStore) UserByEmail(ctx context.Context, email string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalizeEmail(email))
	return scanSQLiteUser(row)
}

func (s *SQLiteStore) RecordLogin(ctx context.Context, username string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE username = ?`,
		at.UTC().Format(time.RFC3339Nano), normalizeUsername(username))
	if err != nil {
		return fmt.Errorf("update last_login: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanSQLiteUser(row *sql.Row) (user.User, error) {
	var u user.User
	var created string
	var lastLogin sql.NullString
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Age, &u.Gender, &u.PasswordHash, &created, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, ErrUserNotFound
	}
	if err != nil {
		return user.User{}, fmt.Errorf("scan user: %w", err)
	}
	if u.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return user.User{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	if lastLogin.Valid && lastLogin.String != "" {
		t, err := time.Parse(time.RFC3339Nano, lastLogin.String)
		if err != nil {
			return user.User{}, fmt.Errorf("parse last_login %q: %w", lastLogin.String, err)
		}
		u.LastLogin = &t
	}
	return u, nil
}

func formatOptionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zhouzirui/mental-buddy/backend/internal/model/chat"
	"github.com/zhouzirui/mental-buddy/backend/internal/model/user"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	first_name    TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	age           INTEGER NOT NULL DEFAULT 0,
	gender        TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	last_login    TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS conversations (
	seq         BIGSERIAL PRIMARY KEY,
	id          TEXT NOT NULL UNIQUE,
	username    TEXT NOT NULL,
	message     TEXT NOT NULL,
	response    TEXT NOT NULL,
	emotion     TEXT NOT NULL DEFAULT 'neutral',
	crisis_tier TEXT NOT NULL DEFAULT 'none',
	sentiment   TEXT NOT NULL DEFAULT 'neutral',
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversations_username ON conversations (username, seq);
`

// PostgresConfig configures the connection pool.
type PostgresConfig struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects, pings and applies the schema.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	} else {
		poolCfg.MaxConns = 10
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	} else {
		poolCfg.MinConns = 1
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Append(ctx context.Context, turn chat.Turn) (chat.Turn, error) {
	turn, err := prepareTurn(turn)
	if err != nil {
		return chat.Turn{}, err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO conversations (id, username, message, response, emotion, crisis_tier, sentiment, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		turn.ID, turn.Username, turn.Message, turn.Response,
		orDefault(turn.Emotion, "neutral"), orDefault(turn.CrisisTier, "none"), orDefault(turn.Sentiment, "neutral"),
		turn.CreatedAt,
	)
	if err != nil {
		return chat.Turn{}, fmt.Errorf("insert conversation: %w", err)
	}
	return turn, nil
}

func (s *PostgresStore) Recent(ctx context.Context, username string, limit int) ([]chat.Turn, error) {
	query := `SELECT id, username, message, response, emotion, crisis_tier, sentiment, created_at
		FROM conversations WHERE username = $1 ORDER BY seq DESC`
	args := []any{normalizeUsername(username)}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var turns []chat.Turn
	for rows.Next() {
		var t chat.Turn
		if err := rows.Scan(&t.ID, &t.Username, &t.Message, &t.Response, &t.Emotion, &t.CrisisTier, &t.Sentiment, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		t.CreatedAt = t.CreatedAt.UTC()
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reverse(turns)
	return turns, nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, username string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM conversations WHERE username = $1`, normalizeUsername(username))
	if err != nil {
		return 0, fmt.Errorf("delete conversations: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *user.User) error {
	if err := prepareUser(u); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, first_name, last_name, age, gender, password_hash, created_at, last_login)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.Age, u.Gender, u.PasswordHash, u.CreatedAt, u.LastLogin,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "users_email_key" {
				return ErrEmailExists
			}
			return ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) UserByUsername(ctx context.Context, username string) (user.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, normalizeUsername(username))
	return scanPostgresUser(row)
}

func (s *PostgresStore) UserByEmail(ctx context.Context, email string) (user.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, normalizeEmail(email))
	return scanPostgresUser(row)
}

func (s *PostgresStore) RecordLogin(ctx context.Context, username string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET last_login = $1 WHERE username = $2`, at.UTC(), normalizeUsername(username))
	if err != nil {
		return fmt.Errorf("update last_login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanPostgresUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Age, &u.Gender, &u.PasswordHash, &u.CreatedAt, &u.LastLogin)
	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, ErrUserNotFound
	}
	if err != nil {
		return user.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

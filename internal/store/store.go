// Package store 持久化对话日志与注册用户。
//
// 三种实现共享同一组语义：Recent 总是按时间旧在前返回最近 N 轮，
// DeleteUser 只删除对话记录，不删除账户。
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/mental-buddy/backend/internal/model/chat"
	"github.com/zhouzirui/mental-buddy/backend/internal/model/user"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("username already exists")
	ErrEmailExists      = errors.New("email already registered")
	ErrUsernameRequired = errors.New("username is required")
)

// ConversationLog is the append-only record of conversation turns.
type ConversationLog interface {
	Append(ctx context.Context, turn chat.Turn) (chat.Turn, error)
	// Recent returns up to limit turns for username, oldest first. A
	// non-positive limit returns every turn.
	Recent(ctx context.Context, username string, limit int) ([]chat.Turn, error)
	DeleteUser(ctx context.Context, username string) (int, error)
}

// UserStore persists registered accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *user.User) error
	UserByUsername(ctx context.Context, username string) (user.User, error)
	UserByEmail(ctx context.Context, email string) (user.User, error)
	RecordLogin(ctx context.Context, username string, at time.Time) error
}

// Store 是服务依赖的完整存储后端。
type Store interface {
	ConversationLog
	UserStore
	Ping(ctx context.Context) error
	Close() error
}

// prepareTurn 校验并补齐 ID 与时间戳。
func prepareTurn(turn chat.Turn) (chat.Turn, error) {
	turn.Username = normalizeUsername(turn.Username)
	if turn.Username == "" {
		return chat.Turn{}, ErrUsernameRequired
	}
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	return turn, nil
}

func prepareUser(u *user.User) error {
	u.Username = normalizeUsername(u.Username)
	u.Email = normalizeEmail(u.Email)
	if u.Username == "" {
		return ErrUsernameRequired
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	return nil
}

func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func reverse(turns []chat.Turn) {
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
}

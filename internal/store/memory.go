package store

import (
	"context"
	"sync"
	"time"

	"github.com/zhouzirui/mental-buddy/backend/internal/model/chat"
	"github.com/zhouzirui/mental-buddy/backend/internal/model/user"
)

// MemoryStore keeps everything in process memory. Used for tests and
// STORE_DRIVER=memory.
type MemoryStore struct {
	mu    sync.RWMutex
	turns map[string][]chat.Turn
	users map[string]user.User
}

// NewMemoryStore bootstraps an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		turns: make(map[string][]chat.Turn),
		users: make(map[string]user.User),
	}
}

// Append records a turn for its user.
func (s *MemoryStore) Append(_ context.Context, turn chat.Turn) (chat.Turn, error) {
	turn, err := prepareTurn(turn)
	if err != nil {
		return chat.Turn{}, err
	}

	s.mu.Lock()
	s.turns[turn.Username] = append(s.turns[turn.Username], turn)
	s.mu.Unlock()

	return turn, nil
}

// Recent returns the newest turns for username in chronological order.
func (s *MemoryStore) Recent(_ context.Context, username string, limit int) ([]chat.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.turns[normalizeUsername(username)]
	start := 0
	if limit > 0 && len(turns) > limit {
		start = len(turns) - limit
	}

	copied := make([]chat.Turn, len(turns)-start)
	copy(copied, turns[start:])
	return copied, nil
}

// DeleteUser removes every turn of username and reports how many were removed.
func (s *MemoryStore) DeleteUser(_ context.Context, username string) (int, error) {
	key := normalizeUsername(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.turns[key])
	delete(s.turns, key)
	return n, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, u *user.User) error {
	if err := prepareUser(u); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.Username]; ok {
		return ErrUserExists
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return ErrEmailExists
		}
	}
	s.users[u.Username] = *u
	return nil
}

func (s *MemoryStore) UserByUsername(_ context.Context, username string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[normalizeUsername(username)]
	if !ok {
		return user.User{}, ErrUserNotFound
	}
	return u, nil
}

func (s *MemoryStore) UserByEmail(_ context.Context, email string) (user.User, error) {
	email = normalizeEmail(email)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, ErrUserNotFound
}

func (s *MemoryStore) RecordLogin(_ context.Context, username string, at time.Time) error {
	key := normalizeUsername(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[key]
	if !ok {
		return ErrUserNotFound
	}
	at = at.UTC()
	u.LastLogin = &at
	s.users[key] = u
	return nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

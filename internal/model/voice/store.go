package voice

import (
	"errors"
	"strings"
	"sync"
)

var ErrUnknownVoice = errors.New("voice not available")

// Store exposes the voice catalogue and the currently selected voice.
type Store interface {
	List() []Voice
	FindByID(id string) (Voice, bool)
	Current() Voice
	SetCurrent(id string) (Voice, error)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Voice

	mu      sync.RWMutex
	current string
}

// NewMemoryStore returns a MemoryStore preloaded with items. The current
// voice starts at DefaultVoiceID, or the first item when that is absent.
func NewMemoryStore(items []Voice) *MemoryStore {
	s := &MemoryStore{items: append([]Voice(nil), items...)}
	if _, ok := s.FindByID(DefaultVoiceID); ok {
		s.current = DefaultVoiceID
	} else if len(items) > 0 {
		s.current = items[0].ID
	}
	return s
}

func (s *MemoryStore) List() []Voice {
	return append([]Voice(nil), s.items...)
}

// FindByID looks up a voice by name, case-insensitively.
func (s *MemoryStore) FindByID(id string) (Voice, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Voice{}, false
}

func (s *MemoryStore) Current() Voice {
	s.mu.RLock()
	id := s.current
	s.mu.RUnlock()
	v, _ := s.FindByID(id)
	return v
}

// SetCurrent switches the active voice.
func (s *MemoryStore) SetCurrent(id string) (Voice, error) {
	v, ok := s.FindByID(id)
	if !ok {
		return Voice{}, ErrUnknownVoice
	}
	s.mu.Lock()
	s.current = v.ID
	s.mu.Unlock()
	return v, nil
}

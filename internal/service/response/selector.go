package response

import (
	"math/rand"
	"sync"
	"time"

	"github.com/zhouzirui/mental-buddy/backend/internal/model/lookup"
)

// DefaultCacheCapacity 是“上次选择”缓存允许的最大键数。
const DefaultCacheCapacity = 50

// Selector 在模板池中随机选择，并避免同一 (用户, 分类) 连续两次返回同一条模板。
type Selector struct {
	bank     *Bank
	capacity int

	mu   sync.Mutex
	rnd  *rand.Rand
	last map[string]string
}

// SelectorOption customises a Selector.
type SelectorOption func(*Selector)

// WithRand injects the random source. The selector serialises access to it.
func WithRand(r *rand.Rand) SelectorOption {
	return func(s *Selector) {
		if r != nil {
			s.rnd = r
		}
	}
}

// WithCapacity overrides the cache capacity.
func WithCapacity(n int) SelectorOption {
	return func(s *Selector) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// NewSelector 创建选择器。bank 为空时使用内置模板。
func NewSelector(bank *Bank, opts ...SelectorOption) *Selector {
	if bank == nil {
		bank = DefaultBank()
	}
	s := &Selector{
		bank:     bank,
		capacity: DefaultCacheCapacity,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		last:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bank returns the underlying template bank.
func (s *Selector) Bank() *Bank {
	return s.bank
}

// Select 返回 category 下的一条模板（未替换用户名）。分类不存在时回退到 neutral。
func (s *Selector) Select(category Category, userKey string) string {
	text, _ := s.SelectResolved(category, userKey)
	return text
}

// SelectResolved is Select plus the category resolution that was applied.
func (s *Selector) SelectResolved(category Category, userKey string) (string, lookup.Resolution[Category]) {
	res := s.bank.Resolve(category)
	if !res.Ok() {
		return "", res
	}
	pool := s.bank.templates[res.Value]

	key := cacheKey(userKey, res.Value)

	s.mu.Lock()
	defer s.mu.Unlock()

	candidates := pool
	if prev, ok := s.last[key]; ok && len(pool) > 1 {
		candidates = make([]string, 0, len(pool)-1)
		for _, t := range pool {
			if t != prev {
				candidates = append(candidates, t)
			}
		}
		if len(candidates) == 0 {
			candidates = pool
		}
	}

	chosen := candidates[s.rnd.Intn(len(candidates))]

	if _, exists := s.last[key]; !exists && len(s.last) >= s.capacity {
		s.last = make(map[string]string)
	}
	s.last[key] = chosen
	return chosen, res
}

// Choose picks uniformly from pool without touching the repeat cache.
func (s *Selector) Choose(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return pool[s.rnd.Intn(len(pool))]
}

// Chance reports true with probability p.
func (s *Selector) Chance(p float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64() < p
}

// Reset 清空“上次选择”缓存。
func (s *Selector) Reset() {
	s.mu.Lock()
	s.last = make(map[string]string)
	s.mu.Unlock()
}

// Len returns the number of cached keys.
func (s *Selector) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.last)
}

func cacheKey(userKey string, c Category) string {
	return userKey + "|" + string(c)
}

package response

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mental-buddy/backend/internal/model/lookup"
)

func newTestSelector(opts ...SelectorOption) *Selector {
	opts = append([]SelectorOption{WithRand(rand.New(rand.NewSource(42)))}, opts...)
	return NewSelector(DefaultBank(), opts...)
}

func TestSelectNeverRepeatsBackToBack(t *testing.T) {
	s := newTestSelector()
	for _, c := range []Category{Greeting, Anxiety, Sadness, Gratitude, Neutral} {
		prev := s.Select(c, "alice")
		for i := 0; i < 50; i++ {
			next := s.Select(c, "alice")
			require.NotEqual(t, prev, next, "category %s repeated on draw %d", c, i)
			prev = next
		}
	}
}

func TestSelectKeysArePerUserAndCategory(t *testing.T) {
	s := newTestSelector()
	s.Select(Greeting, "alice")
	s.Select(Greeting, "bob")
	s.Select(Anxiety, "alice")
	assert.Equal(t, 3, s.Len())
}

func TestSelectSingleCandidateRepeats(t *testing.T) {
	bank := NewBank(map[Category][]string{
		Neutral:  {"only neutral"},
		Greeting: {"only one"},
	}, nil, nil)
	s := NewSelector(bank)
	assert.Equal(t, "only one", s.Select(Greeting, "u"))
	assert.Equal(t, "only one", s.Select(Greeting, "u"))
}

func TestSelectUnknownCategoryFallsBackToNeutral(t *testing.T) {
	s := newTestSelector()
	text, res := s.SelectResolved(Category("unknown"), "alice")
	assert.Equal(t, lookup.FallbackUsed, res.Outcome)
	assert.Equal(t, Neutral, res.Value)
	assert.Contains(t, DefaultBank().Templates(Neutral), text)
}

func TestSelectUnresolvedWithoutNeutral(t *testing.T) {
	s := NewSelector(NewBank(map[Category][]string{Greeting: {"hi"}}, nil, nil))
	text, res := s.SelectResolved(Anxiety, "alice")
	assert.Empty(t, text)
	assert.Equal(t, lookup.Unresolved, res.Outcome)
}

func TestCacheClearsWhenCapacityExceeded(t *testing.T) {
	s := newTestSelector()
	for i := 0; i < DefaultCacheCapacity; i++ {
		s.Select(Greeting, fmt.Sprintf("user-%d", i))
	}
	require.Equal(t, DefaultCacheCapacity, s.Len())

	// 已存在的键不会触发清空
	s.Select(Greeting, "user-0")
	require.Equal(t, DefaultCacheCapacity, s.Len())

	s.Select(Greeting, "newcomer")
	assert.Equal(t, 1, s.Len())
}

func TestCustomCapacity(t *testing.T) {
	s := newTestSelector(WithCapacity(2))
	s.Select(Greeting, "a")
	s.Select(Greeting, "b")
	s.Select(Greeting, "c")
	assert.Equal(t, 1, s.Len())
}

func TestReset(t *testing.T) {
	s := newTestSelector()
	s.Select(Greeting, "alice")
	s.Reset()
	assert.Zero(t, s.Len())
}

func TestSelectConcurrentAccess(t *testing.T) {
	s := newTestSelector()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Select(Greeting, fmt.Sprintf("user-%d", (n*100+j)%80))
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, s.Len(), DefaultCacheCapacity)
}

func TestChooseAndChance(t *testing.T) {
	s := newTestSelector()
	assert.Empty(t, s.Choose(nil))
	pool := []string{"a", "b"}
	assert.Contains(t, pool, s.Choose(pool))
	assert.False(t, s.Chance(0))
	assert.True(t, s.Chance(1))
}

func TestAllTemplatesCarryPlaceholder(t *testing.T) {
	bank := DefaultBank()
	for _, c := range bank.Categories() {
		pool := bank.Templates(c)
		assert.GreaterOrEqual(t, len(pool), 3, "category %s", c)
		for _, tmpl := range pool {
			assert.True(t, strings.Contains(tmpl, UsernamePlaceholder), "category %s template lacks placeholder: %s", c, tmpl)
		}
	}
}

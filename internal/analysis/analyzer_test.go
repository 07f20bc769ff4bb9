package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zhouzirui/mental-buddy/backend/internal/analysis/crisis"
	"github.com/zhouzirui/mental-buddy/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mental-buddy/backend/internal/analysis/sentiment"
)

func TestAnalyzeComposesClassifiers(t *testing.T) {
	e := NewEngine()
	got := e.Analyze("I hate myself, I'm so worthless")

	assert.Equal(t, crisis.Medium, got.Crisis.Tier)
	assert.True(t, got.Crisis.NeedsEscalation)
	assert.Equal(t, emotion.Anger, got.Emotion.Primary)
	assert.Equal(t, sentiment.VeryNegative, got.Sentiment.Label)
	assert.Equal(t, 6, got.WordCount)
	assert.Equal(t, 31, got.MessageLength)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	e := NewEngine()
	text := "I'm feeling really anxious about my exam tomorrow"
	assert.Equal(t, e.Analyze(text), e.Analyze(text))
}

func TestAnalyzeCountsRunes(t *testing.T) {
	got := NewEngine().Analyze("héllo")
	assert.Equal(t, 5, got.MessageLength)
	assert.Equal(t, 1, got.WordCount)
}

func TestAnalyzeEmpty(t *testing.T) {
	got := NewEngine().Analyze("")
	assert.Equal(t, emotion.Neutral, got.Emotion.Primary)
	assert.Equal(t, crisis.None, got.Crisis.Tier)
	assert.Equal(t, sentiment.Neutral, got.Sentiment.Label)
	assert.Zero(t, got.WordCount)
}

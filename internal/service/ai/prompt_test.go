package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zhouzirui/mental-buddy/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mental-buddy/backend/internal/analysis/sentiment"
)

func at(hour int) time.Time {
	return time.Date(2025, 3, 14, hour, 30, 0, 0, time.UTC)
}

func TestTimeOfDay(t *testing.T) {
	cases := map[int]string{
		0: "night", 4: "night", 5: "morning", 11: "morning",
		12: "afternoon", 16: "afternoon", 17: "evening", 21: "evening", 22: "night",
	}
	for hour, want := range cases {
		assert.Equal(t, want, TimeOfDay(at(hour)), "hour=%d", hour)
	}
}

func TestRecentHistoryKeepsNewestOldestFirst(t *testing.T) {
	p := Prompt{}
	for i := 0; i < 8; i++ {
		p.History = append(p.History, Turn{Message: string(rune('a' + i))})
	}

	got := p.RecentHistory()
	assert.Len(t, got, DefaultHistoryLimit)
	assert.Equal(t, "d", got[0].Message)
	assert.Equal(t, "h", got[len(got)-1].Message)

	p.HistoryLimit = 2
	got = p.RecentHistory()
	assert.Equal(t, []Turn{{Message: "g"}, {Message: "h"}}, got)
}

func TestBuildSystemPrompt(t *testing.T) {
	p := Prompt{
		DisplayName:   "Sam",
		Message:       "I'm nervous",
		Emotion:       emotion.Anxiety,
		Sentiment:     sentiment.Negative,
		MessageLength: 11,
		History: []Turn{
			{Message: "hi", Emotion: "neutral"},
			{Message: "sad day", Emotion: "sadness"},
		},
		Now: at(20),
	}

	got := BuildSystemPrompt(p)
	assert.Contains(t, got, "You are Mira")
	assert.Contains(t, got, "You are speaking with Sam, who is experiencing anxiety.")
	assert.Contains(t, got, "Time of day: evening")
	assert.Contains(t, got, "Sentiment: negative")
	assert.Contains(t, got, "Message length: 11 characters")
	assert.Contains(t, got, "Conversation history: 2 previous interactions")
	assert.Contains(t, got, "Recent emotions: neutral, sadness")
	assert.Contains(t, got, "2025-03-14 20:30:00 UTC")
}

func TestBuildSystemPromptDefaults(t *testing.T) {
	got := BuildSystemPrompt(Prompt{Now: at(3)})
	assert.Contains(t, got, "speaking with friend, who is experiencing neutral")
	assert.Contains(t, got, "Sentiment: neutral")
	assert.Contains(t, got, "Recent emotions: none")
	assert.Contains(t, got, "Time of day: night")
}

func TestCheckOutput(t *testing.T) {
	got, err := checkOutput("  hello  ", "stop")
	assert.NoError(t, err)
	assert.Equal(t, "hello", got)

	_, err = checkOutput("blocked", "content_filter")
	assert.ErrorIs(t, err, ErrContentFiltered)

	_, err = checkOutput("   ", "stop")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

package ai

import (
	"fmt"
	"strings"
	"time"

	"github.com/zhouzirui/mental-buddy/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mental-buddy/backend/internal/analysis/sentiment"
)

// DefaultHistoryLimit 是写入提示词的最近轮次上限。
const DefaultHistoryLimit = 5

// Turn 是一轮已完成的对话。
type Turn struct {
	Message  string
	Response string
	Emotion  string
}

// Prompt 汇总一次生成所需的全部上下文。
type Prompt struct {
	DisplayName   string
	Message       string
	Emotion       emotion.Label
	Sentiment     sentiment.Label
	MessageLength int
	History       []Turn
	HistoryLimit  int
	Now           time.Time
}

// TimeOfDay 把小时映射到 morning/afternoon/evening/night。
func TimeOfDay(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return "morning"
	case h >= 12 && h < 17:
		return "afternoon"
	case h >= 17 && h < 22:
		return "evening"
	default:
		return "night"
	}
}

// RecentHistory 返回最近的若干轮，顺序保持旧在前。
func (p Prompt) RecentHistory() []Turn {
	limit := p.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if len(p.History) <= limit {
		return p.History
	}
	return p.History[len(p.History)-limit:]
}

func (p Prompt) recentEmotions(n int) []string {
	history := p.RecentHistory()
	if len(history) > n {
		history = history[len(history)-n:]
	}
	out := make([]string, 0, len(history))
	for _, turn := range history {
		if turn.Emotion != "" {
			out = append(out, turn.Emotion)
		}
	}
	return out
}

// BuildSystemPrompt 生成 Mira 的系统提示词。
func BuildSystemPrompt(p Prompt) string {
	name := strings.TrimSpace(p.DisplayName)
	if name == "" {
		name = "friend"
	}
	label := p.Emotion
	if label == "" {
		label = emotion.Neutral
	}

	recent := "none"
	if emotions := p.recentEmotions(3); len(emotions) > 0 {
		recent = strings.Join(emotions, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are Mira, a compassionate AI mental health companion. Current time: %s\n\n",
		p.Now.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "You are speaking with %s, who is experiencing %s.\n\n", name, label)

	b.WriteString("Guidelines:\n- ")
	b.WriteString(strings.Join(guidelines(name), "\n- "))

	b.WriteString("\n\nAdditional context:\n")
	fmt.Fprintf(&b, "- Sentiment: %s\n", orNeutral(string(p.Sentiment)))
	fmt.Fprintf(&b, "- Time of day: %s\n", TimeOfDay(p.Now))
	fmt.Fprintf(&b, "- Message length: %d characters\n", p.MessageLength)
	fmt.Fprintf(&b, "- Conversation history: %d previous interactions\n", len(p.History))
	fmt.Fprintf(&b, "- Recent emotions: %s\n", recent)

	b.WriteString("\nRespond as Mira with empathy, understanding and support. Keep it natural and human.")
	return b.String()
}

func guidelines(name string) []string {
	return []string{
		"Be warm, empathetic and non-judgmental",
		`Use first person ("I understand", "I'm here for you")`,
		fmt.Sprintf("Address the user by their name (%s) occasionally", name),
		"Keep responses conversational, 150-250 words at most",
		"Offer gentle support and validation, and suggest coping strategies when appropriate",
		"Ask follow-up questions to encourage deeper sharing",
		"Mention breathing exercises, gratitude practice, mood tracking or progressive relaxation when helpful",
		"Never diagnose or provide medical advice",
		"If the user seems in crisis, express concern and suggest professional help",
	}
}

func orNeutral(s string) string {
	if s == "" {
		return string(sentiment.Neutral)
	}
	return s
}

package analysis

import (
	"strings"
	"unicode/utf8"

	"github.com/zhouzirui/mental-buddy/backend/internal/analysis/crisis"
	"github.com/zhouzirui/mental-buddy/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mental-buddy/backend/internal/analysis/sentiment"
)

// Result 汇总一条消息的全部分析结果。
type Result struct {
	Emotion       emotion.Result      `json:"emotion"`
	Crisis        crisis.Assessment   `json:"crisis"`
	Sentiment     sentiment.Breakdown `json:"sentiment"`
	MessageLength int                 `json:"messageLength"`
	WordCount     int                 `json:"wordCount"`
}

// Engine composes the three classifiers. It holds no mutable state.
type Engine struct {
	emotions   *emotion.Classifier
	crises     *crisis.Classifier
	sentiments *sentiment.Scorer
}

// NewEngine wires the default classifiers.
func NewEngine() *Engine {
	return &Engine{
		emotions:   emotion.NewClassifier(),
		crises:     crisis.NewClassifier(),
		sentiments: sentiment.NewScorer(),
	}
}

// Analyze 对消息做情绪、危机与情感分析。相同输入总是得到相同输出。
func (e *Engine) Analyze(text string) Result {
	return Result{
		Emotion:       e.emotions.Classify(text),
		Crisis:        e.crises.Classify(text),
		Sentiment:     e.sentiments.Analyze(text),
		MessageLength: utf8.RuneCountInString(text),
		WordCount:     len(strings.Fields(text)),
	}
}

// ContainsHighRisk exposes the high-tier crisis check.
func (e *Engine) ContainsHighRisk(text string) bool {
	return e.crises.ContainsHighRisk(text)
}

package emotion

import (
	"math"
	"strings"
)

// Label 表示一条消息的主导情绪。
type Label string

const (
	Neutral   Label = "neutral"
	Sadness   Label = "sadness"
	Anger     Label = "anger"
	Anxiety   Label = "anxiety"
	Happiness Label = "happiness"
	Fear      Label = "fear"
)

// neutralConfidence 是未命中任何关键词时返回的固定置信度。
const neutralConfidence = 0.5

// Result 给出情绪识别结果。
type Result struct {
	Primary    Label         `json:"primary"`
	Confidence float64       `json:"confidence"`
	Scores     map[Label]int `json:"scores"`
}

type bucket struct {
	label    Label
	keywords []string
}

// keywordBuckets 的声明顺序即平局时的优先顺序。
var keywordBuckets = []bucket{
	{Sadness, []string{"sad", "depressed", "down", "miserable", "unhappy", "crying", "tears", "empty", "hopeless", "lonely"}},
	{Anger, []string{"angry", "mad", "furious", "irritated", "annoyed", "frustrated", "rage", "hate", "pissed"}},
	{Anxiety, []string{"anxious", "worried", "nervous", "scared", "afraid", "panic", "stress", "overwhelmed", "fear"}},
	{Happiness, []string{"happy", "joy", "excited", "glad", "cheerful", "delighted", "elated", "pleased", "content"}},
	{Fear, []string{"terrified", "frightened", "scared", "afraid", "horrified", "petrified", "panic", "dread"}},
}

// Labels returns the scored labels in declaration order.
func Labels() []Label {
	out := make([]Label, 0, len(keywordBuckets))
	for _, b := range keywordBuckets {
		out = append(out, b.label)
	}
	return out
}

// Classifier 基于关键词计数的情绪分类器，无状态，可并发使用。
type Classifier struct{}

// NewClassifier returns a keyword classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify 统计每个情绪桶命中的关键词数量，取最高者为主导情绪。
func (c *Classifier) Classify(text string) Result {
	normalized := strings.ToLower(strings.TrimSpace(text))
	scores := make(map[Label]int)

	words := len(strings.Fields(normalized))
	if words == 0 {
		return Result{Primary: Neutral, Confidence: neutralConfidence, Scores: scores}
	}

	best, bestScore := Neutral, 0
	for _, b := range keywordBuckets {
		hits := 0
		for _, kw := range b.keywords {
			if strings.Contains(normalized, kw) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		scores[b.label] = hits
		// 严格大于：平局时保留先声明的标签
		if hits > bestScore {
			best, bestScore = b.label, hits
		}
	}

	if bestScore == 0 {
		return Result{Primary: Neutral, Confidence: neutralConfidence, Scores: scores}
	}

	confidence := math.Min(1.0, float64(bestScore)/float64(words)*10)
	return Result{Primary: best, Confidence: confidence, Scores: scores}
}

// Classify runs the default classifier.
func Classify(text string) Result {
	return NewClassifier().Classify(text)
}

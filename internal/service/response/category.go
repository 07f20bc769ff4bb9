package response

import (
	"strings"
	"unicode"

	"github.com/zhouzirui/mental-buddy/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mental-buddy/backend/internal/model/lookup"
)

type contextRule struct {
	category Category
	// 单词按分词匹配，包含空格的短语按子串匹配
	keywords []string
}

// contextRules 按优先级排列：越具体的意图越靠前，问候最后。
var contextRules = []contextRule{
	{Overthinking, []string{"overthinking", "overthink", "can't stop thinking", "racing thoughts", "ruminating", "mind won't stop"}},
	{SleepIssues, []string{"insomnia", "sleep", "sleeping", "can't sleep", "awake all night", "nightmares"}},
	{WorkStress, []string{"work", "job", "boss", "deadline", "deadlines", "office", "coworker", "coworkers", "workload"}},
	{NotWell, []string{"not well", "not okay", "not ok", "not good", "unwell", "not feeling well", "feel sick"}},
	{Hopelessness, []string{"hopeless", "pointless", "giving up"}},
	{Loneliness, []string{"lonely", "alone", "isolated", "no friends", "nobody cares"}},
	{Gratitude, []string{"thanks", "thank", "thank you", "grateful", "appreciate"}},
	{Greeting, []string{"hello", "hi", "hey", "hiya", "howdy", "good morning", "good afternoon", "good evening"}},
}

// emotionCategories 把情绪标签映射到模板分类。
var emotionCategories = map[emotion.Label]Category{
	emotion.Sadness:   Sadness,
	emotion.Anger:     Anger,
	emotion.Anxiety:   Anxiety,
	emotion.Happiness: Happiness,
	emotion.Fear:      Fear,
}

// DetectContext 根据消息关键词识别上下文意图。
func DetectContext(text string) lookup.Resolution[Category] {
	normalized := strings.Join(tokenize(text), " ")
	if normalized == "" {
		return lookup.NewUnresolved[Category]()
	}

	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(normalized) {
		tokens[tok] = struct{}{}
	}

	for _, rule := range contextRules {
		for _, kw := range rule.keywords {
			if strings.Contains(kw, " ") {
				if strings.Contains(" "+normalized+" ", " "+kw+" ") {
					return lookup.NewFound(rule.category)
				}
				continue
			}
			if _, ok := tokens[kw]; ok {
				return lookup.NewFound(rule.category)
			}
		}
	}
	return lookup.NewUnresolved[Category]()
}

// ResolveCategory 决定回复使用的模板分类：上下文意图优先，其次情绪，最后回退 neutral。
func ResolveCategory(text string, label emotion.Label) lookup.Resolution[Category] {
	if ctx := DetectContext(text); ctx.Ok() {
		return ctx
	}
	if c, ok := emotionCategories[label]; ok {
		return lookup.NewFound(c)
	}
	return lookup.NewFallback(Neutral)
}

// tokenize 小写化并按非字母数字切分，保留单词内部的撇号。
func tokenize(text string) []string {
	lower := strings.ToLower(strings.ReplaceAll(text, "’", "'"))
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

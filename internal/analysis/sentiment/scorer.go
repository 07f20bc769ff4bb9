package sentiment

import "strings"

// Label 是五档情感倾向。
type Label string

const (
	VeryNegative Label = "very_negative"
	Negative     Label = "negative"
	Neutral      Label = "neutral"
	Positive     Label = "positive"
	VeryPositive Label = "very_positive"
)

type weightedWords struct {
	weight int
	words  []string
}

var positiveTiers = []weightedWords{
	{3, []string{
		"amazing", "wonderful", "fantastic", "excellent", "brilliant", "perfect", "love", "adore", "blessed",
		"grateful", "thankful", "happy", "joy", "excited", "thrilled", "ecstatic", "elated", "content",
		"peaceful", "calm", "relaxed", "hopeful", "optimistic", "confident", "proud", "accomplished",
		"successful", "better", "improved", "healing", "recovering", "strong", "resilient", "brave", "courageous",
	}},
	{2, []string{
		"good", "nice", "okay", "fine", "alright", "decent", "pleasant", "satisfied", "comfortable", "stable",
		"balanced", "normal", "regular", "routine", "manageable", "coping", "handling", "dealing", "surviving",
		"getting by", "making it", "pushing through",
	}},
	{1, []string{
		"better", "improving", "progress", "step", "forward", "moving", "trying", "effort", "attempt", "hope",
		"wish", "want", "need", "help", "support", "care", "concern", "understanding", "patience", "time",
		"space", "breath", "moment",
	}},
}

var negativeTiers = []weightedWords{
	{3, []string{
		"terrible", "awful", "horrible", "dreadful", "miserable", "devastated", "crushed", "destroyed", "hopeless",
		"desperate", "suicidal", "kill", "die", "death", "end", "stop", "give up", "quit", "hate", "despise",
		"loathe", "abandoned", "betrayed", "trapped", "stuck", "helpless", "powerless", "worthless", "useless",
		"failure", "loser", "burden", "problem", "trouble", "disaster", "nightmare", "hell",
	}},
	{2, []string{
		"bad", "sad", "depressed", "anxious", "worried", "scared", "fearful", "angry", "frustrated", "irritated",
		"annoyed", "upset", "disappointed", "hurt", "pain", "suffering", "struggling", "fighting", "battling",
		"overwhelmed", "exhausted", "tired", "drained", "empty", "numb", "lost", "confused", "uncertain",
		"doubtful", "insecure", "vulnerable", "weak", "fragile", "broken", "damaged", "wounded",
	}},
	{1, []string{
		"down", "low", "blue", "moody", "cranky", "grumpy", "sensitive", "emotional", "stressed", "tense",
		"nervous", "uneasy", "uncomfortable", "restless", "agitated", "distracted", "scattered", "foggy",
		"cloudy", "heavy", "slow", "tired", "exhausted", "drained", "empty", "numb", "lost", "confused",
		"uncertain", "doubtful", "insecure", "vulnerable", "weak", "fragile", "broken", "damaged", "wounded",
	}},
}

type modifier struct {
	word  string
	delta int
}

// 上下文修饰词：正值计入正向分，负值的绝对值计入负向分。
var modifiers = []modifier{
	{"crying", -2}, {"tears", -2}, {"sob", -2}, {"weep", -2},
	{"smile", 2}, {"laugh", 2}, {"giggle", 2}, {"chuckle", 2},
	{"please", -1}, {"help", -1}, {"need", -1}, {"want", -1},
	{"thank", 1}, {"appreciate", 1}, {"grateful", 1},
	{"always", -1}, {"never", -1}, {"forever", -1}, {"constantly", -1},
	{"sometimes", 1}, {"maybe", 1}, {"perhaps", 1}, {"try", 1},
}

// Breakdown 记录打分明细。
type Breakdown struct {
	Positive int   `json:"positive"`
	Negative int   `json:"negative"`
	Total    int   `json:"total"`
	Label    Label `json:"label"`
}

// Scorer 基于加权关键词的情感打分器。
type Scorer struct{}

// NewScorer returns a keyword sentiment scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score returns only the label.
func (s *Scorer) Score(text string) Label {
	return s.Analyze(text).Label
}

// Analyze 对每个关键词做一次包含判断并累加权重。
func (s *Scorer) Analyze(text string) Breakdown {
	normalized := strings.ToLower(text)

	var pos, neg int
	for _, tier := range positiveTiers {
		pos += tier.weight * countPresent(normalized, tier.words)
	}
	for _, tier := range negativeTiers {
		neg += tier.weight * countPresent(normalized, tier.words)
	}

	for _, m := range modifiers {
		if !strings.Contains(normalized, m.word) {
			continue
		}
		if m.delta > 0 {
			pos += m.delta
		} else {
			neg -= m.delta
		}
	}

	total := pos - neg
	return Breakdown{Positive: pos, Negative: neg, Total: total, Label: LabelFor(total)}
}

// LabelFor maps a net score to its bucket.
func LabelFor(total int) Label {
	switch {
	case total >= 3:
		return VeryPositive
	case total >= 1:
		return Positive
	case total <= -3:
		return VeryNegative
	case total <= -1:
		return Negative
	default:
		return Neutral
	}
}

func countPresent(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}

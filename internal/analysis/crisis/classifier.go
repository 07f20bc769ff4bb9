// Package crisis 识别消息中的自伤风险等级。
//
// 匹配是对小写文本的子串匹配，不区分词边界："useless" 会命中 "uselessly"。
package crisis

import "strings"

// Tier 表示危机等级。
type Tier string

const (
	None   Tier = "none"
	Low    Tier = "low"
	Medium Tier = "medium"
	High   Tier = "high"
)

// Assessment 是一次危机识别的结果。
type Assessment struct {
	Tier            Tier   `json:"tier"`
	NeedsEscalation bool   `json:"needsEscalation"`
	Matched         string `json:"matched,omitempty"`
}

type tierKeywords struct {
	tier     Tier
	keywords []string
}

// 扫描顺序即优先级：高风险优先。
var tiers = []tierKeywords{
	{High, []string{"suicide", "kill myself", "end it all", "no point living", "better off dead", "want to die"}},
	{Medium, []string{"hate myself", "worthless", "useless", "no hope", "can't go on", "nothing matters"}},
	{Low, []string{"really down", "terrible day", "everything wrong", "feel awful", "can't handle"}},
}

// Classifier 按固定优先级扫描关键词等级。
type Classifier struct{}

// NewClassifier returns a crisis classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify 返回第一个命中的等级；全部未命中时为 None。
func (c *Classifier) Classify(text string) Assessment {
	normalized := strings.ToLower(text)
	for _, t := range tiers {
		if kw, ok := firstMatch(normalized, t.keywords); ok {
			return Assessment{Tier: t.tier, NeedsEscalation: requiresEscalation(t.tier), Matched: kw}
		}
	}
	return Assessment{Tier: None}
}

// ContainsHighRisk reports whether the text carries any high-tier phrase.
func (c *Classifier) ContainsHighRisk(text string) bool {
	_, ok := firstMatch(strings.ToLower(text), tiers[0].keywords)
	return ok
}

// Keywords returns a copy of the phrases for the given tier.
func Keywords(tier Tier) []string {
	for _, t := range tiers {
		if t.tier == tier {
			return append([]string(nil), t.keywords...)
		}
	}
	return nil
}

func requiresEscalation(tier Tier) bool {
	return tier == Medium || tier == High
}

func firstMatch(normalized string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(normalized, kw) {
			return kw, true
		}
	}
	return "", false
}

// ParseTier maps a stored string back to a Tier, defaulting to None.
func ParseTier(s string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case Low:
		return Low
	case Medium:
		return Medium
	case High:
		return High
	default:
		return None
	}
}

package response

import "strings"

// Technique 标识追加的治疗性引导类型。
type Technique string

const (
	TechniqueNone       Technique = ""
	TechniqueCBT        Technique = "cbt"
	TechniqueMindful    Technique = "mindfulness"
	TechniqueStrength   Technique = "strength"
	TechniqueBehavioral Technique = "behavioral_activation"
)

type interventionRule struct {
	technique Technique
	triggers  []string
	text      string
}

// 只取第一条命中的规则。
var interventionRules = []interventionRule{
	{
		technique: TechniqueCBT,
		triggers:  []string{"always", "never", "everyone", "nobody", "terrible", "awful"},
		text:      "I notice you're using some very absolute language like 'always' or 'never'. Sometimes when we're struggling, our thinking can become very black-and-white. Might there be some middle ground or exceptions to explore here?",
	},
	{
		technique: TechniqueMindful,
		triggers:  []string{"overwhelmed", "too much", "can't handle", "spinning"},
		text:      "It sounds like you're feeling really overwhelmed right now. When everything feels like too much, it can help to come back to this present moment. Right now, you're here, you're breathing, you're safe. What do you notice about your breathing right now?",
	},
	{
		technique: TechniqueStrength,
		triggers:  []string{"hopeless", "can't do anything", "useless", "worthless"},
		text:      "I hear how hopeless you're feeling, {username}. But I notice something: you reached out today. That takes strength, even when it doesn't feel like it. What other small acts of courage or care have you shown recently?",
	},
	{
		technique: TechniqueBehavioral,
		triggers:  []string{"no energy", "don't want to", "stay in bed", "motivation"},
		text:      "Lack of energy and motivation are such common experiences when we're struggling. Sometimes the smallest actions are the most meaningful. Is there one tiny thing you could do today just for yourself, like making a cup of tea or stepping outside for a moment?",
	},
}

// Intervention 根据消息内容返回一段治疗性引导，未命中返回空串。
func Intervention(text string) (Technique, string) {
	lower := strings.ToLower(text)
	for _, rule := range interventionRules {
		for _, trig := range rule.triggers {
			if strings.Contains(lower, trig) {
				return rule.technique, rule.text
			}
		}
	}
	return TechniqueNone, ""
}

// SafetyMessage 在模板回复路径中检测到高风险短语时整体替换回复。
const SafetyMessage = "I'm really concerned about you right now, {username}. What you're sharing tells me you're in significant emotional pain. Are you having thoughts of hurting yourself? If you're in immediate danger, please call 911 or go to your nearest emergency room. The National Suicide Prevention Lifeline (988) is also available 24/7."

// Personalize replaces every username placeholder.
func Personalize(text, username string) string {
	return strings.ReplaceAll(text, UsernamePlaceholder, username)
}

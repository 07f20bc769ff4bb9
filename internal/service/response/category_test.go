package response

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zhouzirui/mental-buddy/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mental-buddy/backend/internal/model/lookup"
)

func TestDetectContext(t *testing.T) {
	cases := []struct {
		text string
		want Category
		ok   bool
	}{
		{text: "hello", want: Greeting, ok: true},
		{text: "Hey there!", want: Greeting, ok: true},
		{text: "Good morning :)", want: Greeting, ok: true},
		{text: "thank you so much", want: Gratitude, ok: true},
		{text: "My boss keeps piling on deadlines", want: WorkStress, ok: true},
		{text: "hi, work has been brutal", want: WorkStress, ok: true},
		{text: "I can't sleep at all", want: SleepIssues, ok: true},
		{text: "I keep overthinking everything", want: Overthinking, ok: true},
		{text: "I'm not feeling well today", want: NotWell, ok: true},
		{text: "I feel so alone", want: Loneliness, ok: true},
		{text: "this is nothing", ok: false},
		{text: "I'm feeling really anxious about my exam tomorrow", ok: false},
		{text: "", ok: false},
	}

	for _, tc := range cases {
		got := DetectContext(tc.text)
		assert.Equal(t, tc.ok, got.Ok(), "text=%q", tc.text)
		if tc.ok {
			assert.Equal(t, tc.want, got.Value, "text=%q", tc.text)
		}
	}
}

func TestResolveCategoryPrecedence(t *testing.T) {
	// 上下文意图优先于情绪
	res := ResolveCategory("hello, I'm so sad", emotion.Sadness)
	assert.Equal(t, Greeting, res.Value)
	assert.Equal(t, lookup.Found, res.Outcome)

	res = ResolveCategory("I'm feeling really anxious about my exam tomorrow", emotion.Anxiety)
	assert.Equal(t, Anxiety, res.Value)
	assert.Equal(t, lookup.Found, res.Outcome)

	res = ResolveCategory("the sky is blue", emotion.Neutral)
	assert.Equal(t, Neutral, res.Value)
	assert.Equal(t, lookup.FallbackUsed, res.Outcome)
}

func TestInterventionFirstRuleWins(t *testing.T) {
	tech, text := Intervention("Everyone always leaves and I'm overwhelmed")
	assert.Equal(t, TechniqueCBT, tech)
	assert.Contains(t, text, "absolute language")

	tech, _ = Intervention("It's all too much")
	assert.Equal(t, TechniqueMindful, tech)

	tech, text = Intervention("I have no energy")
	assert.Equal(t, TechniqueBehavioral, tech)
	assert.NotEmpty(t, text)

	tech, text = Intervention("quiet day")
	assert.Equal(t, TechniqueNone, tech)
	assert.Empty(t, text)
}

func TestPersonalize(t *testing.T) {
	assert.Equal(t, "Hi Sam, bye Sam", Personalize("Hi {username}, bye {username}", "Sam"))
}

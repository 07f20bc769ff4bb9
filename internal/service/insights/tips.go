package insights

import (
	"fmt"
	"time"
)

// Tip 是某一天的健康建议。
type Tip struct {
	Tip      string `json:"tip"`
	Activity string `json:"activity"`
	Emoji    string `json:"emoji"`
	Focus    string `json:"focus"`
}

var tipsByWeekday = map[time.Weekday]Tip{
	time.Monday: {
		Tip:      "Start your week with intention, %s! Set three small, achievable goals for today.",
		Activity: "Try our breathing exercise to center yourself for the week ahead.",
		Emoji:    "🌟",
		Focus:    "Goal Setting",
	},
	time.Tuesday: {
		Tip:      "Take breaks between tasks, %s. Even 5 minutes of mindfulness can refresh your mind.",
		Activity: "Play our memory game to give your brain a fun workout!",
		Emoji:    "🧠",
		Focus:    "Mindfulness",
	},
	time.Wednesday: {
		Tip:      "Midweek check-in: How are you feeling, %s? It's okay to adjust your expectations.",
		Activity: "Use our mood tracker to reflect on your current emotional state.",
		Emoji:    "💙",
		Focus:    "Self-Awareness",
	},
	time.Thursday: {
		Tip:      "Practice gratitude today, %s. What are three things that went well this week?",
		Activity: "Try our gratitude game to focus on the positive aspects of your life.",
		Emoji:    "🙏",
		Focus:    "Gratitude",
	},
	time.Friday: {
		Tip:      "As the week winds down, celebrate your accomplishments, big or small, %s!",
		Activity: "Relax with our progressive muscle relaxation exercise.",
		Emoji:    "🎉",
		Focus:    "Celebration",
	},
	time.Saturday: {
		Tip:      "Weekend self-care, %s: Do something that brings you joy and peace.",
		Activity: "Engage your mind with our word puzzle games.",
		Emoji:    "🌸",
		Focus:    "Self-Care",
	},
	time.Sunday: {
		Tip:      "Sunday reflection, %s: What did you learn about yourself this week?",
		Activity: "Try all our activities and see which ones resonate with you.",
		Emoji:    "🧘",
		Focus:    "Reflection",
	},
}

// DailyTip returns the tip for now's weekday addressed to name.
func DailyTip(now time.Time, name string) Tip {
	if name == "" {
		name = "friend"
	}
	tip := tipsByWeekday[now.Weekday()]
	tip.Tip = fmt.Sprintf(tip.Tip, name)
	return tip
}

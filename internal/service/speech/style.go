package speech

import (
	"strings"
	"unicode/utf8"

	"github.com/zhouzirui/mental-buddy/backend/internal/analysis/emotion"
)

// Style 是合成语气。
type Style string

const (
	StyleEmpathetic  Style = "empathetic"
	StyleGentle      Style = "gentle"
	StyleCalm        Style = "calm"
	StyleEncouraging Style = "encouraging"
)

const maxSpeechRunes = 1000

// Prosody is the speed, volume and emotion hint for one style.
type Prosody struct {
	Speed    float32
	Volume   float32
	Emotion  string
	EmoScale float32
}

var prosodyByStyle = map[Style]Prosody{
	StyleEmpathetic:  {Speed: 0.95, Volume: 1.0, Emotion: "comfort", EmoScale: 4},
	StyleGentle:      {Speed: 0.9, Volume: 0.9, Emotion: "tender", EmoScale: 3},
	StyleCalm:        {Speed: 0.9, Volume: 1.0, Emotion: "neutral", EmoScale: 2},
	StyleEncouraging: {Speed: 1.05, Volume: 1.1, Emotion: "happy", EmoScale: 3},
}

// ParseStyle 识别前端传入的语气名，"cheerful" 视为 encouraging，未知值返回 false。
func ParseStyle(s string) (Style, bool) {
	switch st := Style(strings.ToLower(strings.TrimSpace(s))); st {
	case StyleEmpathetic, StyleGentle, StyleCalm, StyleEncouraging:
		return st, true
	case "cheerful":
		return StyleEncouraging, true
	}
	return "", false
}

// StyleFor picks a style from the detected emotion.
func StyleFor(label emotion.Label) Style {
	switch label {
	case emotion.Sadness:
		return StyleGentle
	case emotion.Anxiety, emotion.Fear, emotion.Anger:
		return StyleCalm
	case emotion.Happiness:
		return StyleEncouraging
	default:
		return StyleEmpathetic
	}
}

// ProsodyFor returns the settings for style, defaulting to empathetic.
func ProsodyFor(style Style) Prosody {
	if p, ok := prosodyByStyle[style]; ok {
		return p
	}
	return prosodyByStyle[StyleEmpathetic]
}

// supportsEmotion 判断音色是否为情感音色。
func supportsEmotion(speaker string) bool {
	s := strings.ToLower(speaker)
	return strings.Contains(s, "_emo_") || strings.HasSuffix(s, "_emo")
}

var speechReplacer = strings.NewReplacer(
	"Dr.", "Doctor",
	"Mr.", "Mister",
	"Mrs.", "Missus",
	"e.g.", "for example",
	"i.e.", "that is",
	"etc.", "etcetera",
	"vs.", "versus",
	"&", "and",
	"%", " percent",
)

// PrepareText 把回复文本整理成适合朗读的形式：段落合并为句子并截断到 1000 个字符。
func PrepareText(text string) string {
	var parts []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		if !strings.ContainsAny(line[len(line)-1:], ".!?") {
			line += "."
		}
		parts = append(parts, line)
	}
	text = speechReplacer.Replace(strings.Join(parts, " "))

	if utf8.RuneCountInString(text) > maxSpeechRunes {
		runes := []rune(text)
		text = string(runes[:maxSpeechRunes]) + "..."
	}
	return text
}

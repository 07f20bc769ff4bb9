// Package insights 基于对话日志计算用户统计、情绪洞察与数据导出。
package insights

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zhouzirui/mental-buddy/backend/internal/model/chat"
	"github.com/zhouzirui/mental-buddy/backend/internal/store"
)

const (
	HistoryLimit = 20
	StatsWindow  = 50
	MoodWindow   = 100
	ExportLimit  = 1000

	recentActivityLimit = 5
	recentEmotionLimit  = 20

	ExportFormat = "Mental Buddy Export v2.1"
)

var ErrActivityRequired = errors.New("activity type is required")

var (
	positiveEmotions = map[string]bool{"happiness": true, "positive": true, "joy": true, "excitement": true}
	negativeEmotions = map[string]bool{
		"sadness": true, "anxiety": true, "anger": true,
		"fear": true, "loneliness": true, "hopelessness": true,
	}
)

// Service reads the conversation log on behalf of the insight endpoints.
type Service struct {
	log store.ConversationLog
	now func() time.Time
}

func NewService(log store.ConversationLog) *Service {
	return &Service{log: log, now: time.Now}
}

// History 返回最近 HistoryLimit 轮，按时间旧在前。
func (s *Service) History(ctx context.Context, username string) ([]chat.Turn, error) {
	turns, err := s.log.Recent(ctx, username, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return turns, nil
}

// Activity 是一次已完成的练习。
type Activity struct {
	Description string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
}

// Stats summarises the last StatsWindow turns.
type Stats struct {
	Username           string         `json:"username"`
	TotalConversations int            `json:"total_conversations"`
	ActivityCount      int            `json:"activity_count"`
	EmotionCounts      map[string]int `json:"emotions_count"`
	MostCommonEmotion  string         `json:"most_common_emotion"`
	RecentActivities   []Activity     `json:"recent_activities"`
	LastActivity       *Activity      `json:"last_activity"`
	WellnessScore      int            `json:"wellness_score"`
}

func (s *Service) Stats(ctx context.Context, username string) (Stats, error) {
	turns, err := s.log.Recent(ctx, username, StatsWindow)
	if err != nil {
		return Stats{}, fmt.Errorf("load stats window: %w", err)
	}

	counts := CountEmotions(turns)
	activities := make([]Activity, 0)
	// 最新的活动排在前面
	for i := len(turns) - 1; i >= 0; i-- {
		if IsActivityMessage(turns[i].Message) {
			activities = append(activities, Activity{Description: turns[i].Message, Timestamp: turns[i].CreatedAt})
		}
	}

	stats := Stats{
		Username:           username,
		TotalConversations: len(turns),
		ActivityCount:      len(activities),
		EmotionCounts:      counts,
		MostCommonEmotion:  MostCommon(counts),
		RecentActivities:   activities[:min(len(activities), recentActivityLimit)],
		WellnessScore:      WellnessScore(counts, len(activities)),
	}
	if len(activities) > 0 {
		stats.LastActivity = &activities[0]
	}
	return stats, nil
}

// CountEmotions tallies the recorded emotion of each turn.
func CountEmotions(turns []chat.Turn) map[string]int {
	counts := make(map[string]int)
	for _, t := range turns {
		counts[t.Emotion]++
	}
	return counts
}

// MostCommon returns the most frequent emotion, breaking ties alphabetically.
// An empty tally yields "neutral".
func MostCommon(counts map[string]int) string {
	best, bestN := "neutral", 0
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if counts[k] > bestN {
			best, bestN = k, counts[k]
		}
	}
	return best
}

// IsActivityMessage 判断消息是否描述了一次完成的活动。
func IsActivityMessage(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "activity") || strings.Contains(lower, "completed")
}

// WellnessScore 从 50 起算，按情绪与活动次数加减分，结果截断到 [0, 100]。
func WellnessScore(counts map[string]int, activities int) int {
	score := 50
	score += min(counts["happiness"]*5, 30)
	score += min(counts["positive"]*3, 20)
	score += min(activities*2, 20)
	score -= min(counts["sadness"]*3, 20)
	score -= min(counts["anxiety"]*3, 20)
	return max(0, min(100, score))
}

// MoodBalance splits a window into positive, negative and neutral turns.
type MoodBalance struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
	Total    int `json:"total"`
}

type EmotionPoint struct {
	Emotion   string    `json:"emotion"`
	Timestamp time.Time `json:"timestamp"`
}

type MoodReport struct {
	Username        string         `json:"username"`
	Balance         MoodBalance    `json:"mood_balance"`
	RecentEmotions  []EmotionPoint `json:"recent_emotions"`
	Insights        []string       `json:"insights"`
	Recommendations []string       `json:"recommendations"`
}

var recommendations = []string{
	"Continue using our breathing exercises when feeling anxious",
	"Try the gratitude game to boost positive emotions",
	"Use the mood tracker to build self-awareness",
	"Consider voice conversations for a more personal experience",
}

// MoodInsights analyses the last MoodWindow turns.
func (s *Service) MoodInsights(ctx context.Context, username string) (MoodReport, error) {
	turns, err := s.log.Recent(ctx, username, MoodWindow)
	if err != nil {
		return MoodReport{}, fmt.Errorf("load mood window: %w", err)
	}

	balance := Balance(turns)
	recent := make([]EmotionPoint, 0, recentEmotionLimit)
	for i := len(turns) - 1; i >= 0 && len(recent) < recentEmotionLimit; i-- {
		recent = append(recent, EmotionPoint{Emotion: turns[i].Emotion, Timestamp: turns[i].CreatedAt})
	}

	return MoodReport{
		Username:        username,
		Balance:         balance,
		RecentEmotions:  recent,
		Insights:        Insights(balance, username),
		Recommendations: append([]string(nil), recommendations...),
	}, nil
}

func Balance(turns []chat.Turn) MoodBalance {
	var b MoodBalance
	for _, t := range turns {
		switch {
		case positiveEmotions[t.Emotion]:
			b.Positive++
		case negativeEmotions[t.Emotion]:
			b.Negative++
		}
	}
	b.Total = len(turns)
	b.Neutral = b.Total - b.Positive - b.Negative
	return b
}

// Insights 生成情绪平衡描述；对话满 10 次时追加致谢。
func Insights(b MoodBalance, username string) []string {
	var out []string
	switch {
	case b.Positive > b.Negative:
		out = append(out, fmt.Sprintf("You've been experiencing more positive emotions lately, %s! That's wonderful to see.", username))
	case float64(b.Negative) > float64(b.Positive)*1.5:
		out = append(out, fmt.Sprintf("I notice you've been going through some difficult emotions, %s. Remember, it's okay to feel this way, and I'm here to support you.", username))
	default:
		out = append(out, fmt.Sprintf("Your emotional balance shows you're navigating both positive and challenging moments, %s.", username))
	}
	if b.Total >= 10 {
		out = append(out, fmt.Sprintf("You've had %d conversations with me, %s. Thank you for trusting me with your thoughts and feelings.", b.Total, username))
	}
	return out
}

type ExportSummary struct {
	TotalConversations int            `json:"total_conversations"`
	ActivitiesDone     int            `json:"total_activities_completed"`
	Emotions           map[string]int `json:"emotions_distribution"`
	FirstConversation  *time.Time     `json:"first_conversation"`
	LastConversation   *time.Time     `json:"last_conversation"`
}

// Export is the full data export for a user.
type Export struct {
	Username    string        `json:"username"`
	Format      string        `json:"data_format"`
	ExportedAt  time.Time     `json:"export_date"`
	Summary     ExportSummary `json:"summary"`
	History     []chat.Turn   `json:"conversation_history"`
	PrivacyNote string        `json:"privacy_note"`
}

func (s *Service) Export(ctx context.Context, username string) (Export, error) {
	turns, err := s.log.Recent(ctx, username, ExportLimit)
	if err != nil {
		return Export{}, fmt.Errorf("load export: %w", err)
	}

	activities := 0
	for _, t := range turns {
		if IsActivityMessage(t.Message) {
			activities++
		}
	}
	summary := ExportSummary{
		TotalConversations: len(turns),
		ActivitiesDone:     activities,
		Emotions:           CountEmotions(turns),
	}
	if len(turns) > 0 {
		first, last := turns[0].CreatedAt, turns[len(turns)-1].CreatedAt
		summary.FirstConversation, summary.LastConversation = &first, &last
	}

	return Export{
		Username:    username,
		Format:      ExportFormat,
		ExportedAt:  s.now().UTC(),
		Summary:     summary,
		History:     turns,
		PrivacyNote: "This export contains your complete conversation history with Mental Buddy. Please handle it securely.",
	}, nil
}

// DeleteUser removes every conversation turn for username.
func (s *Service) DeleteUser(ctx context.Context, username string) (int, error) {
	n, err := s.log.DeleteUser(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("delete conversations: %w", err)
	}
	return n, nil
}

var activityDescriptions = map[string]string{
	"breathing":              "%s completed a breathing exercise. This helps reduce anxiety and promotes relaxation.",
	"gratitude":              "%s practiced gratitude by reflecting on positive aspects of their day.",
	"word-puzzle":            "%s completed a word puzzle, engaging their mind in a positive, focused activity.",
	"memory-game":            "%s played a memory game, which helps with cognitive function and provides a mental break.",
	"mood-tracker":           "%s tracked their mood, building self-awareness and emotional intelligence.",
	"progressive-relaxation": "%s completed a progressive muscle relaxation exercise, helping to reduce physical tension.",
}

// SaveActivity 记录一次完成的活动，情绪固定为 chat.ActivityEmotion。
func (s *Service) SaveActivity(ctx context.Context, username, activityType string) (chat.Turn, error) {
	activityType = strings.TrimSpace(activityType)
	if activityType == "" {
		return chat.Turn{}, ErrActivityRequired
	}

	message := fmt.Sprintf("Completed %s activity", activityType)
	if tmpl, ok := activityDescriptions[activityType]; ok {
		message = fmt.Sprintf(tmpl, username)
	}
	reply := fmt.Sprintf(
		"Wonderful job completing the %s activity, %s! These therapeutic exercises are great for mental wellness and self-care. How did that feel for you?",
		strings.ReplaceAll(activityType, "-", " "), username)

	turn, err := s.log.Append(ctx, chat.Turn{
		Username:  username,
		Message:   message,
		Response:  reply,
		Emotion:   chat.ActivityEmotion,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return chat.Turn{}, fmt.Errorf("save activity: %w", err)
	}
	return turn, nil
}

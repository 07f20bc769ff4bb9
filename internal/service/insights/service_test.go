package insights

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mental-buddy/backend/internal/model/chat"
	"github.com/zhouzirui/mental-buddy/backend/internal/service/escalation"
	"github.com/zhouzirui/mental-buddy/backend/internal/store"
)

var base = time.Date(2025, 6, 24, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T, log store.ConversationLog, username string, emotions ...string) {
	t.Helper()
	for i, e := range emotions {
		_, err := log.Append(context.Background(), chat.Turn{
			Username:  username,
			Message:   fmt.Sprintf("message %d", i),
			Response:  "ok",
			Emotion:   e,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
}

func TestWellnessScore(t *testing.T) {
	cases := []struct {
		name       string
		counts     map[string]int
		activities int
		want       int
	}{
		{"empty", map[string]int{}, 0, 50},
		{"happy capped", map[string]int{"happiness": 10}, 0, 80},
		{"positive and activities", map[string]int{"positive": 2}, 3, 62},
		{"all bonuses", map[string]int{"happiness": 9, "positive": 9}, 20, 100},
		{"sad and anxious", map[string]int{"sadness": 10, "anxiety": 10}, 0, 10},
		{"mixed", map[string]int{"happiness": 2, "sadness": 4}, 1, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, WellnessScore(tc.counts, tc.activities))
		})
	}
}

func TestMostCommon(t *testing.T) {
	assert.Equal(t, "neutral", MostCommon(nil))
	assert.Equal(t, "sadness", MostCommon(map[string]int{"sadness": 3, "anxiety": 1}))
	assert.Equal(t, "anxiety", MostCommon(map[string]int{"sadness": 2, "anxiety": 2}))
}

func TestIsActivityMessage(t *testing.T) {
	assert.True(t, IsActivityMessage("Sam Completed a breathing exercise"))
	assert.True(t, IsActivityMessage("Completed yoga activity"))
	assert.False(t, IsActivityMessage("I feel calm"))
}

func TestStats(t *testing.T) {
	log := store.NewMemoryStore()
	svc := NewService(log)
	ctx := context.Background()
	seed(t, log, "sam", "sadness", "sadness", "anxiety")

	_, err := svc.SaveActivity(ctx, "sam", "breathing")
	require.NoError(t, err)
	_, err = svc.SaveActivity(ctx, "sam", "gratitude")
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, "sam")
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalConversations)
	assert.Equal(t, 1, stats.ActivityCount)
	assert.Equal(t, map[string]int{"sadness": 2, "anxiety": 1, "positive": 2}, stats.EmotionCounts)
	assert.Equal(t, "positive", stats.MostCommonEmotion)
	// 50 + 6 (positive) + 2 (activity) - 6 (sadness) - 3 (anxiety)
	assert.Equal(t, 49, stats.WellnessScore)
	require.NotNil(t, stats.LastActivity)
	assert.Contains(t, stats.LastActivity.Description, "breathing")
}

func TestStatsEmptyUser(t *testing.T) {
	stats, err := NewService(store.NewMemoryStore()).Stats(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalConversations)
	assert.Equal(t, "neutral", stats.MostCommonEmotion)
	assert.Equal(t, 50, stats.WellnessScore)
	assert.Nil(t, stats.LastActivity)
	assert.NotNil(t, stats.RecentActivities)
}

func TestSaveActivity(t *testing.T) {
	log := store.NewMemoryStore()
	svc := NewService(log)
	ctx := context.Background()

	turn, err := svc.SaveActivity(ctx, "sam", "word-puzzle")
	require.NoError(t, err)
	assert.Equal(t, chat.ActivityEmotion, turn.Emotion)
	assert.True(t, turn.IsActivity())
	assert.Contains(t, turn.Message, "sam completed a word puzzle")
	assert.Contains(t, turn.Response, "word puzzle activity, sam!")

	custom, err := svc.SaveActivity(ctx, "sam", "yoga")
	require.NoError(t, err)
	assert.Equal(t, "Completed yoga activity", custom.Message)

	_, err = svc.SaveActivity(ctx, "sam", " ")
	assert.ErrorIs(t, err, ErrActivityRequired)
}

func TestMoodInsights(t *testing.T) {
	log := store.NewMemoryStore()
	svc := NewService(log)
	emotions := []string{"happiness", "joy", "positive", "sadness", "neutral"}
	for _i := 0; _i < 5; _i++ {
		seed(t, log, "sam", emotions...)
	}

	report, err := svc.MoodInsights(context.Background(), "sam")
	require.NoError(t, err)
	assert.Equal(t, MoodBalance{Positive: 15, Negative: 5, Neutral: 5, Total: 25}, report.Balance)
	assert.Len(t, report.RecentEmotions, 20)
	require.Len(t, report.Insights, 2)
	assert.Contains(t, report.Insights[0], "more positive emotions")
	assert.Contains(t, report.Insights[1], "25 conversations")
	assert.Len(t, report.Recommendations, 4)
}

func TestInsightsBranches(t *testing.T) {
	hard := Insights(MoodBalance{Positive: 1, Negative: 2, Total: 3}, "sam")
	require.Len(t, hard, 1)
	assert.Contains(t, hard[0], "difficult emotions, sam")

	mixed := Insights(MoodBalance{Positive: 2, Negative: 3, Total: 5}, "sam")
	assert.Contains(t, mixed[0], "navigating both")
}

func TestExport(t *testing.T) {
	log := store.NewMemoryStore()
	svc := NewService(log)
	svc.now = func() time.Time { return base.Add(time.Hour) }
	seed(t, log, "sam", "sadness", "neutral")

	export, err := svc.Export(context.Background(), "sam")
	require.NoError(t, err)
	assert.Equal(t, ExportFormat, export.Format)
	assert.Equal(t, base.Add(time.Hour), export.ExportedAt)
	assert.Equal(t, 2, export.Summary.TotalConversations)
	require.NotNil(t, export.Summary.FirstConversation)
	assert.True(t, export.Summary.FirstConversation.Equal(base))
	assert.True(t, export.Summary.LastConversation.Equal(base.Add(time.Minute)))
	assert.Len(t, export.History, 2)
}

func TestDeleteUser(t *testing.T) {
	log := store.NewMemoryStore()
	svc := NewService(log)
	seed(t, log, "sam", "sadness", "neutral")
	seed(t, log, "alex", "joy")

	n, err := svc.DeleteUser(context.Background(), "sam")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	history, err := svc.History(context.Background(), "sam")
	require.NoError(t, err)
	assert.Empty(t, history)

	other, err := svc.History(context.Background(), "alex")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestDailyTip(t *testing.T) {
	tuesday := time.Date(2025, 6, 24, 10, 0, 0, 0, time.UTC)
	tip := DailyTip(tuesday, "Sam")
	assert.Equal(t, "Mindfulness", tip.Focus)
	assert.Contains(t, tip.Tip, "Take breaks between tasks, Sam.")

	sunday := DailyTip(time.Date(2025, 6, 29, 10, 0, 0, 0, time.UTC), "")
	assert.Equal(t, "Reflection", sunday.Focus)
	assert.Contains(t, sunday.Tip, "friend")
}

func TestBuildEmergencyResources(t *testing.T) {
	res := BuildEmergencyResources(nil)
	assert.Equal(t, "911", res.ImmediateHelp.Emergency)
	assert.Equal(t, "988", res.ImmediateHelp.CrisisLine)
	assert.Equal(t, "Text HOME to 741741", res.ImmediateHelp.CrisisText)
	require.Len(t, res.Regional, 5)
	assert.Equal(t, "AU", res.Regional[0].Code)
	assert.Equal(t, "1-833-456-4566", res.Regional[1].Phone)
	assert.Len(t, res.Online, 3)

	table, err := escalation.ParseResourceTable([]byte("emergency: \"112\"\ndefault_location: DE\nlocations:\n  DE:\n    name: Telefonseelsorge\n"))
	require.NoError(t, err)
	custom := BuildEmergencyResources(table)
	assert.Equal(t, "112", custom.ImmediateHelp.Emergency)
	assert.Empty(t, custom.ImmediateHelp.CrisisLine)
	assert.Contains(t, custom.Disclaimer, "112")
}

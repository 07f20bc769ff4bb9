package chat

import "time"

// Turn 是一轮对话：用户消息、回复以及分析元数据。写入后不再修改。
type Turn struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Message    string    `json:"message"`
	Response   string    `json:"response"`
	Emotion    string    `json:"emotion"`
	CrisisTier string    `json:"crisisLevel,omitempty"`
	Sentiment  string    `json:"sentiment,omitempty"`
	CreatedAt  time.Time `json:"timestamp"`
}

// ActivityEmotion 标记由 save-activity 写入的活动记录。
const ActivityEmotion = "positive"

// IsActivity 判断该轮是否为一次已完成的健康活动。
func (t Turn) IsActivity() bool {
	return t.Emotion == ActivityEmotion
}

package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mental-buddy/backend/internal/config"
)

type fakeChatModel struct {
	reply *schema.Message
	err   error
	seen  []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.seen = input
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeChatModel) BindTools([]*schema.ToolInfo) error {
	return nil
}

func TestArkGeneratorGenerate(t *testing.T) {
	fake := &fakeChatModel{reply: schema.AssistantMessage("I'm here with you, Sam.", nil)}
	gen, err := NewArkGeneratorWithModel(context.Background(), "test-model", fake)
	require.NoError(t, err)

	got, err := gen.Generate(context.Background(), Prompt{
		DisplayName: "Sam",
		Message:     "rough day",
		History: []Turn{
			{Message: "hi", Response: "hello Sam"},
		},
		Now: at(9),
	})
	require.NoError(t, err)
	assert.Equal(t, "I'm here with you, Sam.", got)

	require.Len(t, fake.seen, 4)
	assert.Equal(t, schema.System, fake.seen[0].Role)
	assert.Contains(t, fake.seen[0].Content, "Time of day: morning")
	assert.Equal(t, "hi", fake.seen[1].Content)
	assert.Equal(t, schema.Assistant, fake.seen[2].Role)
	assert.Equal(t, "rough day", fake.seen[3].Content)
}

func TestArkGeneratorFailures(t *testing.T) {
	filtered := schema.AssistantMessage("", nil)
	filtered.ResponseMeta = &schema.ResponseMeta{FinishReason: "content_filter"}

	cases := []struct {
		name string
		fake *fakeChatModel
		want error
	}{
		{name: "filtered", fake: &fakeChatModel{reply: filtered}, want: ErrContentFiltered},
		{name: "empty", fake: &fakeChatModel{reply: schema.AssistantMessage(" ", nil)}, want: ErrEmptyResponse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen, err := NewArkGeneratorWithModel(context.Background(), "m", tc.fake)
			require.NoError(t, err)
			_, err = gen.Generate(context.Background(), Prompt{Message: "x"})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestArkGeneratorPingUpdatesAvailability(t *testing.T) {
	fake := &fakeChatModel{err: errors.New("boom")}
	gen, err := NewArkGeneratorWithModel(context.Background(), "m", fake)
	require.NoError(t, err)
	assert.True(t, gen.Available(context.Background()))

	assert.Error(t, gen.Ping(context.Background()))
	assert.False(t, gen.Available(context.Background()))

	fake.err = nil
	fake.reply = schema.AssistantMessage("ok", nil)
	assert.NoError(t, gen.Ping(context.Background()))
	assert.True(t, gen.Available(context.Background()))
}

func openAIServer(t *testing.T, content, finish string, status int) (*httptest.Server, *map[string]any) {
	t.Helper()
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"bad request","type":"invalid_request_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   "gpt-test",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": finish,
				"logprobs":      nil,
				"message":       map[string]any{"role": "assistant", "content": content, "refusal": ""},
			}},
			"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func newTestOpenAI(t *testing.T, url string) *OpenAIGenerator {
	t.Helper()
	temp, topP, maxTokens := 0.8, 0.9, 350
	gen, err := NewOpenAIGenerator(config.AIConfig{
		Provider:      config.ProviderOpenAI,
		OpenAIKey:     "sk-test",
		OpenAIModel:   "gpt-test",
		OpenAIBaseURL: url + "/",
		Temperature:   &temp,
		TopP:          &topP,
		MaxTokens:     &maxTokens,
	})
	require.NoError(t, err)
	return gen
}

func TestOpenAIGeneratorGenerate(t *testing.T) {
	srv, captured := openAIServer(t, "You're not alone.", "stop", http.StatusOK)
	gen := newTestOpenAI(t, srv.URL)

	got, err := gen.Generate(context.Background(), Prompt{
		DisplayName: "Sam",
		Message:     "I feel low",
		History:     []Turn{{Message: "hi", Response: "hello"}},
		Now:         at(13),
	})
	require.NoError(t, err)
	assert.Equal(t, "You're not alone.", got)

	req := *captured
	assert.Equal(t, "gpt-test", req["model"])
	assert.EqualValues(t, 350, req["max_tokens"])
	messages, ok := req["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 4)
}

func TestOpenAIGeneratorContentFilter(t *testing.T) {
	srv, _ := openAIServer(t, "", "content_filter", http.StatusOK)
	_, err := newTestOpenAI(t, srv.URL).Generate(context.Background(), Prompt{Message: "x"})
	assert.ErrorIs(t, err, ErrContentFiltered)
}

func TestOpenAIGeneratorHTTPError(t *testing.T) {
	srv, _ := openAIServer(t, "", "", http.StatusBadRequest)
	gen := newTestOpenAI(t, srv.URL)
	assert.Error(t, gen.Ping(context.Background()))
	assert.False(t, gen.Available(context.Background()))
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), config.AIConfig{Provider: config.ProviderArk})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewOpenAIGenerator(config.AIConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

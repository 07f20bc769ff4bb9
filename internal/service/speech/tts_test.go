package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mental-buddy/backend/internal/config"
)

type fakeTTSServer struct {
	mu        sync.Mutex
	resources []string
	requests  []ttsRequest
	// reply writes the server side of one session.
	reply func(conn *websocket.Conn, resourceID string)
}

func (f *fakeTTSServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	_, data, err := conn.ReadMessage()
	if err != nil {
		return
	}
	frame, err := UnmarshalFrame(data)
	if err != nil {
		return
	}
	var req ttsRequest
	_ = json.Unmarshal(frame.Payload, &req)

	resourceID := r.Header.Get("X-Api-Resource-Id")
	f.mu.Lock()
	f.resources = append(f.resources, resourceID)
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	f.reply(conn, resourceID)
}

func (f *fakeTTSServer) snapshot() ([]string, []ttsRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.resources...), append([]ttsRequest(nil), f.requests...)
}

func newTestClient(t *testing.T, srv *httptest.Server, resourceID string) *Client {
	t.Helper()
	client, err := NewClient(config.SpeechConfig{
		AppID:       "app",
		AccessToken: "token",
		ResourceID:  resourceID,
		Endpoint:    "ws" + strings.TrimPrefix(srv.URL, "http"),
		Language:    "en-US",
		Timeout:     2 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func send(conn *websocket.Conn, f *Frame) {
	_ = conn.WriteMessage(websocket.BinaryMessage, f.Marshal())
}

func TestClientSynthesizeCollectsAudio(t *testing.T) {
	fake := &fakeTTSServer{reply: func(conn *websocket.Conn, _ string) {
		send(conn, &Frame{Type: AudioOnlyServerResponse, Payload: []byte("abc")})
		chunk := base64.StdEncoding.EncodeToString([]byte("def"))
		body, _ := json.Marshal(map[string]any{"reqid": "req-1", "code": 0, "data": chunk, "addition": map[string]string{"duration": "1500"}})
		send(conn, &Frame{Type: FullServerResponse, Serialization: JSONPayload, Payload: body})
		send(conn, &Frame{Type: FullServerResponse, Flags: WithEvent, Event: EventSessionFinished, SessionID: "s"})
	}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client := newTestClient(t, srv, "")
	audio, err := client.Synthesize(context.Background(), Request{
		Text:    "hello",
		Speaker: "en_female_skye_emo_v2_mars_bigtts",
		Prosody: ProsodyFor(StyleGentle),
		Emotive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(audio.Data))
	assert.Equal(t, "mp3", audio.Format)
	assert.Equal(t, "req-1", audio.RequestID)
	assert.Equal(t, 1500*time.Millisecond, audio.Duration)

	resources, requests := fake.snapshot()
	require.Len(t, requests, 1)
	params := requests[0].ReqParams
	assert.Equal(t, "hello", params.Text)
	assert.Equal(t, "en-US", params.Language)
	assert.Equal(t, "tender", params.AudioParams.Emotion)
	assert.InDelta(t, 0.9, params.AudioParams.SpeedRatio, 1e-6)
	assert.Equal(t, []string{resourceSeed}, resources)
}

func TestClientFallsBackOnResourceMismatch(t *testing.T) {
	fake := &fakeTTSServer{reply: func(conn *websocket.Conn, resourceID string) {
		if resourceID == resourceSeed {
			send(conn, &Frame{Type: ErrorMessage, ErrorCode: 1, Payload: []byte("resource ID is mismatched with speaker related resource")})
			return
		}
		send(conn, &Frame{Type: AudioOnlyServerResponse, Payload: []byte("ok")})
		send(conn, &Frame{Type: FullServerResponse, Flags: NegativeSequence, Sequence: -1})
	}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	audio, err := newTestClient(t, srv, "").Synthesize(context.Background(), Request{Text: "hi", Speaker: "en_female_amanda_mars_bigtts"})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(audio.Data))

	resources, _ := fake.snapshot()
	assert.Equal(t, []string{resourceSeed, resourceDefault}, resources)
}

func TestClientReturnsAPIError(t *testing.T) {
	fake := &fakeTTSServer{reply: func(conn *websocket.Conn, _ string) {
		body, _ := json.Marshal(map[string]any{"code": 4001, "message": "quota exceeded"})
		send(conn, &Frame{Type: FullServerResponse, Payload: body})
	}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	_, err := newTestClient(t, srv, "custom").Synthesize(context.Background(), Request{Text: "hi", Speaker: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	resources, _ := fake.snapshot()
	assert.Equal(t, []string{"custom"}, resources)
}

func TestClientEmptyAudio(t *testing.T) {
	fake := &fakeTTSServer{reply: func(conn *websocket.Conn, _ string) {
		send(conn, &Frame{Type: FullServerResponse, Flags: WithEvent, Event: EventSessionFinished})
	}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	_, err := newTestClient(t, srv, "").Synthesize(context.Background(), Request{Text: "hi", Speaker: "x"})
	assert.ErrorIs(t, err, ErrEmptyAudio)
}

func TestClientHonoursContext(t *testing.T) {
	release := make(chan struct{})
	fake := &fakeTTSServer{reply: func(*websocket.Conn, string) { <-release }}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := newTestClient(t, srv, "").Synthesize(ctx, Request{Text: "hi", Speaker: "x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(config.SpeechConfig{AppID: "app"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestResourceCandidates(t *testing.T) {
	assert.Equal(t, []string{resourceMega}, resourceCandidates("S_clone"))
	assert.Equal(t, []string{resourceSeed, resourceDefault}, resourceCandidates("en_male_glen_emo_v2_mars_bigtts"))
	assert.Equal(t, []string{resourceDefault, resourceSeed}, resourceCandidates("en_legacy_voice"))
}

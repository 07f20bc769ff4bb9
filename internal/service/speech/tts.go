package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/mental-buddy/backend/internal/config"
)

var (
	ErrNotConfigured = errors.New("speech synthesis is not configured")
	ErrEmptyAudio    = errors.New("speech synthesis returned no audio")
)

const (
	resourceDefault = "volc.service_type.10029"
	resourceSeed    = "seed-tts-2.0"
	resourceMega    = "volc.megatts.default"

	sampleRate = 24000
)

// Request 是一次合成请求。
type Request struct {
	Text     string
	Speaker  string
	Prosody  Prosody
	Emotive  bool
	Language string
	Format   string
}

// Audio is the synthesized clip.
type Audio struct {
	Data      []byte
	Format    string
	Duration  time.Duration
	RequestID string
}

// Synthesizer turns text into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (Audio, error)
}

// Client 是火山引擎单向流式 TTS 的 WebSocket 客户端。每次合成新建一条连接。
type Client struct {
	endpoint   string
	appID      string
	token      string
	resourceID string
	language   string
	dialer     *websocket.Dialer
}

// NewClient builds a client from cfg. Missing credentials yield ErrNotConfigured.
func NewClient(cfg config.SpeechConfig) (*Client, error) {
	appID := strings.TrimSpace(cfg.AppID)
	token := strings.TrimSpace(cfg.AccessToken)
	if appID == "" || token == "" {
		return nil, ErrNotConfigured
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		appID:      appID,
		token:      token,
		resourceID: strings.TrimSpace(cfg.ResourceID),
		language:   cfg.Language,
		dialer:     &websocket.Dialer{HandshakeTimeout: timeout},
	}, nil
}

type ttsRequest struct {
	User struct {
		UID string `json:"uid"`
	} `json:"user"`
	ReqParams struct {
		Speaker     string         `json:"speaker"`
		Text        string         `json:"text"`
		AudioParams ttsAudioParams `json:"audio_params"`
		Additions   string         `json:"additions,omitempty"`
		Language    string         `json:"language,omitempty"`
	} `json:"req_params"`
}

type ttsAudioParams struct {
	Format       string  `json:"format"`
	SampleRate   int     `json:"sample_rate"`
	SpeedRatio   float32 `json:"speed_ratio,omitempty"`
	VolumeRatio  float32 `json:"volume_ratio,omitempty"`
	Emotion      string  `json:"emotion,omitempty"`
	EmotionScale float32 `json:"emotion_scale,omitempty"`
}

type ttsServerMessage struct {
	ReqID    string `json:"reqid"`
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Sequence int    `json:"sequence"`
	Data     string `json:"data"`
	Addition struct {
		Duration string `json:"duration,omitempty"`
	} `json:"addition,omitempty"`
}

// Synthesize tries each compatible resource id for the speaker until one
// accepts it.
func (c *Client) Synthesize(ctx context.Context, req Request) (Audio, error) {
	if strings.TrimSpace(req.Text) == "" {
		return Audio{}, errors.New("tts text is empty")
	}
	if req.Format == "" || req.Format == "wav" {
		req.Format = "mp3"
	}
	if req.Language == "" {
		req.Language = c.language
	}

	candidates := resourceCandidates(req.Speaker)
	if c.resourceID != "" {
		candidates = []string{c.resourceID}
	}

	var lastErr error
	for _, resourceID := range candidates {
		audio, err := c.synthesize(ctx, req, resourceID)
		if err == nil {
			return audio, nil
		}
		if !isResourceMismatch(err) {
			return Audio{}, err
		}
		slog.Warn("tts resource mismatch", "component", "speech", "speaker", req.Speaker, "resource", resourceID)
		lastErr = err
	}
	return Audio{}, lastErr
}

func (c *Client) synthesize(ctx context.Context, req Request, resourceID string) (Audio, error) {
	connectID := uuid.NewString()
	header := http.Header{}
	header.Set("X-Api-App-Key", c.appID)
	header.Set("X-Api-Access-Key", c.token)
	header.Set("X-Api-Resource-Id", resourceID)
	header.Set("X-Api-Connect-Id", connectID)

	conn, resp, err := c.dialer.DialContext(ctx, c.endpoint, header)
	if err != nil {
		return Audio{}, fmt.Errorf("dial tts: %w", err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if resp != nil {
		if logID := resp.Header.Get("X-Tt-Logid"); logID != "" {
			slog.Debug("tts connected", "component", "speech", "logid", logID)
		}
	}

	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return Audio{}, fmt.Errorf("marshal tts request: %w", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, NewRequestFrame(body).Marshal()); err != nil {
		return Audio{}, fmt.Errorf("send tts request: %w", err)
	}

	var (
		audio    bytes.Buffer
		reqID    string
		duration time.Duration
	)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Audio{}, ctxErr
			}
			return Audio{}, fmt.Errorf("read tts response: %w", err)
		}
		frame, err := UnmarshalFrame(data)
		if err != nil {
			return Audio{}, fmt.Errorf("decode tts frame: %w", err)
		}
		payload, err := frame.DecodedPayload()
		if err != nil {
			return Audio{}, err
		}

		switch frame.Type {
		case ErrorMessage:
			return Audio{}, fmt.Errorf("tts error %d: %s", frame.ErrorCode, payload)

		case AudioOnlyServerResponse:
			audio.Write(payload)

		case FullServerResponse:
			var msg ttsServerMessage
			if len(payload) > 0 {
				if err := json.Unmarshal(payload, &msg); err != nil {
					slog.Debug("tts payload is not json", "component", "speech", "error", err)
				} else {
					if msg.Code != 0 && msg.Code != 3000 {
						return Audio{}, fmt.Errorf("tts api error %d: %s", msg.Code, msg.Message)
					}
					if msg.ReqID != "" {
						reqID = msg.ReqID
					}
					if ms, err := strconv.ParseInt(msg.Addition.Duration, 10, 64); err == nil {
						duration = time.Duration(ms) * time.Millisecond
					}
					if msg.Data != "" {
						chunk, err := base64.StdEncoding.DecodeString(msg.Data)
						if err != nil {
							return Audio{}, fmt.Errorf("decode audio chunk: %w", err)
						}
						audio.Write(chunk)
					}
				}
			}

			finished := (frame.hasEvent() && frame.Event == EventSessionFinished) || frame.Final() || msg.Sequence < 0
			if !finished {
				continue
			}
			if audio.Len() == 0 {
				return Audio{}, ErrEmptyAudio
			}
			if reqID == "" {
				reqID = connectID
			}
			return Audio{Data: audio.Bytes(), Format: req.Format, Duration: duration, RequestID: reqID}, nil

		default:
			slog.Debug("unexpected tts frame", "component", "speech", "type", frame.Type)
		}
	}
}

func (c *Client) buildRequest(req Request) *ttsRequest {
	r := &ttsRequest{}
	r.User.UID = uuid.NewString()
	r.ReqParams.Speaker = req.Speaker
	r.ReqParams.Text = req.Text
	r.ReqParams.Language = req.Language
	r.ReqParams.Additions = `{"disable_markdown_filter":false}`

	params := &r.ReqParams.AudioParams
	params.Format = req.Format
	params.SampleRate = sampleRate
	if p := req.Prosody.Speed; p > 0 && p != 1 {
		params.SpeedRatio = p
	}
	if p := req.Prosody.Volume; p > 0 && p != 1 {
		params.VolumeRatio = p
	}
	if req.Emotive && supportsEmotion(req.Speaker) && req.Prosody.Emotion != "" && req.Prosody.Emotion != "neutral" {
		params.Emotion = req.Prosody.Emotion
		params.EmotionScale = min(max(req.Prosody.EmoScale, 1), 5)
	}
	return r
}

// resourceCandidates 按音色前缀推断资源 ID 的尝试顺序。
func resourceCandidates(speaker string) []string {
	speaker = strings.TrimSpace(speaker)
	if strings.HasPrefix(speaker, "S_") {
		return []string{resourceMega}
	}
	lower := strings.ToLower(speaker)
	for _, hint := range []string{"bigtts", "seed", "megatts", "mars", "venus", "jupiter", "uranus"} {
		if strings.Contains(lower, hint) {
			return []string{resourceSeed, resourceDefault}
		}
	}
	return []string{resourceDefault, resourceSeed}
}

func isResourceMismatch(err error) bool {
	return err != nil && strings.Contains(err.Error(), "resource ID is mismatched with speaker related resource")
}

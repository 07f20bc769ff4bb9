package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/mental-buddy/backend/internal/analysis"
	"github.com/zhouzirui/mental-buddy/backend/internal/config"
	"github.com/zhouzirui/mental-buddy/backend/internal/model/voice"
	"github.com/zhouzirui/mental-buddy/backend/internal/service/speech"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("无法加载 .env，改用系统环境变量", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("配置加载失败", err)
	}

	text := flag.String("text", "", "待合成文本")
	voiceID := flag.String("voice", "", "音色名，默认使用 SPEECH_TTS_VOICE")
	style := flag.String("style", "", "语气: empathetic|gentle|calm|encouraging，留空则按文本情绪推导")
	outputPath := flag.String("out", "", "输出音频文件路径 (默认自动生成)")
	list := flag.Bool("list", false, "列出可用音色后退出")
	timeout := flag.Duration("timeout", 45*time.Second, "请求超时时间")
	flag.Parse()

	voices := voice.NewMemoryStore(voice.Seed())
	if *list {
		for _, v := range voices.List() {
			fmt.Printf("%-8s %-7s %s\n", v.ID, v.Gender, v.Description)
		}
		return
	}

	if strings.TrimSpace(*text) == "" {
		flag.Usage()
		os.Exit(2)
	}

	client, err := speech.NewClient(cfg.Speech)
	if err != nil {
		fatal("语音服务未启用，请先配置 SPEECH_APP_ID 与 SPEECH_ACCESS_TOKEN", err)
	}
	svc := speech.NewService(client, voices,
		speech.WithTimeout(*timeout),
		speech.WithRatios(cfg.Speech.Speed, cfg.Speech.Volume))

	id := *voiceID
	if id == "" {
		id = cfg.Speech.Voice
	}

	label := analysis.NewEngine().Analyze(*text).Emotion.Primary
	slog.Info("开始进行 TTS 测试", "voice", id, "style", *style, "emotion", label)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	res, err := svc.Generate(ctx, speech.GenerateRequest{
		Text:    *text,
		VoiceID: id,
		Style:   *style,
		Emotion: label,
	})
	if err != nil {
		fatal("TTS 调用失败", err)
	}

	out := *outputPath
	if out == "" {
		out = fmt.Sprintf("tts-output-%d.%s", time.Now().Unix(), res.Format)
	}
	if err := os.WriteFile(out, res.Audio, 0o644); err != nil {
		fatal("写入音频文件失败", err)
	}

	slog.Info("TTS 合成成功", "out", out, "voice", res.Voice.ID, "style", res.Style,
		"bytes", len(res.Audio), "elapsed", time.Since(start).Round(time.Millisecond))
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

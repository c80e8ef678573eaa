// Package speech synthesizes reply audio through ElevenLabs.
package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

type Config struct {
	APIKey       string
	WSBaseURL    string
	VoiceID      string
	ModelID      string
	OutputFormat string
	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
}

// Synthesizer turns reply text into audio bytes (mp3 by default).
type Synthesizer struct {
	cfg Config
	log *log.Logger
}

func New(cfg Config, logger *log.Logger) *Synthesizer {
	if strings.TrimSpace(cfg.WSBaseURL) == "" {
		cfg.WSBaseURL = "wss://api.elevenlabs.io"
	}
	if strings.TrimSpace(cfg.ModelID) == "" {
		cfg.ModelID = "eleven_multilingual_v2"
	}
	if strings.TrimSpace(cfg.OutputFormat) == "" {
		cfg.OutputFormat = "mp3_44100_128"
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Synthesizer{cfg: cfg, log: logger}
}

// Configured reports whether an API key and voice are set.
func (s *Synthesizer) Configured() bool {
	return s != nil && s.cfg.APIKey != "" && s.cfg.VoiceID != ""
}

type streamMessage struct {
	Audio   string `json:"audio"`
	IsFinal bool   `json:"isFinal"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Synthesize returns the audio for text. Without configuration, or for blank
// text, it returns nil and no error.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if !s.Configured() || text == "" {
		return nil, nil
	}

	u, err := url.Parse(strings.TrimRight(s.cfg.WSBaseURL, "/") +
		"/v1/text-to-speech/" + url.PathEscape(s.cfg.VoiceID) + "/stream-input")
	if err != nil {
		return nil, fmt.Errorf("tts url: %w", err)
	}
	q := u.Query()
	q.Set("model_id", s.cfg.ModelID)
	q.Set("output_format", s.cfg.OutputFormat)
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("xi-api-key", s.cfg.APIKey)

	conn, resp, err := s.cfg.Dialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial tts websocket: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("dial tts websocket: %w", err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	frames := []map[string]any{
		{"text": " ", "voice_settings": map[string]any{"stability": 0.5, "similarity_boost": 0.8}},
		{"text": text + " ", "try_trigger_generation": true},
		{"text": ""},
	}
	for _, f := range frames {
		if err := conn.WriteJSON(f); err != nil {
			return nil, fmt.Errorf("send tts text: %w", err)
		}
	}

	var audio []byte
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) && len(audio) > 0 {
				break
			}
			return nil, fmt.Errorf("read tts stream: %w", err)
		}

		var msg streamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Debug("skipping non-json tts frame", "err", err)
			continue
		}
		if msg.Error != "" {
			return nil, fmt.Errorf("elevenlabs: %s: %s", msg.Error, msg.Message)
		}
		if msg.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(msg.Audio)
			if err != nil {
				return nil, fmt.Errorf("decode tts audio: %w", err)
			}
			audio = append(audio, chunk...)
		}
		if msg.IsFinal {
			break
		}
	}

	if len(audio) == 0 {
		return nil, errors.New("elevenlabs: no audio received")
	}
	s.log.Debug("synthesized", "chars", len(text), "bytes", len(audio))
	return audio, nil
}

// Package app wires configuration into a ready turn pipeline.
package app

import (
	"fmt"
	log "log/slog"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/prometheus/client_golang/prometheus"

	"riverwood/internal/config"
	"riverwood/internal/frontend"
	"riverwood/internal/memory"
	"riverwood/internal/observability"
	"riverwood/internal/proxy"
	"riverwood/internal/reply"
	"riverwood/internal/speech"
	"riverwood/internal/status"
	"riverwood/internal/transcribe"
	"riverwood/internal/transcribe/whisper"
	"riverwood/internal/turn"
	"riverwood/pkg/stt"
)

type Options struct {
	// Proxy is a SOCKS5 address for every provider connection. Empty dials
	// directly.
	Proxy string
	// Registry receives the pipeline metrics. Nil disables them.
	Registry *prometheus.Registry
}

type App struct {
	Config       config.Config
	Orchestrator *turn.Orchestrator
	Session      *frontend.Session
	Metrics      *observability.Metrics

	whisper *stt.Transcriber
}

// Build constructs the pipeline. Missing credentials only degrade it; errors
// come from bad files, a bad proxy or a model that fails to load.
func Build(cfg config.Config, opts Options) (*App, error) {
	for _, w := range frontend.Warnings(cfg) {
		log.Warn(w)
	}

	httpClient, err := proxy.NewHTTPClient(opts.Proxy, cfg.HTTPTimeout)
	if err != nil {
		return nil, fmt.Errorf("proxy http client: %w", err)
	}
	wsDialer, err := proxy.NewWSDialer(opts.Proxy, 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("proxy ws dialer: %w", err)
	}

	board := status.Default()
	if cfg.StatusFile != "" {
		board, err = status.LoadFile(cfg.StatusFile)
		if err != nil {
			return nil, err
		}
		log.Debug("Loaded status board", "file", cfg.StatusFile, "items", len(board.Items))
	}

	a := &App{Config: cfg}

	var completer reply.Completer
	var backend transcribe.Backend
	if cfg.HasOpenAI() {
		client := newOpenAIClient(cfg, httpClient)
		completer = reply.NewOpenAIChat(client, cfg.ChatModel, cfg.MaxTokens, cfg.Temperature)
		backend = transcribe.NewOpenAI(client, cfg.TranscribeModel)
	}
	if cfg.WhisperModel != "" {
		a.whisper, err = stt.NewTranscriber(cfg.WhisperModel)
		if err != nil {
			return nil, fmt.Errorf("load whisper model: %w", err)
		}
		backend = whisper.New(a.whisper, stt.Options{Language: "auto"}, log.Default())
		log.Debug("Loaded whisper", "model", cfg.WhisperModel)
	}

	if opts.Registry != nil {
		a.Metrics = observability.NewMetrics("riverwood", opts.Registry)
	}

	logger := log.Default()
	a.Orchestrator = turn.New(turn.Deps{
		Memory:      memory.NewFileStore(cfg.MemoryFile, logger),
		Transcriber: transcribe.New(backend, logger),
		Generator:   reply.New(completer, logger),
		Synthesizer: speech.New(speech.Config{
			APIKey:       cfg.ElevenAPIKey,
			WSBaseURL:    cfg.ElevenWSBaseURL,
			VoiceID:      cfg.ElevenVoiceID,
			ModelID:      cfg.ElevenModelID,
			OutputFormat: cfg.ElevenOutputFormat,
			Dialer:       wsDialer,
		}, logger),
		Status: board,
	}, turn.WithMetrics(a.Metrics), turn.WithLogger(logger))
	a.Session = frontend.NewSession(a.Orchestrator)

	return a, nil
}

func (a *App) Close() error {
	return a.whisper.Close()
}

func newOpenAIClient(cfg config.Config, httpClient *http.Client) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAIAPIKey),
		option.WithHTTPClient(httpClient),
		// quota errors must surface on the first attempt
		option.WithMaxRetries(0),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}
	return openai.NewClient(opts...)
}

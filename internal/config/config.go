// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvOpenAIKey = "OPENAI_API_KEY"
	EnvElevenKey = "ELEVEN_API_KEY"
)

// Config holds provider credentials and tunables. Missing credentials are not
// an error: the affected component runs in its degraded mode.
type Config struct {
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	ChatModel       string
	TranscribeModel string
	MaxTokens       int
	Temperature     float64

	ElevenAPIKey       string
	ElevenWSBaseURL    string
	ElevenVoiceID      string
	ElevenModelID      string
	ElevenOutputFormat string

	MemoryFile   string
	StatusFile   string
	WhisperModel string
	HTTPTimeout  time.Duration
}

// Load reads the environment and applies defaults.
func Load() (Config, error) {
	cfg := Config{
		OpenAIAPIKey:       trimmed(EnvOpenAIKey),
		OpenAIBaseURL:      trimmed("OPENAI_BASE_URL"),
		ChatModel:          envOrDefault("RIVERWOOD_CHAT_MODEL", "gpt-4.1-mini"),
		TranscribeModel:    envOrDefault("RIVERWOOD_TRANSCRIBE_MODEL", "gpt-4o-mini-transcribe"),
		MaxTokens:          220,
		Temperature:        0.7,
		ElevenAPIKey:       trimmed(EnvElevenKey),
		ElevenWSBaseURL:    envOrDefault("ELEVEN_WS_BASE_URL", "wss://api.elevenlabs.io"),
		ElevenVoiceID:      envOrDefault("ELEVEN_VOICE_ID", "OuMzFHdSH2X2F1osLEcJ"),
		ElevenModelID:      envOrDefault("ELEVEN_MODEL_ID", "eleven_multilingual_v2"),
		ElevenOutputFormat: envOrDefault("ELEVEN_OUTPUT_FORMAT", "mp3_44100_128"),
		MemoryFile:         envOrDefault("RIVERWOOD_MEMORY_FILE", "memory.json"),
		StatusFile:         trimmed("RIVERWOOD_STATUS_FILE"),
		WhisperModel:       trimmed("RIVERWOOD_WHISPER_MODEL"),
		HTTPTimeout:        120 * time.Second,
	}

	var err error
	cfg.MaxTokens, err = intFromEnv("RIVERWOOD_MAX_TOKENS", cfg.MaxTokens)
	if err != nil {
		return Config{}, err
	}
	cfg.Temperature, err = floatFromEnv("RIVERWOOD_TEMPERATURE", cfg.Temperature)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTPTimeout, err = durationFromEnv("RIVERWOOD_HTTP_TIMEOUT", cfg.HTTPTimeout)
	if err != nil {
		return Config{}, err
	}
	if cfg.MaxTokens <= 0 {
		return Config{}, fmt.Errorf("RIVERWOOD_MAX_TOKENS must be positive, got %d", cfg.MaxTokens)
	}
	return cfg, nil
}

// HasOpenAI reports whether transcription and generation can reach a provider.
func (c Config) HasOpenAI() bool { return c.OpenAIAPIKey != "" }

// HasEleven reports whether speech synthesis is available.
func (c Config) HasEleven() bool { return c.ElevenAPIKey != "" }

func envOrDefault(key, fallback string) string {
	if v := trimmed(key); v != "" {
		return v
	}
	return fallback
}

func trimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmed(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := trimmed(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

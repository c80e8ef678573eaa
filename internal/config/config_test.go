package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HasOpenAI() || cfg.HasEleven() {
		t.Fatalf("credentials present with empty env: %+v", cfg)
	}
	if cfg.ChatModel != "gpt-4.1-mini" {
		t.Fatalf("ChatModel = %q, want %q", cfg.ChatModel, "gpt-4.1-mini")
	}
	if cfg.TranscribeModel != "gpt-4o-mini-transcribe" {
		t.Fatalf("TranscribeModel = %q, want %q", cfg.TranscribeModel, "gpt-4o-mini-transcribe")
	}
	if cfg.MaxTokens != 220 || cfg.Temperature != 0.7 {
		t.Fatalf("MaxTokens/Temperature = %d/%v, want 220/0.7", cfg.MaxTokens, cfg.Temperature)
	}
	if cfg.MemoryFile != "memory.json" {
		t.Fatalf("MemoryFile = %q, want memory.json", cfg.MemoryFile)
	}
	if cfg.ElevenVoiceID != "OuMzFHdSH2X2F1osLEcJ" {
		t.Fatalf("ElevenVoiceID = %q", cfg.ElevenVoiceID)
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	setEnvEmpty(t)
	t.Setenv("OPENAI_API_KEY", "  sk-test  ")
	t.Setenv("ELEVEN_API_KEY", "xi-test")
	t.Setenv("RIVERWOOD_MAX_TOKENS", "64")
	t.Setenv("RIVERWOOD_TEMPERATURE", "0.2")
	t.Setenv("RIVERWOOD_HTTP_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OpenAIAPIKey != "sk-test" {
		t.Fatalf("OpenAIAPIKey = %q, want trimmed key", cfg.OpenAIAPIKey)
	}
	if !cfg.HasOpenAI() || !cfg.HasEleven() {
		t.Fatalf("HasOpenAI/HasEleven = %v/%v, want true/true", cfg.HasOpenAI(), cfg.HasEleven())
	}
	if cfg.MaxTokens != 64 || cfg.Temperature != 0.2 || cfg.HTTPTimeout != 5*time.Second {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	for _, key := range []string{"RIVERWOOD_MAX_TOKENS", "RIVERWOOD_TEMPERATURE", "RIVERWOOD_HTTP_TIMEOUT"} {
		t.Run(key, func(t *testing.T) {
			setEnvEmpty(t)
			t.Setenv(key, "lots")
			if _, err := Load(); err == nil {
				t.Fatalf("Load() error = nil with %s=lots", key)
			}
		})
	}
}

func setEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"OPENAI_API_KEY",
		"OPENAI_BASE_URL",
		"RIVERWOOD_CHAT_MODEL",
		"RIVERWOOD_TRANSCRIBE_MODEL",
		"RIVERWOOD_MAX_TOKENS",
		"RIVERWOOD_TEMPERATURE",
		"ELEVEN_API_KEY",
		"ELEVEN_WS_BASE_URL",
		"ELEVEN_VOICE_ID",
		"ELEVEN_MODEL_ID",
		"ELEVEN_OUTPUT_FORMAT",
		"RIVERWOOD_MEMORY_FILE",
		"RIVERWOOD_STATUS_FILE",
		"RIVERWOOD_WHISPER_MODEL",
		"RIVERWOOD_HTTP_TIMEOUT",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

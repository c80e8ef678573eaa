// Package frontend keeps the presentation-side state shared by the daemon's
// adapters: the last reply and the user-facing notices around a turn.
package frontend

import (
	"context"
	"fmt"
	"sync"

	"riverwood/internal/config"
	"riverwood/internal/memory"
	"riverwood/internal/turn"
)

const Greeting = "Namaste! Main Miss Riverwood hoon. Hinglish mein baat kijiye — main aapko daily construction updates aur project details bataungi. Aapka naam bhi yaad rakhungi! Chaliye, shuru karein? 😊"

const (
	VoiceUnavailable = "Voice playback unavailable (missing or invalid ElevenLabs key)."
	OpenAIKeyWarning = "OpenAI key missing. Add OPENAI_API_KEY in your .env file."
	ElevenKeyWarning = "ElevenLabs key missing. Voice playback will be disabled."
	ttsErrorPrefix   = "TTS Error: "
)

// Core is the part of the orchestrator a session drives.
type Core interface {
	ProcessTurn(ctx context.Context, in turn.Input) turn.Result
	Synthesize(ctx context.Context, text string) ([]byte, error)
	LoadMemory(ctx context.Context) memory.Record
}

type Session struct {
	core Core

	mu        sync.Mutex
	lastReply string
}

func NewSession(core Core) *Session {
	return &Session{core: core, lastReply: Greeting}
}

// Turn runs one turn and remembers the reply when there is one.
func (s *Session) Turn(ctx context.Context, in turn.Input) turn.Result {
	res := s.core.ProcessTurn(ctx, in)
	if res.Outcome == turn.Replied {
		s.mu.Lock()
		s.lastReply = res.Reply
		s.mu.Unlock()
	}
	return res
}

func (s *Session) LastReply() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReply
}

// Play synthesizes the last reply. When no audio comes back the notice says
// why; audio and notice are never both set.
func (s *Session) Play(ctx context.Context) ([]byte, string) {
	audio, err := s.core.Synthesize(ctx, s.LastReply())
	if err != nil {
		return nil, ttsErrorPrefix + err.Error()
	}
	if len(audio) == 0 {
		return nil, VoiceUnavailable
	}
	return audio, ""
}

func (s *Session) Memory(ctx context.Context) memory.Record {
	return s.core.LoadMemory(ctx)
}

// Echo renders the resolved input the way the user sees it.
func Echo(res turn.Result) string {
	switch res.Source {
	case turn.FromAudio:
		return fmt.Sprintf("You said: %s", res.Transcript)
	case turn.FromText:
		return fmt.Sprintf("You typed: %s", res.Transcript)
	}
	return ""
}

// Warnings lists what degrades because a key is missing.
func Warnings(cfg config.Config) []string {
	var out []string
	if !cfg.HasOpenAI() {
		out = append(out, OpenAIKeyWarning)
	}
	if !cfg.HasEleven() {
		out = append(out, ElevenKeyWarning)
	}
	return out
}

// Render is the text shown for a finished turn: the notice for an aborted
// turn, otherwise the echoed input and the reply.
func Render(res turn.Result) string {
	if res.Aborted() {
		return res.Message
	}
	return Echo(res) + "\n\n" + res.Reply
}

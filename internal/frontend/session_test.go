package frontend

import (
	"context"
	"errors"
	"testing"

	"riverwood/internal/config"
	"riverwood/internal/memory"
	"riverwood/internal/turn"
)

type fakeCore struct {
	res   turn.Result
	audio []byte
	err   error
	spoke string
}

func (f *fakeCore) ProcessTurn(context.Context, turn.Input) turn.Result { return f.res }

func (f *fakeCore) Synthesize(_ context.Context, text string) ([]byte, error) {
	f.spoke = text
	return f.audio, f.err
}

func (f *fakeCore) LoadMemory(context.Context) memory.Record {
	return memory.Record{Name: memory.Text("Rohan")}
}

func TestSessionStartsWithGreeting(t *testing.T) {
	s := NewSession(&fakeCore{})
	if got := s.LastReply(); got != Greeting {
		t.Fatalf("LastReply = %q, want greeting", got)
	}
}

func TestSessionKeepsReplyOnlyWhenReplied(t *testing.T) {
	core := &fakeCore{res: turn.Result{Outcome: turn.NoInput, Message: turn.NoInputMessage}}
	s := NewSession(core)
	ctx := context.Background()

	s.Turn(ctx, turn.Input{})
	if s.LastReply() != Greeting {
		t.Fatalf("LastReply changed on aborted turn: %q", s.LastReply())
	}

	core.res = turn.Result{Outcome: turn.Replied, Reply: "Namaste Rohan"}
	s.Turn(ctx, turn.Input{Text: "hi"})
	if s.LastReply() != "Namaste Rohan" {
		t.Fatalf("LastReply = %q", s.LastReply())
	}
}

func TestSessionPlay(t *testing.T) {
	ctx := context.Background()

	core := &fakeCore{audio: []byte{1, 2, 3}}
	s := NewSession(core)
	audio, notice := s.Play(ctx)
	if len(audio) != 3 || notice != "" {
		t.Fatalf("audio = %v, notice = %q", audio, notice)
	}
	if core.spoke != Greeting {
		t.Fatalf("synthesized %q, want greeting", core.spoke)
	}

	core.audio = nil
	if _, notice := s.Play(ctx); notice != VoiceUnavailable {
		t.Fatalf("notice = %q, want %q", notice, VoiceUnavailable)
	}

	core.err = errors.New("socket closed")
	if _, notice := s.Play(ctx); notice != "TTS Error: socket closed" {
		t.Fatalf("notice = %q", notice)
	}
}

func TestEcho(t *testing.T) {
	if got := Echo(turn.Result{Source: turn.FromAudio, Transcript: "hello"}); got != "You said: hello" {
		t.Fatalf("Echo = %q", got)
	}
	if got := Echo(turn.Result{Source: turn.FromText, Transcript: "hello"}); got != "You typed: hello" {
		t.Fatalf("Echo = %q", got)
	}
	if got := Echo(turn.Result{}); got != "" {
		t.Fatalf("Echo = %q, want empty", got)
	}
}

func TestWarnings(t *testing.T) {
	got := Warnings(config.Config{})
	if len(got) != 2 || got[0] != OpenAIKeyWarning || got[1] != ElevenKeyWarning {
		t.Fatalf("Warnings = %v", got)
	}
	if got := Warnings(config.Config{OpenAIAPIKey: "k", ElevenAPIKey: "e"}); len(got) != 0 {
		t.Fatalf("Warnings = %v, want none", got)
	}
}

func TestRender(t *testing.T) {
	aborted := turn.Result{Outcome: turn.QuotaExceeded, Message: turn.QuotaAbortMessage}
	if got := Render(aborted); got != turn.QuotaAbortMessage {
		t.Fatalf("Render(aborted) = %q", got)
	}
	ok := turn.Result{Outcome: turn.Replied, Source: turn.FromText, Transcript: "hi", Reply: "Namaste!"}
	if got := Render(ok); got != "You typed: hi\n\nNamaste!" {
		t.Fatalf("Render(ok) = %q", got)
	}
}

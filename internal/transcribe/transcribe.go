// Package transcribe turns recorded audio into text and reports failures as
// explicit result variants instead of errors.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"

	"riverwood/internal/provider"
)

// Tag prefixes every failure message shown to the user.
const Tag = "[STT ERROR]"

const (
	MissingKeyMessage = Tag + " OpenAI key missing. Add OPENAI_API_KEY in .env"
	QuotaMessage      = Tag + " insufficient_quota"
	NoSpeechMessage   = Tag + " no speech detected"
)

type Kind int

const (
	Success Kind = iota
	MissingCredential
	QuotaExceeded
	GenericFailure
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case MissingCredential:
		return "missing_credential"
	case QuotaExceeded:
		return "quota_exceeded"
	default:
		return "generic_failure"
	}
}

// Result is the outcome of one transcription. Text is set on Success, Message
// (tagged with Tag) on every other kind.
type Result struct {
	Kind    Kind
	Text    string
	Message string
}

func (r Result) OK() bool { return r.Kind == Success }

// Display is what the user sees for this result.
func (r Result) Display() string {
	if r.OK() {
		return r.Text
	}
	return r.Message
}

// Backend performs the actual speech-to-text call. It returns
// provider.ErrMissingCredential when it cannot run for lack of a key.
type Backend interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Adapter wraps a Backend. A nil backend means no provider is configured.
type Adapter struct {
	backend Backend
	log     *log.Logger
}

func New(backend Backend, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.Default()
	}
	return &Adapter{backend: backend, log: logger}
}

// Configured reports whether a backend is present.
func (a *Adapter) Configured() bool { return a.backend != nil }

func (a *Adapter) Transcribe(ctx context.Context, audio []byte) Result {
	if a.backend == nil {
		return Result{Kind: MissingCredential, Message: MissingKeyMessage}
	}

	text, err := a.backend.Transcribe(ctx, audio)
	if err != nil {
		if errors.Is(err, provider.ErrMissingCredential) {
			return Result{Kind: MissingCredential, Message: MissingKeyMessage}
		}
		if provider.Classify(err) == provider.QuotaExceeded {
			a.log.Warn("transcription quota exhausted", "err", err)
			return Result{Kind: QuotaExceeded, Message: QuotaMessage}
		}
		a.log.Error("transcription failed", "err", err)
		return Result{Kind: GenericFailure, Message: fmt.Sprintf("%s %v", Tag, err)}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Kind: GenericFailure, Message: NoSpeechMessage}
	}
	a.log.Debug("transcribed", "chars", len(text))
	return Result{Kind: Success, Text: text}
}

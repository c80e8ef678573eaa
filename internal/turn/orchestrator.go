// Package turn runs one user interaction through transcription, reply
// generation and the memory update.
package turn

import (
	"context"
	log "log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"riverwood/internal/memory"
	"riverwood/internal/observability"
	"riverwood/internal/reply"
	"riverwood/internal/transcribe"
)

const (
	NoInputMessage    = "Please record audio OR type a message first."
	QuotaAbortMessage = "❌ OpenAI STT quota exhausted. Try typed message or add credits."
)

// State is a pipeline stage. A Result records the last one reached.
type State string

const (
	AwaitingInput   State = "awaiting_input"
	ResolvingSource State = "resolving_source"
	Transcribing    State = "transcribing"
	Generating      State = "generating"
	UpdatingMemory  State = "updating_memory"
	Ready           State = "ready"
)

type Outcome string

const (
	Replied             Outcome = "replied"
	NoInput             Outcome = "no_input"
	QuotaExceeded       Outcome = "quota_exceeded"
	TranscriptionFailed Outcome = "transcription_failed"
)

type Source string

const (
	FromAudio Source = "audio"
	FromText  Source = "text"
)

// Input carries either recorded audio or typed text. Audio wins when both are
// present.
type Input struct {
	Audio []byte
	Text  string
}

type Result struct {
	ID      string
	Outcome Outcome
	Stage   State
	Source  Source
	// Transcript is the resolved user text (spoken or typed).
	Transcript string
	Reply      string
	// Message explains an aborted turn.
	Message string
}

func (r Result) Aborted() bool { return r.Outcome != Replied }

type MemoryStore interface {
	Load(ctx context.Context) memory.Record
	Save(ctx context.Context, rec memory.Record) error
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) transcribe.Result
}

type Generator interface {
	Reply(ctx context.Context, userText string, mem memory.Record, statusText string) (string, reply.Source)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type StatusBoard interface {
	Text(day time.Time) string
}

// Deps are the collaborators of an Orchestrator. Synthesizer may be nil.
type Deps struct {
	Memory      MemoryStore
	Transcriber Transcriber
	Generator   Generator
	Synthesizer Synthesizer
	Status      StatusBoard
}

type Option func(*Orchestrator)

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// Orchestrator owns the memory record for the duration of a turn. Turns are
// serialized.
type Orchestrator struct {
	mu      sync.Mutex
	deps    Deps
	now     func() time.Time
	metrics *observability.Metrics
	log     *log.Logger
}

func New(deps Deps, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		deps: deps,
		now:  time.Now,
		log:  log.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ProcessTurn runs the pipeline for one input.
func (o *Orchestrator) ProcessTurn(ctx context.Context, in Input) Result {
	o.mu.Lock()
	defer o.mu.Unlock()

	res := Result{ID: uuid.NewString(), Stage: AwaitingInput}
	logger := o.log.With("turn", res.ID)

	typed := strings.TrimSpace(in.Text)
	if len(in.Audio) == 0 && typed == "" {
		res.Outcome = NoInput
		res.Message = NoInputMessage
		o.metrics.TurnDone(string(res.Outcome))
		logger.Info("turn skipped, no input")
		return res
	}

	res.Stage = ResolvingSource
	var userText string
	if len(in.Audio) > 0 {
		res.Source = FromAudio
		res.Stage = Transcribing

		start := time.Now()
		tr := o.deps.Transcriber.Transcribe(ctx, in.Audio)
		o.metrics.ObserveStage(string(Transcribing), time.Since(start))
		o.metrics.Transcribed(tr.Kind.String())

		switch {
		case tr.Kind == transcribe.QuotaExceeded:
			res.Outcome = QuotaExceeded
			res.Message = QuotaAbortMessage
		case !tr.OK():
			res.Outcome = TranscriptionFailed
			res.Message = tr.Display()
		}
		if res.Outcome != "" {
			o.metrics.TurnDone(string(res.Outcome))
			logger.Warn("turn aborted", "outcome", res.Outcome, "detail", tr.Display())
			return res
		}
		userText = tr.Text
	} else {
		res.Source = FromText
		userText = typed
	}
	res.Transcript = userText
	logger.Info("input resolved", "source", res.Source, "chars", len(userText))

	mem := o.deps.Memory.Load(ctx)
	today := o.now()

	res.Stage = Generating
	start := time.Now()
	text, src := o.deps.Generator.Reply(ctx, userText, mem, o.deps.Status.Text(today))
	o.metrics.ObserveStage(string(Generating), time.Since(start))
	o.metrics.Replied(string(src))
	res.Reply = text

	res.Stage = UpdatingMemory
	mem = Remember(mem, userText, today)
	if err := o.deps.Memory.Save(ctx, mem); err != nil {
		logger.Error("memory save failed", "err", err)
	}

	res.Stage = Ready
	res.Outcome = Replied
	o.metrics.TurnDone(string(res.Outcome))
	logger.Info("turn done", "reply_source", src)
	return res
}

// Synthesize converts reply text to audio for playback. No synthesizer, or an
// unconfigured one, yields nil audio and no error.
func (o *Orchestrator) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if o.deps.Synthesizer == nil {
		o.metrics.Synthesized("skipped")
		return nil, nil
	}

	start := time.Now()
	audio, err := o.deps.Synthesizer.Synthesize(ctx, text)
	o.metrics.ObserveStage("synthesizing", time.Since(start))
	switch {
	case err != nil:
		o.metrics.Synthesized("error")
		o.log.Error("synthesis failed", "err", err)
		return nil, err
	case len(audio) == 0:
		o.metrics.Synthesized("skipped")
		return nil, nil
	}
	o.metrics.Synthesized("ok")
	return audio, nil
}

// LoadMemory returns the current record for display.
func (o *Orchestrator) LoadMemory(ctx context.Context) memory.Record {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.deps.Memory.Load(ctx)
}

// Package whisper is the in-process transcription backend. It is kept apart
// from package transcribe because it links whisper.cpp and libopus.
package whisper

import (
	"context"
	"fmt"
	log "log/slog"

	"riverwood/pkg/audioconv"
	"riverwood/pkg/stt"
)

// maxSamples caps local transcription at two minutes of audio.
const maxSamples = 120 * audioconv.SampleRate

type engine interface {
	TranscribePCM(ctx context.Context, pcm16k []float32, opt stt.Options) (stt.Result, error)
}

// Backend runs a whisper.cpp model. It needs no credential.
type Backend struct {
	engine engine
	opt    stt.Options
	log    *log.Logger
}

func New(t *stt.Transcriber, opt stt.Options, logger *log.Logger) *Backend {
	if logger == nil {
		logger = log.Default()
	}
	return &Backend{engine: t, opt: opt, log: logger}
}

func (b *Backend) Transcribe(ctx context.Context, audio []byte) (string, error) {
	pcm, err := audioconv.DecodeToPCM16k(audio, audioconv.Options{MaxSamples: maxSamples})
	if err != nil {
		return "", fmt.Errorf("decode audio: %w", err)
	}
	res, err := b.engine.TranscribePCM(ctx, pcm, b.opt)
	if err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}
	b.log.Debug("whisper transcribed", "language", res.Language, "samples", len(pcm))
	return res.Text, nil
}

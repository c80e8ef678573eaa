// Package playback plays synthesized replies and the listening cue on the
// default output device.
package playback

import (
	"bytes"
	"context"
	"fmt"
	"io"
	log "log/slog"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

const DefaultCue = "beep.mp3"

// Ducker lowers other audio while we speak. See audio.Ducker.
type Ducker interface {
	DuckOthers(ctx context.Context, factor float64, duration time.Duration) error
	UnduckOthers(ctx context.Context, duration time.Duration) error
}

type Player struct {
	cuePath string
	ducker  Ducker

	mu   sync.Mutex
	rate beep.SampleRate
}

// New returns a player. ducker may be nil.
func New(cuePath string, ducker Ducker) *Player {
	return &Player{cuePath: cuePath, ducker: ducker}
}

// Cue plays the short "listening" sound. A missing cue file is an error,
// callers usually just log it.
func (p *Player) Cue(ctx context.Context) error {
	data, err := os.ReadFile(p.cuePath)
	if err != nil {
		return fmt.Errorf("read cue: %w", err)
	}
	return p.play(ctx, data, false)
}

// Play blocks until the mp3 finishes or ctx is done.
func (p *Player) Play(ctx context.Context, data []byte) error {
	return p.play(ctx, data, true)
}

func (p *Player) play(ctx context.Context, data []byte, duck bool) error {
	streamer, format, err := decode(data)
	if err != nil {
		return err
	}
	defer streamer.Close()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rate == 0 {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			return fmt.Errorf("init speaker: %w", err)
		}
		p.rate = format.SampleRate
	}

	var s beep.Streamer = streamer
	if format.SampleRate != p.rate {
		s = beep.Resample(4, format.SampleRate, p.rate, streamer)
	}

	if duck && p.ducker != nil {
		if err := p.ducker.DuckOthers(ctx, 0.3, 300*time.Millisecond); err != nil {
			log.Warn("duck failed", "err", err)
		}
		defer func() {
			if err := p.ducker.UnduckOthers(context.WithoutCancel(ctx), 500*time.Millisecond); err != nil {
				log.Warn("unduck failed", "err", err)
			}
		}()
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(s, beep.Callback(func() { close(done) })))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

func decode(data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	if len(data) == 0 {
		return nil, beep.Format{}, fmt.Errorf("decode mp3: empty input")
	}
	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("decode mp3: %w", err)
	}
	return streamer, format, nil
}

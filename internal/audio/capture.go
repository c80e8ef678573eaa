package audio

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrBusy        = errors.New("already recording")
	ErrUnavailable = errors.New("recorder unavailable")
)

// Source is a microphone. *Recorder is the real one.
type Source interface {
	RecordAuto(vad VAD) ([]byte, error)
	RecordUntil(stop <-chan struct{}, maxDur time.Duration) ([]byte, error)
}

// Capture owns the microphone: one recording at a time, either
// voice-activated or held open until Stop.
type Capture struct {
	src Source

	mu   sync.Mutex
	busy bool
	stop chan struct{}
}

// NewCapture wraps src. A nil src makes every recording fail with
// ErrUnavailable.
func NewCapture(src Source) *Capture {
	return &Capture{src: src}
}

// Auto records one utterance, ending on silence.
func (c *Capture) Auto(vad VAD) ([]byte, error) {
	if err := c.acquire(nil); err != nil {
		return nil, err
	}
	defer c.release()
	return c.src.RecordAuto(vad)
}

// Hold records until Stop is called or maxDur passes.
func (c *Capture) Hold(maxDur time.Duration) ([]byte, error) {
	stop := make(chan struct{})
	if err := c.acquire(stop); err != nil {
		return nil, err
	}
	defer c.release()
	return c.src.RecordUntil(stop, maxDur)
}

// Stop ends a held recording. It reports false when none is running.
func (c *Capture) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop == nil {
		return false
	}
	close(c.stop)
	c.stop = nil
	return true
}

func (c *Capture) acquire(stop chan struct{}) error {
	if c.src == nil {
		return ErrUnavailable
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.busy = true
	c.stop = stop
	return nil
}

func (c *Capture) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.stop = nil
}

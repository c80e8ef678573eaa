package audio

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"

	"riverwood/pkg/audioconv"
)

const (
	frameSize        = 320 // 20ms at 16kHz
	silenceThreshRMS = 0.015
)

var ErrNoSpeech = errors.New("no audio recorded")

// VAD tunes RecordAuto. Zero fields take defaults.
type VAD struct {
	Silence time.Duration
	MaxLen  time.Duration
}

func (v VAD) withDefaults() VAD {
	if v.Silence <= 0 {
		v.Silence = 800 * time.Millisecond
	}
	if v.MaxLen <= 0 {
		v.MaxLen = 15 * time.Second
	}
	return v
}

type Recorder struct{}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// RecordAuto records from the default input until the speaker goes quiet and
// returns the utterance as 16kHz mono WAV.
func (r *Recorder) RecordAuto(vad VAD) ([]byte, error) {
	vad = vad.withDefaults()

	buf := make([]float32, frameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, audioconv.SampleRate, len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start input: %w", err)
	}
	defer stream.Stop()

	gate := newSilenceGate(vad)
	maxFrames := int(vad.MaxLen / frameDuration)

	for i := 0; i < maxFrames; i++ {
		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		if gate.push(buf) {
			break
		}
	}

	return gate.wav()
}

// RecordUntil records until stop fires or maxDur passes.
func (r *Recorder) RecordUntil(stop <-chan struct{}, maxDur time.Duration) ([]byte, error) {
	if maxDur <= 0 {
		maxDur = 15 * time.Second
	}

	buf := make([]float32, 1024)
	stream, err := portaudio.OpenDefaultStream(1, 0, audioconv.SampleRate, len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start input: %w", err)
	}
	defer stream.Stop()

	deadline := time.Now().Add(maxDur)
	out := make([]float32, 0, int(audioconv.SampleRate*maxDur.Seconds()))

loop:
	for time.Now().Before(deadline) {
		select {
		case <-stop:
			break loop
		default:
		}
		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		out = append(out, buf...)
	}

	if len(out) == 0 {
		return nil, ErrNoSpeech
	}
	return audioconv.EncodeWAV16k(out)
}

const frameDuration = 20 * time.Millisecond

// silenceGate keeps frames from the first loud one and reports when enough
// trailing silence has passed.
type silenceGate struct {
	limit    int
	speaking bool
	quiet    int
	out      []float32
}

func newSilenceGate(vad VAD) *silenceGate {
	return &silenceGate{
		limit: int(vad.Silence / frameDuration),
		out:   make([]float32, 0, audioconv.SampleRate*3),
	}
}

func (g *silenceGate) push(frame []float32) (done bool) {
	if frameRMS(frame) > silenceThreshRMS {
		g.speaking = true
		g.quiet = 0
		g.out = append(g.out, frame...)
		return false
	}
	if !g.speaking {
		return false
	}
	g.quiet++
	if g.quiet >= g.limit {
		return true
	}
	g.out = append(g.out, frame...)
	return false
}

func (g *silenceGate) wav() ([]byte, error) {
	if len(g.out) == 0 {
		return nil, ErrNoSpeech
	}
	return audioconv.EncodeWAV16k(g.out)
}

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}

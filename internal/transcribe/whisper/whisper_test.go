package whisper

import (
	"context"
	"io"
	log "log/slog"
	"testing"

	"riverwood/internal/transcribe"
	"riverwood/pkg/audioconv"
	"riverwood/pkg/stt"
)

func quietLogger() *log.Logger {
	return log.New(log.NewTextHandler(io.Discard, nil))
}

type fakeEngine struct {
	samples int
	text    string
}

func (f *fakeEngine) TranscribePCM(_ context.Context, pcm []float32, _ stt.Options) (stt.Result, error) {
	f.samples = len(pcm)
	return stt.Result{Text: f.text, Language: "hi"}, nil
}

func TestBackendDecodesWAV(t *testing.T) {
	wav, err := audioconv.EncodeWAV16k(make([]float32, 1600))
	if err != nil {
		t.Fatalf("EncodeWAV16k() error = %v", err)
	}
	engine := &fakeEngine{text: " corner plot "}
	b := &Backend{engine: engine, log: quietLogger()}

	res := transcribe.New(b, quietLogger()).Transcribe(context.Background(), wav)
	if !res.OK() || res.Text != "corner plot" {
		t.Fatalf("Transcribe() = %+v", res)
	}
	if engine.samples != 1600 {
		t.Fatalf("engine got %d samples, want 1600", engine.samples)
	}
}

func TestBackendRejectsGarbage(t *testing.T) {
	b := &Backend{engine: &fakeEngine{}, log: quietLogger()}
	res := transcribe.New(b, quietLogger()).Transcribe(context.Background(), []byte("nope"))
	if res.Kind != transcribe.GenericFailure {
		t.Fatalf("Kind = %v, want %v", res.Kind, transcribe.GenericFailure)
	}
}

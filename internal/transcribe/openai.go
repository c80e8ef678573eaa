package transcribe

import (
	"context"
	"fmt"
	"os"

	openai "github.com/openai/openai-go/v3"
)

// OpenAI sends audio to the hosted transcription endpoint.
type OpenAI struct {
	client openai.Client
	model  string
	tmpDir string
}

func NewOpenAI(client openai.Client, model string) *OpenAI {
	return &OpenAI{client: client, model: model}
}

// WithTempDir overrides where the upload file is staged.
func (o *OpenAI) WithTempDir(dir string) *OpenAI {
	o.tmpDir = dir
	return o
}

// Transcribe stages the payload in a temporary .wav file, uploads it and
// removes the file again.
func (o *OpenAI) Transcribe(ctx context.Context, audio []byte) (string, error) {
	f, err := os.CreateTemp(o.tmpDir, "riverwood-input-*.wav")
	if err != nil {
		return "", fmt.Errorf("stage audio: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	if _, err := f.Write(audio); err != nil {
		return "", fmt.Errorf("stage audio: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return "", fmt.Errorf("rewind audio: %w", err)
	}

	res, err := o.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  f,
		Model: openai.AudioModel(o.model),
	})
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return res.Text, nil
}

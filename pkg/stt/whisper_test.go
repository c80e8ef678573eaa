package stt

import (
	"context"
	"testing"
)

func TestNewTranscriberRequiresPath(t *testing.T) {
	if _, err := NewTranscriber(""); err == nil {
		t.Fatal("NewTranscriber(\"\") error = nil")
	}
}

func TestTranscribeWithoutModel(t *testing.T) {
	var tr *Transcriber
	if _, err := tr.TranscribePCM(context.Background(), []float32{0}, Options{}); err == nil {
		t.Fatal("TranscribePCM on nil transcriber error = nil")
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("Close() on nil transcriber = %v", err)
	}
}

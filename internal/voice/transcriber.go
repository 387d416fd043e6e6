// Package voice converts recorded audio into text for the extraction flow.
package voice

import (
	"context"

	"github.com/rs/zerolog"
)

// SpeechClient is the speech-to-text surface the adapter depends on.
// *gemini.Client satisfies it.
type SpeechClient interface {
	TranscribeAudio(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// TranscriptionError is the only error type Transcribe returns. Its message
// is safe to show to the user verbatim.
type TranscriptionError struct {
	Message string
}

func (e *TranscriptionError) Error() string { return e.Message }

// Suggestion is the hint surfaced alongside transcription failures.
const Suggestion = "Try speaking more clearly or use text input instead"

// Transcriber is a single-shot speech-to-text adapter. It performs no retries;
// retry policy belongs to the caller.
type Transcriber struct {
	client SpeechClient
	log    zerolog.Logger
}

// New creates a Transcriber.
func New(client SpeechClient, log zerolog.Logger) *Transcriber {
	return &Transcriber{client: client, log: log}
}

// Transcribe converts an audio buffer to text. An empty transcript is a
// failure: downstream extraction has nothing to work with.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", &TranscriptionError{Message: "Audio file is required"}
	}

	text, err := t.client.TranscribeAudio(ctx, audio, mimeType)
	if err != nil {
		t.log.Error().Err(err).Int("bytes", len(audio)).Msg("Transcription backend call failed")
		return "", &TranscriptionError{Message: "Failed to transcribe audio"}
	}

	if text == "" {
		return "", &TranscriptionError{Message: "No transcription text returned"}
	}

	return text, nil
}

package voice

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSpeechClient struct {
	TranscribeAudioFunc func(ctx context.Context, audio []byte, mimeType string) (string, error)
}

func (m *mockSpeechClient) TranscribeAudio(ctx context.Context, audio []byte, mimeType string) (string, error) {
	return m.TranscribeAudioFunc(ctx, audio, mimeType)
}

func TestTranscribe_Success(t *testing.T) {
	client := &mockSpeechClient{
		TranscribeAudioFunc: func(_ context.Context, audio []byte, mimeType string) (string, error) {
			assert.Equal(t, []byte("fake audio"), audio)
			assert.Equal(t, "audio/webm", mimeType)
			return "I spent twenty dollars on coffee", nil
		},
	}

	text, err := New(client, zerolog.Nop()).Transcribe(context.Background(), []byte("fake audio"), "audio/webm")
	require.NoError(t, err)
	assert.Equal(t, "I spent twenty dollars on coffee", text)
}

func TestTranscribe_BackendError(t *testing.T) {
	client := &mockSpeechClient{
		TranscribeAudioFunc: func(context.Context, []byte, string) (string, error) {
			return "", errors.New("upstream 503")
		},
	}

	_, err := New(client, zerolog.Nop()).Transcribe(context.Background(), []byte("x"), "")
	require.Error(t, err)

	var trErr *TranscriptionError
	require.True(t, errors.As(err, &trErr))
	assert.NotContains(t, trErr.Message, "503", "raw backend errors must not leak to callers")
}

func TestTranscribe_EmptyTranscript(t *testing.T) {
	client := &mockSpeechClient{
		TranscribeAudioFunc: func(context.Context, []byte, string) (string, error) {
			return "", nil
		},
	}

	_, err := New(client, zerolog.Nop()).Transcribe(context.Background(), []byte("x"), "")
	require.Error(t, err)

	var trErr *TranscriptionError
	assert.True(t, errors.As(err, &trErr))
}

func TestTranscribe_EmptyAudio(t *testing.T) {
	called := false
	client := &mockSpeechClient{
		TranscribeAudioFunc: func(context.Context, []byte, string) (string, error) {
			called = true
			return "", nil
		},
	}

	_, err := New(client, zerolog.Nop()).Transcribe(context.Background(), nil, "")
	require.Error(t, err)
	assert.False(t, called, "empty buffers must not reach the backend")
}

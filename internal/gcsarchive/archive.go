// Package gcsarchive keeps raw voice notes in Cloud Storage so a clip can be
// re-transcribed later without asking the user to repeat themselves.
package gcsarchive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// Archiver writes audio buffers to a GCS bucket.
type Archiver struct {
	bucket string
}

// New creates an Archiver for the given bucket. An empty bucket name yields
// a disabled archiver whose Save is a no-op.
func New(bucket string) *Archiver {
	return &Archiver{bucket: bucket}
}

// Enabled reports whether a bucket is configured.
func (a *Archiver) Enabled() bool {
	return a.bucket != ""
}

// Save uploads one audio buffer and returns its gs:// URI. Object names are
// date-bucketed so clips from the same day sit together.
func (a *Archiver) Save(ctx context.Context, audio []byte, contentType string) (string, error) {
	if !a.Enabled() {
		return "", nil
	}

	objectName := fmt.Sprintf("voice/%s/%s%s",
		time.Now().Format("2006/01/02"), uuid.NewString(), extensionFor(contentType))

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("gcsarchive: create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, bytes.NewReader(audio)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcsarchive: write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcsarchive: finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", a.bucket, objectName), nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "audio/webm":
		return ".webm"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	case "audio/mp4", "audio/m4a":
		return ".m4a"
	default:
		return ""
	}
}

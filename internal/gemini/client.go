// Package gemini wraps the GenAI SDK behind a single structured-generation
// surface. Transaction extraction and insight generation are both callers of
// the same call path, differing only in system instruction and temperature.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used for all generation and transcription.
const DefaultModel = "gemini-2.5-flash"

// Client is a thin wrapper around the GenAI SDK client.
type Client struct {
	genai *genai.Client
	model string
}

// NewClient creates a Gemini client. Credentials come from the environment
// (GEMINI_API_KEY or Application Default Credentials).
func NewClient(ctx context.Context, model string) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{genai: c, model: model}, nil
}

// GenerateJSON sends a prompt with a system instruction and returns the raw
// JSON text of the response, with any Markdown fencing stripped. The model is
// asked for application/json output, but cleaning is still applied in case it
// ignores the instruction.
func (c *Client) GenerateJSON(ctx context.Context, system, prompt string, temperature float32) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(temperature),
		ResponseMIMEType: "application/json",
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return "", fmt.Errorf("gemini: empty response from model")
	}

	return CleanJSON(raw), nil
}

// TranscribeAudio sends raw audio bytes to the model inline and asks for a
// verbatim transcript. Returns the transcript text, which may be empty when
// the model hears nothing usable.
func (c *Client) TranscribeAudio(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: "Transcribe this audio recording verbatim. " +
					"Respond with the spoken words only: no labels, no quotes, no commentary. " +
					"If nothing intelligible is spoken, respond with an empty string."},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     audio,
					},
				},
			},
		},
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini: transcribe audio: %w", err)
	}

	return strings.TrimSpace(resp.Text()), nil
}

// CleanJSON strips Markdown code fences and any stray text around the
// outermost JSON value. Models occasionally wrap output in ```json fences
// despite instructions not to.
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// If there is still junk around the JSON value, keep only the span from
	// the first opening brace/bracket to its matching closer.
	start := strings.IndexAny(s, "[{")
	if start == -1 {
		return s
	}
	var closer string
	if s[start] == '[' {
		closer = "]"
	} else {
		closer = "}"
	}
	if end := strings.LastIndex(s, closer); end > start {
		s = strings.TrimSpace(s[start : end+1])
	}

	return s
}

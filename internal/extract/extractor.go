// Package extract turns a free-form utterance ("I spent 20 bucks on coffee
// yesterday") into a validated transaction candidate via the generative model.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/spendvoice/spendvoice/internal/dates"
	"github.com/spendvoice/spendvoice/internal/domain"
)

// Generator is the structured-generation surface the extractor depends on.
// *gemini.Client satisfies it.
type Generator interface {
	GenerateJSON(ctx context.Context, system, prompt string, temperature float32) (string, error)
}

// Candidate is an extracted transaction, not yet persisted. Merchant and Note
// are always present, never null.
type Candidate struct {
	Amount   float64                `json:"amount"`
	Type     domain.TransactionType `json:"type"`
	Category domain.Category        `json:"category"`
	Merchant string                 `json:"merchant"`
	Note     string                 `json:"note"`
	Date     string                 `json:"date"` // YYYY-MM-DD, always resolved
}

// ExtractionError is the only error type Extract returns. Its message is safe
// to show to the user verbatim.
type ExtractionError struct {
	Message string
}

func (e *ExtractionError) Error() string { return e.Message }

// Suggestion is the rephrase hint surfaced alongside extraction failures.
const Suggestion = "Try being more specific, like: I spent $20 on coffee at Starbucks"

// Low temperature keeps parsing output stable across calls.
const extractionTemperature = 0.3

const systemInstruction = "You are a financial assistant. Always respond with valid JSON only."

// Extractor extracts transaction candidates from natural language.
type Extractor struct {
	gen Generator
	now func() time.Time
	log zerolog.Logger
}

// New creates an Extractor.
func New(gen Generator, log zerolog.Logger) *Extractor {
	return &Extractor{
		gen: gen,
		now: time.Now,
		log: log,
	}
}

// modelResponse is the strict shape the model is instructed to emit. Anything
// outside it is ignored rather than duck-typed.
type modelResponse struct {
	Error      string  `json:"error"`
	Type       string  `json:"type"`
	Amount     float64 `json:"amount"`
	Category   string  `json:"category"`
	Merchant   string  `json:"merchant"`
	Note       string  `json:"note"`
	DatePhrase string  `json:"date_phrase"`
}

// Extract parses one utterance into exactly one transaction candidate.
// It makes a single model call and performs no retries; failures come back
// as *ExtractionError.
func (e *Extractor) Extract(ctx context.Context, text string) (*Candidate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ExtractionError{Message: "Text is required"}
	}

	today := dates.Truncate(e.now())

	raw, err := e.gen.GenerateJSON(ctx, systemInstruction, buildPrompt(text, today), extractionTemperature)
	if err != nil {
		e.log.Error().Err(err).Msg("Transaction extraction model call failed")
		return nil, &ExtractionError{Message: "Could not parse transaction"}
	}

	var resp modelResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		e.log.Error().Err(err).Str("raw", raw).Msg("Model returned malformed JSON")
		return nil, &ExtractionError{Message: "Could not parse transaction"}
	}

	// The model reports its own inability to parse through an error field.
	if resp.Error != "" {
		return nil, &ExtractionError{Message: resp.Error}
	}

	// Validation gate: required fields only, no confidence scoring.
	if resp.Amount <= 0 {
		return nil, &ExtractionError{Message: "Could not parse an amount from that. " + Suggestion}
	}
	txType, ok := domain.ParseTransactionType(resp.Type)
	if !ok {
		return nil, &ExtractionError{Message: "Could not tell whether that was income or an expense. " + Suggestion}
	}
	if strings.TrimSpace(resp.Category) == "" {
		return nil, &ExtractionError{Message: "Could not pick a category for that. " + Suggestion}
	}

	// Unknown category names collapse to Other rather than failing; the
	// prompt constrains the closed set but models drift.
	category, known := domain.ParseCategory(resp.Category)
	if !known {
		e.log.Warn().Str("category", resp.Category).Msg("Model returned a category outside the closed set")
	}

	date := e.resolveDate(resp.DatePhrase, today)

	return &Candidate{
		Amount:   resp.Amount,
		Type:     txType,
		Category: category,
		Merchant: strings.TrimSpace(resp.Merchant),
		Note:     strings.TrimSpace(resp.Note),
		Date:     date.Format(time.DateOnly),
	}, nil
}

// resolveDate maps the extracted date phrase to a calendar date. Date
// resolution is fail-open: whatever happens, the transaction gets a date.
func (e *Extractor) resolveDate(phrase string, today time.Time) time.Time {
	norm := strings.ToLower(strings.TrimSpace(phrase))
	if norm == "" || norm == "today" {
		return today
	}

	resolved := dates.Resolve(phrase, today)
	if resolved.Equal(today) && norm != "today" {
		// Either the phrase genuinely meant today or the resolver gave up.
		e.log.Debug().Str("phrase", phrase).Msg("Date phrase resolved to today")
	}
	return resolved
}

// buildPrompt embeds today's date and weekday so the model can ground the
// literal temporal expression it extracts.
func buildPrompt(text string, today time.Time) string {
	var b strings.Builder

	b.WriteString("Parse this transaction text into structured data.\n")
	b.WriteString("Extract:\n")
	b.WriteString("- \"type\": \"income\" or \"expense\" (default to \"expense\" if unclear)\n")
	b.WriteString("- \"amount\": number (required)\n")
	b.WriteString("- \"category\": one of [")
	for i, c := range domain.Categories() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q", string(c))
	}
	b.WriteString("] (default \"Other\")\n")
	b.WriteString("- \"merchant\": string (optional)\n")
	b.WriteString("- \"note\": string (optional)\n")
	b.WriteString("- \"date_phrase\": the EXACT temporal expression used in the text, verbatim ")
	b.WriteString("(e.g. \"yesterday\", \"3 days ago\", \"last week\"). ")
	b.WriteString("Do NOT resolve it to a date. If no temporal expression is present, use \"today\".\n\n")

	fmt.Fprintf(&b, "For reference, today is %s, %s.\n\n",
		today.Weekday(), today.Format(time.DateOnly))

	fmt.Fprintf(&b, "Text: %q\n\n", text)

	b.WriteString("Respond ONLY with valid JSON in this format:\n")
	b.WriteString(`{ "type": "...", "amount": 0, "category": "...", "merchant": "...", "note": "...", "date_phrase": "..." }`)
	b.WriteString("\nIf you cannot find an amount, respond with { \"error\": \"Could not parse transaction\" }\n")

	return b.String()
}

// Package insights turns spending aggregates into short personalized insight
// cards. The primary path asks the generative model for a narrative take; any
// failure there degrades silently to a deterministic fallback so the caller
// always gets well-formed insights.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/spendvoice/spendvoice/internal/analytics"
)

// InsightType labels the narrative slot an insight fills.
type InsightType string

const (
	TypeDaily      InsightType = "daily"
	TypePattern    InsightType = "pattern"
	TypeWin        InsightType = "win"
	TypeAlert      InsightType = "alert"
	TypeBudget     InsightType = "budget"
	TypeSuggestion InsightType = "suggestion"
)

// Insight is one card shown to the user. Both the model path and the fallback
// path produce this shape.
type Insight struct {
	Type    InsightType `json:"type"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
	Action  string      `json:"action,omitempty"`
}

// SpendingData bundles everything the generator needs about one window.
type SpendingData struct {
	Summary       analytics.Summary
	ByCategory    []analytics.CategorySpending
	ByDay         []analytics.DailySpending
	MonthlyBudget float64
	DaysInPeriod  int
	DaysRemaining int
}

// Generator is the structured-generation surface the insight path depends on.
// *gemini.Client satisfies it.
type Generator interface {
	GenerateJSON(ctx context.Context, system, prompt string, temperature float32) (string, error)
}

// Higher temperature than extraction: insight phrasing benefits from variety.
const insightTemperature = 0.7

const systemInstruction = "You are a friendly financial advisor. " +
	"Always respond with valid JSON only. Be encouraging and specific."

// Service generates insights from spending data.
type Service struct {
	gen Generator
	log zerolog.Logger
}

// NewService creates an insight Service.
func NewService(gen Generator, log zerolog.Logger) *Service {
	return &Service{gen: gen, log: log}
}

// Generate returns insight cards for the window. It never returns an error:
// every failure in the model path is absorbed into the deterministic fallback.
func (s *Service) Generate(ctx context.Context, data SpendingData) []Insight {
	raw, err := s.gen.GenerateJSON(ctx, systemInstruction, buildPrompt(data), insightTemperature)
	if err != nil {
		s.log.Warn().Err(err).Msg("Insight model call failed, using fallback")
		return Fallback(data)
	}

	var resp struct {
		Insights []Insight `json:"insights"`
	}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		s.log.Warn().Err(err).Str("raw", raw).Msg("Insight response malformed, using fallback")
		return Fallback(data)
	}
	if len(resp.Insights) == 0 {
		s.log.Warn().Msg("Insight response empty, using fallback")
		return Fallback(data)
	}

	return resp.Insights
}

// buildPrompt embeds the full aggregate picture so the model can be specific
// with numbers rather than vague.
func buildPrompt(data SpendingData) string {
	var b strings.Builder

	b.WriteString("Generate 4-5 personalized insights based on this user's spending data:\n\n")

	b.WriteString("DATA:\n")
	fmt.Fprintf(&b, "- Total Income: $%.2f\n", data.Summary.TotalIncome)
	fmt.Fprintf(&b, "- Total Expenses: $%.2f\n", data.Summary.TotalExpenses)
	fmt.Fprintf(&b, "- Monthly Budget: $%.2f\n", data.MonthlyBudget)
	fmt.Fprintf(&b, "- Transaction Count: %d\n", data.Summary.TransactionCount)
	fmt.Fprintf(&b, "- Days in Period: %d\n", data.DaysInPeriod)
	fmt.Fprintf(&b, "- Days Remaining in Month: %d\n", data.DaysRemaining)

	b.WriteString("\nSpending by Category:\n")
	for _, c := range data.ByCategory {
		fmt.Fprintf(&b, "- %s: $%.2f (%d transactions)\n", c.Category, c.Amount, c.Count)
	}

	b.WriteString("\nDaily Spending:\n")
	for _, d := range data.ByDay {
		tag := "(Weekday)"
		if d.IsWeekend {
			tag = "(Weekend)"
		}
		fmt.Fprintf(&b, "- %s: $%.2f %s\n", d.Date, d.Amount, tag)
	}

	b.WriteString(`
Generate 4-5 insights covering these types:
1. "daily" - Main observation about overall spending
2. "pattern" - Behavioral pattern (e.g., weekend vs weekday, high spending days)
3. "win" - Something positive they're doing well (ALWAYS include this)
4. "alert" - Category that needs attention or is trending up
5. "budget" - Budget status and projection

Rules:
- Be conversational and friendly (use "you", "your")
- Be encouraging, never judgmental or shame-inducing
- Be specific with numbers ("You spent $47 on coffee" not "You spent a lot")
- Keep messages to 2-3 sentences max
- Make actionable suggestions when appropriate
- ALWAYS include at least one positive "win" insight

Return ONLY a JSON object:
{
  "insights": [
    {
      "type": "daily" | "pattern" | "win" | "alert" | "budget",
      "title": "Short title (4-6 words)",
      "message": "Friendly 2-3 sentence message with specific numbers",
      "action": "Optional: Short call-to-action or question"
    }
  ]
}`)

	return b.String()
}

// Package handlers exposes the extraction, voice and insight flows over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/spendvoice/spendvoice/internal/analytics"
	"github.com/spendvoice/spendvoice/internal/api/middleware"
	bq "github.com/spendvoice/spendvoice/internal/bigquery"
	"github.com/spendvoice/spendvoice/internal/dates"
	"github.com/spendvoice/spendvoice/internal/domain"
	"github.com/spendvoice/spendvoice/internal/extract"
	"github.com/spendvoice/spendvoice/internal/gcsarchive"
	"github.com/spendvoice/spendvoice/internal/insights"
	"github.com/spendvoice/spendvoice/internal/voice"
)

// maxAudioBytes caps voice uploads; clips longer than a spoken sentence or
// two are not useful to the extraction flow anyway.
const maxAudioBytes = 10 << 20

// TextParser extracts a transaction candidate from an utterance.
// *extract.Extractor satisfies it.
type TextParser interface {
	Extract(ctx context.Context, text string) (*extract.Candidate, error)
}

// AudioTranscriber converts an audio buffer to text. *voice.Transcriber
// satisfies it.
type AudioTranscriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// InsightGenerator produces insight cards for a spending window.
// *insights.Service satisfies it.
type InsightGenerator interface {
	Generate(ctx context.Context, data insights.SpendingData) []insights.Insight
}

// userID identifies the caller. Authentication is an outer concern; the
// gateway in front of this service sets the header.
func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return "default"
}

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	store       bq.TransactionStore
	parser      TextParser
	transcriber AudioTranscriber
	archiver    *gcsarchive.Archiver
	log         zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(store bq.TransactionStore, parser TextParser, transcriber AudioTranscriber, archiver *gcsarchive.Archiver, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		store:       store,
		parser:      parser,
		transcriber: transcriber,
		archiver:    archiver,
		log:         log,
	}
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	start, end, ok := parseWindow(w, r)
	if !ok {
		return
	}

	txs, err := h.store.QueryTransactionsByDateRange(ctx, userID(r), start, end)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to fetch transactions")
		return
	}

	if txs == nil {
		txs = []domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// CreateTransaction handles POST /api/transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Amount   float64 `json:"amount"`
		Type     string  `json:"type"`
		Category string  `json:"category"`
		Merchant string  `json:"merchant"`
		Note     string  `json:"note"`
		Date     string  `json:"date"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Amount <= 0 {
		middleware.WriteErrorDetail(w, http.StatusBadRequest, "Validation Error", "Amount must be positive", "")
		return
	}
	txType, ok := domain.ParseTransactionType(req.Type)
	if !ok {
		middleware.WriteErrorDetail(w, http.StatusBadRequest, "Validation Error", "Type must be income or expense", "")
		return
	}
	if req.Category == "" {
		middleware.WriteErrorDetail(w, http.StatusBadRequest, "Validation Error", "Category is required", "")
		return
	}
	category, _ := domain.ParseCategory(req.Category)

	date := dates.Truncate(time.Now())
	if req.Date != "" {
		parsed, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			middleware.WriteErrorDetail(w, http.StatusBadRequest, "Validation Error", "Date must be YYYY-MM-DD", "")
			return
		}
		date = parsed
	}

	tx := domain.Transaction{
		UserID:   userID(r),
		Amount:   req.Amount,
		Type:     txType,
		Category: category,
		Merchant: req.Merchant,
		Note:     req.Note,
		Date:     date,
	}

	id, err := h.store.InsertTransaction(ctx, tx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to insert transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create transaction")
		return
	}
	tx.ID = id

	middleware.WriteJSON(w, http.StatusCreated, tx)
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request, transactionID string) {
	ctx := r.Context()

	if err := h.store.DeleteTransaction(ctx, userID(r), transactionID); err != nil {
		h.log.Error().Err(err).Str("transaction_id", transactionID).Msg("Failed to delete transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete transaction")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ParseText handles POST /api/transactions/parse
func (h *TransactionsHandler) ParseText(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Text == "" {
		middleware.WriteErrorDetail(w, http.StatusBadRequest, "Validation Error", "Text is required", "")
		return
	}

	parsed, err := h.parser.Extract(ctx, req.Text)
	if err != nil {
		h.writeParseError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"parsed":        parsed,
		"original_text": req.Text,
	})
}

// ParseVoice handles POST /api/transactions/voice
// The request body is the raw audio; Content-Type says which codec.
func (h *TransactionsHandler) ParseVoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	audio, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAudioBytes))
	if err != nil {
		middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Audio file too large")
		return
	}
	if len(audio) == 0 {
		middleware.WriteErrorDetail(w, http.StatusBadRequest, "Validation Error", "Audio file is required", "")
		return
	}

	contentType := r.Header.Get("Content-Type")

	// Archival is best-effort; a failed upload never blocks the flow.
	audioURI := ""
	if h.archiver.Enabled() {
		uri, err := h.archiver.Save(ctx, audio, contentType)
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to archive voice note")
		} else {
			audioURI = uri
		}
	}

	transcription, err := h.transcriber.Transcribe(ctx, audio, contentType)
	if err != nil {
		var trErr *voice.TranscriptionError
		if errors.As(err, &trErr) {
			middleware.WriteErrorDetail(w, http.StatusBadRequest, "Processing Error", trErr.Message, voice.Suggestion)
			return
		}
		h.log.Error().Err(err).Msg("Transcription failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to process voice input")
		return
	}

	parsed, err := h.parser.Extract(ctx, transcription)
	if err != nil {
		h.writeParseError(w, err)
		return
	}

	resp := map[string]interface{}{
		"transcription": transcription,
		"parsed":        parsed,
	}
	if audioURI != "" {
		resp["audio_uri"] = audioURI
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

func (h *TransactionsHandler) writeParseError(w http.ResponseWriter, err error) {
	var extErr *extract.ExtractionError
	if errors.As(err, &extErr) {
		middleware.WriteErrorDetail(w, http.StatusBadRequest, "Parse Error", extErr.Message, extract.Suggestion)
		return
	}
	h.log.Error().Err(err).Msg("Extraction failed")
	middleware.WriteError(w, http.StatusInternalServerError, "Failed to parse transaction")
}

// InsightsHandler handles insight and summary endpoints.
type InsightsHandler struct {
	store     bq.TransactionStore
	settings  bq.SettingsStore
	generator InsightGenerator
	now       func() time.Time
	log       zerolog.Logger
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(store bq.TransactionStore, settings bq.SettingsStore, generator InsightGenerator, log zerolog.Logger) *InsightsHandler {
	return &InsightsHandler{
		store:     store,
		settings:  settings,
		generator: generator,
		now:       time.Now,
		log:       log,
	}
}

// GenerateInsights handles GET /api/insights
func (h *InsightsHandler) GenerateInsights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	start, end, ok := parseWindow(w, r)
	if !ok {
		return
	}

	txs, err := h.store.QueryTransactionsByDateRange(ctx, userID(r), start, end)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions for insights")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to generate insights")
		return
	}

	period := map[string]string{
		"start_date": start.Format(time.DateOnly),
		"end_date":   end.Format(time.DateOnly),
	}

	if len(txs) == 0 {
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"insights": insights.Starter(),
			"period":   period,
		})
		return
	}

	budget, err := h.settings.MonthlyBudget(ctx, userID(r))
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to load budget, using default")
		budget = 1000
	}

	summary := analytics.Summarize(txs)
	data := insights.SpendingData{
		Summary:       summary,
		ByCategory:    analytics.ByCategory(txs),
		ByDay:         analytics.ByDay(txs),
		MonthlyBudget: budget,
		DaysInPeriod:  daysBetween(start, end),
		DaysRemaining: daysLeftInMonth(h.now()),
	}

	result := h.generator.Generate(ctx, data)

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"insights": result,
		"period":   period,
		"summary": map[string]interface{}{
			"total_income":      summary.TotalIncome,
			"total_expenses":    summary.TotalExpenses,
			"transaction_count": summary.TransactionCount,
		},
	})
}

// GetSummary handles GET /api/insights/summary
func (h *InsightsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	start, end, ok := parseWindow(w, r)
	if !ok {
		return
	}

	txs, err := h.store.QueryTransactionsByDateRange(ctx, userID(r), start, end)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions for summary")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to fetch spending summary")
		return
	}

	daily := analytics.ByDay(txs)
	if daily == nil {
		daily = []analytics.DailySpending{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"summary":        analytics.Summarize(txs),
		"daily_spending": daily,
		"period": map[string]string{
			"start_date": start.Format(time.DateOnly),
			"end_date":   end.Format(time.DateOnly),
		},
	})
}

// parseWindow reads start_date/end_date query parameters, defaulting to the
// current month to date. It writes the error response itself on bad input.
func parseWindow(w http.ResponseWriter, r *http.Request) (start, end time.Time, ok bool) {
	now := time.Now()
	start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = dates.Truncate(now)

	query := r.URL.Query()
	if s := query.Get("start_date"); s != "" {
		parsed, err := time.Parse(time.DateOnly, s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return start, end, false
		}
		start = parsed
	}
	if s := query.Get("end_date"); s != "" {
		parsed, err := time.Parse(time.DateOnly, s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return start, end, false
		}
		end = parsed
	}

	return start, end, true
}

// daysBetween counts calendar days in the inclusive window.
func daysBetween(start, end time.Time) int {
	d := int(dates.Truncate(end).Sub(dates.Truncate(start)).Hours()/24) + 1
	if d < 1 {
		return 1
	}
	return d
}

// daysLeftInMonth counts days from now to the end of the current month.
func daysLeftInMonth(now time.Time) int {
	endOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	return endOfMonth.Day() - now.Day()
}

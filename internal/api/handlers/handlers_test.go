package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendvoice/spendvoice/internal/domain"
	"github.com/spendvoice/spendvoice/internal/extract"
	"github.com/spendvoice/spendvoice/internal/gcsarchive"
	"github.com/spendvoice/spendvoice/internal/insights"
	"github.com/spendvoice/spendvoice/internal/voice"
)

type mockStore struct {
	insertFn func(ctx context.Context, tx domain.Transaction) (string, error)
	queryFn  func(ctx context.Context, userID string, start, end time.Time) ([]domain.Transaction, error)
	deleteFn func(ctx context.Context, userID, transactionID string) error
}

func (m *mockStore) InsertTransaction(ctx context.Context, tx domain.Transaction) (string, error) {
	return m.insertFn(ctx, tx)
}

func (m *mockStore) QueryTransactionsByDateRange(ctx context.Context, userID string, start, end time.Time) ([]domain.Transaction, error) {
	return m.queryFn(ctx, userID, start, end)
}

func (m *mockStore) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	return m.deleteFn(ctx, userID, transactionID)
}

type mockSettings struct {
	budgetFn func(ctx context.Context, userID string) (float64, error)
}

func (m *mockSettings) MonthlyBudget(ctx context.Context, userID string) (float64, error) {
	return m.budgetFn(ctx, userID)
}

type mockParser struct {
	extractFn func(ctx context.Context, text string) (*extract.Candidate, error)
}

func (m *mockParser) Extract(ctx context.Context, text string) (*extract.Candidate, error) {
	return m.extractFn(ctx, text)
}

type mockTranscriber struct {
	transcribeFn func(ctx context.Context, audio []byte, mimeType string) (string, error)
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	return m.transcribeFn(ctx, audio, mimeType)
}

type mockGenerator struct {
	generateFn func(ctx context.Context, data insights.SpendingData) []insights.Insight
}

func (m *mockGenerator) Generate(ctx context.Context, data insights.SpendingData) []insights.Insight {
	return m.generateFn(ctx, data)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestParseText(t *testing.T) {
	candidate := &extract.Candidate{
		Amount:   20,
		Type:     domain.TypeExpense,
		Category: domain.CategoryFoodDrink,
		Merchant: "Starbucks",
		Date:     "2024-01-09",
	}
	parser := &mockParser{
		extractFn: func(ctx context.Context, text string) (*extract.Candidate, error) {
			assert.Equal(t, "spent $20 on coffee yesterday", text)
			return candidate, nil
		},
	}
	h := NewTransactionsHandler(nil, parser, nil, gcsarchive.New(""), zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/transactions/parse",
		strings.NewReader(`{"text":"spent $20 on coffee yesterday"}`))
	rec := httptest.NewRecorder()
	h.ParseText(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "spent $20 on coffee yesterday", body["original_text"])
	parsed := body["parsed"].(map[string]interface{})
	assert.Equal(t, 20.0, parsed["amount"])
	assert.Equal(t, "expense", parsed["type"])
}

func TestParseTextExtractionError(t *testing.T) {
	parser := &mockParser{
		extractFn: func(ctx context.Context, text string) (*extract.Candidate, error) {
			return nil, &extract.ExtractionError{Message: "Could not find a transaction amount"}
		},
	}
	h := NewTransactionsHandler(nil, parser, nil, gcsarchive.New(""), zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/transactions/parse",
		strings.NewReader(`{"text":"hello"}`))
	rec := httptest.NewRecorder()
	h.ParseText(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Parse Error", body["error"])
	assert.Equal(t, "Could not find a transaction amount", body["message"])
	assert.Equal(t, extract.Suggestion, body["suggestion"])
}

func TestParseTextEmpty(t *testing.T) {
	called := false
	parser := &mockParser{
		extractFn: func(ctx context.Context, text string) (*extract.Candidate, error) {
			called = true
			return nil, nil
		},
	}
	h := NewTransactionsHandler(nil, parser, nil, gcsarchive.New(""), zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/transactions/parse",
		strings.NewReader(`{"text":""}`))
	rec := httptest.NewRecorder()
	h.ParseText(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called, "extractor should not run on empty text")
}

func TestParseVoice(t *testing.T) {
	transcriber := &mockTranscriber{
		transcribeFn: func(ctx context.Context, audio []byte, mimeType string) (string, error) {
			assert.Equal(t, []byte("fake-audio"), audio)
			assert.Equal(t, "audio/webm", mimeType)
			return "paid 15 for lunch", nil
		},
	}
	parser := &mockParser{
		extractFn: func(ctx context.Context, text string) (*extract.Candidate, error) {
			assert.Equal(t, "paid 15 for lunch", text)
			return &extract.Candidate{Amount: 15, Type: domain.TypeExpense, Category: domain.CategoryFoodDrink, Date: "2024-01-10"}, nil
		},
	}
	h := NewTransactionsHandler(nil, parser, transcriber, gcsarchive.New(""), zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/transactions/voice", bytes.NewReader([]byte("fake-audio")))
	req.Header.Set("Content-Type", "audio/webm")
	rec := httptest.NewRecorder()
	h.ParseVoice(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "paid 15 for lunch", body["transcription"])
	assert.NotContains(t, body, "audio_uri")
}

func TestParseVoiceTranscriptionError(t *testing.T) {
	transcriber := &mockTranscriber{
		transcribeFn: func(ctx context.Context, audio []byte, mimeType string) (string, error) {
			return "", &voice.TranscriptionError{Message: "Could not understand the audio"}
		},
	}
	h := NewTransactionsHandler(nil, nil, transcriber, gcsarchive.New(""), zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/transactions/voice", bytes.NewReader([]byte("noise")))
	rec := httptest.NewRecorder()
	h.ParseVoice(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Processing Error", body["error"])
	assert.Equal(t, voice.Suggestion, body["suggestion"])
}

func TestParseVoiceEmptyBody(t *testing.T) {
	h := NewTransactionsHandler(nil, nil, nil, gcsarchive.New(""), zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/transactions/voice", bytes.NewReader(nil))
	rec := httptest.NewRecorder()
	h.ParseVoice(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTransactionValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero amount", `{"amount":0,"type":"expense","category":"Other"}`},
		{"negative amount", `{"amount":-5,"type":"expense","category":"Other"}`},
		{"bad type", `{"amount":10,"type":"transfer","category":"Other"}`},
		{"missing category", `{"amount":10,"type":"expense"}`},
		{"bad date", `{"amount":10,"type":"expense","category":"Other","date":"next tuesday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{
				insertFn: func(ctx context.Context, tx domain.Transaction) (string, error) {
					t.Fatal("insert should not be called")
					return "", nil
				},
			}
			h := NewTransactionsHandler(store, nil, nil, gcsarchive.New(""), zerolog.Nop())

			req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.CreateTransaction(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateTransaction(t *testing.T) {
	var inserted domain.Transaction
	store := &mockStore{
		insertFn: func(ctx context.Context, tx domain.Transaction) (string, error) {
			inserted = tx
			return "tx-123", nil
		},
	}
	h := NewTransactionsHandler(store, nil, nil, gcsarchive.New(""), zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/transactions",
		strings.NewReader(`{"amount":42.5,"type":"expense","category":"shopping","merchant":"Amazon","date":"2024-01-15"}`))
	req.Header.Set("X-User-ID", "alice")
	rec := httptest.NewRecorder()
	h.CreateTransaction(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "alice", inserted.UserID)
	assert.Equal(t, 42.5, inserted.Amount)
	assert.Equal(t, domain.CategoryShopping, inserted.Category)
	assert.Equal(t, "2024-01-15", inserted.DateString())

	body := decodeBody(t, rec)
	assert.Equal(t, "tx-123", body["id"])
}

func TestGenerateInsightsStarterOnEmptyWindow(t *testing.T) {
	store := &mockStore{
		queryFn: func(ctx context.Context, userID string, start, end time.Time) ([]domain.Transaction, error) {
			return nil, nil
		},
	}
	generator := &mockGenerator{
		generateFn: func(ctx context.Context, data insights.SpendingData) []insights.Insight {
			t.Fatal("generator should not run on an empty window")
			return nil
		},
	}
	h := NewInsightsHandler(store, &mockSettings{}, generator, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/insights?start_date=2024-01-01&end_date=2024-01-31", nil)
	rec := httptest.NewRecorder()
	h.GenerateInsights(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	cards := body["insights"].([]interface{})
	require.Len(t, cards, 1)
	first := cards[0].(map[string]interface{})
	assert.Equal(t, "Start Your Journey", first["title"])
}

func TestGenerateInsights(t *testing.T) {
	txs := []domain.Transaction{
		{Amount: 50, Type: domain.TypeExpense, Category: domain.CategoryFoodDrink, Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{Amount: 500, Type: domain.TypeIncome, Category: domain.CategoryOther, Date: time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)},
	}
	store := &mockStore{
		queryFn: func(ctx context.Context, userID string, start, end time.Time) ([]domain.Transaction, error) {
			assert.Equal(t, "2024-01-01", start.Format(time.DateOnly))
			assert.Equal(t, "2024-01-31", end.Format(time.DateOnly))
			return txs, nil
		},
	}
	settings := &mockSettings{
		budgetFn: func(ctx context.Context, userID string) (float64, error) {
			return 2000, nil
		},
	}
	var got insights.SpendingData
	generator := &mockGenerator{
		generateFn: func(ctx context.Context, data insights.SpendingData) []insights.Insight {
			got = data
			return []insights.Insight{{Type: insights.TypeDaily, Title: "Coffee Day", Message: "You spent on coffee."}}
		},
	}
	h := NewInsightsHandler(store, settings, generator, zerolog.Nop())
	h.now = func() time.Time { return time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC) }

	req := httptest.NewRequest(http.MethodGet, "/api/insights?start_date=2024-01-01&end_date=2024-01-31", nil)
	rec := httptest.NewRecorder()
	h.GenerateInsights(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2000.0, got.MonthlyBudget)
	assert.Equal(t, 31, got.DaysInPeriod)
	assert.Equal(t, 11, got.DaysRemaining)
	assert.Equal(t, 50.0, got.Summary.TotalExpenses)

	body := decodeBody(t, rec)
	summary := body["summary"].(map[string]interface{})
	assert.Equal(t, 500.0, summary["total_income"])
	assert.Equal(t, 2.0, summary["transaction_count"])
}

func TestGenerateInsightsBadDate(t *testing.T) {
	h := NewInsightsHandler(&mockStore{}, &mockSettings{}, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/insights?start_date=01-01-2024", nil)
	rec := httptest.NewRecorder()
	h.GenerateInsights(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSummaryEmpty(t *testing.T) {
	store := &mockStore{
		queryFn: func(ctx context.Context, userID string, start, end time.Time) ([]domain.Transaction, error) {
			return nil, nil
		},
	}
	h := NewInsightsHandler(store, &mockSettings{}, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/insights/summary?start_date=2024-01-01&end_date=2024-01-31", nil)
	rec := httptest.NewRecorder()
	h.GetSummary(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Empty(t, body["daily_spending"])
	summary := body["summary"].(map[string]interface{})
	assert.Equal(t, 0.0, summary["total_expenses"])
}

// Package analytics computes spending aggregates over a caller-supplied
// transaction window. Every function here is pure: no I/O, no clocks, no
// hidden state, identical output for identical input.
package analytics

import (
	"sort"
	"time"

	"github.com/spendvoice/spendvoice/internal/domain"
)

// CategorySpending is the per-category expense rollup.
type CategorySpending struct {
	Category   domain.Category `json:"category"`
	Amount     float64         `json:"amount"`
	Count      int             `json:"count"`
	Percentage float64         `json:"percentage"` // share of total expenses, 0 when total is 0
}

// DailySpending is the per-day expense rollup.
type DailySpending struct {
	Date             string  `json:"date"` // YYYY-MM-DD
	Amount           float64 `json:"amount"`
	TransactionCount int     `json:"transaction_count"`
	IsWeekend        bool    `json:"is_weekend"`
}

// Summary is the overall rollup of a transaction window.
type Summary struct {
	TotalIncome        float64            `json:"total_income"`
	TotalExpenses      float64            `json:"total_expenses"`
	NetAmount          float64            `json:"net_amount"`
	TransactionCount   int                `json:"transaction_count"`
	AverageTransaction float64            `json:"average_transaction"`
	ByCategory         []CategorySpending `json:"by_category"`
}

// ByCategory groups expense transactions by category, sorted by amount
// descending. Ties keep first-appearance order. Percentages are shares of
// total expenses and are all zero when there are no expenses.
func ByCategory(txs []domain.Transaction) []CategorySpending {
	var total float64
	order := make([]domain.Category, 0)
	groups := make(map[domain.Category]*CategorySpending)

	for _, tx := range txs {
		if tx.Type != domain.TypeExpense {
			continue
		}
		total += tx.Amount
		g, ok := groups[tx.Category]
		if !ok {
			g = &CategorySpending{Category: tx.Category}
			groups[tx.Category] = g
			order = append(order, tx.Category)
		}
		g.Amount += tx.Amount
		g.Count++
	}

	result := make([]CategorySpending, 0, len(order))
	for _, cat := range order {
		g := groups[cat]
		if total > 0 {
			g.Percentage = g.Amount / total * 100
		}
		result = append(result, *g)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Amount > result[j].Amount
	})

	return result
}

// ByDay groups expense transactions by calendar date, sorted ascending.
// Lexicographic order on YYYY-MM-DD strings is chronological order.
func ByDay(txs []domain.Transaction) []DailySpending {
	groups := make(map[string]*DailySpending)

	for _, tx := range txs {
		if tx.Type != domain.TypeExpense {
			continue
		}
		day := tx.DateString()
		g, ok := groups[day]
		if !ok {
			wd := tx.Date.Weekday()
			g = &DailySpending{
				Date:      day,
				IsWeekend: wd == time.Saturday || wd == time.Sunday,
			}
			groups[day] = g
		}
		g.Amount += tx.Amount
		g.TransactionCount++
	}

	result := make([]DailySpending, 0, len(groups))
	for _, g := range groups {
		result = append(result, *g)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})

	return result
}

// Summarize computes the overall window rollup, embedding ByCategory.
// AverageTransaction divides the combined income+expense volume by the
// transaction count, 0 when the window is empty.
func Summarize(txs []domain.Transaction) Summary {
	var income, expenses float64
	for _, tx := range txs {
		switch tx.Type {
		case domain.TypeIncome:
			income += tx.Amount
		case domain.TypeExpense:
			expenses += tx.Amount
		}
	}

	avg := 0.0
	if len(txs) > 0 {
		avg = (income + expenses) / float64(len(txs))
	}

	return Summary{
		TotalIncome:        income,
		TotalExpenses:      expenses,
		NetAmount:          income - expenses,
		TransactionCount:   len(txs),
		AverageTransaction: avg,
		ByCategory:         ByCategory(txs),
	}
}

// HighSpendingDays returns the top n days by expense amount, highest first.
func HighSpendingDays(txs []domain.Transaction, n int) []DailySpending {
	daily := ByDay(txs)

	sort.SliceStable(daily, func(i, j int) bool {
		return daily[i].Amount > daily[j].Amount
	})

	if len(daily) > n {
		daily = daily[:n]
	}
	return daily
}

// BudgetStatus reports progress against the monthly budget.
type BudgetStatus struct {
	PercentUsed        float64 `json:"percent_used"`
	PercentOfMonthGone float64 `json:"percent_of_month_gone"`
	OnTrack            bool    `json:"on_track"`
	ProjectedTotal     float64 `json:"projected_total"`
}

// CalculateBudgetStatus compares spend-to-date against elapsed-month progress
// and projects the month-end total from the daily average so far.
func CalculateBudgetStatus(totalExpenses, monthlyBudget float64, daysInMonth, currentDay int) BudgetStatus {
	var status BudgetStatus

	if monthlyBudget > 0 {
		status.PercentUsed = totalExpenses / monthlyBudget * 100
	} else if totalExpenses > 0 {
		// A zero budget counts as fully used once anything is spent.
		status.PercentUsed = 100
	}
	if daysInMonth > 0 {
		status.PercentOfMonthGone = float64(currentDay) / float64(daysInMonth) * 100
	}
	status.OnTrack = status.PercentUsed <= status.PercentOfMonthGone

	if currentDay > 0 {
		status.ProjectedTotal = totalExpenses / float64(currentDay) * float64(daysInMonth)
	}

	return status
}

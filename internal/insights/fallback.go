package insights

import "fmt"

// Fallback derives insights from the aggregates alone using fixed rules.
// It is the correctness backstop for the model path: same Insight shape,
// no external calls, no guessing.
func Fallback(data SpendingData) []Insight {
	insights := make([]Insight, 0, 3)

	// Budget pace: praise when spend share trails elapsed-month share,
	// otherwise report spend against budget.
	var percentUsed, percentGone float64
	if data.MonthlyBudget > 0 {
		percentUsed = data.Summary.TotalExpenses / data.MonthlyBudget * 100
	}
	if data.DaysInPeriod > 0 {
		percentGone = float64(data.DaysInPeriod-data.DaysRemaining) / float64(data.DaysInPeriod) * 100
	}

	if percentUsed < percentGone {
		insights = append(insights, Insight{
			Type:  TypeWin,
			Title: "You're Doing Great!",
			Message: fmt.Sprintf(
				"You've used %.0f%% of your budget with %.0f%% of the month gone. Keep up the great work!",
				percentUsed, percentGone),
		})
	} else {
		insights = append(insights, Insight{
			Type:  TypeBudget,
			Title: "Budget Check-In",
			Message: fmt.Sprintf(
				"You've spent $%.2f of your $%.0f budget with %d days remaining.",
				data.Summary.TotalExpenses, data.MonthlyBudget, data.DaysRemaining),
			Action: "Consider reducing spending in your top categories",
		})
	}

	// Top category: ByCategory is sorted by amount descending, so the first
	// entry is the biggest spend.
	if len(data.ByCategory) > 0 {
		top := data.ByCategory[0]
		insights = append(insights, Insight{
			Type:  TypeAlert,
			Title: fmt.Sprintf("Top Spending: %s", top.Category),
			Message: fmt.Sprintf(
				"You've spent $%.2f on %s this period (%d transactions).",
				top.Amount, top.Category, top.Count),
		})
	}

	// Weekend pattern: only when both groups exist, and only when weekend
	// average exceeds weekday average by more than 50%.
	var weekendTotal, weekdayTotal float64
	var weekendDays, weekdayDays int
	for _, d := range data.ByDay {
		if d.IsWeekend {
			weekendTotal += d.Amount
			weekendDays++
		} else {
			weekdayTotal += d.Amount
			weekdayDays++
		}
	}

	if weekendDays > 0 && weekdayDays > 0 {
		weekendAvg := weekendTotal / float64(weekendDays)
		weekdayAvg := weekdayTotal / float64(weekdayDays)

		if weekendAvg > weekdayAvg*1.5 {
			insights = append(insights, Insight{
				Type:  TypePattern,
				Title: "Weekend Spending Pattern",
				Message: fmt.Sprintf(
					"You spend %.0f%% more on weekends ($%.2f/day) vs weekdays ($%.2f/day).",
					weekendAvg/weekdayAvg*100-100, weekendAvg, weekdayAvg),
				Action: "Try setting a weekend budget?",
			})
		}
	}

	return insights
}

// Starter is the insight shown when the window holds no transactions at all.
func Starter() []Insight {
	return []Insight{
		{
			Type:    TypeDaily,
			Title:   "Start Your Journey",
			Message: "You haven't added any transactions yet. Start tracking your spending to get personalized insights!",
			Action:  "Add your first transaction",
		},
	}
}

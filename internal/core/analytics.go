package core

import "sort"

type (
	// MonthlyFlow is one month's income and expense totals.
	MonthlyFlow struct {
		Month   string  `json:"month"`
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
	}

	// Analytics is the aggregate summary derived from a transaction set.
	// It is computed on demand, never stored.
	Analytics struct {
		TotalIncome        float64            `json:"totalIncome"`
		TotalExpense       float64            `json:"totalExpense"`
		Balance            float64            `json:"balance"`
		ExpensesByCategory map[string]float64 `json:"expensesByCategory"`
		MonthlyData        []MonthlyFlow      `json:"monthlyData"`
	}
)

// Aggregate computes the summary over a transaction set in a single pass.
// Pure function: no I/O, no clock, identical output for identical input.
// The HTTP analytics handler and the local fallback ledger share this one
// implementation.
func Aggregate(transactions []Transaction) Analytics {
	a := Analytics{
		ExpensesByCategory: make(map[string]float64),
		MonthlyData:        make([]MonthlyFlow, 0),
	}
	months := make(map[string]int) // month key -> index into MonthlyData

	for _, t := range transactions {
		if t.Type != Income && t.Type != Expense {
			continue
		}
		month := MonthKey(t.Date)
		idx, ok := months[month]
		if !ok {
			idx = len(a.MonthlyData)
			months[month] = idx
			a.MonthlyData = append(a.MonthlyData, MonthlyFlow{Month: month})
		}
		if t.Type == Income {
			a.TotalIncome += t.Amount
			a.MonthlyData[idx].Income += t.Amount
		} else {
			a.TotalExpense += t.Amount
			a.ExpensesByCategory[t.Category] += t.Amount
			a.MonthlyData[idx].Expense += t.Amount
		}
	}

	a.Balance = a.TotalIncome - a.TotalExpense
	sort.Slice(a.MonthlyData, func(i, j int) bool {
		return a.MonthlyData[i].Month < a.MonthlyData[j].Month
	})
	return a
}

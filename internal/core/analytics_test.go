package core

import (
	"math"
	"reflect"
	"testing"
)

func TestAggregateEmpty(t *testing.T) {
	a := Aggregate(nil)
	if a.TotalIncome != 0 || a.TotalExpense != 0 || a.Balance != 0 {
		t.Fatalf("expected zero totals, got %+v", a)
	}
	if a.ExpensesByCategory == nil || len(a.ExpensesByCategory) != 0 {
		t.Fatalf("expected empty category map, got %v", a.ExpensesByCategory)
	}
	if a.MonthlyData == nil || len(a.MonthlyData) != 0 {
		t.Fatalf("expected empty monthly data, got %v", a.MonthlyData)
	}
}

func TestAggregateScenario(t *testing.T) {
	txs := []Transaction{
		{Type: Income, Amount: 1000, Date: "2024-01-05"},
		{Type: Expense, Amount: 200, Category: "food", Date: "2024-01-10"},
		{Type: Expense, Amount: 50, Category: "food", Date: "2024-02-01"},
	}
	a := Aggregate(txs)

	if a.TotalIncome != 1000 {
		t.Fatalf("expected total income 1000, got %v", a.TotalIncome)
	}
	if a.TotalExpense != 250 {
		t.Fatalf("expected total expense 250, got %v", a.TotalExpense)
	}
	if a.Balance != 750 {
		t.Fatalf("expected balance 750, got %v", a.Balance)
	}
	if got := a.ExpensesByCategory["food"]; got != 250 {
		t.Fatalf("expected food 250, got %v", got)
	}
	if len(a.ExpensesByCategory) != 1 {
		t.Fatalf("expected one category, got %v", a.ExpensesByCategory)
	}
	want := []MonthlyFlow{
		{Month: "2024-01", Income: 1000, Expense: 200},
		{Month: "2024-02", Income: 0, Expense: 50},
	}
	if !reflect.DeepEqual(a.MonthlyData, want) {
		t.Fatalf("expected monthly data %v, got %v", want, a.MonthlyData)
	}
}

func TestAggregateProperties(t *testing.T) {
	// Months deliberately out of order, categories mixed.
	txs := []Transaction{
		{Type: Expense, Amount: 33.30, Category: "transport", Date: "2024-03-02"},
		{Type: Income, Amount: 1200.50, Category: "salary", Date: "2024-01-31"},
		{Type: Expense, Amount: 18.99, Category: "food", Date: "2024-01-02"},
		{Type: Expense, Amount: 72.01, Category: "food", Date: "2024-02-14"},
		{Type: Income, Amount: 300, Category: "gift", Date: "2024-03-20"},
		{Type: Expense, Amount: 5.49, Category: "entertainment", Date: "2024-02-28"},
	}
	a := Aggregate(txs)

	if a.Balance != a.TotalIncome-a.TotalExpense {
		t.Fatalf("balance identity broken: %v != %v - %v", a.Balance, a.TotalIncome, a.TotalExpense)
	}
	var sum float64
	for _, v := range a.ExpensesByCategory {
		sum += v
	}
	if math.Abs(sum-a.TotalExpense) > 1e-9 {
		t.Fatalf("category sums %v do not match total expense %v", sum, a.TotalExpense)
	}
	for i := 1; i < len(a.MonthlyData); i++ {
		if a.MonthlyData[i-1].Month >= a.MonthlyData[i].Month {
			t.Fatalf("monthly data not strictly ascending: %v", a.MonthlyData)
		}
	}
	if len(a.MonthlyData) != 3 {
		t.Fatalf("expected three months, got %v", a.MonthlyData)
	}
}

func TestAggregatePure(t *testing.T) {
	txs := []Transaction{
		{Type: Income, Amount: 10, Date: "2024-05-01"},
		{Type: Expense, Amount: 4, Category: "food", Date: "2024-05-02"},
	}
	before := make([]Transaction, len(txs))
	copy(before, txs)

	first := Aggregate(txs)
	second := Aggregate(txs)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated aggregation diverged: %+v vs %+v", first, second)
	}
	if !reflect.DeepEqual(txs, before) {
		t.Fatalf("input mutated: %+v", txs)
	}
}

func TestAggregateSkipsUnknownTypes(t *testing.T) {
	a := Aggregate([]Transaction{{Type: "transfer", Amount: 10, Date: "2024-01-01"}})
	if a.TotalIncome != 0 || a.TotalExpense != 0 || len(a.MonthlyData) != 0 {
		t.Fatalf("unknown type should not aggregate, got %+v", a)
	}
}

package analytics

import (
	"errors"
	"math"
	"testing"
)

const eps = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestComputeThirdsScenario(t *testing.T) {
	res, err := ComputeThirds([]Record{
		{Date: "2026-02-05", Amount: 100},
		{Date: "2026-02-15", Amount: 200},
		{Date: "2026-02-25", Amount: 300},
	})
	if err != nil || res == nil {
		t.Fatalf("unexpected result: %v, %v", res, err)
	}
	if res.MonthKey != "2026-02" {
		t.Errorf("month key = %q", res.MonthKey)
	}
	if res.TotalT1 != 100 || res.TotalT2 != 200 || res.TotalT3 != 300 || res.TotalMonth != 600 {
		t.Errorf("totals = %v %v %v %v", res.TotalT1, res.TotalT2, res.TotalT3, res.TotalMonth)
	}
	if math.Abs(res.PctT1-16.7) > 0.05 || math.Abs(res.PctT2-33.3) > 0.05 || !approx(res.PctT3, 50) {
		t.Errorf("pcts = %v %v %v", res.PctT1, res.PctT2, res.PctT3)
	}
	if res.NExpenses != 3 || res.ActiveDays != 3 {
		t.Errorf("counts = %d expenses, %d days", res.NExpenses, res.ActiveDays)
	}
	if res.FirstDayWithExpense == nil || *res.FirstDayWithExpense != 5 {
		t.Errorf("first day = %v", res.FirstDayWithExpense)
	}
}

func TestComputeThirdsBoundaries(t *testing.T) {
	res, err := ComputeThirds([]Record{
		{Date: "2026-01-01", Amount: 1},
		{Date: "2026-01-10", Amount: 2},
		{Date: "2026-01-11", Amount: 4},
		{Date: "2026-01-20", Amount: 8},
		{Date: "2026-01-21", Amount: 16},
		{Date: "2026-01-31", Amount: 32},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalT1 != 3 || res.TotalT2 != 12 || res.TotalT3 != 48 {
		t.Fatalf("bucket edges wrong: %v %v %v", res.TotalT1, res.TotalT2, res.TotalT3)
	}
}

func TestComputeThirdsPartitionInvariant(t *testing.T) {
	records := []Record{}
	for d := 1; d <= 28; d++ {
		records = append(records, Record{Date: "2026-02-" + twoDigits(d), Amount: float64(d) * 1.37})
	}
	res, err := ComputeThirds(records)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.TotalT1+res.TotalT2+res.TotalT3-res.TotalMonth) > eps {
		t.Fatalf("partition broken: %v", res)
	}
	if !approx(res.PctT1+res.PctT2+res.PctT3, 100) {
		t.Fatalf("pcts do not sum to 100: %v", res.PctT1+res.PctT2+res.PctT3)
	}
}

func TestComputeThirdsEmpty(t *testing.T) {
	res, err := ComputeThirds(nil)
	if res != nil || err != nil {
		t.Fatalf("expected nil,nil got %v,%v", res, err)
	}
	res, err = ComputeThirds([]Record{{Date: "bad", Amount: 10}})
	if res != nil || err != nil {
		t.Fatalf("expected nil,nil for only malformed dates, got %v,%v", res, err)
	}
}

func TestComputeThirdsNonPositiveAmounts(t *testing.T) {
	res, err := ComputeThirds([]Record{
		{Date: "2026-03-02", Amount: 0},
		{Date: "2026-03-12", Amount: -5},
		{Date: "2026-03-22", Amount: math.NaN()},
		{Date: "2026-03-23", Amount: math.Inf(1)},
	})
	if err != nil || res == nil {
		t.Fatalf("unexpected %v, %v", res, err)
	}
	if res.TotalMonth != 0 || res.PctT1 != 0 || res.PctT2 != 0 || res.PctT3 != 0 {
		t.Fatalf("expected zero totals and pcts, got %+v", res)
	}
	if math.IsNaN(res.PctT1) || math.IsNaN(res.PctT3) {
		t.Fatalf("percentages must never be NaN")
	}
	if res.NExpenses != 0 {
		t.Errorf("NExpenses = %d, want 0", res.NExpenses)
	}
	if res.ActiveDays != 4 {
		t.Errorf("ActiveDays = %d, want 4", res.ActiveDays)
	}
	if res.FirstDayWithExpense == nil || *res.FirstDayWithExpense != 2 {
		t.Errorf("FirstDayWithExpense = %v", res.FirstDayWithExpense)
	}
}

func TestComputeThirdsSkipsMalformedAndRejectsMixed(t *testing.T) {
	res, err := ComputeThirds([]Record{
		{Date: "05/02/2026", Amount: 999},
		{Date: "2026-02-05", Amount: 10},
		{Date: "2026-02-05", Amount: 5},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalMonth != 15 || res.ActiveDays != 1 || res.NExpenses != 2 {
		t.Fatalf("unexpected %+v", res)
	}

	_, err = ComputeThirds([]Record{
		{Date: "2026-02-05", Amount: 10},
		{Date: "2026-03-05", Amount: 10},
	})
	if !errors.Is(err, ErrMixedMonths) {
		t.Fatalf("expected ErrMixedMonths, got %v", err)
	}
}

func twoDigits(n int) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}

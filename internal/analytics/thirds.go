package analytics

import "errors"

// ErrMixedMonths is returned when records handed to ComputeThirds span more
// than one calendar month.
var ErrMixedMonths = errors.New("records span more than one month")

// Day ranges of the three thirds. The last third always runs to month end.
const (
	firstThirdEnd  = 10
	secondThirdEnd = 20
)

// ThirdsResult summarizes one month split into days 1-10, 11-20 and 21-end.
// Percentages are on a 0-100 scale.
type ThirdsResult struct {
	MonthKey            MonthKey `json:"monthKey"`
	NExpenses           int      `json:"nExpenses"`
	ActiveDays          int      `json:"activeDays"`
	FirstDayWithExpense *int     `json:"firstDayWithExpense"`
	TotalMonth          float64  `json:"totalMonth"`
	TotalT1             float64  `json:"totalT1"`
	TotalT2             float64  `json:"totalT2"`
	TotalT3             float64  `json:"totalT3"`
	PctT1               float64  `json:"pctT1"`
	PctT2               float64  `json:"pctT2"`
	PctT3               float64  `json:"pctT3"`
}

// thirdOf maps a day of month to bucket 0, 1 or 2.
func thirdOf(day int) int {
	switch {
	case day <= firstThirdEnd:
		return 0
	case day <= secondThirdEnd:
		return 1
	default:
		return 2
	}
}

// ComputeThirds buckets a single month of records into thirds.
//
// It returns nil when there is nothing to summarize: no records, or no record
// with a well-formed date. The month is taken from the first well-formed
// record and any well-formed record from another month fails with
// ErrMixedMonths. Records with malformed dates are skipped. Records whose
// amount is not positive add nothing to totals but still mark their day as
// active.
func ComputeThirds(records []Record) (*ThirdsResult, error) {
	var (
		month    MonthKey
		totals   [3]float64
		count    int
		days     = make(map[int]struct{})
		firstDay int
	)

	for _, r := range records {
		k := MonthKeyOf(r.Date)
		if k == "" {
			continue
		}
		if month == "" {
			month = k
		} else if k != month {
			return nil, ErrMixedMonths
		}

		day, _ := DayOf(r.Date)
		days[day] = struct{}{}
		if firstDay == 0 || day < firstDay {
			firstDay = day
		}

		if !validAmount(r.Amount) {
			continue
		}
		totals[thirdOf(day)] += r.Amount
		count++
	}

	if month == "" {
		return nil, nil
	}

	res := &ThirdsResult{
		MonthKey:   month,
		NExpenses:  count,
		ActiveDays: len(days),
		TotalT1:    totals[0],
		TotalT2:    totals[1],
		TotalT3:    totals[2],
		TotalMonth: totals[0] + totals[1] + totals[2],
	}
	if firstDay > 0 {
		fd := firstDay
		res.FirstDayWithExpense = &fd
	}
	if res.TotalMonth > 0 {
		res.PctT1 = res.TotalT1 / res.TotalMonth * 100
		res.PctT2 = res.TotalT2 / res.TotalMonth * 100
		res.PctT3 = res.TotalT3 / res.TotalMonth * 100
	}
	return res, nil
}

// Totals returns the three bucket totals in order.
func (t *ThirdsResult) Totals() [3]float64 {
	return [3]float64{t.TotalT1, t.TotalT2, t.TotalT3}
}

// Pcts returns the three bucket percentages in order.
func (t *ThirdsResult) Pcts() [3]float64 {
	return [3]float64{t.PctT1, t.PctT2, t.PctT3}
}

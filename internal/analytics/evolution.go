package analytics

import "sort"

// WindowKind selects the range of months an evolution covers.
type WindowKind string

const (
	WindowLast6Months  WindowKind = "last_6_months"
	WindowLast12Months WindowKind = "last_12_months"
	WindowYearToDate   WindowKind = "year_to_date"
)

// Valid reports whether w is a known window.
func (w WindowKind) Valid() bool {
	switch w {
	case WindowLast6Months, WindowLast12Months, WindowYearToDate:
		return true
	}
	return false
}

// MonthKeys returns the months of the window ending at anchor.
func (w WindowKind) MonthKeys(anchor MonthKey) []MonthKey {
	switch w {
	case WindowLast6Months:
		return LastNMonthKeys(anchor, 6)
	case WindowLast12Months:
		return LastNMonthKeys(anchor, 12)
	case WindowYearToDate:
		return YearToDateMonthKeys(anchor)
	}
	return []MonthKey{}
}

// EvolutionInput is the request for ComputeEvolution. Anchor is the current
// (in-progress) month as resolved by the caller.
type EvolutionInput struct {
	Records    []Record
	Window     WindowKind
	CategoryID string
	Anchor     MonthKey
}

// SeriesPoint is the total of one month.
type SeriesPoint struct {
	MonthKey MonthKey `json:"monthKey"`
	Label    string   `json:"label"`
	Total    float64  `json:"total"`
}

// HeadlineComparison compares the two most recent closed months.
type HeadlineComparison struct {
	CurrentMonthKey MonthKey `json:"currentMonthKey"`
	CurrentLabel    string   `json:"currentLabel"`
	PrevMonthKey    MonthKey `json:"prevMonthKey"`
	PrevLabel       string   `json:"prevLabel"`
	CurrentTotal    float64  `json:"currentTotal"`
	PrevTotal       float64  `json:"prevTotal"`
	DeltaPct        *float64 `json:"deltaPct"`
}

// CategoryComparison is the money delta of one category between the two most
// recent closed months.
type CategoryComparison struct {
	CategoryID   string  `json:"categoryId"`
	CurrentTotal float64 `json:"currentTotal"`
	PrevTotal    float64 `json:"prevTotal"`
	DeltaAmount  float64 `json:"deltaAmount"`
}

// EvolutionResult is a gap-filled monthly series with its comparisons.
type EvolutionResult struct {
	Window                  WindowKind            `json:"window"`
	CategoryID              string                `json:"categoryId"`
	Series                  []SeriesPoint         `json:"series"`
	MonthDeltaPctByMonthKey map[MonthKey]*float64 `json:"monthDeltaPctByMonthKey"`
	InProgressMonthKey      MonthKey              `json:"inProgressMonthKey"`
	HeadlineComparison      *HeadlineComparison   `json:"headlineComparison"`
	CategoryComparisons     []CategoryComparison  `json:"categoryComparisons"`
}

// ComputeEvolution totals records per month over the window ending at the
// anchor month. Every month of the window appears once, zero-filled. The
// anchor is the in-progress month: it is charted, but never compared.
//
// It returns nil for an unknown window or malformed anchor.
func ComputeEvolution(in EvolutionInput) *EvolutionResult {
	if !in.Window.Valid() || !in.Anchor.Valid() {
		return nil
	}
	categoryID := in.CategoryID
	if categoryID == "" {
		categoryID = AllCategories
	}

	keys := in.Window.MonthKeys(in.Anchor)
	pos := make(map[MonthKey]int, len(keys))
	for i, k := range keys {
		pos[k] = i
	}

	totals := make([]float64, len(keys))
	byCategory := make([]map[string]float64, len(keys))
	for _, r := range in.Records {
		i, ok := pos[MonthKeyOf(r.Date)]
		if !ok || !validAmount(r.Amount) || !matchesCategory(r, categoryID) {
			continue
		}
		totals[i] += r.Amount
		if byCategory[i] == nil {
			byCategory[i] = make(map[string]float64)
		}
		byCategory[i][categoryOf(r)] += r.Amount
	}

	res := &EvolutionResult{
		Window:                  in.Window,
		CategoryID:              categoryID,
		Series:                  make([]SeriesPoint, len(keys)),
		MonthDeltaPctByMonthKey: make(map[MonthKey]*float64),
		InProgressMonthKey:      in.Anchor,
		CategoryComparisons:     []CategoryComparison{},
	}
	for i, k := range keys {
		res.Series[i] = SeriesPoint{MonthKey: k, Label: MonthLabel(k), Total: totals[i]}
	}

	// Closed months are every key before the anchor; the anchor is last.
	closed := len(keys)
	if closed > 0 && keys[closed-1] == in.Anchor {
		closed--
	}
	for i := 1; i < closed; i++ {
		res.MonthDeltaPctByMonthKey[keys[i]] = pctChange(totals[i], totals[i-1])
	}

	if closed < 2 {
		return res
	}
	cur, prev := closed-1, closed-2
	res.HeadlineComparison = &HeadlineComparison{
		CurrentMonthKey: keys[cur],
		CurrentLabel:    MonthLabel(keys[cur]),
		PrevMonthKey:    keys[prev],
		PrevLabel:       MonthLabel(keys[prev]),
		CurrentTotal:    totals[cur],
		PrevTotal:       totals[prev],
		DeltaPct:        pctChange(totals[cur], totals[prev]),
	}
	if categoryID == AllCategories {
		res.CategoryComparisons = compareCategories(byCategory[cur], byCategory[prev])
	}
	return res
}

// compareCategories returns the per-category delta for the union of both
// months, ordered by category id.
func compareCategories(cur, prev map[string]float64) []CategoryComparison {
	ids := make([]string, 0, len(cur)+len(prev))
	for id := range cur {
		ids = append(ids, id)
	}
	for id := range prev {
		if _, ok := cur[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]CategoryComparison, 0, len(ids))
	for _, id := range ids {
		out = append(out, CategoryComparison{
			CategoryID:   id,
			CurrentTotal: cur[id],
			PrevTotal:    prev[id],
			DeltaAmount:  cur[id] - prev[id],
		})
	}
	return out
}

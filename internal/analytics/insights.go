package analytics

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Period tells the formatters whether the month under review is still open.
type Period string

const (
	PeriodCurrent  Period = "current"
	PeriodPrevious Period = "previous"
)

// Severity is a presentation hint for pace insights.
type Severity string

const (
	SeverityGood Severity = "good"
	SeverityInfo Severity = "info"
	SeverityWarn Severity = "warn"
)

// maxMovers caps each of the top-up and top-down lists.
const maxMovers = 2

// ThirdsInsight is the text summary of a ThirdsResult. An empty Headline
// means there was nothing to summarize.
type ThirdsInsight struct {
	Headline string `json:"headline,omitempty"`
	Note     string `json:"note,omitempty"`
}

// PaceInsight is the text summary of a PaceResult.
type PaceInsight struct {
	Headline       string     `json:"headline,omitempty"`
	Status         PaceStatus `json:"status,omitempty"`
	Severity       Severity   `json:"severity"`
	Confidence     Confidence `json:"confidence"`
	DeltaPct       *float64   `json:"deltaPct"`
	AvgDailyActual float64    `json:"avgDailyActual"`
	Note           string     `json:"note,omitempty"`
}

// Mover is a category that moved between the two latest closed months.
type Mover struct {
	CategoryID   string  `json:"categoryId"`
	DeltaAmount  float64 `json:"deltaAmount"`
	CurrentTotal float64 `json:"currentTotal"`
	PrevTotal    float64 `json:"prevTotal"`
}

// EvolutionInsight is the text summary of an EvolutionResult.
type EvolutionInsight struct {
	Headline string  `json:"headline,omitempty"`
	TopUp    []Mover `json:"topUp"`
	TopDown  []Mover `json:"topDown"`
}

var thirdNames = [3]string{"los días 1 al 10", "los días 11 al 20", "los días 21 a fin de mes"}

// BuildThirdsInsight names the third that concentrated most of the spend.
// Ties go to the earliest third.
func BuildThirdsInsight(m *ThirdsResult, period Period, monthLabel string) ThirdsInsight {
	if m == nil {
		return ThirdsInsight{}
	}
	if m.TotalMonth <= 0 {
		return ThirdsInsight{
			Headline: fmt.Sprintf("No hay importes válidos en %s.", monthLabel),
		}
	}

	pcts := m.Pcts()
	top := 0
	for i := 1; i < len(pcts); i++ {
		if pcts[i] > pcts[top] {
			top = i
		}
	}

	verb := "se concentró"
	if period == PeriodCurrent {
		verb = "se concentra"
	}
	in := ThirdsInsight{
		Headline: fmt.Sprintf("El %s%% de tu gasto de %s %s en %s.",
			formatPct(pcts[top]), monthLabel, verb, thirdNames[top]),
	}
	if period == PeriodCurrent {
		in.Note = "El mes sigue en curso; la distribución puede cambiar."
	}
	return in
}

// SeverityFor maps a pace status to its presentation severity.
func SeverityFor(s PaceStatus) Severity {
	switch s {
	case StatusAcelerado:
		return SeverityWarn
	case StatusContenido:
		return SeverityGood
	default:
		return SeverityInfo
	}
}

// BuildPaceInsight describes how the month is pacing against its baseline.
func BuildPaceInsight(p *PaceResult, period Period, monthLabel string) PaceInsight {
	if p == nil {
		return PaceInsight{Severity: SeverityInfo, Confidence: ConfidenceNone}
	}
	in := PaceInsight{
		Status:         p.Status,
		Severity:       SeverityFor(p.Status),
		Confidence:     p.Confidence,
		DeltaPct:       p.DeltaPct,
		AvgDailyActual: p.AvgDailyActual,
	}

	if !p.HasReference() {
		reason := "Aún no hay meses previos para comparar"
		if len(p.BaselineMonthsUsed) > 0 {
			reason = "Los meses previos no tienen gasto hasta este día para comparar"
		}
		in.Headline = fmt.Sprintf("%s %s. Promedio diario: %s.", reason, monthLabel, formatAmount(p.AvgDailyActual))
		return in
	}

	delta := math.Abs(*p.DeltaPct)
	current := period == PeriodCurrent
	switch p.Status {
	case StatusAcelerado:
		if current {
			in.Headline = fmt.Sprintf("Vas %s%% por encima de tu ritmo habitual en %s.", formatPct(delta), monthLabel)
		} else {
			in.Headline = fmt.Sprintf("Cerraste %s %s%% por encima de tu ritmo habitual.", monthLabel, formatPct(delta))
		}
	case StatusContenido:
		if current {
			in.Headline = fmt.Sprintf("Vas %s%% por debajo de tu ritmo habitual en %s.", formatPct(delta), monthLabel)
		} else {
			in.Headline = fmt.Sprintf("Cerraste %s %s%% por debajo de tu ritmo habitual.", monthLabel, formatPct(delta))
		}
	default:
		if current {
			in.Headline = fmt.Sprintf("Tu gasto en %s va en línea con tu ritmo habitual.", monthLabel)
		} else {
			in.Headline = fmt.Sprintf("Cerraste %s en línea con tu ritmo habitual.", monthLabel)
		}
	}

	if p.Confidence == ConfidencePreliminary {
		n := len(p.BaselineMonthsUsed)
		unit := "meses"
		if n == 1 {
			unit = "mes"
		}
		in.Note = fmt.Sprintf("Referencia preliminar: basada en %d %s.", n, unit)
	}
	return in
}

// BuildEvolutionInsight summarizes the closed-month comparison and, for the
// all-categories view, picks the categories that moved the most money.
func BuildEvolutionInsight(e *EvolutionResult, categoryID string) EvolutionInsight {
	in := EvolutionInsight{TopUp: []Mover{}, TopDown: []Mover{}}
	if e == nil || e.HeadlineComparison == nil {
		return in
	}
	h := e.HeadlineComparison

	scope := ""
	if categoryID != "" && categoryID != AllCategories {
		scope = " en esta categoría"
	}
	switch {
	case h.DeltaPct == nil:
		in.Headline = fmt.Sprintf("En %s gastaste %s%s; en %s no hubo gastos para comparar.",
			h.CurrentLabel, formatAmount(h.CurrentTotal), scope, h.PrevLabel)
	case *h.DeltaPct > 0:
		in.Headline = fmt.Sprintf("En %s gastaste %s%% más%s que en %s.",
			h.CurrentLabel, formatPct(*h.DeltaPct), scope, h.PrevLabel)
	case *h.DeltaPct < 0:
		in.Headline = fmt.Sprintf("En %s gastaste %s%% menos%s que en %s.",
			h.CurrentLabel, formatPct(-*h.DeltaPct), scope, h.PrevLabel)
	default:
		in.Headline = fmt.Sprintf("En %s gastaste lo mismo%s que en %s.", h.CurrentLabel, scope, h.PrevLabel)
	}

	if categoryID != "" && categoryID != AllCategories {
		return in
	}
	in.TopUp, in.TopDown = topMovers(e.CategoryComparisons)
	return in
}

// topMovers ranks increases and decreases by absolute money delta. Ties are
// broken by category id so the result never depends on map order.
func topMovers(cmps []CategoryComparison) (up, down []Mover) {
	up, down = []Mover{}, []Mover{}
	for _, c := range cmps {
		m := Mover{CategoryID: c.CategoryID, DeltaAmount: c.DeltaAmount, CurrentTotal: c.CurrentTotal, PrevTotal: c.PrevTotal}
		switch {
		case c.DeltaAmount > 0:
			up = append(up, m)
		case c.DeltaAmount < 0:
			down = append(down, m)
		}
	}
	rank := func(ms []Mover) []Mover {
		sort.SliceStable(ms, func(i, j int) bool {
			ai, aj := math.Abs(ms[i].DeltaAmount), math.Abs(ms[j].DeltaAmount)
			if ai != aj {
				return ai > aj
			}
			return ms[i].CategoryID < ms[j].CategoryID
		})
		if len(ms) > maxMovers {
			ms = ms[:maxMovers]
		}
		return ms
	}
	return rank(up), rank(down)
}

// formatPct renders a percentage with at most one decimal, "16.7".
func formatPct(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}

// formatAmount renders an amount with two decimals, "1234.50".
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

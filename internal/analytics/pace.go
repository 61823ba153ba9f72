package analytics

import (
	"errors"
	"fmt"
	"sort"
)

// PaceStatus classifies the pace ratio R.
type PaceStatus string

const (
	StatusContenido PaceStatus = "contenido"
	StatusNormal    PaceStatus = "normal"
	StatusAcelerado PaceStatus = "acelerado"
)

// Confidence reflects how many baseline months backed a pace result.
type Confidence string

const (
	ConfidenceNone        Confidence = "sin_referencia"
	ConfidencePreliminary Confidence = "preliminar"
	ConfidenceSolid       Confidence = "solida"
)

// BaselineAggregate selects how baseline months are combined.
type BaselineAggregate string

const (
	AggregateMedian BaselineAggregate = "median"
	AggregateMean   BaselineAggregate = "mean"
)

// PaceConfig holds the pacing thresholds and baseline policy.
type PaceConfig struct {
	// R below LowThreshold is contenido, above HighThreshold is acelerado.
	LowThreshold  float64
	HighThreshold float64
	// MaxBaselineMonths is how many preceding months are examined.
	MaxBaselineMonths int
	// SolidMinMonths is the number of used months that makes a result solida.
	SolidMinMonths int
	Aggregate      BaselineAggregate
}

// DefaultPaceConfig returns the standard thresholds: 0.9 / 1.1, three
// baseline months combined by median.
func DefaultPaceConfig() PaceConfig {
	return PaceConfig{
		LowThreshold:      0.9,
		HighThreshold:     1.1,
		MaxBaselineMonths: 3,
		SolidMinMonths:    3,
		Aggregate:         AggregateMedian,
	}
}

// Validate checks the configuration for consistency.
func (c PaceConfig) Validate() error {
	var errs []error
	if c.LowThreshold <= 0 {
		errs = append(errs, fmt.Errorf("low threshold %v must be positive", c.LowThreshold))
	}
	if c.LowThreshold > c.HighThreshold {
		errs = append(errs, fmt.Errorf("low threshold %v above high threshold %v", c.LowThreshold, c.HighThreshold))
	}
	if c.MaxBaselineMonths < 1 {
		errs = append(errs, fmt.Errorf("baseline months %d must be at least 1", c.MaxBaselineMonths))
	}
	if c.SolidMinMonths < 1 || c.SolidMinMonths > c.MaxBaselineMonths {
		errs = append(errs, fmt.Errorf("solid minimum %d must be between 1 and %d", c.SolidMinMonths, c.MaxBaselineMonths))
	}
	switch c.Aggregate {
	case AggregateMedian, AggregateMean:
	default:
		errs = append(errs, fmt.Errorf("unknown baseline aggregate %q", c.Aggregate))
	}
	return errors.Join(errs...)
}

// Classify maps R to a status using the configured thresholds.
func (c PaceConfig) Classify(r float64) PaceStatus {
	switch {
	case r < c.LowThreshold:
		return StatusContenido
	case r > c.HighThreshold:
		return StatusAcelerado
	default:
		return StatusNormal
	}
}

// ConfidenceFor maps the number of used baseline months to a confidence.
func (c PaceConfig) ConfidenceFor(months int) Confidence {
	switch {
	case months <= 0:
		return ConfidenceNone
	case months < c.SolidMinMonths:
		return ConfidencePreliminary
	default:
		return ConfidenceSolid
	}
}

// PacePoint is one day of the cumulative pace chart.
type PacePoint struct {
	Day      int      `json:"day"`
	Actual   float64  `json:"actual"`
	Baseline *float64 `json:"baseline"`
}

// PaceResult compares spend-to-date of a month against its baseline.
type PaceResult struct {
	MonthKey           MonthKey    `json:"monthKey"`
	R                  *float64    `json:"R"`
	DeltaPct           *float64    `json:"deltaPct"`
	Status             PaceStatus  `json:"status,omitempty"`
	Confidence         Confidence  `json:"confidence"`
	BaselineMonthsUsed []MonthKey  `json:"baselineMonthsUsed"`
	AvgDailyActual     float64     `json:"avgDailyActual"`
	ActualToDay        float64     `json:"actualToDay"`
	BaselineToDay      *float64    `json:"baselineToDay"`
	DayLimit           int         `json:"dayLimit"`
	Chart              []PacePoint `json:"chart"`
}

// HasReference reports whether a ratio could be computed.
func (p *PaceResult) HasReference() bool {
	return p != nil && p.R != nil
}

// ComputePace measures how the selected month's cumulative spend through
// dayLimit compares with the preceding months cut at the same day.
//
// Records may cover the selected month and the months before it; anything
// else is ignored. It returns nil for a malformed month key or a dayLimit
// below 1. dayLimit is clamped to the month length, and each baseline month is
// cut at min(dayLimit, its own length).
// An invalid cfg is replaced by DefaultPaceConfig.
func ComputePace(records []Record, selected MonthKey, dayLimit int, cfg PaceConfig) *PaceResult {
	dim, ok := DaysInMonth(selected)
	if !ok || dayLimit < 1 {
		return nil
	}
	if dayLimit > dim {
		dayLimit = dim
	}
	if cfg.Validate() != nil {
		cfg = DefaultPaceConfig()
	}

	// Daily sums for the selected month (index 0) and each candidate month.
	candidates := make([]MonthKey, cfg.MaxBaselineMonths)
	slot := map[MonthKey]int{selected: 0}
	for i := range candidates {
		candidates[i] = ShiftMonthKey(selected, -(i + 1))
		if candidates[i] != "" {
			slot[candidates[i]] = i + 1
		}
	}
	daily := make([][32]float64, len(candidates)+1)
	seen := make([]bool, len(candidates)+1)

	for _, r := range records {
		i, ok := slot[MonthKeyOf(r.Date)]
		if !ok {
			continue
		}
		seen[i] = true
		if !validAmount(r.Amount) {
			continue
		}
		day, _ := DayOf(r.Date)
		daily[i][day] += r.Amount
	}

	used := make([]int, 0, len(candidates))
	for i := len(candidates); i >= 1; i-- {
		if seen[i] {
			used = append(used, i)
		}
	}

	res := &PaceResult{
		MonthKey:           selected,
		Confidence:         cfg.ConfidenceFor(len(used)),
		BaselineMonthsUsed: make([]MonthKey, 0, len(used)),
		DayLimit:           dayLimit,
		Chart:              make([]PacePoint, 0, dayLimit),
	}
	for _, i := range used {
		res.BaselineMonthsUsed = append(res.BaselineMonthsUsed, candidates[i-1])
	}

	// Running cumulative totals; baseline months stop growing past their end.
	lengths := make([]int, len(used))
	for j, i := range used {
		lengths[j], _ = DaysInMonth(candidates[i-1])
	}
	cum := make([]float64, len(used))
	var actual float64
	for day := 1; day <= dayLimit; day++ {
		actual += daily[0][day]
		pt := PacePoint{Day: day, Actual: actual}
		if len(used) > 0 {
			for j, i := range used {
				if day <= lengths[j] {
					cum[j] += daily[i][day]
				}
			}
			b := aggregate(cum, cfg.Aggregate)
			pt.Baseline = &b
		}
		res.Chart = append(res.Chart, pt)
	}

	res.ActualToDay = actual
	res.AvgDailyActual = actual / float64(dayLimit)
	if len(used) == 0 {
		return res
	}

	baseline := *res.Chart[dayLimit-1].Baseline
	res.BaselineToDay = &baseline
	if baseline > 0 {
		r := actual / baseline
		d := (r - 1) * 100
		res.R = &r
		res.DeltaPct = &d
		res.Status = cfg.Classify(r)
	}
	return res
}

// aggregate combines per-month values. The input is not modified.
func aggregate(values []float64, how BaselineAggregate) float64 {
	if len(values) == 0 {
		return 0
	}
	if how == AggregateMean {
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

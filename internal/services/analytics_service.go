package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"dinvox/internal/analytics"
	"dinvox/internal/cache"
	"dinvox/internal/core"
	applog "dinvox/internal/log"
	"dinvox/internal/sheets"
)

var (
	ErrInvalidMonth    = errors.New("invalid month, expected YYYY-MM")
	ErrFutureMonth     = errors.New("month has not started yet")
	ErrInvalidWindow   = errors.New("invalid window, expected last_6_months, last_12_months or year_to_date")
	ErrInvalidCategory = errors.New("invalid category")
)

// IsInvalidParams reports whether err comes from a malformed analytics query.
func IsInvalidParams(err error) bool {
	for _, target := range []error{ErrInvalidMonth, ErrFutureMonth, ErrInvalidWindow, ErrInvalidCategory, core.ErrEmptyUser} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ThirdsView is the thirds breakdown of one month plus its insight.
type ThirdsView struct {
	UserID   string                  `json:"userId"`
	MonthKey analytics.MonthKey      `json:"monthKey"`
	Label    string                  `json:"label"`
	Period   analytics.Period        `json:"period"`
	Result   *analytics.ThirdsResult `json:"result"`
	Insight  analytics.ThirdsInsight `json:"insight"`
}

// PaceView is the pacing comparison of one month plus its insight.
type PaceView struct {
	UserID   string                `json:"userId"`
	MonthKey analytics.MonthKey    `json:"monthKey"`
	Label    string                `json:"label"`
	Period   analytics.Period      `json:"period"`
	Result   *analytics.PaceResult `json:"result"`
	Insight  analytics.PaceInsight `json:"insight"`
}

// EvolutionView is the month-over-month series ending at the current month.
type EvolutionView struct {
	UserID     string                     `json:"userId"`
	Window     analytics.WindowKind       `json:"window"`
	CategoryID string                     `json:"categoryId"`
	Result     *analytics.EvolutionResult `json:"result"`
	Insight    analytics.EvolutionInsight `json:"insight"`
}

// DashboardRequest selects the three views rendered together.
type DashboardRequest struct {
	UserID     string
	Month      analytics.MonthKey
	Window     analytics.WindowKind
	CategoryID string
}

// DashboardView bundles every analytics view for one screen.
type DashboardView struct {
	UserID    string         `json:"userId"`
	Today     string         `json:"today"`
	Thirds    *ThirdsView    `json:"thirds"`
	Pace      *PaceView      `json:"pace"`
	Evolution *EvolutionView `json:"evolution"`
}

// AnalyticsService resolves the user's calendar, fetches expenses and runs
// the analytics engine over them.
type AnalyticsService struct {
	lister sheets.ExpenseLister
	clock  Clock
	loc    *time.Location
	pace   analytics.PaceConfig
	cache  cache.Cache[any]
	logger *applog.Logger
}

// AnalyticsOption customizes an AnalyticsService.
type AnalyticsOption func(*AnalyticsService)

func WithClock(c Clock) AnalyticsOption {
	return func(s *AnalyticsService) { s.clock = c }
}

func WithLocation(loc *time.Location) AnalyticsOption {
	return func(s *AnalyticsService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithPaceConfig(cfg analytics.PaceConfig) AnalyticsOption {
	return func(s *AnalyticsService) { s.pace = cfg }
}

// WithCache memoizes views. Entries are keyed by user first so a write can
// drop everything for that user.
func WithCache(c cache.Cache[any]) AnalyticsOption {
	return func(s *AnalyticsService) { s.cache = c }
}

func WithLogger(l *applog.Logger) AnalyticsOption {
	return func(s *AnalyticsService) {
		if l != nil {
			s.logger = l.WithComponent(applog.ComponentAnalytics)
		}
	}
}

func NewAnalyticsService(lister sheets.ExpenseLister, opts ...AnalyticsOption) *AnalyticsService {
	s := &AnalyticsService{
		lister: lister,
		clock:  SystemClock{},
		loc:    time.UTC,
		pace:   analytics.DefaultPaceConfig(),
		logger: applog.New(applog.Config{Component: applog.ComponentAnalytics}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current calendar day in the service's timezone.
func (s *AnalyticsService) Today() string {
	return s.clock.Now().In(s.loc).Format(core.DateLayout)
}

// CurrentMonth returns the month containing Today.
func (s *AnalyticsService) CurrentMonth() analytics.MonthKey {
	return analytics.MonthKeyOf(s.Today())
}

// InvalidateUser drops every cached view of userID.
func (s *AnalyticsService) InvalidateUser(userID string) int {
	if s.cache == nil {
		return 0
	}
	return s.cache.DeletePrefix(userPrefix(userID))
}

func userPrefix(userID string) string {
	return url.PathEscape(userID) + "|"
}

func cacheKey(userID, view, today string, params ...string) string {
	return userPrefix(userID) + view + "|" + today + "|" + strings.Join(params, "|")
}

// cached returns the memoized value for key or computes and stores it.
func cached[T any](ctx context.Context, s *AnalyticsService, key string, compute func() (T, error)) (T, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if typed, ok := v.(T); ok {
				s.logger.DebugContext(ctx, "Analytics cache hit", applog.FieldCacheHit, true, "key", key)
				return typed, nil
			}
		}
	}
	v, err := compute()
	if err != nil {
		return v, err
	}
	if s.cache != nil {
		s.cache.Set(key, v)
	}
	return v, nil
}

func periodOf(selected, current analytics.MonthKey) analytics.Period {
	if selected.Before(current) {
		return analytics.PeriodPrevious
	}
	return analytics.PeriodCurrent
}

func (s *AnalyticsService) fetch(ctx context.Context, userID, from, to string) ([]analytics.Record, error) {
	expenses, err := s.lister.ListExpenses(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list expenses %s..%s: %w", from, to, err)
	}
	records := make([]analytics.Record, 0, len(expenses))
	for _, e := range expenses {
		records = append(records, analytics.Record{
			Date:       e.Date,
			Amount:     e.Amount.Units(),
			CategoryID: e.CategoryID,
		})
	}
	return records, nil
}

func checkUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return core.ErrEmptyUser
	}
	return nil
}

// Thirds splits the selected month into 1-10, 11-20 and 21-end. For the
// current month only days up to today count.
func (s *AnalyticsService) Thirds(ctx context.Context, userID string, month analytics.MonthKey) (*ThirdsView, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	if !month.Valid() {
		return nil, ErrInvalidMonth
	}
	today := s.Today()
	current := analytics.MonthKeyOf(today)
	if current.Before(month) {
		return nil, ErrFutureMonth
	}

	return cached(ctx, s, cacheKey(userID, applog.OpThirds, today, string(month)), func() (*ThirdsView, error) {
		from, _ := analytics.MonthStart(month)
		to, _ := analytics.MonthEnd(month)
		if month == current {
			to = today
		}
		records, err := s.fetch(ctx, userID, from, to)
		if err != nil {
			return nil, err
		}
		res, err := analytics.ComputeThirds(records)
		if err != nil {
			return nil, fmt.Errorf("compute thirds: %w", err)
		}

		period := periodOf(month, current)
		label := analytics.LongMonthLabel(month)
		s.logger.InfoContext(ctx, "Computed thirds",
			applog.NewFields().WithAnalytics(userID, applog.OpThirds, string(month)).
				WithOperation(applog.OpThirds).ToSlice()...)
		return &ThirdsView{
			UserID:   userID,
			MonthKey: month,
			Label:    label,
			Period:   period,
			Result:   res,
			Insight:  analytics.BuildThirdsInsight(res, period, label),
		}, nil
	})
}

// Pace compares spend up to the day limit against the preceding months.
func (s *AnalyticsService) Pace(ctx context.Context, userID string, month analytics.MonthKey) (*PaceView, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	if !month.Valid() {
		return nil, ErrInvalidMonth
	}
	today := s.Today()
	dayLimit := analytics.DayLimit(month, today)
	if dayLimit == 0 {
		return nil, ErrFutureMonth
	}

	return cached(ctx, s, cacheKey(userID, applog.OpPace, today, string(month)), func() (*PaceView, error) {
		from, _ := analytics.MonthStart(analytics.ShiftMonthKey(month, -s.pace.MaxBaselineMonths))
		to, _ := analytics.MonthEnd(month)
		records, err := s.fetch(ctx, userID, from, to)
		if err != nil {
			return nil, err
		}
		res := analytics.ComputePace(records, month, dayLimit, s.pace)
		if res == nil {
			return nil, fmt.Errorf("compute pace for %s: %w", month, ErrInvalidMonth)
		}

		period := periodOf(month, analytics.MonthKeyOf(today))
		label := analytics.LongMonthLabel(month)
		s.logger.InfoContext(ctx, "Computed pace",
			applog.FieldUserID, userID,
			applog.FieldMonthKey, string(month),
			applog.FieldRecords, len(records),
			"confidence", string(res.Confidence),
			"status", string(res.Status))
		return &PaceView{
			UserID:   userID,
			MonthKey: month,
			Label:    label,
			Period:   period,
			Result:   res,
			Insight:  analytics.BuildPaceInsight(res, period, label),
		}, nil
	})
}

// Evolution builds the monthly series for window ending at the current month.
// An empty category means every category.
func (s *AnalyticsService) Evolution(ctx context.Context, userID string, window analytics.WindowKind, categoryID string) (*EvolutionView, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	if !window.Valid() {
		return nil, ErrInvalidWindow
	}
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		categoryID = analytics.AllCategories
	}
	if strings.Contains(categoryID, "|") {
		return nil, ErrInvalidCategory
	}

	today := s.Today()
	anchor := analytics.MonthKeyOf(today)

	return cached(ctx, s, cacheKey(userID, applog.OpEvolution, today, string(window), categoryID), func() (*EvolutionView, error) {
		keys := window.MonthKeys(anchor)
		if len(keys) == 0 {
			return nil, ErrInvalidWindow
		}
		from, _ := analytics.MonthStart(keys[0])
		records, err := s.fetch(ctx, userID, from, today)
		if err != nil {
			return nil, err
		}
		res := analytics.ComputeEvolution(analytics.EvolutionInput{
			Records:    records,
			Window:     window,
			CategoryID: categoryID,
			Anchor:     anchor,
		})
		if res == nil {
			return nil, ErrInvalidWindow
		}

		s.logger.InfoContext(ctx, "Computed evolution",
			applog.FieldUserID, userID,
			applog.FieldWindow, string(window),
			applog.FieldCategoryID, categoryID,
			applog.FieldRecords, len(records))
		return &EvolutionView{
			UserID:     userID,
			Window:     window,
			CategoryID: categoryID,
			Result:     res,
			Insight:    analytics.BuildEvolutionInsight(res, categoryID),
		}, nil
	})
}

// Dashboard computes thirds, pace and evolution concurrently. An empty month
// selects the current one; an empty window selects the last six months.
func (s *AnalyticsService) Dashboard(ctx context.Context, req DashboardRequest) (*DashboardView, error) {
	if err := checkUser(req.UserID); err != nil {
		return nil, err
	}
	today := s.Today()
	if req.Month == "" {
		req.Month = analytics.MonthKeyOf(today)
	}
	if req.Window == "" {
		req.Window = analytics.WindowLast6Months
	}

	view := &DashboardView{UserID: req.UserID, Today: today}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.Thirds(gctx, req.UserID, req.Month)
		if err != nil {
			return fmt.Errorf("thirds: %w", err)
		}
		view.Thirds = v
		return nil
	})
	g.Go(func() error {
		v, err := s.Pace(gctx, req.UserID, req.Month)
		if err != nil {
			return fmt.Errorf("pace: %w", err)
		}
		view.Pace = v
		return nil
	})
	g.Go(func() error {
		v, err := s.Evolution(gctx, req.UserID, req.Window, req.CategoryID)
		if err != nil {
			return fmt.Errorf("evolution: %w", err)
		}
		view.Evolution = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

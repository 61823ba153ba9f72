package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"dinvox/internal/analytics"
	"dinvox/internal/cache"
	"dinvox/internal/core"
	applog "dinvox/internal/log"
)

var mexicoCity = time.FixedZone("CST", -6*3600)

func newTestService(store *fakeStore, now time.Time, opts ...AnalyticsOption) *AnalyticsService {
	base := []AnalyticsOption{
		WithClock(fixedClock{t: now}),
		WithLocation(mexicoCity),
		WithLogger(applog.Discard()),
	}
	return NewAnalyticsService(store, append(base, opts...)...)
}

// 2026-03-10 09:00 local.
var march10 = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func TestTodayUsesLocation(t *testing.T) {
	svc := newTestService(&fakeStore{}, time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC))
	if got := svc.Today(); got != "2026-02-28" {
		t.Fatalf("Today = %q", got)
	}
	if got := svc.CurrentMonth(); got != "2026-02" {
		t.Fatalf("CurrentMonth = %q", got)
	}
}

func TestThirdsCurrentMonthStopsAtToday(t *testing.T) {
	store := &fakeStore{items: []core.Expense{
		exp("u1", "2026-03-05", 10000, "food"),
		exp("u1", "2026-03-15", 99900, "food"),
		exp("u2", "2026-03-05", 500, ""),
	}}
	svc := newTestService(store, march10)

	v, err := svc.Thirds(context.Background(), "u1", "2026-03")
	if err != nil {
		t.Fatal(err)
	}
	if v.Period != analytics.PeriodCurrent || v.Label != "marzo 2026" {
		t.Fatalf("period=%q label=%q", v.Period, v.Label)
	}
	if v.Result == nil || v.Result.TotalMonth != 100 {
		t.Fatalf("result = %+v", v.Result)
	}
	if got := store.calls[0]; got.from != "2026-03-01" || got.to != "2026-03-10" {
		t.Fatalf("range = %+v", got)
	}
	if v.Insight.Headline == "" || v.Insight.Note == "" {
		t.Fatalf("insight = %+v", v.Insight)
	}
}

func TestThirdsPreviousMonth(t *testing.T) {
	store := &fakeStore{items: []core.Expense{exp("u1", "2026-02-25", 3000, "")}}
	svc := newTestService(store, march10)

	v, err := svc.Thirds(context.Background(), "u1", "2026-02")
	if err != nil {
		t.Fatal(err)
	}
	if v.Period != analytics.PeriodPrevious {
		t.Fatalf("period = %q", v.Period)
	}
	if got := store.calls[0]; got.from != "2026-02-01" || got.to != "2026-02-28" {
		t.Fatalf("range = %+v", got)
	}
	if v.Result.PctT3 != 100 {
		t.Fatalf("pct t3 = %v", v.Result.PctT3)
	}

	empty, err := svc.Thirds(context.Background(), "u1", "2025-06")
	if err != nil {
		t.Fatal(err)
	}
	if empty.Result != nil || empty.Insight.Headline != "" {
		t.Fatalf("month without expenses = %+v", empty)
	}
}

func TestAnalyticsInvalidParams(t *testing.T) {
	svc := newTestService(&fakeStore{}, march10)
	ctx := context.Background()

	cases := []struct {
		name string
		run  func() error
		want error
	}{
		{"empty user", func() error { _, err := svc.Thirds(ctx, " ", "2026-03"); return err }, core.ErrEmptyUser},
		{"bad month", func() error { _, err := svc.Thirds(ctx, "u1", "2026-3"); return err }, ErrInvalidMonth},
		{"future thirds", func() error { _, err := svc.Thirds(ctx, "u1", "2026-04"); return err }, ErrFutureMonth},
		{"future pace", func() error { _, err := svc.Pace(ctx, "u1", "2027-01"); return err }, ErrFutureMonth},
		{"bad window", func() error { _, err := svc.Evolution(ctx, "u1", "last_3", ""); return err }, ErrInvalidWindow},
		{"bad category", func() error { _, err := svc.Evolution(ctx, "u1", analytics.WindowLast6Months, "a|b"); return err }, ErrInvalidCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if !IsInvalidParams(err) {
				t.Fatalf("IsInvalidParams(%v) = false", err)
			}
		})
	}
}

func TestPaceFetchesBaselineMonths(t *testing.T) {
	store := &fakeStore{items: []core.Expense{
		exp("u1", "2026-03-05", 10000, ""),
		exp("u1", "2026-02-03", 10000, ""),
		exp("u1", "2026-01-09", 10000, ""),
		exp("u1", "2025-12-01", 10000, ""),
	}}
	svc := newTestService(store, march10)

	v, err := svc.Pace(context.Background(), "u1", "2026-03")
	if err != nil {
		t.Fatal(err)
	}
	if got := store.calls[0]; got.from != "2025-12-01" || got.to != "2026-03-31" {
		t.Fatalf("range = %+v", got)
	}
	if v.Result.DayLimit != 10 || v.Result.Confidence != analytics.ConfidenceSolid {
		t.Fatalf("result = %+v", v.Result)
	}
	if v.Result.Status != analytics.StatusNormal || v.Insight.Severity != analytics.SeverityInfo {
		t.Fatalf("status=%q severity=%q", v.Result.Status, v.Insight.Severity)
	}
	if v.Period != analytics.PeriodCurrent {
		t.Fatalf("period = %q", v.Period)
	}
}

func TestEvolutionDefaultsToAllCategories(t *testing.T) {
	store := &fakeStore{items: []core.Expense{
		exp("u1", "2026-01-10", 20000, "food"),
		exp("u1", "2026-02-10", 10000, "food"),
		exp("u1", "2026-03-02", 5000, "taxi"),
	}}
	svc := newTestService(store, march10)

	v, err := svc.Evolution(context.Background(), "u1", analytics.WindowLast6Months, "")
	if err != nil {
		t.Fatal(err)
	}
	if v.CategoryID != analytics.AllCategories {
		t.Fatalf("category = %q", v.CategoryID)
	}
	if got := store.calls[0]; got.from != "2025-10-01" || got.to != "2026-03-10" {
		t.Fatalf("range = %+v", got)
	}
	if len(v.Result.Series) != 6 || v.Result.InProgressMonthKey != "2026-03" {
		t.Fatalf("series = %+v", v.Result.Series)
	}
	if v.Insight.Headline != "En feb 2026 gastaste 50% menos que en ene 2026." {
		t.Fatalf("headline = %q", v.Insight.Headline)
	}
}

func TestAnalyticsCacheAndInvalidation(t *testing.T) {
	store := &fakeStore{items: []core.Expense{exp("u1", "2026-03-05", 1000, "")}}
	lru := cache.NewLRUCache[any](10, time.Minute)
	svc := newTestService(store, march10, WithCache(lru))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Thirds(ctx, "u1", "2026-03"); err != nil {
			t.Fatal(err)
		}
	}
	if store.callCount() != 1 {
		t.Fatalf("lister called %d times, want 1", store.callCount())
	}

	if _, err := svc.Thirds(ctx, "u10", "2026-03"); err != nil {
		t.Fatal(err)
	}
	if n := svc.InvalidateUser("u1"); n != 1 {
		t.Fatalf("invalidated %d entries", n)
	}
	if lru.Size() != 1 {
		t.Fatalf("other users must stay cached, size %d", lru.Size())
	}
	if _, err := svc.Thirds(ctx, "u1", "2026-03"); err != nil {
		t.Fatal(err)
	}
	if store.callCount() != 3 {
		t.Fatalf("lister called %d times, want 3", store.callCount())
	}
}

func TestExpenseWriteInvalidatesAnalytics(t *testing.T) {
	store := &fakeStore{items: []core.Expense{exp("u1", "2026-03-05", 1000, "")}}
	svc := newTestService(store, march10, WithCache(cache.NewLRUCache[any](10, time.Minute)))
	expenses := NewExpenseService(store, svc, applog.Discard())
	ctx := context.Background()

	before, _ := svc.Thirds(ctx, "u1", "2026-03")
	if _, err := expenses.CreateExpense(ctx, exp("u1", "2026-03-06", 2000, "")); err != nil {
		t.Fatal(err)
	}
	after, _ := svc.Thirds(ctx, "u1", "2026-03")
	if before.Result.TotalMonth != 10 || after.Result.TotalMonth != 30 {
		t.Fatalf("before=%v after=%v", before.Result.TotalMonth, after.Result.TotalMonth)
	}
}

func TestDashboard(t *testing.T) {
	store := &fakeStore{items: []core.Expense{
		exp("u1", "2026-02-03", 10000, "food"),
		exp("u1", "2026-03-05", 5000, "food"),
	}}
	svc := newTestService(store, march10)

	v, err := svc.Dashboard(context.Background(), DashboardRequest{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if v.Today != "2026-03-10" || v.Thirds == nil || v.Pace == nil || v.Evolution == nil {
		t.Fatalf("dashboard = %+v", v)
	}
	if v.Thirds.MonthKey != "2026-03" || v.Evolution.Window != analytics.WindowLast6Months {
		t.Fatalf("defaults not applied: %q %q", v.Thirds.MonthKey, v.Evolution.Window)
	}
	if store.callCount() != 3 {
		t.Fatalf("lister called %d times", store.callCount())
	}

	failing := newTestService(&fakeStore{listErr: errors.New("db down")}, march10)
	if _, err := failing.Dashboard(context.Background(), DashboardRequest{UserID: "u1"}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := svc.Dashboard(context.Background(), DashboardRequest{UserID: "u1", Window: "weekly"}); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("err = %v", err)
	}
}

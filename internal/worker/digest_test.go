package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"dinvox/internal/amqp"
	"dinvox/internal/analytics"
	"dinvox/internal/core"
	applog "dinvox/internal/log"
	"dinvox/internal/services"
	"dinvox/internal/sheets/memory"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakePublisher struct {
	err  error
	sent []*amqp.DigestMessage
	keys []string
}

func (f *fakePublisher) PublishDigest(_ context.Context, key string, msg *amqp.DigestMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	f.keys = append(f.keys, key)
	return nil
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	add := func(user, date, msgID string, cents int64) {
		_, err := store.Append(context.Background(), core.Expense{
			UserID: user, Date: date, Description: "x", Amount: core.Money{Cents: cents}, MessageID: msgID,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	add("ana", "2026-01-10", "1", 10000)
	add("ana", "2026-02-10", "2", 15000)
	add("ben", "2026-02-11", "3", 5000) // nothing in january to compare
	return store
}

func newScheduler(store *memory.Store, pub *fakePublisher) *DigestScheduler {
	now := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	svc := services.NewAnalyticsService(store,
		services.WithClock(fixedClock{t: now}),
		services.WithLogger(applog.Discard()))
	s := NewDigestScheduler(store, svc, store, pub, DigestConfig{Schedule: "0 9 1 * *", RoutingKey: "digests"}, applog.Discard())
	s.now = func() time.Time { return now }
	return s
}

func TestDigestRunOnce(t *testing.T) {
	store := seededStore(t)
	pub := &fakePublisher{}
	s := newScheduler(store, pub)

	report, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.MonthKey != "2026-02" || report.Sent != 2 || report.Skipped != 0 {
		t.Fatalf("report = %+v", report)
	}
	byUser := map[string]*amqp.DigestMessage{}
	for _, m := range pub.sent {
		byUser[m.UserID] = m
	}
	if got := byUser["ana"].Headline; got != "En feb 2026 gastaste 50% más que en ene 2026." {
		t.Fatalf("ana headline = %q", got)
	}
	if byUser["ana"].Window != analytics.WindowLast6Months || len(byUser["ana"].Series) != 6 {
		t.Fatalf("ana digest = %+v", byUser["ana"])
	}
	if pub.keys[0] != "digests" {
		t.Fatalf("routing key = %q", pub.keys[0])
	}

	again, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if again.Sent != 0 || again.Skipped != 2 || len(pub.sent) != 2 {
		t.Fatalf("second run must not resend: %+v", again)
	}
}

func TestDigestSkipsUsersWithoutHistory(t *testing.T) {
	store := memory.New()
	_, _ = store.Append(context.Background(), core.Expense{UserID: "new", Date: "2026-02-27", Description: "x", Amount: core.Money{Cents: 100}})
	_, _ = store.Append(context.Background(), core.Expense{UserID: "late", Date: "2026-03-01", Description: "x", Amount: core.Money{Cents: 100}})
	pub := &fakePublisher{}

	report, err := newScheduler(store, pub).RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Skipped != 1 || len(pub.sent) != 1 {
		t.Fatalf("report = %+v", report)
	}
}

func TestDigestPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	report, err := newScheduler(seededStore(t), pub).RunOnce(context.Background())
	if err == nil || report.Failed != 2 {
		t.Fatalf("report = %+v, err = %v", report, err)
	}
}

func TestDigestStartRejectsBadSchedule(t *testing.T) {
	s := newScheduler(memory.New(), &fakePublisher{})
	s.cfg.Schedule = "every tuesday"
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected schedule error")
	}
	s.Stop()

	s.cfg.Schedule = "0 9 1 * *"
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.Stop()
}

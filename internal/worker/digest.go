package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"dinvox/internal/amqp"
	"dinvox/internal/analytics"
	applog "dinvox/internal/log"
	"dinvox/internal/services"
	"dinvox/internal/sheets"
)

// EvolutionSource computes the evolution view of one user.
type EvolutionSource interface {
	Evolution(ctx context.Context, userID string, window analytics.WindowKind, categoryID string) (*services.EvolutionView, error)
	CurrentMonth() analytics.MonthKey
}

// DigestPublisher delivers a digest to the chat channels.
type DigestPublisher interface {
	PublishDigest(ctx context.Context, routingKey string, msg *amqp.DigestMessage) error
}

// DigestConfig configures the monthly digest job.
type DigestConfig struct {
	Schedule   string
	RoutingKey string
	Location   *time.Location
}

// DigestScheduler sends every user a summary of the month that just closed.
type DigestScheduler struct {
	users     sheets.UserLister
	analytics EvolutionSource
	ledger    sheets.DigestLedger
	publisher DigestPublisher
	cfg       DigestConfig
	now       func() time.Time
	logger    *applog.Logger
	cron      *cron.Cron
}

func NewDigestScheduler(users sheets.UserLister, source EvolutionSource, ledger sheets.DigestLedger, publisher DigestPublisher, cfg DigestConfig, logger *applog.Logger) *DigestScheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DigestScheduler{
		users:     users,
		analytics: source,
		ledger:    ledger,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger.WithComponent(applog.ComponentDigest),
	}
}

// DigestReport summarizes one run.
type DigestReport struct {
	MonthKey analytics.MonthKey
	Sent     int
	Skipped  int
	Failed   int
}

// RunOnce sends the digest for the previous month to every user that has
// not received it yet. Users who spent nothing that month are skipped and
// not recorded.
func (s *DigestScheduler) RunOnce(ctx context.Context) (DigestReport, error) {
	month := analytics.ShiftMonthKey(s.analytics.CurrentMonth(), -1)
	report := DigestReport{MonthKey: month}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return report, fmt.Errorf("list users: %w", err)
	}

	var errs []error
	for _, user := range users {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		sent, err := s.sendOne(ctx, user, month)
		switch {
		case err != nil:
			report.Failed++
			errs = append(errs, fmt.Errorf("user %s: %w", user, err))
			s.logger.ErrorContext(ctx, "Digest failed",
				applog.FieldUserID, user, applog.FieldMonthKey, string(month), applog.FieldError, err)
		case sent:
			report.Sent++
		default:
			report.Skipped++
		}
	}

	s.logger.InfoContext(ctx, "Digest run finished",
		applog.FieldOperation, applog.OpDigest,
		applog.FieldMonthKey, string(month),
		"sent", report.Sent, "skipped", report.Skipped, "failed", report.Failed)
	return report, errors.Join(errs...)
}

func (s *DigestScheduler) sendOne(ctx context.Context, user string, month analytics.MonthKey) (bool, error) {
	view, err := s.analytics.Evolution(ctx, user, analytics.WindowLast6Months, analytics.AllCategories)
	if err != nil {
		return false, fmt.Errorf("evolution: %w", err)
	}
	if h := view.Result.HeadlineComparison; h == nil || h.CurrentTotal == 0 {
		return false, nil
	}

	fresh, err := s.ledger.MarkDigestSent(ctx, user, string(month))
	if err != nil {
		return false, err
	}
	if !fresh {
		return false, nil
	}

	msg := amqp.NewDigestMessage(user, month, view.Result, view.Insight, s.now())
	if err := s.publisher.PublishDigest(ctx, s.cfg.RoutingKey, msg); err != nil {
		return false, fmt.Errorf("publish: %w", err)
	}
	return true, nil
}

// Start registers the job on the configured cron schedule and starts the
// scheduler. Runs end when ctx ends or Stop is called.
func (s *DigestScheduler) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(s.cfg.Location))
	_, err := c.AddFunc(s.cfg.Schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.ErrorContext(ctx, "Scheduled digest run had failures", applog.FieldError, err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule digest %q: %w", s.cfg.Schedule, err)
	}
	s.cron = c
	c.Start()
	s.logger.InfoContext(ctx, "Digest scheduler started", "schedule", s.cfg.Schedule)
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *DigestScheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

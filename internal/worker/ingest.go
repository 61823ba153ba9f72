package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"dinvox/internal/amqp"
	"dinvox/internal/core"
	applog "dinvox/internal/log"
)

// ExpenseCreator stores validated expenses.
type ExpenseCreator interface {
	CreateExpense(ctx context.Context, e core.Expense) (string, error)
}

// IngestStats counts how deliveries were settled.
type IngestStats struct {
	Stored     int64
	Duplicates int64
	Rejected   int64
	Failed     int64
}

// IngestWorker turns chat-channel messages into stored expenses.
type IngestWorker struct {
	expenses ExpenseCreator
	loc      *time.Location
	logger   *applog.Logger
	stats    IngestStats
}

func NewIngestWorker(expenses ExpenseCreator, loc *time.Location, logger *applog.Logger) *IngestWorker {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &IngestWorker{
		expenses: expenses,
		loc:      loc,
		logger:   logger.WithComponent(applog.ComponentIngest),
	}
}

// HandleExpenseLogged is an amqp.ExpenseHandler. A nil return acks the
// delivery; errors wrapping amqp.ErrInvalidMessage or amqp.ErrDiscard drop
// it; any other error requeues it.
func (w *IngestWorker) HandleExpenseLogged(ctx context.Context, msg *amqp.ExpenseLoggedMessage) error {
	e, err := msg.ToExpense(w.loc)
	if err != nil {
		atomic.AddInt64(&w.stats.Rejected, 1)
		return fmt.Errorf("convert message %s: %w", msg.MessageID, err)
	}

	ref, err := w.expenses.CreateExpense(ctx, e)
	switch {
	case err == nil:
		atomic.AddInt64(&w.stats.Stored, 1)
		w.logger.InfoContext(ctx, "Ingested expense",
			applog.FieldMessageID, e.MessageID,
			applog.FieldUserID, e.UserID,
			applog.FieldChannel, e.Channel,
			"ref", ref)
		return nil
	case errors.Is(err, core.ErrDuplicateMessage):
		atomic.AddInt64(&w.stats.Duplicates, 1)
		w.logger.DebugContext(ctx, "Message already ingested", applog.FieldMessageID, e.MessageID)
		return nil
	case core.IsValidation(err):
		atomic.AddInt64(&w.stats.Rejected, 1)
		return fmt.Errorf("%w: %w", amqp.ErrDiscard, err)
	default:
		atomic.AddInt64(&w.stats.Failed, 1)
		return fmt.Errorf("store message %s: %w", e.MessageID, err)
	}
}

// Stats returns a snapshot of the counters.
func (w *IngestWorker) Stats() IngestStats {
	return IngestStats{
		Stored:     atomic.LoadInt64(&w.stats.Stored),
		Duplicates: atomic.LoadInt64(&w.stats.Duplicates),
		Rejected:   atomic.LoadInt64(&w.stats.Rejected),
		Failed:     atomic.LoadInt64(&w.stats.Failed),
	}
}

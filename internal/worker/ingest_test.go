package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"dinvox/internal/amqp"
	"dinvox/internal/core"
	applog "dinvox/internal/log"
)

type fakeCreator struct {
	err   error
	saved []core.Expense
}

func (f *fakeCreator) CreateExpense(_ context.Context, e core.Expense) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, e)
	return "ref-1", nil
}

func validMessage() *amqp.ExpenseLoggedMessage {
	return &amqp.ExpenseLoggedMessage{
		MessageID:  "tg-1",
		UserID:     "u1",
		Channel:    "telegram",
		Date:       "2026-02-14",
		Amount:     "120,50",
		CategoryID: "food",
	}
}

func TestHandleExpenseLogged(t *testing.T) {
	cases := []struct {
		name      string
		msg       *amqp.ExpenseLoggedMessage
		createErr error
		wantErr   bool
		discard   bool
		stats     IngestStats
	}{
		{name: "stored", msg: validMessage(), stats: IngestStats{Stored: 1}},
		{name: "duplicate acks", msg: validMessage(), createErr: core.ErrDuplicateMessage, stats: IngestStats{Duplicates: 1}},
		{
			name:    "malformed is dropped",
			msg:     &amqp.ExpenseLoggedMessage{MessageID: "x", UserID: "u1", Date: "14/02/2026", Amount: "1"},
			wantErr: true, discard: true, stats: IngestStats{Rejected: 1},
		},
		{
			name: "store validation is dropped", msg: validMessage(),
			createErr: core.ErrDescriptionLong,
			wantErr:   true, discard: true, stats: IngestStats{Rejected: 1},
		},
		{
			name: "storage failure requeues", msg: validMessage(),
			createErr: errors.New("database is locked"),
			wantErr:   true, stats: IngestStats{Failed: 1},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			creator := &fakeCreator{err: tc.createErr}
			w := NewIngestWorker(creator, time.UTC, applog.Discard())
			err := w.HandleExpenseLogged(context.Background(), tc.msg)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v", err)
			}
			dropped := errors.Is(err, amqp.ErrInvalidMessage) || errors.Is(err, amqp.ErrDiscard)
			if err != nil && dropped != tc.discard {
				t.Fatalf("discard = %v for %v", dropped, err)
			}
			if got := w.Stats(); got != tc.stats {
				t.Fatalf("stats = %+v, want %+v", got, tc.stats)
			}
		})
	}
}

func TestHandleExpenseLoggedConvertsMessage(t *testing.T) {
	creator := &fakeCreator{}
	w := NewIngestWorker(creator, time.UTC, applog.Discard())
	if err := w.HandleExpenseLogged(context.Background(), validMessage()); err != nil {
		t.Fatal(err)
	}
	e := creator.saved[0]
	if e.Amount.Cents != 12050 || e.Channel != core.ChannelTelegram || e.MessageID != "tg-1" || e.CategoryID != "food" {
		t.Fatalf("saved %+v", e)
	}
}

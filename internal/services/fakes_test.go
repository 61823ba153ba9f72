package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"dinvox/internal/core"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type listCall struct{ user, from, to string }

// fakeStore is an in-memory lister/writer that records its calls.
type fakeStore struct {
	mu      sync.Mutex
	items   []core.Expense
	calls   []listCall
	listErr error
	seen    map[string]bool
}

func (f *fakeStore) ListExpenses(_ context.Context, userID, from, to string) ([]core.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, listCall{userID, from, to})
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []core.Expense
	for _, e := range f.items {
		if e.UserID == userID && e.Date >= from && e.Date <= to {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) Append(_ context.Context, e core.Expense) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if e.MessageID != "" {
		if f.seen[e.MessageID] {
			return "", core.ErrDuplicateMessage
		}
		f.seen[e.MessageID] = true
	}
	f.items = append(f.items, e)
	return "fake:1", nil
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type failingWriter struct{}

func (failingWriter) Append(context.Context, core.Expense) (string, error) {
	return "", errors.New("disk full")
}

type countingInvalidator struct {
	mu    sync.Mutex
	users []string
}

func (c *countingInvalidator) InvalidateUser(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = append(c.users, userID)
	return 1
}

func exp(user, date string, cents int64, category string) core.Expense {
	return core.Expense{UserID: user, Date: date, Description: "x", Amount: core.Money{Cents: cents}, CategoryID: category}
}

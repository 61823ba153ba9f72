package sheets

import (
	"context"

	"dinvox/internal/core"
)

// Ports for outbound adapters. Dates are local calendar strings
// "YYYY-MM-DD"; ranges are inclusive on both ends.
type (
	ExpenseWriter interface {
		// Append stores e and returns a backend reference for it. An expense
		// whose MessageID was already stored fails with core.ErrDuplicateMessage.
		Append(ctx context.Context, e core.Expense) (ref string, err error)
	}

	// ExpenseLister returns the expenses of one user within a date range.
	ExpenseLister interface {
		ListExpenses(ctx context.Context, userID, fromDate, toDate string) ([]core.Expense, error)
	}

	// UserLister returns every user with at least one stored expense.
	UserLister interface {
		ListUsers(ctx context.Context) ([]string, error)
	}

	// DigestLedger remembers which monthly digests went out. MarkDigestSent
	// returns false when the digest for that user and month was already
	// recorded.
	DigestLedger interface {
		MarkDigestSent(ctx context.Context, userID, monthKey string) (bool, error)
	}
)

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dinvox/internal/core"
	ports "dinvox/internal/sheets"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	_ ports.ExpenseWriter = (*SQLiteRepository)(nil)
	_ ports.ExpenseLister = (*SQLiteRepository)(nil)
	_ ports.UserLister    = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Append implements sheets.ExpenseWriter. A repeated MessageID is reported as
// core.ErrDuplicateMessage and nothing is written.
func (r *SQLiteRepository) Append(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now().UTC()
	}

	params := CreateExpenseParams{
		ID:          e.ID,
		UserID:      e.UserID,
		Date:        e.Date,
		Description: e.Description,
		AmountCents: e.Amount.Cents,
		CategoryID:  e.CategoryID,
		Channel:     e.Channel,
		MessageID:   sql.NullString{String: e.MessageID, Valid: e.MessageID != ""},
		CreatedAt:   e.CreatedAt,
	}
	if err := r.queries.CreateExpense(ctx, params); err != nil {
		if isUniqueViolation(err) {
			return "", core.ErrDuplicateMessage
		}
		return "", fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents,
		"date", e.Date,
		"channel", e.Channel)

	return e.ID, nil
}

// HasMessage reports whether an expense with messageID is already stored.
func (r *SQLiteRepository) HasMessage(ctx context.Context, messageID string) (bool, error) {
	ok, err := r.queries.MessageExists(ctx, messageID)
	if err != nil {
		return false, fmt.Errorf("check message id: %w", err)
	}
	return ok, nil
}

// ListExpenses implements sheets.ExpenseLister
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID, fromDate, toDate string) ([]core.Expense, error) {
	rows, err := r.queries.ListExpensesByUserRange(ctx, ListExpensesByUserRangeParams{
		UserID:   userID,
		FromDate: fromDate,
		ToDate:   toDate,
	})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	expenses := make([]core.Expense, len(rows))
	for i, e := range rows {
		expenses[i] = core.Expense{
			ID:          e.ID,
			UserID:      e.UserID,
			Date:        e.Date,
			Description: e.Description,
			Amount:      core.Money{Cents: e.AmountCents},
			CategoryID:  e.CategoryID,
			Channel:     e.Channel,
			MessageID:   e.MessageID.String,
			CreatedAt:   e.CreatedAt,
		}
	}
	return expenses, nil
}

// ListUsers implements sheets.UserLister
func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]string, error) {
	users, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// MarkDigestSent records that the digest for user and month went out. It
// returns false when it had already been recorded.
func (r *SQLiteRepository) MarkDigestSent(ctx context.Context, userID, monthKey string) (bool, error) {
	n, err := r.queries.InsertDigestRun(ctx, InsertDigestRunParams{UserID: userID, MonthKey: monthKey})
	if err != nil {
		return false, fmt.Errorf("mark digest sent: %w", err)
	}
	return n > 0, nil
}

// isUniqueViolation detects the sqlite UNIQUE constraint error without
// depending on driver internals.
func isUniqueViolation(err error) bool {
	var target interface{ Code() int }
	if errors.As(err, &target) {
		// SQLITE_CONSTRAINT_UNIQUE
		if target.Code() == 2067 {
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

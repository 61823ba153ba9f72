package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Expense is a row of the expenses table.
type Expense struct {
	ID          string
	UserID      string
	Date        string
	Description string
	AmountCents int64
	CategoryID  string
	Channel     string
	MessageID   sql.NullString
	CreatedAt   time.Time
}

const createExpense = `
INSERT INTO expenses (id, user_id, date, description, amount_cents, category_id, channel, message_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateExpenseParams struct {
	ID          string
	UserID      string
	Date        string
	Description string
	AmountCents int64
	CategoryID  string
	Channel     string
	MessageID   sql.NullString
	CreatedAt   time.Time
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) error {
	_, err := q.db.ExecContext(ctx, createExpense,
		arg.ID,
		arg.UserID,
		arg.Date,
		arg.Description,
		arg.AmountCents,
		arg.CategoryID,
		arg.Channel,
		arg.MessageID,
		arg.CreatedAt,
	)
	return err
}

const messageExists = `SELECT EXISTS(SELECT 1 FROM expenses WHERE message_id = ?)`

func (q *Queries) MessageExists(ctx context.Context, messageID string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, messageExists, messageID).Scan(&exists)
	return exists, err
}

const listExpensesByUserRange = `
SELECT id, user_id, date, description, amount_cents, category_id, channel, message_id, created_at
FROM expenses
WHERE user_id = ? AND date >= ? AND date <= ?
ORDER BY date, created_at
`

type ListExpensesByUserRangeParams struct {
	UserID   string
	FromDate string
	ToDate   string
}

func (q *Queries) ListExpensesByUserRange(ctx context.Context, arg ListExpensesByUserRangeParams) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpensesByUserRange, arg.UserID, arg.FromDate, arg.ToDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		var i Expense
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Date,
			&i.Description,
			&i.AmountCents,
			&i.CategoryID,
			&i.Channel,
			&i.MessageID,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listUsers = `SELECT DISTINCT user_id FROM expenses ORDER BY user_id`

func (q *Queries) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		items = append(items, userID)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertDigestRun = `
INSERT INTO digest_runs (user_id, month_key) VALUES (?, ?)
ON CONFLICT (user_id, month_key) DO NOTHING
`

type InsertDigestRunParams struct {
	UserID   string
	MonthKey string
}

func (q *Queries) InsertDigestRun(ctx context.Context, arg InsertDigestRunParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertDigestRun, arg.UserID, arg.MonthKey)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

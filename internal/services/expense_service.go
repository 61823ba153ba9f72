package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"dinvox/internal/core"
	applog "dinvox/internal/log"
	"dinvox/internal/sheets"
)

// Invalidator drops cached analytics of one user.
type Invalidator interface {
	InvalidateUser(userID string) int
}

// ExpenseService records expenses and keeps analytics caches consistent with
// what was stored.
type ExpenseService struct {
	writer      sheets.ExpenseWriter
	invalidator Invalidator
	logger      *applog.Logger
}

func NewExpenseService(writer sheets.ExpenseWriter, invalidator Invalidator, logger *applog.Logger) *ExpenseService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &ExpenseService{
		writer:      writer,
		invalidator: invalidator,
		logger:      logger.WithComponent(applog.ComponentExpense),
	}
}

// CreateExpense validates and stores e. A repeated MessageID returns
// core.ErrDuplicateMessage and leaves the store untouched.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (string, error) {
	e.UserID = strings.TrimSpace(e.UserID)
	e.Description = strings.TrimSpace(e.Description)
	e.CategoryID = strings.TrimSpace(e.CategoryID)
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validate expense: %w", err)
	}

	ref, err := s.writer.Append(ctx, e)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateMessage) {
			s.logger.InfoContext(ctx, "Duplicate expense message ignored",
				applog.FieldUserID, e.UserID,
				applog.FieldMessageID, e.MessageID)
			return "", err
		}
		return "", fmt.Errorf("save expense: %w", err)
	}

	dropped := 0
	if s.invalidator != nil {
		dropped = s.invalidator.InvalidateUser(e.UserID)
	}

	s.logger.InfoContext(ctx, "Expense recorded",
		applog.NewFields().
			WithExpense(e.UserID, e.Amount.Cents, e.CategoryID, e.Channel).
			WithOperation(applog.OpCreate).ToSlice()...)
	s.logger.DebugContext(ctx, "Analytics cache invalidated",
		applog.FieldUserID, e.UserID, "entries", dropped)
	return ref, nil
}

// Close releases the writer when it holds resources.
func (s *ExpenseService) Close() error {
	if c, ok := s.writer.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close expense writer: %w", err)
		}
	}
	return nil
}

package amqp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dinvox/internal/analytics"
	"dinvox/internal/core"
)

// ErrInvalidMessage marks payloads that can never be processed.
var ErrInvalidMessage = errors.New("invalid message")

// Amount accepts either a JSON number or a decimal string ("12,50").
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = Amount(n.String())
	return nil
}

// ExpenseLoggedMessage is published by a chat channel when a user logs a
// spend. MessageID is the upstream chat message id.
type ExpenseLoggedMessage struct {
	MessageID   string    `json:"messageId"`
	UserID      string    `json:"userId"`
	Channel     string    `json:"channel"`
	Date        string    `json:"date"`
	Amount      Amount    `json:"amount"`
	CategoryID  string    `json:"categoryId,omitempty"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// ExpenseLoggedMessageFromJSON decodes a delivery body. Unknown fields are
// ignored.
func ExpenseLoggedMessageFromJSON(data []byte) (*ExpenseLoggedMessage, error) {
	var msg ExpenseLoggedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return &msg, nil
}

func (m *ExpenseLoggedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ToExpense converts the message into a domain expense. A missing date falls
// back to the timestamp's day in loc.
func (m *ExpenseLoggedMessage) ToExpense(loc *time.Location) (core.Expense, error) {
	if strings.TrimSpace(m.MessageID) == "" {
		return core.Expense{}, fmt.Errorf("%w: missing messageId", ErrInvalidMessage)
	}
	cents, err := core.ParseDecimalToCents(string(m.Amount))
	if err != nil {
		return core.Expense{}, fmt.Errorf("%w: amount %q: %w", ErrInvalidMessage, m.Amount, core.ErrInvalidAmount)
	}
	date := strings.TrimSpace(m.Date)
	if date == "" && !m.Timestamp.IsZero() {
		if loc == nil {
			loc = time.UTC
		}
		date = m.Timestamp.In(loc).Format(core.DateLayout)
	}
	desc := strings.TrimSpace(m.Description)
	if desc == "" {
		desc = strings.TrimSpace(m.CategoryID)
	}
	if desc == "" {
		desc = "gasto"
	}
	e := core.Expense{
		UserID:      strings.TrimSpace(m.UserID),
		Date:        date,
		Description: desc,
		Amount:      core.Money{Cents: cents},
		CategoryID:  strings.TrimSpace(m.CategoryID),
		Channel:     strings.ToLower(strings.TrimSpace(m.Channel)),
		MessageID:   strings.TrimSpace(m.MessageID),
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	return e, nil
}

// DigestMessage is the monthly summary sent back to a user's chat channel.
type DigestMessage struct {
	MessageID string                  `json:"messageId"`
	UserID    string                  `json:"userId"`
	MonthKey  analytics.MonthKey      `json:"monthKey"`
	Window    analytics.WindowKind    `json:"window"`
	Headline  string                  `json:"headline"`
	TopUp     []analytics.Mover       `json:"topUp"`
	TopDown   []analytics.Mover       `json:"topDown"`
	Series    []analytics.SeriesPoint `json:"series"`
	Timestamp time.Time               `json:"timestamp"`
}

// NewDigestMessage builds the digest for the month just closed.
func NewDigestMessage(userID string, month analytics.MonthKey, res *analytics.EvolutionResult, in analytics.EvolutionInsight, now time.Time) *DigestMessage {
	msg := &DigestMessage{
		MessageID: uuid.NewString(),
		UserID:    userID,
		MonthKey:  month,
		Headline:  in.Headline,
		TopUp:     in.TopUp,
		TopDown:   in.TopDown,
		Series:    []analytics.SeriesPoint{},
		Timestamp: now,
	}
	if res != nil {
		msg.Window = res.Window
		msg.Series = res.Series
	}
	return msg
}

func (m *DigestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DigestMessageFromJSON(data []byte) (*DigestMessage, error) {
	var msg DigestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

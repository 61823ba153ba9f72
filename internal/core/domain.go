package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the local calendar date format used across the app.
const DateLayout = "2006-01-02"

// Channels an expense can arrive from.
const (
	ChannelWeb      = "web"
	ChannelTelegram = "telegram"
	ChannelWhatsApp = "whatsapp"
	ChannelImport   = "import"
)

const maxDescriptionLen = 200

type (
	Money struct {
		Cents int64
	}

	// Expense is one spend recorded by a user. Date is the user's local
	// calendar day; it never carries a timezone.
	Expense struct {
		ID          string
		UserID      string
		Date        string
		Description string
		Amount      Money
		CategoryID  string
		Channel     string
		MessageID   string // Upstream chat message id, used for idempotency
		CreatedAt   time.Time
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyUser        = errors.New("empty user id")
	ErrEmptyDescription = errors.New("empty description")
	ErrDescriptionLong  = fmt.Errorf("description too long (max %d characters)", maxDescriptionLen)
	ErrUnknownChannel   = errors.New("unknown channel")
	ErrDuplicateMessage = errors.New("message already recorded")
)

// ValidateDate checks s is a real calendar day in DateLayout.
func ValidateDate(s string) error {
	if len(s) != len(DateLayout) {
		return ErrInvalidDate
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func validChannel(c string) bool {
	switch c {
	case "", ChannelWeb, ChannelTelegram, ChannelWhatsApp, ChannelImport:
		return true
	}
	return false
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrEmptyUser
	}
	if err := ValidateDate(e.Date); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > maxDescriptionLen {
		return ErrDescriptionLong
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !validChannel(e.Channel) {
		return ErrUnknownChannel
	}
	return nil
}

// IsValidation reports whether err is one of the input validation errors.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidDate, ErrInvalidAmount, ErrEmptyUser,
		ErrEmptyDescription, ErrDescriptionLong, ErrUnknownChannel,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

package core

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2025-01-01", true},
		{"2024-02-29", true},
		{"2023-02-29", false},
		{"2025-13-01", false},
		{"2025-1-01", false},
		{"01/02/2025", false},
		{"2025-01-01T00:00:00Z", false},
		{"", false},
	}
	for _, tc := range cases {
		err := ValidateDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q expected ok, got %v", tc.in, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		UserID:      "u1",
		Date:        "2025-01-01",
		Description: "tacos",
		Amount:      Money{Cents: 100},
		CategoryID:  "food",
		Channel:     ChannelTelegram,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	noCategory := good
	noCategory.CategoryID = ""
	if err := noCategory.Validate(); err != nil {
		t.Fatalf("category is optional, got %v", err)
	}

	cases := []struct {
		name string
		mod  func(*Expense)
		want error
	}{
		{"no user", func(e *Expense) { e.UserID = " " }, ErrEmptyUser},
		{"bad date", func(e *Expense) { e.Date = "2025-02-30" }, ErrInvalidDate},
		{"empty description", func(e *Expense) { e.Description = "" }, ErrEmptyDescription},
		{"long description", func(e *Expense) { e.Description = strings.Repeat("x", 201) }, ErrDescriptionLong},
		{"zero amount", func(e *Expense) { e.Amount = Money{} }, ErrInvalidAmount},
		{"unknown channel", func(e *Expense) { e.Channel = "fax" }, ErrUnknownChannel},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := good
			tc.mod(&e)
			err := e.Validate()
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !IsValidation(err) {
				t.Fatalf("expected IsValidation for %v", err)
			}
		})
	}
}

func TestIsValidation(t *testing.T) {
	if IsValidation(errors.New("disk full")) {
		t.Fatal("arbitrary error reported as validation")
	}
	if IsValidation(ErrDuplicateMessage) {
		t.Fatal("duplicate message is not a validation error")
	}
}

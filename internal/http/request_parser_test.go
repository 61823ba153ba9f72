package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"dinvox/internal/analytics"
	"dinvox/internal/core"
	"dinvox/internal/services"
)

func TestParseAnalyticsParams(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		want    AnalyticsParams
		wantErr error
	}{
		{
			name:  "defaults",
			query: url.Values{},
			want:  AnalyticsParams{Month: "2026-03", Window: analytics.WindowLast6Months, CategoryID: analytics.AllCategories},
		},
		{
			name:  "explicit values",
			query: url.Values{"month": {"2026-01"}, "window": {"year_to_date"}, "category": {" food "}},
			want:  AnalyticsParams{Month: "2026-01", Window: analytics.WindowYearToDate, CategoryID: "food"},
		},
		{
			name:  "categoryId alias",
			query: url.Values{"categoryId": {"rent"}},
			want:  AnalyticsParams{Month: "2026-03", Window: analytics.WindowLast6Months, CategoryID: "rent"},
		},
		{
			name:    "malformed month",
			query:   url.Values{"month": {"2026-3"}},
			wantErr: services.ErrInvalidMonth,
		},
		{
			name:    "unknown window",
			query:   url.Values{"window": {"weekly"}},
			wantErr: services.ErrInvalidWindow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnalyticsParams(tt.query, "2026-03")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantJSON    bool
		wantAmount  string
		wantErr     bool
	}{
		{"json body", "application/json", `{"amount": 12.5, "description": "café"}`, true, "12.5", false},
		{"json sniffed without header", "", `{"amount": "3,40"}`, true, "3,40", false},
		{"form body", "application/x-www-form-urlencoded", "amount=7&description=bus", false, "7", false},
		{"empty body", "", "", false, "", false},
		{"broken json", "application/json", `{"amount":`, false, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			p := NewRequestBodyParser(req)
			err := p.Parse()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if p.IsJSON() != tt.wantJSON {
				t.Errorf("IsJSON() = %v, want %v", p.IsJSON(), tt.wantJSON)
			}
			if got := p.Get("amount"); got != tt.wantAmount {
				t.Errorf("Get(amount) = %q, want %q", got, tt.wantAmount)
			}
		})
	}
}

func TestRequestBodyParserTooLarge(t *testing.T) {
	body := `{"description":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); !errors.Is(err, errBodyTooLarge) {
		t.Fatalf("Parse() error = %v, want errBodyTooLarge", err)
	}
}

func TestParseExpense(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(
		`{"amount":"12,30","description":"  almuerzo ","category":"food","messageId":"m-1","channel":"Telegram"}`))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatal(err)
	}
	e, err := ParseExpense(p, "ana", "2026-03-10")
	if err != nil {
		t.Fatalf("ParseExpense: %v", err)
	}
	if e.Amount.Cents != 1230 || e.Date != "2026-03-10" || e.CategoryID != "food" {
		t.Errorf("expense = %+v", e)
	}
	if e.Channel != core.ChannelTelegram || e.MessageID != "m-1" || e.Description != "almuerzo" {
		t.Errorf("expense = %+v", e)
	}

	bad := NewRequestBodyParser(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("amount=abc")))
	if err := bad.Parse(); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseExpense(bad, "ana", "2026-03-10"); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
}

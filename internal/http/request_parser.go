// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// analytics query parameters and expense bodies sent as JSON or form data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"dinvox/internal/analytics"
	"dinvox/internal/core"
	"dinvox/internal/services"
)

// maxBodyBytes bounds expense request bodies.
const maxBodyBytes = 16 << 10

var errBodyTooLarge = errors.New("request body too large")

// AnalyticsParams holds the analytics query parameters of a request.
type AnalyticsParams struct {
	Month      analytics.MonthKey
	Window     analytics.WindowKind
	CategoryID string
}

// ParseAnalyticsParams reads month, window and category from the query. A
// missing month falls back to current; a present but malformed one is an
// error.
func ParseAnalyticsParams(query url.Values, current analytics.MonthKey) (AnalyticsParams, error) {
	params := AnalyticsParams{
		Month:      current,
		Window:     analytics.WindowLast6Months,
		CategoryID: analytics.AllCategories,
	}

	if v := strings.TrimSpace(query.Get("month")); v != "" {
		k := analytics.MonthKey(v)
		if !k.Valid() {
			return params, fmt.Errorf("month %q: %w", v, services.ErrInvalidMonth)
		}
		params.Month = k
	}
	if v := strings.TrimSpace(query.Get("window")); v != "" {
		w := analytics.WindowKind(v)
		if !w.Valid() {
			return params, fmt.Errorf("window %q: %w", v, services.ErrInvalidWindow)
		}
		params.Window = w
	}
	if v := sanitizeInput(firstNonEmpty(query.Get("category"), query.Get("categoryId"))); v != "" {
		params.CategoryID = v
	}
	return params, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads at most maxBodyBytes of the body once.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseExpense builds an expense for userID from a parsed body. The date
// defaults to today and the channel to web.
func ParseExpense(p *RequestBodyParser, userID, today string) (core.Expense, error) {
	amount := p.Get("amount")
	cents, err := core.ParseDecimalToCents(amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("amount %q: %w", amount, err)
	}
	channel := strings.ToLower(p.Get("channel"))
	if channel == "" {
		channel = core.ChannelWeb
	}
	return core.Expense{
		UserID:      userID,
		Date:        firstNonEmpty(p.Get("date"), today),
		Description: p.Get("description"),
		Amount:      core.Money{Cents: cents},
		CategoryID:  firstNonEmpty(p.Get("categoryId"), p.Get("category")),
		Channel:     channel,
		MessageID:   p.Get("messageId"),
	}, nil
}

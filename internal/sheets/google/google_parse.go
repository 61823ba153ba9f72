package google

import (
	"fmt"
	"strconv"
	"strings"

	"dinvox/internal/core"
)

// columns maps row fields to sheet column indexes; -1 means absent.
type columns struct {
	date, amount, category, user, description, channel, message int
}

// defaultColumns is the layout written by Append and assumed for sheets
// without a header row.
var defaultColumns = columns{date: 0, amount: 1, category: 2, user: 3, description: 4, channel: 5, message: 6}

// headerColumns resolves columns from a header row. ok is false when the row
// does not look like a header.
func headerColumns(row []string) (columns, bool) {
	c := columns{
		date:        indexOf(row, "Date", "Fecha"),
		amount:      indexOf(row, "Amount", "Monto"),
		category:    indexOf(row, "Category", "Categoría", "Categoria"),
		user:        indexOf(row, "User", "Usuario"),
		description: indexOf(row, "Description", "Descripción", "Descripcion"),
		channel:     indexOf(row, "Channel", "Canal"),
		message:     indexOf(row, "MessageID", "Message ID"),
	}
	if c.date == -1 || c.amount == -1 || c.user == -1 {
		return defaultColumns, false
	}
	return c, true
}

// parseExpenseRows converts a values matrix (as returned by Sheets API) into
// expenses. The first row may be a header; unreadable rows are skipped.
func parseExpenseRows(values [][]interface{}) []core.Expense {
	out := make([]core.Expense, 0, len(values))
	if len(values) == 0 {
		return out
	}
	cols, hasHeader := headerColumns(toStrings(values[0]))
	start := 0
	if hasHeader {
		start = 1
	}
	for i := start; i < len(values); i++ {
		row := toStrings(values[i])
		date, ok := normalizeDate(safeGet(row, cols.date))
		if !ok {
			continue
		}
		cents, ok := parseAmountToCents(safeGet(row, cols.amount))
		if !ok {
			continue
		}
		user := safeGet(row, cols.user)
		if user == "" {
			continue
		}
		out = append(out, core.Expense{
			ID:          fmt.Sprintf("row:%d", i+1),
			UserID:      user,
			Date:        date,
			Description: safeGet(row, cols.description),
			Amount:      core.Money{Cents: cents},
			CategoryID:  safeGet(row, cols.category),
			Channel:     safeGet(row, cols.channel),
			MessageID:   safeGet(row, cols.message),
		})
	}
	return out
}

// formatExpenseRow is the inverse of parseExpenseRows for defaultColumns.
func formatExpenseRow(e core.Expense) []any {
	return []any{e.Date, e.Amount.String(), e.CategoryID, e.UserID, e.Description, e.Channel, e.MessageID}
}

// normalizeDate accepts "YYYY-MM-DD" and the spreadsheet locale form
// "D/M/YYYY".
func normalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if core.ValidateDate(s) == nil {
		return s, true
	}
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return "", false
	}
	d, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	y, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}
	out := fmt.Sprintf("%04d-%02d-%02d", y, m, d)
	if core.ValidateDate(out) != nil {
		return "", false
	}
	return out, true
}

// parseAmountToCents reads amounts rendered by Sheets, which may carry a
// currency sign and thousands separators ("$1,234.50").
func parseAmountToCents(s string) (int64, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	}
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return 0, false
	}
	return cents, true
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, targets ...string) int {
	for i, v := range arr {
		for _, t := range targets {
			if strings.EqualFold(strings.TrimSpace(v), t) {
				return i
			}
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return strings.TrimSpace(arr[idx])
}

// Package analytics implements the period analytics engine: calendar month
// keys, sub-month thirds, pacing against a historical baseline and
// month-over-month evolution.
//
// Every function here is pure. Dates travel as "YYYY-MM-DD" strings and months
// as "YYYY-MM" keys, and all arithmetic is done on their digits. Nothing reads
// the system clock or converts between timezones: callers resolve "today" in
// the user's timezone and pass it in.
package analytics

import (
	"fmt"
	"regexp"
	"strconv"
)

// MonthKey identifies a calendar month as "YYYY-MM".
type MonthKey string

// maxMonthKeys bounds range enumeration so malformed input cannot spin.
const maxMonthKeys = 240

var (
	monthKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)
	datePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

var (
	shortMonthNames = [12]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sep", "oct", "nov", "dic"}
	longMonthNames  = [12]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"}
)

// parts splits a key into year and 1-based month.
func (k MonthKey) parts() (year, month int, ok bool) {
	s := string(k)
	if !monthKeyPattern.MatchString(s) {
		return 0, 0, false
	}
	year, _ = strconv.Atoi(s[:4])
	month, _ = strconv.Atoi(s[5:7])
	if month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}

// Valid reports whether k is a well-formed month key.
func (k MonthKey) Valid() bool {
	_, _, ok := k.parts()
	return ok
}

func (k MonthKey) String() string { return string(k) }

// index returns the linear month index year*12 + month0.
func (k MonthKey) index() (int, bool) {
	y, m, ok := k.parts()
	if !ok {
		return 0, false
	}
	return y*12 + (m - 1), true
}

func keyFromIndex(idx int) MonthKey {
	if idx < 0 || idx > 9999*12+11 {
		return ""
	}
	return MonthKey(fmt.Sprintf("%04d-%02d", idx/12, idx%12+1))
}

// NewMonthKey builds a key from a year and a 1-based month.
func NewMonthKey(year, month int) MonthKey {
	if month < 1 || month > 12 {
		return ""
	}
	return keyFromIndex(year*12 + month - 1)
}

// splitDate returns the digits of a well-formed "YYYY-MM-DD" string.
func splitDate(date string) (year, month, day int, ok bool) {
	if !datePattern.MatchString(date) {
		return 0, 0, 0, false
	}
	year, _ = strconv.Atoi(date[:4])
	month, _ = strconv.Atoi(date[5:7])
	day, _ = strconv.Atoi(date[8:10])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, 0, false
	}
	return year, month, day, true
}

// MonthKeyOf extracts the month key of a "YYYY-MM-DD" date, or "" when the
// date is malformed.
func MonthKeyOf(date string) MonthKey {
	if _, _, _, ok := splitDate(date); !ok {
		return ""
	}
	return MonthKey(date[:7])
}

// DayOf returns the day of month of a "YYYY-MM-DD" date.
func DayOf(date string) (int, bool) {
	_, _, d, ok := splitDate(date)
	return d, ok
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the length of the month, honoring leap years.
func DaysInMonth(k MonthKey) (int, bool) {
	y, m, ok := k.parts()
	if !ok {
		return 0, false
	}
	switch m {
	case 2:
		if isLeap(y) {
			return 29, true
		}
		return 28, true
	case 4, 6, 9, 11:
		return 30, true
	default:
		return 31, true
	}
}

// MonthStart returns the first day of the month as "YYYY-MM-01".
func MonthStart(k MonthKey) (string, bool) {
	if !k.Valid() {
		return "", false
	}
	return string(k) + "-01", true
}

// MonthEnd returns the last day of the month as "YYYY-MM-DD".
func MonthEnd(k MonthKey) (string, bool) {
	n, ok := DaysInMonth(k)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s-%02d", k, n), true
}

// ShiftMonthKey moves k by delta months in either direction. It returns ""
// for a malformed key or a result outside years 0000-9999.
func ShiftMonthKey(k MonthKey, delta int) MonthKey {
	idx, ok := k.index()
	if !ok {
		return ""
	}
	return keyFromIndex(idx + delta)
}

// Before reports whether k is chronologically before other. Malformed keys
// are never before anything.
func (k MonthKey) Before(other MonthKey) bool {
	a, okA := k.index()
	b, okB := other.index()
	return okA && okB && a < b
}

// MonthKeysBetween enumerates start..end inclusive in ascending order. It is
// empty when start is after end or either key is malformed, and never longer
// than 240 keys.
func MonthKeysBetween(start, end MonthKey) []MonthKey {
	a, okA := start.index()
	b, okB := end.index()
	if !okA || !okB || a > b {
		return []MonthKey{}
	}
	if b-a+1 > maxMonthKeys {
		b = a + maxMonthKeys - 1
	}
	keys := make([]MonthKey, 0, b-a+1)
	for i := a; i <= b; i++ {
		keys = append(keys, keyFromIndex(i))
	}
	return keys
}

// LastNMonthKeys returns the n months ending at anchor, anchor included.
func LastNMonthKeys(anchor MonthKey, n int) []MonthKey {
	if n < 1 {
		return []MonthKey{}
	}
	if n > maxMonthKeys {
		n = maxMonthKeys
	}
	return MonthKeysBetween(ShiftMonthKey(anchor, -(n - 1)), anchor)
}

// YearToDateMonthKeys returns January of the anchor's year through anchor.
func YearToDateMonthKeys(anchor MonthKey) []MonthKey {
	y, _, ok := anchor.parts()
	if !ok {
		return []MonthKey{}
	}
	return MonthKeysBetween(NewMonthKey(y, 1), anchor)
}

// MonthLabel renders a short label such as "feb 2026".
func MonthLabel(k MonthKey) string {
	y, m, ok := k.parts()
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s %04d", shortMonthNames[m-1], y)
}

// LongMonthLabel renders a label such as "febrero 2026".
func LongMonthLabel(k MonthKey) string {
	y, m, ok := k.parts()
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s %04d", longMonthNames[m-1], y)
}

// DayLimit returns how many days of the selected month count as elapsed on
// the given local date: today's day for the current month, the whole month
// for a closed one and 0 for a future month or malformed input.
func DayLimit(selected MonthKey, today string) int {
	current := MonthKeyOf(today)
	if current == "" || !selected.Valid() {
		return 0
	}
	switch {
	case selected == current:
		d, _ := DayOf(today)
		return d
	case selected.Before(current):
		n, _ := DaysInMonth(selected)
		return n
	default:
		return 0
	}
}

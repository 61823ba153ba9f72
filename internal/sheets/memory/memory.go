package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"dinvox/internal/core"
	ports "dinvox/internal/sheets"

	"github.com/google/uuid"
)

// SeedFile is the optional CSV loaded by NewFromFiles. Columns:
// user_id,date,amount,category_id,description
const SeedFile = "seed_expenses.csv"

var (
	_ ports.ExpenseWriter = (*Store)(nil)
	_ ports.ExpenseLister = (*Store)(nil)
	_ ports.UserLister    = (*Store)(nil)
)

type Store struct {
	mu       sync.Mutex
	items    []core.Expense
	messages map[string]struct{}
	digests  map[string]struct{}
	now      func() time.Time
}

func New() *Store {
	return &Store{messages: map[string]struct{}{}, digests: map[string]struct{}{}, now: time.Now}
}

// NewFromFiles builds a store seeded from base/seed_expenses.csv. A missing
// file yields an empty store; malformed rows are skipped.
func NewFromFiles(base string) *Store {
	s := New()
	for _, e := range readSeed(filepath.Join(base, SeedFile)) {
		_, _ = s.Append(context.Background(), e)
	}
	return s
}

// Append stores the expense and returns its generated id.
func (s *Store) Append(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.MessageID != "" {
		if _, dup := s.messages[e.MessageID]; dup {
			return "", core.ErrDuplicateMessage
		}
		s.messages[e.MessageID] = struct{}{}
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	s.items = append(s.items, e)
	return "mem:" + e.ID, nil
}

// ListExpenses returns the user's expenses between fromDate and toDate,
// ordered by date then insertion.
func (s *Store) ListExpenses(_ context.Context, userID, fromDate, toDate string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0)
	for _, e := range s.items {
		if e.UserID != userID || e.Date < fromDate || e.Date > toDate {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// ListUsers returns distinct user ids in sorted order.
func (s *Store) ListUsers(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.items))
	for _, e := range s.items {
		ids = append(ids, e.UserID)
	}
	out := dedupeSorted(ids)
	sort.Strings(out)
	return out, nil
}

// MarkDigestSent records a published digest; false means it was already
// recorded.
func (s *Store) MarkDigestSent(_ context.Context, userID, monthKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := userID + "|" + monthKey
	if _, ok := s.digests[k]; ok {
		return false, nil
	}
	s.digests[k] = struct{}{}
	return true, nil
}

func readSeed(path string) []core.Expense {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var out []core.Expense
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		if len(row) < 3 || strings.EqualFold(strings.TrimSpace(row[0]), "user_id") {
			continue
		}
		cents, err := core.ParseDecimalToCents(row[2])
		if err != nil {
			continue
		}
		e := core.Expense{
			UserID:      strings.TrimSpace(row[0]),
			Date:        strings.TrimSpace(row[1]),
			Amount:      core.Money{Cents: cents},
			Description: "seed",
			Channel:     core.ChannelImport,
		}
		if len(row) > 3 {
			e.CategoryID = strings.TrimSpace(row[3])
		}
		if len(row) > 4 && strings.TrimSpace(row[4]) != "" {
			e.Description = strings.TrimSpace(row[4])
		}
		out = append(out, e)
	}
	return out
}

func dedupeSorted(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

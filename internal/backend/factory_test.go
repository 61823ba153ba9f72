package backend

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dinvox/internal/config"
	"dinvox/internal/core"
	applog "dinvox/internal/log"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:           "sheets",
		SQLiteDBPath:          "/tmp/ledger.db",
		GoogleSpreadsheetID:   "sheet-1",
		GoogleSheetName:       "Gastos",
		GoogleCredentialsFile: "/etc/sa.json",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != SheetsBackend || cfg.GoogleSpreadsheetID != "sheet-1" || cfg.DataDirectory != "data" {
		t.Fatalf("config = %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"memory", Config{Type: MemoryBackend}, ""},
		{"sqlite without path", Config{Type: SQLiteBackend}, "SQLite database path"},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, ""},
		{"sheets without id", Config{Type: SheetsBackend, GoogleCredentialsJSON: "{}"}, "Spreadsheet ID"},
		{"sheets without credentials", Config{Type: SheetsBackend, GoogleSpreadsheetID: "id"}, "GoogleCredentialsJSON"},
		{"unknown", Config{Type: "redis"}, "invalid backend type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := strings.Join(GetBackendTypeStrings(), ",")
	if got != "sqlite,sheets,memory" {
		t.Fatalf("types = %q", got)
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	dir := t.TempDir()
	seed := "user_id,date,amount,category_id,description\nana,2026-02-03,12.50,food,pan\nben,2026-02-04,3,,\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_expenses.csv"), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(applog.Discard()).CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	users, err := res.Backend.ListUsers(context.Background())
	if err != nil || len(users) != 2 {
		t.Fatalf("users = %v, %v", users, err)
	}
	items, err := res.Backend.ListExpenses(context.Background(), "ana", "2026-02-01", "2026-02-28")
	if err != nil || len(items) != 1 || items[0].Amount.Cents != 1250 {
		t.Fatalf("items = %+v, %v", items, err)
	}
	if res.Ledger == nil {
		t.Fatal("memory backend must provide a ledger")
	}
	if res.Ready != nil {
		t.Error("memory backend has no readiness probe")
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "dinvox.db")
	res, err := NewFactory(applog.Discard()).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	ctx := context.Background()
	if err := res.Ready(ctx); err != nil {
		t.Fatalf("ready: %v", err)
	}
	e := core.Expense{UserID: "ana", Date: "2026-02-03", Description: "pan", Amount: core.Money{Cents: 300}, Channel: core.ChannelWeb}
	if _, err := res.Backend.Append(ctx, e); err != nil {
		t.Fatal(err)
	}
	first, err := res.Ledger.MarkDigestSent(ctx, "ana", "2026-02")
	if err != nil || !first {
		t.Fatalf("first mark = %v, %v", first, err)
	}
	again, err := res.Ledger.MarkDigestSent(ctx, "ana", "2026-02")
	if err != nil || again {
		t.Fatalf("second mark = %v, %v", again, err)
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	if _, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestBackendResultCloseWithoutCleanup(t *testing.T) {
	var res *BackendResult
	if err := res.Close(); err != nil {
		t.Fatal(err)
	}
	if err := (&BackendResult{}).Close(); err != nil {
		t.Fatal(err)
	}
}

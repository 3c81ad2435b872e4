package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"financehub/internal/config"
	"financehub/internal/database"
	"financehub/internal/models"
	"financehub/internal/testutil"
)

// setupLedgerDB points the CLI at a fresh SQLite file holding one account
// whose stored balance has drifted from 100.00 to 90.00.
func setupLedgerDB(t *testing.T) *models.Account {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ledger.db")
	t.Setenv("LEDGER_CONFIG", "")
	t.Setenv("DB_DRIVER", database.DriverSQLite)
	t.Setenv("SQLITE_PATH", path)

	dbManager, err := database.NewManager(config.DatabaseConfig{Driver: database.DriverSQLite, SQLitePath: path})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer dbManager.Close()
	if err := dbManager.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	db := dbManager.DB()
	user := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccountWithBalance(t, db, user.ID, "100.00")
	if err := db.Exec("UPDATE accounts SET balance = ? WHERE id = ?", "90.00", account.ID).Error; err != nil {
		t.Fatalf("failed to tamper balance: %v", err)
	}
	return account
}

// runCLI executes the root command with args and returns its output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	flagOwner, flagFix, flagConcurrency, flagVerbose = "", false, 0, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReconcileCommand(t *testing.T) {
	account := setupLedgerDB(t)

	t.Run("drift_without_fix_fails", func(t *testing.T) {
		out, err := runCLI(t, "reconcile")
		if err == nil {
			t.Fatal("expected an error for unfixed drift")
		}
		if !strings.Contains(err.Error(), "1 account(s) drifted") {
			t.Errorf("unexpected error %v", err)
		}
		if !strings.Contains(out, account.ID) || !strings.Contains(out, "$90.00") || !strings.Contains(out, "$100.00") {
			t.Errorf("expected a drift row with formatted amounts:\n%s", out)
		}
	})

	t.Run("fix_repairs", func(t *testing.T) {
		out, err := runCLI(t, "reconcile", "--fix", "-c", "2", "--owner", account.UserID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "repaired 1 account(s)") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("clean_after_fix", func(t *testing.T) {
		out, err := runCLI(t, "reconcile", "--verbose")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "no drift") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})
}

func TestSeedCategoriesCommand(t *testing.T) {
	setupLedgerDB(t)

	out, err := runCLI(t, "seed-categories")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "inserted 0 ") {
		t.Errorf("expected categories on first run:\n%s", out)
	}

	out, err = runCLI(t, "seed-categories")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "inserted 0 system categories") {
		t.Errorf("expected a repeat run to insert nothing:\n%s", out)
	}
}

func TestMigrateCommand(t *testing.T) {
	setupLedgerDB(t)

	t.Run("requires_postgres", func(t *testing.T) {
		_, err := runCLI(t, "migrate", "version")
		if err == nil || !strings.Contains(err.Error(), "DB_DRIVER=postgres") {
			t.Errorf("expected a driver error, got %v", err)
		}
	})

	t.Run("rejects_bad_step_count", func(t *testing.T) {
		_, err := runCLI(t, "migrate", "down", "zero")
		if err == nil || !strings.Contains(err.Error(), "invalid step count") {
			t.Errorf("expected a step count error, got %v", err)
		}
	})
}

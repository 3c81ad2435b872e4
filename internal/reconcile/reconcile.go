// Package reconcile recomputes account balances from the ledger and reports,
// or repairs, accounts whose stored balance has drifted.
package reconcile

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"financehub/internal/logger"
	"financehub/internal/models"
	"financehub/internal/money"
	"financehub/internal/services"
)

// Options selects what a run checks and whether it repairs drift.
type Options struct {
	// OwnerID limits the run to one user's accounts. Empty checks all.
	OwnerID string
	// Fix rewrites drifted balances to the ledger-derived value.
	Fix bool
	// Concurrency bounds how many accounts are checked at once. Values
	// below 1 use GOMAXPROCS.
	Concurrency int
}

// Drift describes one account whose stored balance disagrees with its ledger.
type Drift struct {
	AccountID  string      `json:"account_id"`
	OwnerID    string      `json:"owner_id"`
	Name       string      `json:"name"`
	Currency   string      `json:"currency"`
	Stored     money.Money `json:"stored"`
	Expected   money.Money `json:"expected"`
	Difference money.Money `json:"difference"`
	Fixed      bool        `json:"fixed"`
}

// Report summarizes a run.
type Report struct {
	Checked   int           `json:"checked"`
	Drifted   []Drift       `json:"drifted"`
	Fixed     int           `json:"fixed"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
}

// Clean reports whether no drift was found.
func (r *Report) Clean() bool { return len(r.Drifted) == 0 }

// Reconciler checks balances against the ledger.
type Reconciler struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

// New creates a Reconciler over db.
func New(db *gorm.DB) *Reconciler {
	return &Reconciler{db: db, log: logger.Named("reconcile")}
}

// Run checks every selected account. Accounts are read and compared in
// parallel; each repair runs in its own transaction.
func (r *Reconciler) Run(ctx context.Context, opts Options) (*Report, error) {
	report := &Report{StartedAt: time.Now().UTC(), Drifted: []Drift{}}

	q := r.db.WithContext(ctx).Model(&models.Account{}).Order("id")
	if opts.OwnerID != "" {
		q = q.Where("user_id = ?", opts.OwnerID)
	}
	var accounts []models.Account
	if err := q.Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	report.Checked = len(accounts)

	limit := opts.Concurrency
	if limit < 1 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]*Drift, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range accounts {
		i := i
		account := accounts[i]
		g.Go(func() error {
			d, err := r.check(gctx, account, opts.Fix)
			if err != nil {
				return fmt.Errorf("account %s: %w", account.ID, err)
			}
			results[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, d := range results {
		if d == nil {
			continue
		}
		report.Drifted = append(report.Drifted, *d)
		if d.Fixed {
			report.Fixed++
		}
	}
	report.Duration = time.Since(report.StartedAt)

	r.log.Infow("reconciliation finished",
		"owner_id", opts.OwnerID,
		"checked", report.Checked,
		"drifted", len(report.Drifted),
		"fixed", report.Fixed,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

// check compares one account with its ledger and returns nil when they agree.
func (r *Reconciler) check(ctx context.Context, account models.Account, fix bool) (*Drift, error) {
	net, err := services.NewLedgerStore(r.db).AccountNetChange(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	expected := account.OpeningBalance.Add(net)
	if expected.Equal(account.Balance) {
		r.log.Debugw("balance matches ledger", "account_id", account.ID, "balance", account.Balance.String())
		return nil, nil
	}

	d := &Drift{
		AccountID:  account.ID,
		OwnerID:    account.UserID,
		Name:       account.Name,
		Currency:   account.Currency,
		Stored:     account.Balance,
		Expected:   expected,
		Difference: account.Balance.Sub(expected),
	}
	r.log.Warnw("balance drift",
		"account_id", account.ID,
		"stored", d.Stored.String(),
		"expected", d.Expected.String(),
	)

	if fix {
		if err := r.repair(ctx, d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// repair locks the account, recomputes the expected balance inside the
// transaction and writes it.
func (r *Reconciler) repair(ctx context.Context, d *Drift) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", d.AccountID).First(&account).Error; err != nil {
			return err
		}
		net, err := services.NewLedgerStore(tx).AccountNetChange(ctx, account.ID)
		if err != nil {
			return err
		}
		expected := account.OpeningBalance.Add(net)
		if err := tx.Model(&account).Update("balance", expected).Error; err != nil {
			return err
		}

		d.Expected = expected
		d.Difference = d.Stored.Sub(expected)
		d.Fixed = true
		return nil
	})
}

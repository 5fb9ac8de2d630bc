package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"lynkledger/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

func TestLedgerStoreInsertEntries(t *testing.T) {
	ctx := context.Background()
	calls := 0
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO transaction_entries") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 8 || args[1] != "tx" {
				t.Fatalf("unexpected args: %#v", args)
			}
			calls++
			return stubResult{rows: 1}, nil
		},
	}
	store := NewLedgerStore(stubDB{})
	entries := models.Entries{
		{ID: "1", TransactionID: "tx", AccountID: "acc1", Amount: decimal.NewFromInt(100), Currency: "USD", ExchangeRate: decimal.NewFromInt(1)},
		{ID: "2", TransactionID: "tx", AccountID: "acc2", Amount: decimal.NewFromInt(-100), Currency: "USD", ExchangeRate: decimal.NewFromInt(1)},
	}
	if err := store.InsertEntries(ctx, execer, entries); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 inserts, got %d", calls)
	}
}

func TestLedgerStoreInsertEntriesStopsOnError(t *testing.T) {
	ctx := context.Background()
	calls := 0
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			calls++
			return nil, sql.ErrConnDone
		},
	}
	store := NewLedgerStore(stubDB{})
	entries := models.Entries{{ID: "1"}, {ID: "2"}}
	if err := store.InsertEntries(ctx, execer, entries); err != sql.ErrConnDone {
		t.Fatalf("expected ErrConnDone, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestLedgerStoreListByTransaction(t *testing.T) {
	ctx := context.Background()
	selecter := stubSelecter{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "WHERE transaction_id = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*models.Entries) = models.Entries{{ID: "1"}, {ID: "2"}}
			return nil
		},
	}
	store := NewLedgerStore(stubDB{})
	rows, err := store.ListByTransaction(ctx, selecter, "tx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}

func TestLedgerStoreSumBooked(t *testing.T) {
	ctx := context.Background()
	asOf := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	store := NewLedgerStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "t.status IN ('posted', 'reconciled')") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[0] != "acc1" || args[1] != asOf {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*decimal.Decimal) = decimal.RequireFromString("1000.00")
			return nil
		},
	})
	sum, err := store.SumBooked(ctx, "acc1", asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected sum: %s", sum)
	}
}

func TestLedgerStoreAccountLedger(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "t.date >= $2 AND t.date <= $3") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*[]AccountLedgerRow) = []AccountLedgerRow{{EntryID: "e1"}}
			return nil
		},
	})
	rows, err := store.AccountLedger(ctx, "acc1", time.Time{}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].EntryID != "e1" {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}

func TestLedgerStoreMarkReconciled(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "SET reconciled = TRUE") || !strings.Contains(query, "NOT reconciled") {
				t.Fatalf("unexpected query: %s", query)
			}
			ids, ok := args[2].(*pq.StringArray)
			if !ok || len(*ids) != 2 || args[1] != "acc1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 2}, nil
		},
	}
	store := NewLedgerStore(stubDB{})
	rows, err := store.MarkReconciled(ctx, execer, "acc1", []string{"e1", "e2"}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != 2 {
		t.Fatalf("expected 2 rows, got %d", rows)
	}
}

func TestLedgerStoreReconciledBalance(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "AND reconciled") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*decimal.Decimal) = decimal.NewFromInt(40)
			return nil
		},
	}
	store := NewLedgerStore(stubDB{})
	sum, err := store.ReconciledBalance(ctx, getter, "acc1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("unexpected sum: %s", sum)
	}
}

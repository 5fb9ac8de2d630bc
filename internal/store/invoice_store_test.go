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

func TestInvoiceStoreCreate(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO invoices") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 22 || args[0] != "inv-1" || args[3] != "INV-0001" || args[7] != "Acme" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewInvoiceStore(stubDB{})
	inv := models.Invoice{ID: "inv-1", OrganizationID: "org-1", Type: models.InvoiceSale, Number: "INV-0001"}
	inv.Party.Name = "Acme"
	if err := store.Create(ctx, execer, inv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInvoiceStoreInsertItems(t *testing.T) {
	ctx := context.Background()
	calls := 0
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO invoice_items") || len(args) != 12 {
				t.Fatalf("unexpected insert: %s %#v", query, args)
			}
			calls++
			return stubResult{rows: 1}, nil
		},
	}
	store := NewInvoiceStore(stubDB{})
	items := []models.InvoiceItem{{ID: "i1", InvoiceID: "inv-1"}, {ID: "i2", InvoiceID: "inv-1"}}
	if err := store.InsertItems(ctx, execer, items); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 inserts, got %d", calls)
	}
}

func TestInvoiceStoreListFilters(t *testing.T) {
	ctx := context.Background()
	store := NewInvoiceStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "invoice_type = $2") || !strings.Contains(query, "status = ANY($3)") {
				t.Fatalf("unexpected query: %s", query)
			}
			if !strings.Contains(query, "LIMIT $4 OFFSET $5") {
				t.Fatalf("unexpected query: %s", query)
			}
			if _, ok := args[2].(*pq.StringArray); !ok {
				t.Fatalf("unexpected status arg: %#v", args[2])
			}
			*dest.(*[]models.Invoice) = []models.Invoice{{ID: "inv-1"}}
			return nil
		},
	})
	rows, err := store.List(ctx, "org-1", InvoiceFilter{Type: "sale", Statuses: []string{"sent", "overdue"}, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}

func TestInvoiceStoreOpenAsOf(t *testing.T) {
	ctx := context.Background()
	asOf := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	store := NewInvoiceStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "status IN ('sent', 'partially_paid', 'overdue')") {
				t.Fatalf("unexpected query: %s", query)
			}
			if args[1] != models.InvoicePurchase || args[2] != asOf {
				t.Fatalf("unexpected args: %#v", args)
			}
			return nil
		},
	})
	if _, err := store.OpenAsOf(ctx, "org-1", models.InvoicePurchase, asOf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInvoiceStoreUpdateStatusIsGuarded(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "AND status = $3") {
				t.Fatalf("unexpected query: %s", query)
			}
			if args[0] != models.InvoiceSent || args[2] != models.InvoiceDraft {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewInvoiceStore(stubDB{})
	rows, err := store.UpdateStatus(ctx, execer, "inv-1", models.InvoiceDraft, models.InvoiceSent)
	if err != nil || rows != 1 {
		t.Fatalf("unexpected result: %d %v", rows, err)
	}
}

func TestInvoiceStoreUpdatePaid(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "amount_paid = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			if !args[0].(decimal.Decimal).Equal(decimal.NewFromInt(50)) || args[1] != models.InvoicePartiallyPaid {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewInvoiceStore(stubDB{})
	if err := store.UpdatePaid(ctx, execer, "inv-1", decimal.NewFromInt(50), models.InvoicePartiallyPaid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInvoiceStoreCountByPrefix(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "number LIKE $2") || args[1] != "REC-202401-%" {
				t.Fatalf("unexpected query: %s %#v", query, args)
			}
			*dest.(*int) = 4
			return nil
		},
	}
	store := NewInvoiceStore(stubDB{})
	count, err := store.CountByPrefix(ctx, getter, "org-1", "REC-202401-")
	if err != nil || count != 4 {
		t.Fatalf("unexpected result: %d %v", count, err)
	}
}

func TestPaymentStore(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			switch {
			case strings.Contains(query, "INSERT INTO payments"):
				if len(args) != 13 || args[2] != "inv-1" {
					t.Fatalf("unexpected args: %#v", args)
				}
			case strings.Contains(query, "UPDATE payments"):
				if args[0] != models.PaymentRefunded || args[2] != models.PaymentCompleted {
					t.Fatalf("unexpected args: %#v", args)
				}
			default:
				t.Fatalf("unexpected query: %s", query)
			}
			return stubResult{rows: 1}, nil
		},
	}
	selecter := stubSelecter{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "WHERE invoice_id = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*[]models.Payment) = []models.Payment{{ID: "pay-1"}}
			return nil
		},
	}
	store := NewPaymentStore(stubDB{})
	if err := store.Create(ctx, execer, models.Payment{ID: "pay-1", InvoiceID: "inv-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows, err := store.UpdateStatus(ctx, execer, "pay-1", models.PaymentCompleted, models.PaymentRefunded)
	if err != nil || rows != 1 {
		t.Fatalf("unexpected result: %d %v", rows, err)
	}
	payments, err := store.ListByInvoice(ctx, selecter, "inv-1")
	if err != nil || len(payments) != 1 {
		t.Fatalf("unexpected payments: %#v %v", payments, err)
	}
}

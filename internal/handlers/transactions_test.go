package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"lynkledger/internal/models"
	"lynkledger/internal/services"
	"lynkledger/internal/store"

	"github.com/shopspring/decimal"
)

func TestCreateTransaction(t *testing.T) {
	var got services.CreateTransactionRequest
	handler := newTestHandler(Services{Ledger: stubLedgerService{
		createTransactionFn: func(_ context.Context, req services.CreateTransactionRequest) (models.Transaction, error) {
			got = req
			return models.Transaction{ID: "tx-1", Status: models.TransactionDraft, Entries: req.Entries}, nil
		},
	}})
	body := `{"date":"2024-03-01","description":"Sale","tags":{"type":"operating"},"entries":[{"account_id":"cash","amount":"100.00"},{"account_id":"sales","amount":"-100.00"}]}`
	rr := serve(t, handler, http.MethodPost, "/transactions", body, models.RoleAccountant)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if got.OrganizationID != "org-1" || got.ActorID != "user-1" {
		t.Fatalf("unexpected subject: %#v", got)
	}
	if !got.Date.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %s", got.Date)
	}
	if len(got.Entries) != 2 || !got.Entries[1].Amount.Equal(decimal.NewFromInt(-100)) {
		t.Fatalf("unexpected entries: %#v", got.Entries)
	}
	if got.Tags["type"] != "operating" {
		t.Fatalf("unexpected tags: %#v", got.Tags)
	}
}

func TestCreateTransactionUnbalanced(t *testing.T) {
	handler := newTestHandler(Services{Ledger: stubLedgerService{
		createTransactionFn: func(context.Context, services.CreateTransactionRequest) (models.Transaction, error) {
			return models.Transaction{}, &models.ValidationError{Field: "entries", Message: "debits and credits differ by 5.00"}
		},
	}})
	rr := serve(t, handler, http.MethodPost, "/transactions", `{"entries":[]}`, models.RoleAccountant)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCreateTransactionBadDate(t *testing.T) {
	handler := newTestHandler(Services{Ledger: stubLedgerService{
		createTransactionFn: func(context.Context, services.CreateTransactionRequest) (models.Transaction, error) {
			t.Fatalf("unexpected call")
			return models.Transaction{}, nil
		},
	}})
	rr := serve(t, handler, http.MethodPost, "/transactions", `{"date":"March 1"}`, models.RoleAccountant)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestListTransactionsFilter(t *testing.T) {
	handler := newTestHandler(Services{Ledger: stubLedgerService{
		listTransactionsFn: func(_ context.Context, orgID string, filter store.TransactionFilter) ([]models.Transaction, error) {
			if filter.Status != "posted" || filter.Limit != 10 || filter.Offset != 20 {
				t.Fatalf("unexpected filter: %#v", filter)
			}
			return []models.Transaction{}, nil
		},
	}})
	rr := serve(t, handler, http.MethodGet, "/transactions?status=posted&limit=10&offset=20", "", models.RoleViewer)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestPostTransactionStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{name: "posted", err: nil, code: http.StatusOK},
		{name: "not approved", err: &models.TransitionError{Entity: "transaction", From: "draft", To: "posted"}, code: http.StatusConflict},
		{name: "lost race", err: services.ErrStaleState, code: http.StatusConflict},
		{name: "missing", err: services.ErrNotFound, code: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestHandler(Services{Ledger: stubLedgerService{
				postFn: func(_ context.Context, orgID, actorID, transactionID string) (models.Transaction, error) {
					if orgID != "org-1" || actorID != "user-1" || transactionID != "tx-1" {
						t.Fatalf("unexpected arguments %s %s %s", orgID, actorID, transactionID)
					}
					return models.Transaction{ID: transactionID, Status: models.TransactionPosted}, tc.err
				},
			}})
			rr := serve(t, handler, http.MethodPost, "/transactions/tx-1/post", "", models.RoleAccountant)
			if rr.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rr.Code)
			}
		})
	}
}

func TestViewerCannotApprove(t *testing.T) {
	handler := newTestHandler(Services{Ledger: stubLedgerService{
		approveFn: func(context.Context, string, string, string) (models.Transaction, error) {
			t.Fatalf("unexpected call")
			return models.Transaction{}, nil
		},
	}})
	rr := serve(t, handler, http.MethodPost, "/transactions/tx-1/approve", "", models.RoleViewer)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestReverseTransaction(t *testing.T) {
	handler := newTestHandler(Services{Ledger: stubLedgerService{
		reverseFn: func(_ context.Context, _, _, transactionID string, date time.Time) (models.Transaction, error) {
			if !date.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)) {
				t.Fatalf("unexpected date %s", date)
			}
			original := transactionID
			return models.Transaction{ID: "tx-2", ReversalOf: &original}, nil
		},
	}})
	rr := serve(t, handler, http.MethodPost, "/transactions/tx-1/reverse", `{"date":"2024-04-01"}`, models.RoleOwner)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
}

func TestReplaceEntries(t *testing.T) {
	handler := newTestHandler(Services{Ledger: stubLedgerService{
		replaceEntriesFn: func(_ context.Context, _, _, _ string, entries models.Entries) (models.Transaction, error) {
			if len(entries) != 2 {
				t.Fatalf("unexpected entries: %#v", entries)
			}
			return models.Transaction{}, &models.TransitionError{Entity: "transaction", From: "posted", To: "draft"}
		},
	}})
	rr := serve(t, handler, http.MethodPut, "/transactions/tx-1/entries", `{"entries":[{"account_id":"a","amount":1},{"account_id":"b","amount":-1}]}`, models.RoleAccountant)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

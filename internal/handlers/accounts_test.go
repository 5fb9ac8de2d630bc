package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"lynkledger/internal/models"
	"lynkledger/internal/services"

	"github.com/shopspring/decimal"
)

func TestListAccounts(t *testing.T) {
	handler := newTestHandler(Services{Accounts: stubAccountService{
		listFn: func(_ context.Context, orgID string, includeArchived bool) ([]models.Account, error) {
			if orgID != "org-1" || !includeArchived {
				t.Fatalf("unexpected arguments %s %v", orgID, includeArchived)
			}
			return []models.Account{{ID: "acc-1", OrganizationID: orgID, Code: "1000", Currency: "USD"}}, nil
		},
	}})
	rr := serve(t, handler, http.MethodGet, "/accounts?include_archived=true", "", models.RoleViewer)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload []map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload) != 1 || payload[0]["code"] != "1000" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestCreateAccountRequiresWriter(t *testing.T) {
	handler := newTestHandler(Services{Accounts: stubAccountService{
		createFn: func(context.Context, services.CreateAccountRequest) (models.Account, error) {
			t.Fatalf("unexpected call")
			return models.Account{}, nil
		},
	}})
	rr := serve(t, handler, http.MethodPost, "/accounts", `{"name":"Cash","code":"1000","account_type":"asset"}`, models.RoleViewer)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestCreateAccount(t *testing.T) {
	var got services.CreateAccountRequest
	handler := newTestHandler(Services{Accounts: stubAccountService{
		createFn: func(_ context.Context, req services.CreateAccountRequest) (models.Account, error) {
			got = req
			return models.Account{ID: "acc-1", Code: req.Code}, nil
		},
	}})
	rr := serve(t, handler, http.MethodPost, "/accounts", `{"name":"Cash","code":"1000","account_type":"asset","subtype":"cash","currency":"USD"}`, models.RoleAccountant)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if got.OrganizationID != "org-1" || got.ActorID != "user-1" || got.Type != models.AccountAsset || got.Subtype != models.SubtypeCash {
		t.Fatalf("unexpected request: %#v", got)
	}
}

func TestGetAccountOtherOrganization(t *testing.T) {
	handler := newTestHandler(Services{Accounts: stubAccountService{
		getFn: func(context.Context, string, string) (models.Account, error) {
			return models.Account{}, services.ErrCrossOrganization
		},
	}})
	rr := serve(t, handler, http.MethodGet, "/accounts/acc-9", "", models.RoleViewer)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestDeleteAccountInUse(t *testing.T) {
	handler := newTestHandler(Services{Accounts: stubAccountService{
		deleteFn: func(_ context.Context, _, _, accountID string) error {
			if accountID != "acc-1" {
				t.Fatalf("unexpected account %s", accountID)
			}
			return services.ErrAccountInUse
		},
	}})
	rr := serve(t, handler, http.MethodDelete, "/accounts/acc-1", "", models.RoleAdmin)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestSetAccountParentCycle(t *testing.T) {
	handler := newTestHandler(Services{Accounts: stubAccountService{
		setParentFn: func(_ context.Context, _, _, _ string, parentID *string) (models.Account, error) {
			if parentID == nil || *parentID != "acc-2" {
				t.Fatalf("unexpected parent %v", parentID)
			}
			return models.Account{}, services.ErrAccountCycle
		},
	}})
	rr := serve(t, handler, http.MethodPut, "/accounts/acc-1/parent", `{"parent_id":"acc-2"}`, models.RoleOwner)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestGetBalance(t *testing.T) {
	handler := newTestHandler(Services{Ledger: stubLedgerService{
		accountBalanceFn: func(_ context.Context, orgID, accountID string, asOf time.Time) (services.AccountBalance, error) {
			if !asOf.Equal(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)) {
				t.Fatalf("unexpected as_of %s", asOf)
			}
			return services.AccountBalance{AccountID: accountID, AsOf: asOf, Balance: decimal.RequireFromString("120.50"), Currency: "USD"}, nil
		},
	}})
	rr := serve(t, handler, http.MethodGet, "/accounts/acc-1/balance?as_of=2024-03-31", "", models.RoleViewer)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["balance"] != "120.5" {
		t.Fatalf("unexpected balance: %#v", payload["balance"])
	}

	rr = serve(t, handler, http.MethodGet, "/accounts/acc-1/balance?as_of=31/03/2024", "", models.RoleViewer)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAccountEntriesDefaultsToMonthStart(t *testing.T) {
	handler := newTestHandler(Services{Accounts: stubAccountService{
		entriesFn: func(_ context.Context, _, _ string, start, end time.Time) (services.AccountStatement, error) {
			if !start.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) || !end.Equal(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)) {
				t.Fatalf("unexpected window %s..%s", start, end)
			}
			return services.AccountStatement{Start: start, End: end}, nil
		},
	}})
	rr := serve(t, handler, http.MethodGet, "/accounts/acc-1/entries?end_date=2024-03-20", "", models.RoleViewer)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestReconcileAccount(t *testing.T) {
	handler := newTestHandler(Services{Accounts: stubAccountService{
		reconcileStatementFn: func(_ context.Context, _, _, accountID string, req services.ReconcileRequest) (services.ReconciliationResult, error) {
			if len(req.EntryIDs) != 2 || !req.StatementBalance.Equal(decimal.NewFromInt(125)) {
				t.Fatalf("unexpected request: %#v", req)
			}
			return services.ReconciliationResult{AccountID: accountID, Marked: 2}, nil
		},
	}})
	rr := serve(t, handler, http.MethodPost, "/accounts/acc-1/reconcile", `{"statement_date":"2024-03-31","statement_balance":"125.00","entry_ids":["e1","e2"]}`, models.RoleAccountant)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	rr = serve(t, handler, http.MethodPost, "/accounts/acc-1/reconcile", `{"statement_balance":"125.00"}`, models.RoleAccountant)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestSelfCheckFailure(t *testing.T) {
	handler := newTestHandler(Services{Ledger: stubLedgerService{
		verifyBalancesFn: func(context.Context, string) (services.BalanceVerification, error) {
			return services.BalanceVerification{}, errors.New("connection refused")
		},
	}})
	rr := serve(t, handler, http.MethodGet, "/accounts/self-check", "", models.RoleViewer)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

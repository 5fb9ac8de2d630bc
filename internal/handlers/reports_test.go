package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"lynkledger/internal/models"
	"lynkledger/internal/reports"
	"lynkledger/internal/services"
)

func TestTrialBalanceAsOf(t *testing.T) {
	handler := newTestHandler(Services{Reports: stubReportService{
		trialBalanceFn: func(_ context.Context, orgID string, asOf time.Time) (reports.TrialBalanceReport, error) {
			if orgID != "org-1" || !asOf.Equal(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)) {
				t.Fatalf("unexpected arguments %s %s", orgID, asOf)
			}
			return reports.TrialBalanceReport{}, nil
		},
	}})
	rr := serve(t, handler, http.MethodGet, "/reports/trial-balance?as_of=2024-03-31", "", models.RoleViewer)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestIncomeStatementInvalidRange(t *testing.T) {
	handler := newTestHandler(Services{Reports: stubReportService{
		incomeStatementFn: func(_ context.Context, _ string, p reports.Period) (reports.IncomeStatementReport, error) {
			if !p.Start.Equal(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)) {
				t.Fatalf("unexpected period %#v", p)
			}
			return reports.IncomeStatementReport{}, services.ErrInvalidDateRange
		},
	}})
	rr := serve(t, handler, http.MethodGet, "/reports/income-statement?start_date=2024-03-31&end_date=2024-03-01", "", models.RoleViewer)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAgingReportsUseInvoiceType(t *testing.T) {
	var seen []models.InvoiceType
	handler := newTestHandler(Services{Reports: stubReportService{
		agingFn: func(_ context.Context, _ string, invoiceType models.InvoiceType, _ time.Time) (reports.AgingReport, error) {
			seen = append(seen, invoiceType)
			return reports.AgingReport{}, nil
		},
	}})
	for _, path := range []string{"/reports/aged-receivables", "/reports/aged-payables"} {
		if rr := serve(t, handler, http.MethodGet, path, "", models.RoleViewer); rr.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", path, rr.Code)
		}
	}
	if len(seen) != 2 || seen[0] != models.InvoiceSale || seen[1] != models.InvoicePurchase {
		t.Fatalf("unexpected invoice types: %v", seen)
	}
}

func TestBudgetVsActualWithoutBudgetID(t *testing.T) {
	var gotID string
	var gotAsOf time.Time
	handler := newTestHandler(Services{Reports: stubReportService{
		budgetVsActualFn: func(_ context.Context, _, budgetID string, asOf time.Time) (reports.BudgetReport, error) {
			gotID, gotAsOf = budgetID, asOf
			return reports.EmptyBudgetReport(), nil
		},
	}})
	rr := serve(t, handler, http.MethodGet, "/reports/budget-vs-actual?as_of=2024-03-15", "", models.RoleViewer)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if gotID != "" || !gotAsOf.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected arguments %q %s", gotID, gotAsOf)
	}

	serve(t, handler, http.MethodGet, "/reports/budget-vs-actual?budget_id=budget-1", "", models.RoleViewer)
	if gotID != "budget-1" {
		t.Fatalf("unexpected budget %q", gotID)
	}
	if rr := serve(t, handler, http.MethodGet, "/reports/budget-vs-actual?as_of=15-03-2024", "", models.RoleViewer); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestBudgetPerformanceUnknownBudget(t *testing.T) {
	handler := newTestHandler(Services{
		Budgets: stubBudgetService{
			getFn: func(context.Context, string, string) (models.Budget, error) {
				return models.Budget{}, services.ErrNotFound
			},
		},
		Reports: stubReportService{
			budgetVsActualFn: func(context.Context, string, string, time.Time) (reports.BudgetReport, error) {
				t.Fatal("report must not run for an unknown budget")
				return reports.BudgetReport{}, nil
			},
		},
	})
	if rr := serve(t, handler, http.MethodGet, "/budgets/budget-1/performance", "", models.RoleViewer); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestReportsRequireToken(t *testing.T) {
	handler := newTestHandler(Services{})
	if rr := serve(t, handler, http.MethodGet, "/reports/balance-sheet", "", ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lynkledger/internal/logger"
	"lynkledger/internal/models"
	"lynkledger/internal/reports"

	"github.com/rs/zerolog"
)

// ReportService loads booked rows and hands them to the reports builders.
// It never writes.
type ReportService struct {
	accounts AccountStore
	invoices InvoiceStore
	budgets  BudgetStore
	taxRates TaxRateStore
	rows     ReportStore
	log      zerolog.Logger
}

func NewReportService(accounts AccountStore, invoices InvoiceStore, budgets BudgetStore, taxRates TaxRateStore, rows ReportStore) *ReportService {
	return &ReportService{
		accounts: accounts,
		invoices: invoices,
		budgets:  budgets,
		taxRates: taxRates,
		rows:     rows,
		log:      logger.WithComponent("reports"),
	}
}

func (s *ReportService) load(ctx context.Context, orgID string, end time.Time) ([]models.Account, []reports.EntryRow, error) {
	accounts, err := s.accounts.List(ctx, orgID, true)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.rows.EntryRows(ctx, orgID, end)
	if err != nil {
		return nil, nil, err
	}
	return accounts, rows, nil
}

func asOfDate(asOf time.Time) time.Time {
	if asOf.IsZero() {
		return time.Now().UTC()
	}
	return asOf
}

func (s *ReportService) TrialBalance(ctx context.Context, orgID string, asOf time.Time) (reports.TrialBalanceReport, error) {
	asOf = asOfDate(asOf)
	accounts, rows, err := s.load(ctx, orgID, asOf)
	if err != nil {
		return reports.TrialBalanceReport{}, err
	}
	report := reports.TrialBalance(accounts, rows, asOf)
	if !report.Balanced() {
		s.log.Warn().Str("organization_id", orgID).Str("difference", report.Totals.Difference.String()).Msg("trial balance does not balance")
	}
	return report, nil
}

func (s *ReportService) BalanceSheet(ctx context.Context, orgID string, asOf time.Time) (reports.BalanceSheetReport, error) {
	asOf = asOfDate(asOf)
	accounts, rows, err := s.load(ctx, orgID, asOf)
	if err != nil {
		return reports.BalanceSheetReport{}, err
	}
	return reports.BalanceSheet(accounts, rows, asOf), nil
}

func (s *ReportService) IncomeStatement(ctx context.Context, orgID string, p reports.Period) (reports.IncomeStatementReport, error) {
	if err := p.Validate(); err != nil {
		return reports.IncomeStatementReport{}, err
	}
	accounts, rows, err := s.load(ctx, orgID, p.End)
	if err != nil {
		return reports.IncomeStatementReport{}, err
	}
	return reports.IncomeStatement(accounts, rows, p), nil
}

func (s *ReportService) CashFlow(ctx context.Context, orgID string, p reports.Period) (reports.CashFlowReport, error) {
	if err := p.Validate(); err != nil {
		return reports.CashFlowReport{}, err
	}
	accounts, rows, err := s.load(ctx, orgID, p.End)
	if err != nil {
		return reports.CashFlowReport{}, err
	}
	return reports.CashFlow(accounts, rows, p), nil
}

// FinancialStatements bundles the balance sheet at p.End with the income
// statement and cash flow for p.
func (s *ReportService) FinancialStatements(ctx context.Context, orgID string, p reports.Period) (reports.FinancialStatements, error) {
	if err := p.Validate(); err != nil {
		return reports.FinancialStatements{}, err
	}
	accounts, rows, err := s.load(ctx, orgID, p.End)
	if err != nil {
		return reports.FinancialStatements{}, err
	}
	return reports.Statements(accounts, rows, p), nil
}

// Aging reports receivables for sale invoices and payables for purchases.
func (s *ReportService) Aging(ctx context.Context, orgID string, invoiceType models.InvoiceType, asOf time.Time) (reports.AgingReport, error) {
	if invoiceType != models.InvoiceSale && invoiceType != models.InvoicePurchase {
		return reports.AgingReport{}, invalid("invoice_type", "must be sale or purchase")
	}
	asOf = asOfDate(asOf)
	invoices, err := s.invoices.OpenAsOf(ctx, orgID, invoiceType, asOf)
	if err != nil {
		return reports.AgingReport{}, err
	}
	return reports.Aging(invoices, invoiceType, asOf), nil
}

// BudgetVsActual compares a budget with booked activity. An empty budgetID
// selects the first active budget covering asOf. When no budget matches the
// report is empty with zero totals.
func (s *ReportService) BudgetVsActual(ctx context.Context, orgID, budgetID string, asOf time.Time) (reports.BudgetReport, error) {
	budget, found, err := s.findBudget(ctx, orgID, budgetID, asOfDate(asOf))
	if err != nil {
		return reports.BudgetReport{}, err
	}
	if !found {
		return reports.EmptyBudgetReport(), nil
	}
	accounts, rows, err := s.load(ctx, orgID, budget.EndDate)
	if err != nil {
		return reports.BudgetReport{}, err
	}
	return reports.BudgetVsActual(budget, accounts, rows), nil
}

func (s *ReportService) findBudget(ctx context.Context, orgID, budgetID string, asOf time.Time) (models.Budget, bool, error) {
	if budgetID == "" {
		ids, err := s.budgets.ActiveOn(ctx, orgID, asOf)
		if err != nil || len(ids) == 0 {
			return models.Budget{}, false, err
		}
		budgetID = ids[0]
	}
	budget, err := s.budgets.GetByID(ctx, orgID, budgetID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Budget{}, false, nil
	}
	if err != nil {
		return models.Budget{}, false, err
	}
	return budget, true, nil
}

func (s *ReportService) TaxSummary(ctx context.Context, orgID string, p reports.Period) (reports.TaxSummaryReport, error) {
	if p.Start.IsZero() {
		return reports.TaxSummaryReport{}, invalid("start_date", "is required")
	}
	if err := p.Validate(); err != nil {
		return reports.TaxSummaryReport{}, err
	}
	rates, err := s.taxRates.List(ctx, orgID)
	if err != nil {
		return reports.TaxSummaryReport{}, err
	}
	lines, err := s.rows.TaxLines(ctx, orgID, p.Start, p.End)
	if err != nil {
		return reports.TaxSummaryReport{}, err
	}
	return reports.TaxSummary(rates, lines, p), nil
}

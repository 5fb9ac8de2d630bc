package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lynkledger/internal/auth"
	"lynkledger/internal/config"
	"lynkledger/internal/models"
	"lynkledger/internal/reports"
	"lynkledger/internal/services"
	"lynkledger/internal/store"
	"lynkledger/internal/websocket"
)

type stubUserService struct {
	registerFn func(ctx context.Context, req services.RegisterRequest) (services.Session, error)
	loginFn    func(ctx context.Context, email, password, remoteAddr, userAgent string) (services.Session, error)
	meFn       func(ctx context.Context, orgID, userID string) (services.Session, error)
	addUserFn  func(ctx context.Context, orgID, actorID string, req services.AddUserRequest) (models.User, error)
	listFn     func(ctx context.Context, orgID string) ([]models.User, error)
	setRoleFn  func(ctx context.Context, orgID, actorID, userID string, role models.Role) (models.User, error)
}

func (s stubUserService) Register(ctx context.Context, req services.RegisterRequest) (services.Session, error) {
	if s.registerFn == nil {
		return services.Session{}, nil
	}
	return s.registerFn(ctx, req)
}

func (s stubUserService) Login(ctx context.Context, email, password, remoteAddr, userAgent string) (services.Session, error) {
	if s.loginFn == nil {
		return services.Session{}, nil
	}
	return s.loginFn(ctx, email, password, remoteAddr, userAgent)
}

func (s stubUserService) Me(ctx context.Context, orgID, userID string) (services.Session, error) {
	if s.meFn == nil {
		return services.Session{}, nil
	}
	return s.meFn(ctx, orgID, userID)
}

func (s stubUserService) AddUser(ctx context.Context, orgID, actorID string, req services.AddUserRequest) (models.User, error) {
	if s.addUserFn == nil {
		return models.User{}, nil
	}
	return s.addUserFn(ctx, orgID, actorID, req)
}

func (s stubUserService) List(ctx context.Context, orgID string) ([]models.User, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, orgID)
}

func (s stubUserService) SetRole(ctx context.Context, orgID, actorID, userID string, role models.Role) (models.User, error) {
	if s.setRoleFn == nil {
		return models.User{}, nil
	}
	return s.setRoleFn(ctx, orgID, actorID, userID, role)
}

type stubAccountService struct {
	createFn             func(ctx context.Context, req services.CreateAccountRequest) (models.Account, error)
	getFn                func(ctx context.Context, orgID, accountID string) (models.Account, error)
	listFn               func(ctx context.Context, orgID string, includeArchived bool) ([]models.Account, error)
	setParentFn          func(ctx context.Context, orgID, actorID, accountID string, parentID *string) (models.Account, error)
	archiveFn            func(ctx context.Context, orgID, actorID, accountID string) error
	deleteFn             func(ctx context.Context, orgID, actorID, accountID string) error
	entriesFn            func(ctx context.Context, orgID, accountID string, start, end time.Time) (services.AccountStatement, error)
	reconcileStatementFn func(ctx context.Context, orgID, actorID, accountID string, req services.ReconcileRequest) (services.ReconciliationResult, error)
}

func (s stubAccountService) Create(ctx context.Context, req services.CreateAccountRequest) (models.Account, error) {
	if s.createFn == nil {
		return models.Account{}, nil
	}
	return s.createFn(ctx, req)
}

func (s stubAccountService) Get(ctx context.Context, orgID, accountID string) (models.Account, error) {
	if s.getFn == nil {
		return models.Account{}, nil
	}
	return s.getFn(ctx, orgID, accountID)
}

func (s stubAccountService) List(ctx context.Context, orgID string, includeArchived bool) ([]models.Account, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, orgID, includeArchived)
}

func (s stubAccountService) SetParent(ctx context.Context, orgID, actorID, accountID string, parentID *string) (models.Account, error) {
	if s.setParentFn == nil {
		return models.Account{}, nil
	}
	return s.setParentFn(ctx, orgID, actorID, accountID, parentID)
}

func (s stubAccountService) Archive(ctx context.Context, orgID, actorID, accountID string) error {
	if s.archiveFn == nil {
		return nil
	}
	return s.archiveFn(ctx, orgID, actorID, accountID)
}

func (s stubAccountService) Delete(ctx context.Context, orgID, actorID, accountID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, orgID, actorID, accountID)
}

func (s stubAccountService) Entries(ctx context.Context, orgID, accountID string, start, end time.Time) (services.AccountStatement, error) {
	if s.entriesFn == nil {
		return services.AccountStatement{}, nil
	}
	return s.entriesFn(ctx, orgID, accountID, start, end)
}

func (s stubAccountService) ReconcileStatement(ctx context.Context, orgID, actorID, accountID string, req services.ReconcileRequest) (services.ReconciliationResult, error) {
	if s.reconcileStatementFn == nil {
		return services.ReconciliationResult{}, nil
	}
	return s.reconcileStatementFn(ctx, orgID, actorID, accountID, req)
}

type stubLedgerService struct {
	createTransactionFn func(ctx context.Context, req services.CreateTransactionRequest) (models.Transaction, error)
	replaceEntriesFn    func(ctx context.Context, orgID, actorID, transactionID string, entries models.Entries) (models.Transaction, error)
	getTransactionFn    func(ctx context.Context, orgID, transactionID string) (models.Transaction, error)
	listTransactionsFn  func(ctx context.Context, orgID string, filter store.TransactionFilter) ([]models.Transaction, error)
	submitFn            func(ctx context.Context, orgID, actorID, transactionID string) (models.Transaction, error)
	approveFn           func(ctx context.Context, orgID, actorID, transactionID string) (models.Transaction, error)
	postFn              func(ctx context.Context, orgID, actorID, transactionID string) (models.Transaction, error)
	voidFn              func(ctx context.Context, orgID, actorID, transactionID string) (models.Transaction, error)
	reconcileFn         func(ctx context.Context, orgID, actorID, transactionID string) (models.Transaction, error)
	reverseFn           func(ctx context.Context, orgID, actorID, transactionID string, date time.Time) (models.Transaction, error)
	accountBalanceFn    func(ctx context.Context, orgID, accountID string, asOf time.Time) (services.AccountBalance, error)
	verifyBalancesFn    func(ctx context.Context, orgID string) (services.BalanceVerification, error)
}

func (s stubLedgerService) CreateTransaction(ctx context.Context, req services.CreateTransactionRequest) (models.Transaction, error) {
	if s.createTransactionFn == nil {
		return models.Transaction{}, nil
	}
	return s.createTransactionFn(ctx, req)
}

func (s stubLedgerService) ReplaceEntries(ctx context.Context, orgID, actorID, transactionID string, entries models.Entries) (models.Transaction, error) {
	if s.replaceEntriesFn == nil {
		return models.Transaction{}, nil
	}
	return s.replaceEntriesFn(ctx, orgID, actorID, transactionID, entries)
}

func (s stubLedgerService) GetTransaction(ctx context.Context, orgID, transactionID string) (models.Transaction, error) {
	if s.getTransactionFn == nil {
		return models.Transaction{}, nil
	}
	return s.getTransactionFn(ctx, orgID, transactionID)
}

func (s stubLedgerService) ListTransactions(ctx context.Context, orgID string, filter store.TransactionFilter) ([]models.Transaction, error) {
	if s.listTransactionsFn == nil {
		return nil, nil
	}
	return s.listTransactionsFn(ctx, orgID, filter)
}

func (s stubLedgerService) Submit(ctx context.Context, orgID, actorID, transactionID string) (models.Transaction, error) {
	if s.submitFn == nil {
		return models.Transaction{}, nil
	}
	return s.submitFn(ctx, orgID, actorID, transactionID)
}

func (s stubLedgerService) Approve(ctx context.Context, orgID, actorID, transactionID string) (models.Transaction, error) {
	if s.approveFn == nil {
		return models.Transaction{}, nil
	}
	return s.approveFn(ctx, orgID, actorID, transactionID)
}

func (s stubLedgerService) Post(ctx context.Context, orgID, actorID, transactionID string) (models.Transaction, error) {
	if s.postFn == nil {
		return models.Transaction{}, nil
	}
	return s.postFn(ctx, orgID, actorID, transactionID)
}

func (s stubLedgerService) Void(ctx context.Context, orgID, actorID, transactionID string) (models.Transaction, error) {
	if s.voidFn == nil {
		return models.Transaction{}, nil
	}
	return s.voidFn(ctx, orgID, actorID, transactionID)
}

func (s stubLedgerService) Reconcile(ctx context.Context, orgID, actorID, transactionID string) (models.Transaction, error) {
	if s.reconcileFn == nil {
		return models.Transaction{}, nil
	}
	return s.reconcileFn(ctx, orgID, actorID, transactionID)
}

func (s stubLedgerService) Reverse(ctx context.Context, orgID, actorID, transactionID string, date time.Time) (models.Transaction, error) {
	if s.reverseFn == nil {
		return models.Transaction{}, nil
	}
	return s.reverseFn(ctx, orgID, actorID, transactionID, date)
}

func (s stubLedgerService) AccountBalance(ctx context.Context, orgID, accountID string, asOf time.Time) (services.AccountBalance, error) {
	if s.accountBalanceFn == nil {
		return services.AccountBalance{}, nil
	}
	return s.accountBalanceFn(ctx, orgID, accountID, asOf)
}

func (s stubLedgerService) VerifyBalances(ctx context.Context, orgID string) (services.BalanceVerification, error) {
	if s.verifyBalancesFn == nil {
		return services.BalanceVerification{}, nil
	}
	return s.verifyBalancesFn(ctx, orgID)
}

type stubInvoiceService struct {
	createInvoiceFn    func(ctx context.Context, req services.CreateInvoiceRequest) (models.Invoice, error)
	updateItemsFn      func(ctx context.Context, orgID, actorID, invoiceID string, items []models.InvoiceItem) (models.Invoice, error)
	getInvoiceFn       func(ctx context.Context, orgID, invoiceID string) (services.InvoiceDetail, error)
	listInvoicesFn     func(ctx context.Context, orgID string, filter store.InvoiceFilter) ([]models.Invoice, error)
	sendFn             func(ctx context.Context, orgID, actorID, invoiceID string) (models.Invoice, error)
	cancelFn           func(ctx context.Context, orgID, actorID, invoiceID string) (models.Invoice, error)
	voidFn             func(ctx context.Context, orgID, actorID, invoiceID string) (models.Invoice, error)
	markOverdueFn      func(ctx context.Context, orgID, actorID string, asOf time.Time) ([]string, error)
	recordPaymentFn    func(ctx context.Context, req services.RecordPaymentRequest) (services.PaymentResult, error)
	voidPaymentFn      func(ctx context.Context, orgID, actorID, paymentID string) (services.PaymentResult, error)
	setPaymentStatusFn func(ctx context.Context, orgID, actorID, paymentID string, next models.PaymentStatus) (services.PaymentResult, error)
}

func (s stubInvoiceService) CreateInvoice(ctx context.Context, req services.CreateInvoiceRequest) (models.Invoice, error) {
	if s.createInvoiceFn == nil {
		return models.Invoice{}, nil
	}
	return s.createInvoiceFn(ctx, req)
}

func (s stubInvoiceService) UpdateItems(ctx context.Context, orgID, actorID, invoiceID string, items []models.InvoiceItem) (models.Invoice, error) {
	if s.updateItemsFn == nil {
		return models.Invoice{}, nil
	}
	return s.updateItemsFn(ctx, orgID, actorID, invoiceID, items)
}

func (s stubInvoiceService) GetInvoice(ctx context.Context, orgID, invoiceID string) (services.InvoiceDetail, error) {
	if s.getInvoiceFn == nil {
		return services.InvoiceDetail{}, nil
	}
	return s.getInvoiceFn(ctx, orgID, invoiceID)
}

func (s stubInvoiceService) ListInvoices(ctx context.Context, orgID string, filter store.InvoiceFilter) ([]models.Invoice, error) {
	if s.listInvoicesFn == nil {
		return nil, nil
	}
	return s.listInvoicesFn(ctx, orgID, filter)
}

func (s stubInvoiceService) Send(ctx context.Context, orgID, actorID, invoiceID string) (models.Invoice, error) {
	if s.sendFn == nil {
		return models.Invoice{}, nil
	}
	return s.sendFn(ctx, orgID, actorID, invoiceID)
}

func (s stubInvoiceService) Cancel(ctx context.Context, orgID, actorID, invoiceID string) (models.Invoice, error) {
	if s.cancelFn == nil {
		return models.Invoice{}, nil
	}
	return s.cancelFn(ctx, orgID, actorID, invoiceID)
}

func (s stubInvoiceService) Void(ctx context.Context, orgID, actorID, invoiceID string) (models.Invoice, error) {
	if s.voidFn == nil {
		return models.Invoice{}, nil
	}
	return s.voidFn(ctx, orgID, actorID, invoiceID)
}

func (s stubInvoiceService) MarkOverdue(ctx context.Context, orgID, actorID string, asOf time.Time) ([]string, error) {
	if s.markOverdueFn == nil {
		return nil, nil
	}
	return s.markOverdueFn(ctx, orgID, actorID, asOf)
}

func (s stubInvoiceService) RecordPayment(ctx context.Context, req services.RecordPaymentRequest) (services.PaymentResult, error) {
	if s.recordPaymentFn == nil {
		return services.PaymentResult{}, nil
	}
	return s.recordPaymentFn(ctx, req)
}

func (s stubInvoiceService) VoidPayment(ctx context.Context, orgID, actorID, paymentID string) (services.PaymentResult, error) {
	if s.voidPaymentFn == nil {
		return services.PaymentResult{}, nil
	}
	return s.voidPaymentFn(ctx, orgID, actorID, paymentID)
}

func (s stubInvoiceService) SetPaymentStatus(ctx context.Context, orgID, actorID, paymentID string, next models.PaymentStatus) (services.PaymentResult, error) {
	if s.setPaymentStatusFn == nil {
		return services.PaymentResult{}, nil
	}
	return s.setPaymentStatusFn(ctx, orgID, actorID, paymentID, next)
}

type stubRecurringService struct {
	createFn      func(ctx context.Context, orgID, actorID string, r models.RecurringInvoice) (models.RecurringInvoice, error)
	getFn         func(ctx context.Context, orgID, templateID string) (models.RecurringInvoice, error)
	listFn        func(ctx context.Context, orgID string) ([]models.RecurringInvoice, error)
	generateFn    func(ctx context.Context, orgID, actorID, templateID string, today time.Time) (models.Invoice, error)
	runDueFn      func(ctx context.Context, orgID, actorID string, today time.Time) (services.BatchResult, error)
	previewNextFn func(ctx context.Context, orgID, templateID string, count int) ([]time.Time, error)
}

func (s stubRecurringService) Create(ctx context.Context, orgID, actorID string, r models.RecurringInvoice) (models.RecurringInvoice, error) {
	if s.createFn == nil {
		return models.RecurringInvoice{}, nil
	}
	return s.createFn(ctx, orgID, actorID, r)
}

func (s stubRecurringService) Get(ctx context.Context, orgID, templateID string) (models.RecurringInvoice, error) {
	if s.getFn == nil {
		return models.RecurringInvoice{}, nil
	}
	return s.getFn(ctx, orgID, templateID)
}

func (s stubRecurringService) List(ctx context.Context, orgID string) ([]models.RecurringInvoice, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, orgID)
}

func (s stubRecurringService) Generate(ctx context.Context, orgID, actorID, templateID string, today time.Time) (models.Invoice, error) {
	if s.generateFn == nil {
		return models.Invoice{}, nil
	}
	return s.generateFn(ctx, orgID, actorID, templateID, today)
}

func (s stubRecurringService) RunDue(ctx context.Context, orgID, actorID string, today time.Time) (services.BatchResult, error) {
	if s.runDueFn == nil {
		return services.BatchResult{}, nil
	}
	return s.runDueFn(ctx, orgID, actorID, today)
}

func (s stubRecurringService) PreviewNext(ctx context.Context, orgID, templateID string, count int) ([]time.Time, error) {
	if s.previewNextFn == nil {
		return nil, nil
	}
	return s.previewNextFn(ctx, orgID, templateID, count)
}

type stubAssetService struct {
	createFn       func(ctx context.Context, orgID, actorID string, a models.FixedAsset) (models.FixedAsset, error)
	getFn          func(ctx context.Context, orgID, assetID string) (models.FixedAsset, error)
	listFn         func(ctx context.Context, orgID string) ([]models.FixedAsset, error)
	depreciationFn func(ctx context.Context, orgID, assetID string, asOf time.Time) (services.DepreciationView, error)
	recalculateFn  func(ctx context.Context, orgID, actorID, assetID string, asOf time.Time) (models.FixedAsset, error)
	disposeFn      func(ctx context.Context, orgID, actorID, assetID string, req services.DisposeRequest) (models.FixedAsset, error)
}

func (s stubAssetService) Create(ctx context.Context, orgID, actorID string, a models.FixedAsset) (models.FixedAsset, error) {
	if s.createFn == nil {
		return models.FixedAsset{}, nil
	}
	return s.createFn(ctx, orgID, actorID, a)
}

func (s stubAssetService) Get(ctx context.Context, orgID, assetID string) (models.FixedAsset, error) {
	if s.getFn == nil {
		return models.FixedAsset{}, nil
	}
	return s.getFn(ctx, orgID, assetID)
}

func (s stubAssetService) List(ctx context.Context, orgID string) ([]models.FixedAsset, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, orgID)
}

func (s stubAssetService) Depreciation(ctx context.Context, orgID, assetID string, asOf time.Time) (services.DepreciationView, error) {
	if s.depreciationFn == nil {
		return services.DepreciationView{}, nil
	}
	return s.depreciationFn(ctx, orgID, assetID, asOf)
}

func (s stubAssetService) Recalculate(ctx context.Context, orgID, actorID, assetID string, asOf time.Time) (models.FixedAsset, error) {
	if s.recalculateFn == nil {
		return models.FixedAsset{}, nil
	}
	return s.recalculateFn(ctx, orgID, actorID, assetID, asOf)
}

func (s stubAssetService) Dispose(ctx context.Context, orgID, actorID, assetID string, req services.DisposeRequest) (models.FixedAsset, error) {
	if s.disposeFn == nil {
		return models.FixedAsset{}, nil
	}
	return s.disposeFn(ctx, orgID, actorID, assetID, req)
}

type stubBudgetService struct {
	createFn   func(ctx context.Context, orgID, actorID string, b models.Budget) (models.Budget, error)
	getFn      func(ctx context.Context, orgID, budgetID string) (models.Budget, error)
	listFn     func(ctx context.Context, orgID string) ([]models.Budget, error)
	activeOnFn func(ctx context.Context, orgID string, date time.Time) ([]models.Budget, error)
}

func (s stubBudgetService) Create(ctx context.Context, orgID, actorID string, b models.Budget) (models.Budget, error) {
	if s.createFn == nil {
		return models.Budget{}, nil
	}
	return s.createFn(ctx, orgID, actorID, b)
}

func (s stubBudgetService) Get(ctx context.Context, orgID, budgetID string) (models.Budget, error) {
	if s.getFn == nil {
		return models.Budget{}, nil
	}
	return s.getFn(ctx, orgID, budgetID)
}

func (s stubBudgetService) List(ctx context.Context, orgID string) ([]models.Budget, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, orgID)
}

func (s stubBudgetService) ActiveOn(ctx context.Context, orgID string, date time.Time) ([]models.Budget, error) {
	if s.activeOnFn == nil {
		return nil, nil
	}
	return s.activeOnFn(ctx, orgID, date)
}

type stubTaxRateService struct {
	createFn func(ctx context.Context, orgID, actorID string, t models.TaxRate) (models.TaxRate, error)
	listFn   func(ctx context.Context, orgID string) ([]models.TaxRate, error)
	deleteFn func(ctx context.Context, orgID, actorID, taxRateID string) error
}

func (s stubTaxRateService) Create(ctx context.Context, orgID, actorID string, t models.TaxRate) (models.TaxRate, error) {
	if s.createFn == nil {
		return models.TaxRate{}, nil
	}
	return s.createFn(ctx, orgID, actorID, t)
}

func (s stubTaxRateService) List(ctx context.Context, orgID string) ([]models.TaxRate, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, orgID)
}

func (s stubTaxRateService) Delete(ctx context.Context, orgID, actorID, taxRateID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, orgID, actorID, taxRateID)
}

type stubReportService struct {
	trialBalanceFn        func(ctx context.Context, orgID string, asOf time.Time) (reports.TrialBalanceReport, error)
	balanceSheetFn        func(ctx context.Context, orgID string, asOf time.Time) (reports.BalanceSheetReport, error)
	incomeStatementFn     func(ctx context.Context, orgID string, p reports.Period) (reports.IncomeStatementReport, error)
	cashFlowFn            func(ctx context.Context, orgID string, p reports.Period) (reports.CashFlowReport, error)
	financialStatementsFn func(ctx context.Context, orgID string, p reports.Period) (reports.FinancialStatements, error)
	agingFn               func(ctx context.Context, orgID string, invoiceType models.InvoiceType, asOf time.Time) (reports.AgingReport, error)
	budgetVsActualFn      func(ctx context.Context, orgID, budgetID string, asOf time.Time) (reports.BudgetReport, error)
	taxSummaryFn          func(ctx context.Context, orgID string, p reports.Period) (reports.TaxSummaryReport, error)
}

func (s stubReportService) TrialBalance(ctx context.Context, orgID string, asOf time.Time) (reports.TrialBalanceReport, error) {
	if s.trialBalanceFn == nil {
		return reports.TrialBalanceReport{}, nil
	}
	return s.trialBalanceFn(ctx, orgID, asOf)
}

func (s stubReportService) BalanceSheet(ctx context.Context, orgID string, asOf time.Time) (reports.BalanceSheetReport, error) {
	if s.balanceSheetFn == nil {
		return reports.BalanceSheetReport{}, nil
	}
	return s.balanceSheetFn(ctx, orgID, asOf)
}

func (s stubReportService) IncomeStatement(ctx context.Context, orgID string, p reports.Period) (reports.IncomeStatementReport, error) {
	if s.incomeStatementFn == nil {
		return reports.IncomeStatementReport{}, nil
	}
	return s.incomeStatementFn(ctx, orgID, p)
}

func (s stubReportService) CashFlow(ctx context.Context, orgID string, p reports.Period) (reports.CashFlowReport, error) {
	if s.cashFlowFn == nil {
		return reports.CashFlowReport{}, nil
	}
	return s.cashFlowFn(ctx, orgID, p)
}

func (s stubReportService) FinancialStatements(ctx context.Context, orgID string, p reports.Period) (reports.FinancialStatements, error) {
	if s.financialStatementsFn == nil {
		return reports.FinancialStatements{}, nil
	}
	return s.financialStatementsFn(ctx, orgID, p)
}

func (s stubReportService) Aging(ctx context.Context, orgID string, invoiceType models.InvoiceType, asOf time.Time) (reports.AgingReport, error) {
	if s.agingFn == nil {
		return reports.AgingReport{}, nil
	}
	return s.agingFn(ctx, orgID, invoiceType, asOf)
}

func (s stubReportService) BudgetVsActual(ctx context.Context, orgID, budgetID string, asOf time.Time) (reports.BudgetReport, error) {
	if s.budgetVsActualFn == nil {
		return reports.BudgetReport{}, nil
	}
	return s.budgetVsActualFn(ctx, orgID, budgetID, asOf)
}

func (s stubReportService) TaxSummary(ctx context.Context, orgID string, p reports.Period) (reports.TaxSummaryReport, error) {
	if s.taxSummaryFn == nil {
		return reports.TaxSummaryReport{}, nil
	}
	return s.taxSummaryFn(ctx, orgID, p)
}

type stubAuditStore struct {
	listFn func(ctx context.Context, orgID string, limit, offset int) ([]store.AuditLog, error)
}

func (s stubAuditStore) List(ctx context.Context, orgID string, limit, offset int) ([]store.AuditLog, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, orgID, limit, offset)
}
func newTestHandler(svc Services) http.Handler {
	cfg := config.Config{
		AppEnv:         "test",
		Port:           "0",
		JWTSecret:      "secret",
		TokenTTL:       time.Minute,
		AllowedOrigins: "*",
	}
	if svc.Users == nil {
		svc.Users = stubUserService{}
	}
	if svc.Accounts == nil {
		svc.Accounts = stubAccountService{}
	}
	if svc.Ledger == nil {
		svc.Ledger = stubLedgerService{}
	}
	if svc.Invoices == nil {
		svc.Invoices = stubInvoiceService{}
	}
	if svc.Recurring == nil {
		svc.Recurring = stubRecurringService{}
	}
	if svc.Assets == nil {
		svc.Assets = stubAssetService{}
	}
	if svc.Budgets == nil {
		svc.Budgets = stubBudgetService{}
	}
	if svc.TaxRates == nil {
		svc.TaxRates = stubTaxRateService{}
	}
	if svc.Reports == nil {
		svc.Reports = stubReportService{}
	}
	if svc.Audit == nil {
		svc.Audit = stubAuditStore{}
	}
	return New(cfg, svc, websocket.NewHub()).Routes()
}

// serve sends one request through the router. An empty role sends no token.
func serve(t *testing.T, handler http.Handler, method, path, body string, role models.Role) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if role != "" {
		token, err := auth.GenerateToken("secret", auth.Subject{UserID: "user-1", OrganizationID: "org-1", Role: string(role)}, time.Minute)
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

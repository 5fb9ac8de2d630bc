package handlers

import (
	"context"
	"time"

	"lynkledger/internal/models"
	"lynkledger/internal/reports"
	"lynkledger/internal/services"
	"lynkledger/internal/store"
)

type UserService interface {
	Register(ctx context.Context, req services.RegisterRequest) (services.Session, error)
	Login(ctx context.Context, email, password, remoteAddr, userAgent string) (services.Session, error)
	Me(ctx context.Context, orgID, userID string) (services.Session, error)
	AddUser(ctx context.Context, orgID, actorID string, req services.AddUserRequest) (models.User, error)
	List(ctx context.Context, orgID string) ([]models.User, error)
	SetRole(ctx context.Context, orgID, actorID, userID string, role models.Role) (models.User, error)
}

type AccountService interface {
	Create(ctx context.Context, req services.CreateAccountRequest) (models.Account, error)
	Get(ctx context.Context, orgID, accountID string) (models.Account, error)
	List(ctx context.Context, orgID string, includeArchived bool) ([]models.Account, error)
	SetParent(ctx context.Context, orgID, actorID, accountID string, parentID *string) (models.Account, error)
	Archive(ctx context.Context, orgID, actorID, accountID string) error
	Delete(ctx context.Context, orgID, actorID, accountID string) error
	Entries(ctx context.Context, orgID, accountID string, start, end time.Time) (services.AccountStatement, error)
	ReconcileStatement(ctx context.Context, orgID, actorID, accountID string, req services.ReconcileRequest) (services.ReconciliationResult, error)
}

type LedgerService interface {
	CreateTransaction(ctx context.Context, req services.CreateTransactionRequest) (models.Transaction, error)
	ReplaceEntries(ctx context.Context, orgID, actorID, transactionID string, entries models.Entries) (models.Transaction, error)
	GetTransaction(ctx context.Context, orgID, transactionID string) (models.Transaction, error)
	ListTransactions(ctx context.Context, orgID string, filter store.TransactionFilter) ([]models.Transaction, error)
	Submit(ctx context.Context, orgID, actorID, transactionID string) (models.Transaction, error)
	Approve(ctx context.Context, orgID, actorID, transactionID string) (models.Transaction, error)
	Post(ctx context.Context, orgID, actorID, transactionID string) (models.Transaction, error)
	Void(ctx context.Context, orgID, actorID, transactionID string) (models.Transaction, error)
	Reconcile(ctx context.Context, orgID, actorID, transactionID string) (models.Transaction, error)
	Reverse(ctx context.Context, orgID, actorID, transactionID string, date time.Time) (models.Transaction, error)
	AccountBalance(ctx context.Context, orgID, accountID string, asOf time.Time) (services.AccountBalance, error)
	VerifyBalances(ctx context.Context, orgID string) (services.BalanceVerification, error)
}

type InvoiceService interface {
	CreateInvoice(ctx context.Context, req services.CreateInvoiceRequest) (models.Invoice, error)
	UpdateItems(ctx context.Context, orgID, actorID, invoiceID string, items []models.InvoiceItem) (models.Invoice, error)
	GetInvoice(ctx context.Context, orgID, invoiceID string) (services.InvoiceDetail, error)
	ListInvoices(ctx context.Context, orgID string, filter store.InvoiceFilter) ([]models.Invoice, error)
	Send(ctx context.Context, orgID, actorID, invoiceID string) (models.Invoice, error)
	Cancel(ctx context.Context, orgID, actorID, invoiceID string) (models.Invoice, error)
	Void(ctx context.Context, orgID, actorID, invoiceID string) (models.Invoice, error)
	MarkOverdue(ctx context.Context, orgID, actorID string, asOf time.Time) ([]string, error)
	RecordPayment(ctx context.Context, req services.RecordPaymentRequest) (services.PaymentResult, error)
	VoidPayment(ctx context.Context, orgID, actorID, paymentID string) (services.PaymentResult, error)
	SetPaymentStatus(ctx context.Context, orgID, actorID, paymentID string, next models.PaymentStatus) (services.PaymentResult, error)
}

type RecurringService interface {
	Create(ctx context.Context, orgID, actorID string, r models.RecurringInvoice) (models.RecurringInvoice, error)
	Get(ctx context.Context, orgID, templateID string) (models.RecurringInvoice, error)
	List(ctx context.Context, orgID string) ([]models.RecurringInvoice, error)
	Generate(ctx context.Context, orgID, actorID, templateID string, today time.Time) (models.Invoice, error)
	RunDue(ctx context.Context, orgID, actorID string, today time.Time) (services.BatchResult, error)
	PreviewNext(ctx context.Context, orgID, templateID string, count int) ([]time.Time, error)
}

type AssetService interface {
	Create(ctx context.Context, orgID, actorID string, a models.FixedAsset) (models.FixedAsset, error)
	Get(ctx context.Context, orgID, assetID string) (models.FixedAsset, error)
	List(ctx context.Context, orgID string) ([]models.FixedAsset, error)
	Depreciation(ctx context.Context, orgID, assetID string, asOf time.Time) (services.DepreciationView, error)
	Recalculate(ctx context.Context, orgID, actorID, assetID string, asOf time.Time) (models.FixedAsset, error)
	Dispose(ctx context.Context, orgID, actorID, assetID string, req services.DisposeRequest) (models.FixedAsset, error)
}

type BudgetService interface {
	Create(ctx context.Context, orgID, actorID string, b models.Budget) (models.Budget, error)
	Get(ctx context.Context, orgID, budgetID string) (models.Budget, error)
	List(ctx context.Context, orgID string) ([]models.Budget, error)
	ActiveOn(ctx context.Context, orgID string, date time.Time) ([]models.Budget, error)
}

type TaxRateService interface {
	Create(ctx context.Context, orgID, actorID string, t models.TaxRate) (models.TaxRate, error)
	List(ctx context.Context, orgID string) ([]models.TaxRate, error)
	Delete(ctx context.Context, orgID, actorID, taxRateID string) error
}

type ReportService interface {
	TrialBalance(ctx context.Context, orgID string, asOf time.Time) (reports.TrialBalanceReport, error)
	BalanceSheet(ctx context.Context, orgID string, asOf time.Time) (reports.BalanceSheetReport, error)
	IncomeStatement(ctx context.Context, orgID string, p reports.Period) (reports.IncomeStatementReport, error)
	CashFlow(ctx context.Context, orgID string, p reports.Period) (reports.CashFlowReport, error)
	FinancialStatements(ctx context.Context, orgID string, p reports.Period) (reports.FinancialStatements, error)
	Aging(ctx context.Context, orgID string, invoiceType models.InvoiceType, asOf time.Time) (reports.AgingReport, error)
	BudgetVsActual(ctx context.Context, orgID, budgetID string, asOf time.Time) (reports.BudgetReport, error)
	TaxSummary(ctx context.Context, orgID string, p reports.Period) (reports.TaxSummaryReport, error)
}

type AuditStore interface {
	List(ctx context.Context, orgID string, limit, offset int) ([]store.AuditLog, error)
}

// Services groups the collaborators the HTTP layer calls into.
type Services struct {
	Users     UserService
	Accounts  AccountService
	Ledger    LedgerService
	Invoices  InvoiceService
	Recurring RecurringService
	Assets    AssetService
	Budgets   BudgetService
	TaxRates  TaxRateService
	Reports   ReportService
	Audit     AuditStore
}

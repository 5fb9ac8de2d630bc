package services

import (
	"context"
	"time"

	"lynkledger/internal/models"
	"lynkledger/internal/reports"
	"lynkledger/internal/store"
	"lynkledger/internal/websocket"

	"github.com/shopspring/decimal"
)

type AccountStore interface {
	Create(ctx context.Context, tx store.Execer, a models.Account) error
	GetByID(ctx context.Context, orgID, accountID string) (models.Account, error)
	List(ctx context.Context, orgID string, includeArchived bool) ([]models.Account, error)
	ListByIDs(ctx context.Context, q store.Selecter, ids []string) ([]models.Account, error)
	GetForUpdate(ctx context.Context, tx store.Getter, accountID string) (models.Account, error)
	AdjustBalance(ctx context.Context, tx store.Execer, accountID string, delta decimal.Decimal) (int64, error)
	ParentMap(ctx context.Context, orgID string) (map[string]string, error)
	SetParent(ctx context.Context, tx store.Execer, orgID, accountID string, parentID *string) (int64, error)
	Archive(ctx context.Context, tx store.Execer, orgID, accountID string) (int64, error)
	References(ctx context.Context, q store.Getter, accountID string) (int, error)
	Delete(ctx context.Context, tx store.Execer, orgID, accountID string) (int64, error)
	BalanceChecks(ctx context.Context, orgID string) ([]store.AccountBalanceCheck, error)
}

type LedgerStore interface {
	InsertEntries(ctx context.Context, tx store.Execer, entries models.Entries) error
	DeleteByTransaction(ctx context.Context, tx store.Execer, transactionID string) error
	ListByTransaction(ctx context.Context, q store.Selecter, transactionID string) (models.Entries, error)
	Entries(ctx context.Context, transactionID string) (models.Entries, error)
	SumBooked(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error)
	AccountLedger(ctx context.Context, accountID string, start, end time.Time) ([]store.AccountLedgerRow, error)
	Unreconciled(ctx context.Context, q store.Selecter, accountID string, through time.Time) ([]store.AccountLedgerRow, error)
	MarkReconciled(ctx context.Context, tx store.Execer, accountID string, entryIDs []string, date time.Time) (int64, error)
	ReconciledBalance(ctx context.Context, q store.Getter, accountID string) (decimal.Decimal, error)
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, t models.Transaction) error
	GetByID(ctx context.Context, orgID, transactionID string) (models.Transaction, error)
	GetForUpdate(ctx context.Context, tx store.Getter, orgID, transactionID string) (models.Transaction, error)
	UpdateStatus(ctx context.Context, tx store.Execer, transactionID string, from, to models.TransactionStatus) (int64, error)
	Approve(ctx context.Context, tx store.Execer, transactionID string, from models.TransactionStatus, approvedBy string) (int64, error)
	Touch(ctx context.Context, tx store.Execer, transactionID string) error
	List(ctx context.Context, orgID string, filter store.TransactionFilter) ([]models.Transaction, error)
}

type InvoiceStore interface {
	Create(ctx context.Context, tx store.Execer, inv models.Invoice) error
	InsertItems(ctx context.Context, tx store.Execer, items []models.InvoiceItem) error
	DeleteItems(ctx context.Context, tx store.Execer, invoiceID string) error
	GetByID(ctx context.Context, orgID, invoiceID string) (models.Invoice, error)
	GetForUpdate(ctx context.Context, tx store.Tx, orgID, invoiceID string) (models.Invoice, error)
	List(ctx context.Context, orgID string, filter store.InvoiceFilter) ([]models.Invoice, error)
	OpenAsOf(ctx context.Context, orgID string, invoiceType models.InvoiceType, asOf time.Time) ([]models.Invoice, error)
	UpdateTotals(ctx context.Context, tx store.Execer, inv models.Invoice) error
	UpdateStatus(ctx context.Context, tx store.Execer, invoiceID string, from, to models.InvoiceStatus) (int64, error)
	UpdatePaid(ctx context.Context, tx store.Execer, invoiceID string, paid decimal.Decimal, status models.InvoiceStatus) error
	CountByPrefix(ctx context.Context, q store.Getter, orgID, prefix string) (int, error)
}

type PaymentStore interface {
	Create(ctx context.Context, tx store.Execer, p models.Payment) error
	GetByID(ctx context.Context, orgID, paymentID string) (models.Payment, error)
	GetForUpdate(ctx context.Context, tx store.Getter, orgID, paymentID string) (models.Payment, error)
	ListByInvoice(ctx context.Context, q store.Selecter, invoiceID string) ([]models.Payment, error)
	Payments(ctx context.Context, invoiceID string) ([]models.Payment, error)
	UpdateStatus(ctx context.Context, tx store.Execer, paymentID string, from, to models.PaymentStatus) (int64, error)
}

type TaxRateStore interface {
	Create(ctx context.Context, tx store.Execer, t models.TaxRate) error
	GetByID(ctx context.Context, orgID, taxRateID string) (models.TaxRate, error)
	List(ctx context.Context, orgID string) ([]models.TaxRate, error)
	References(ctx context.Context, q store.Getter, taxRateID string) (int, error)
	Delete(ctx context.Context, tx store.Execer, orgID, taxRateID string) (int64, error)
}

type RecurringStore interface {
	Create(ctx context.Context, tx store.Execer, r models.RecurringInvoice) error
	GetByID(ctx context.Context, orgID, templateID string) (models.RecurringInvoice, error)
	GetForUpdate(ctx context.Context, tx store.Tx, orgID, templateID string) (models.RecurringInvoice, error)
	List(ctx context.Context, orgID string) ([]models.RecurringInvoice, error)
	ListDue(ctx context.Context, orgID string, asOf time.Time) ([]string, error)
	UpdateSchedule(ctx context.Context, tx store.Execer, templateID string, next time.Time, active bool) error
}

type AssetStore interface {
	Create(ctx context.Context, tx store.Execer, a models.FixedAsset) error
	GetByID(ctx context.Context, orgID, assetID string) (models.FixedAsset, error)
	GetForUpdate(ctx context.Context, tx store.Getter, orgID, assetID string) (models.FixedAsset, error)
	List(ctx context.Context, orgID string) ([]models.FixedAsset, error)
	UpdateValues(ctx context.Context, tx store.Execer, assetID string, accumulated, current decimal.Decimal) (int64, error)
	Dispose(ctx context.Context, tx store.Execer, assetID string, status models.AssetStatus, date time.Time, value decimal.Decimal) (int64, error)
}

type BudgetStore interface {
	Create(ctx context.Context, tx store.Execer, b models.Budget) error
	GetByID(ctx context.Context, orgID, budgetID string) (models.Budget, error)
	List(ctx context.Context, orgID string) ([]models.Budget, error)
	ActiveOn(ctx context.Context, orgID string, date time.Time) ([]string, error)
}

type ReportStore interface {
	EntryRows(ctx context.Context, orgID string, end time.Time) ([]reports.EntryRow, error)
	TaxLines(ctx context.Context, orgID string, start, end time.Time) ([]reports.TaxLine, error)
}

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, u models.User) error
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, userID string) (models.User, error)
	ListByOrganization(ctx context.Context, orgID string) ([]models.User, error)
	SetRole(ctx context.Context, tx store.Execer, orgID, userID string, role models.Role) (int64, error)
	CountOwners(ctx context.Context, q store.Getter, orgID string) (int, error)
}

type OrganizationStore interface {
	Create(ctx context.Context, tx store.Execer, org models.Organization) error
	GetByID(ctx context.Context, orgID string) (models.Organization, error)
	IDs(ctx context.Context) ([]string, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, orgID, actorID, action, entityType, entityID, data string) error
}

type BalanceHub interface {
	BroadcastBalance(orgID string, update websocket.BalanceUpdate)
}

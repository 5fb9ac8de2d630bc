// Package app wires stores and services over one database handle for the
// API server and the ledgerctl jobs.
package app

import (
	"lynkledger/internal/config"
	"lynkledger/internal/db"
	"lynkledger/internal/events"
	"lynkledger/internal/events/kafka"
	"lynkledger/internal/handlers"
	"lynkledger/internal/services"
	"lynkledger/internal/store"
	"lynkledger/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type App struct {
	Organizations *store.OrganizationStore
	Audit         *store.AuditStore

	Users     *services.UserService
	Accounts  *services.AccountService
	Ledger    *services.LedgerService
	Invoices  *services.InvoiceService
	Recurring *services.RecurringService
	Assets    *services.AssetService
	Budgets   *services.BudgetService
	TaxRates  *services.TaxRateService
	Reports   *services.ReportService
}

func New(cfg config.Config, database *sqlx.DB, publisher events.Publisher, hub *websocket.Hub) *App {
	txRunner := db.NewTxRunner(database, cfg.TxMaxAttempts)

	users := store.NewUserStore(database)
	organizations := store.NewOrganizationStore(database)
	accounts := store.NewAccountStore(database)
	ledger := store.NewLedgerStore(database)
	transactions := store.NewTransactionStore(database)
	invoices := store.NewInvoiceStore(database)
	payments := store.NewPaymentStore(database)
	taxRates := store.NewTaxRateStore(database)
	templates := store.NewRecurringStore(database)
	assets := store.NewAssetStore(database)
	budgets := store.NewBudgetStore(database)
	rows := store.NewReportStore(database)
	audit := store.NewAuditStore(database)

	return &App{
		Organizations: organizations,
		Audit:         audit,
		Users:         services.NewUserService(txRunner, users, organizations, audit, cfg.JWTSecret, cfg.TokenTTL),
		Accounts:      services.NewAccountService(txRunner, accounts, ledger, audit),
		Ledger:        services.NewLedgerService(txRunner, accounts, ledger, transactions, audit, hub, publisher),
		Invoices:      services.NewInvoiceService(txRunner, accounts, invoices, payments, taxRates, audit, publisher),
		Recurring:     services.NewRecurringService(txRunner, accounts, templates, invoices, taxRates, audit, publisher),
		Assets:        services.NewAssetService(txRunner, accounts, assets, audit, publisher),
		Budgets:       services.NewBudgetService(txRunner, accounts, budgets, audit),
		TaxRates:      services.NewTaxRateService(txRunner, accounts, taxRates, audit),
		Reports:       services.NewReportService(accounts, invoices, budgets, taxRates, rows),
	}
}

// Services exposes the wired services to the HTTP layer.
func (a *App) Services() handlers.Services {
	return handlers.Services{
		Users:     a.Users,
		Accounts:  a.Accounts,
		Ledger:    a.Ledger,
		Invoices:  a.Invoices,
		Recurring: a.Recurring,
		Assets:    a.Assets,
		Budgets:   a.Budgets,
		TaxRates:  a.TaxRates,
		Reports:   a.Reports,
		Audit:     a.Audit,
	}
}

// NewPublisher returns a kafka publisher, or events.Noop when no brokers
// are configured. The returned close func is never nil.
func NewPublisher(cfg config.Config) (events.Publisher, func() error) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.Noop{}, func() error { return nil }
	}
	publisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	return publisher, publisher.Close
}

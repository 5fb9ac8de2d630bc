package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"lynkledger/internal/events"
	"lynkledger/internal/models"
	"lynkledger/internal/reports"
	"lynkledger/internal/store"
	"lynkledger/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

var errUnique = &pq.Error{Code: "23505"}

type auditRecord struct {
	OrganizationID string
	ActorID        string
	Action         string
	EntityType     string
	EntityID       string
}

// memory backs every store interface with maps. Writes made before a
// failing step are not rolled back.
type memory struct {
	mu           sync.Mutex
	accounts     map[string]models.Account
	transactions map[string]models.Transaction
	entries      map[string]models.Entries
	invoices     map[string]models.Invoice
	payments     map[string]models.Payment
	taxRates     map[string]models.TaxRate
	templates    map[string]models.RecurringInvoice
	assets       map[string]models.FixedAsset
	budgets      map[string]models.Budget
	users        map[string]models.User
	orgs         map[string]models.Organization
	audit        []auditRecord
}

func newMemory() *memory {
	return &memory{
		accounts:     map[string]models.Account{},
		transactions: map[string]models.Transaction{},
		entries:      map[string]models.Entries{},
		invoices:     map[string]models.Invoice{},
		payments:     map[string]models.Payment{},
		taxRates:     map[string]models.TaxRate{},
		templates:    map[string]models.RecurringInvoice{},
		assets:       map[string]models.FixedAsset{},
		budgets:      map[string]models.Budget{},
		users:        map[string]models.User{},
		orgs:         map[string]models.Organization{},
	}
}

func (m *memory) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.audit))
	for _, record := range m.audit {
		out = append(out, record.Action)
	}
	return out
}

// accounts

type memAccounts struct{ m *memory }

func (s memAccounts) Create(_ context.Context, _ store.Execer, a models.Account) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, existing := range s.m.accounts {
		if existing.OrganizationID == a.OrganizationID && existing.Code == a.Code {
			return errUnique
		}
	}
	s.m.accounts[a.ID] = a
	return nil
}

func (s memAccounts) GetByID(_ context.Context, orgID, accountID string) (models.Account, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	a, ok := s.m.accounts[accountID]
	if !ok || a.OrganizationID != orgID {
		return models.Account{}, sql.ErrNoRows
	}
	return a, nil
}

func (s memAccounts) List(_ context.Context, orgID string, includeArchived bool) ([]models.Account, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var rows []models.Account
	for _, a := range s.m.accounts {
		if a.OrganizationID == orgID && (includeArchived || !a.IsArchived) {
			rows = append(rows, a)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	return rows, nil
}

func (s memAccounts) ListByIDs(_ context.Context, _ store.Selecter, ids []string) ([]models.Account, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var rows []models.Account
	for _, id := range ids {
		if a, ok := s.m.accounts[id]; ok {
			rows = append(rows, a)
		}
	}
	return rows, nil
}

func (s memAccounts) GetForUpdate(_ context.Context, _ store.Getter, accountID string) (models.Account, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	a, ok := s.m.accounts[accountID]
	if !ok {
		return models.Account{}, sql.ErrNoRows
	}
	return a, nil
}

func (s memAccounts) AdjustBalance(_ context.Context, _ store.Execer, accountID string, delta decimal.Decimal) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	a, ok := s.m.accounts[accountID]
	if !ok {
		return 0, nil
	}
	a.CurrentBalance = a.CurrentBalance.Add(delta)
	a.AvailableBalance = a.AvailableBalance.Add(delta)
	s.m.accounts[accountID] = a
	return 1, nil
}

func (s memAccounts) ParentMap(_ context.Context, orgID string) (map[string]string, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	parents := map[string]string{}
	for _, a := range s.m.accounts {
		if a.OrganizationID == orgID && a.ParentID != nil {
			parents[a.ID] = *a.ParentID
		}
	}
	return parents, nil
}

func (s memAccounts) SetParent(_ context.Context, _ store.Execer, orgID, accountID string, parentID *string) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	a, ok := s.m.accounts[accountID]
	if !ok || a.OrganizationID != orgID {
		return 0, nil
	}
	a.ParentID = parentID
	s.m.accounts[accountID] = a
	return 1, nil
}

func (s memAccounts) Archive(_ context.Context, _ store.Execer, orgID, accountID string) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	a, ok := s.m.accounts[accountID]
	if !ok || a.OrganizationID != orgID {
		return 0, nil
	}
	a.IsArchived = true
	a.IsActive = false
	s.m.accounts[accountID] = a
	return 1, nil
}

func (s memAccounts) References(_ context.Context, _ store.Getter, accountID string) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	count := 0
	for _, entries := range s.m.entries {
		for _, e := range entries {
			if e.AccountID == accountID {
				count++
			}
		}
	}
	for _, inv := range s.m.invoices {
		for _, item := range inv.Items {
			if item.IncomeAccountID == accountID || (item.TaxAccountID != nil && *item.TaxAccountID == accountID) {
				count++
			}
		}
	}
	for _, p := range s.m.payments {
		if p.BankAccountID != nil && *p.BankAccountID == accountID {
			count++
		}
	}
	for _, b := range s.m.budgets {
		for _, item := range b.Items {
			if item.AccountID == accountID {
				count++
			}
		}
	}
	return count, nil
}

func (s memAccounts) Delete(_ context.Context, _ store.Execer, orgID, accountID string) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	a, ok := s.m.accounts[accountID]
	if !ok || a.OrganizationID != orgID {
		return 0, nil
	}
	delete(s.m.accounts, accountID)
	return 1, nil
}

func (s memAccounts) BalanceChecks(_ context.Context, orgID string) ([]store.AccountBalanceCheck, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var rows []store.AccountBalanceCheck
	for _, a := range s.m.accounts {
		if a.OrganizationID != orgID {
			continue
		}
		calculated := s.m.sumBooked(a.ID, time.Time{})
		rows = append(rows, store.AccountBalanceCheck{
			ID:                a.ID,
			Code:              a.Code,
			Name:              a.Name,
			StoredBalance:     a.CurrentBalance,
			CalculatedBalance: calculated,
			Difference:        a.CurrentBalance.Sub(calculated),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	return rows, nil
}

// sumBooked expects m.mu held. A zero asOf means no date limit.
func (m *memory) sumBooked(accountID string, asOf time.Time) decimal.Decimal {
	sum := decimal.Zero
	for txID, entries := range m.entries {
		t := m.transactions[txID]
		if !t.Status.Booked() || (!asOf.IsZero() && t.Date.After(asOf)) {
			continue
		}
		for _, e := range entries {
			if e.AccountID == accountID {
				sum = sum.Add(e.Amount)
			}
		}
	}
	return sum
}

// ledger

type memLedger struct{ m *memory }

func (s memLedger) InsertEntries(_ context.Context, _ store.Execer, entries models.Entries) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, e := range entries {
		s.m.entries[e.TransactionID] = append(s.m.entries[e.TransactionID], e)
	}
	return nil
}

func (s memLedger) DeleteByTransaction(_ context.Context, _ store.Execer, transactionID string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	delete(s.m.entries, transactionID)
	return nil
}

func (s memLedger) ListByTransaction(_ context.Context, _ store.Selecter, transactionID string) (models.Entries, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	rows := append(models.Entries(nil), s.m.entries[transactionID]...)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AccountID != rows[j].AccountID {
			return rows[i].AccountID < rows[j].AccountID
		}
		return rows[i].ID < rows[j].ID
	})
	return rows, nil
}

func (s memLedger) Entries(ctx context.Context, transactionID string) (models.Entries, error) {
	return s.ListByTransaction(ctx, nil, transactionID)
}

func (s memLedger) SumBooked(_ context.Context, accountID string, asOf time.Time) (decimal.Decimal, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.sumBooked(accountID, asOf), nil
}

func (s memLedger) ledgerRows(accountID string, keep func(models.Transaction, models.TransactionEntry) bool) []store.AccountLedgerRow {
	var rows []store.AccountLedgerRow
	for txID, entries := range s.m.entries {
		t := s.m.transactions[txID]
		if !t.Status.Booked() {
			continue
		}
		for _, e := range entries {
			if e.AccountID != accountID || !keep(t, e) {
				continue
			}
			rows = append(rows, store.AccountLedgerRow{
				EntryID:       e.ID,
				TransactionID: t.ID,
				Date:          t.Date,
				Description:   t.Description,
				Reference:     t.Reference,
				Status:        t.Status,
				Amount:        e.Amount,
				Reconciled:    e.Reconciled,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].EntryID < rows[j].EntryID
	})
	return rows
}

func (s memLedger) AccountLedger(_ context.Context, accountID string, start, end time.Time) ([]store.AccountLedgerRow, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.ledgerRows(accountID, func(t models.Transaction, _ models.TransactionEntry) bool {
		return !t.Date.Before(start) && !t.Date.After(end)
	}), nil
}

func (s memLedger) Unreconciled(_ context.Context, _ store.Selecter, accountID string, through time.Time) ([]store.AccountLedgerRow, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.ledgerRows(accountID, func(t models.Transaction, e models.TransactionEntry) bool {
		return !e.Reconciled && !t.Date.After(through)
	}), nil
}

func (s memLedger) MarkReconciled(_ context.Context, _ store.Execer, accountID string, entryIDs []string, date time.Time) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	wanted := map[string]bool{}
	for _, id := range entryIDs {
		wanted[id] = true
	}
	var marked int64
	for txID, entries := range s.m.entries {
		for i := range entries {
			if entries[i].AccountID == accountID && wanted[entries[i].ID] && !entries[i].Reconciled {
				entries[i].Reconciled = true
				d := date
				entries[i].ReconciledDate = &d
				marked++
			}
		}
		s.m.entries[txID] = entries
	}
	return marked, nil
}

func (s memLedger) ReconciledBalance(_ context.Context, _ store.Getter, accountID string) (decimal.Decimal, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sum := decimal.Zero
	for _, entries := range s.m.entries {
		for _, e := range entries {
			if e.AccountID == accountID && e.Reconciled {
				sum = sum.Add(e.Amount)
			}
		}
	}
	return sum, nil
}

// transactions

type memTransactions struct{ m *memory }

func (s memTransactions) Create(_ context.Context, _ store.Execer, t models.Transaction) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t.Entries = nil
	s.m.transactions[t.ID] = t
	return nil
}

func (s memTransactions) GetByID(_ context.Context, orgID, transactionID string) (models.Transaction, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t, ok := s.m.transactions[transactionID]
	if !ok || t.OrganizationID != orgID {
		return models.Transaction{}, sql.ErrNoRows
	}
	return t, nil
}

func (s memTransactions) GetForUpdate(ctx context.Context, _ store.Getter, orgID, transactionID string) (models.Transaction, error) {
	return s.GetByID(ctx, orgID, transactionID)
}

func (s memTransactions) UpdateStatus(_ context.Context, _ store.Execer, transactionID string, from, to models.TransactionStatus) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t, ok := s.m.transactions[transactionID]
	if !ok || t.Status != from {
		return 0, nil
	}
	t.Status = to
	s.m.transactions[transactionID] = t
	return 1, nil
}

func (s memTransactions) Approve(_ context.Context, _ store.Execer, transactionID string, from models.TransactionStatus, approvedBy string) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t, ok := s.m.transactions[transactionID]
	if !ok || t.Status != from {
		return 0, nil
	}
	t.Status = models.TransactionApproved
	t.ApprovedBy = &approvedBy
	s.m.transactions[transactionID] = t
	return 1, nil
}

func (s memTransactions) Touch(context.Context, store.Execer, string) error {
	return nil
}

func (s memTransactions) List(_ context.Context, orgID string, filter store.TransactionFilter) ([]models.Transaction, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var rows []models.Transaction
	for _, t := range s.m.transactions {
		if t.OrganizationID == orgID && (filter.Status == "" || string(t.Status) == filter.Status) {
			rows = append(rows, t)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.After(rows[j].Date) })
	if filter.Offset >= len(rows) {
		return nil, nil
	}
	rows = rows[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(rows) {
		rows = rows[:filter.Limit]
	}
	return rows, nil
}

// invoices

type memInvoices struct{ m *memory }

func copyInvoice(inv models.Invoice) models.Invoice {
	inv.Items = append([]models.InvoiceItem(nil), inv.Items...)
	return inv
}

func (s memInvoices) Create(_ context.Context, _ store.Execer, inv models.Invoice) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, existing := range s.m.invoices {
		if existing.OrganizationID == inv.OrganizationID && existing.Number == inv.Number {
			return errUnique
		}
	}
	inv.Items = nil
	s.m.invoices[inv.ID] = inv
	return nil
}

func (s memInvoices) InsertItems(_ context.Context, _ store.Execer, items []models.InvoiceItem) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, item := range items {
		inv := s.m.invoices[item.InvoiceID]
		inv.Items = append(inv.Items, item)
		s.m.invoices[item.InvoiceID] = inv
	}
	return nil
}

func (s memInvoices) DeleteItems(_ context.Context, _ store.Execer, invoiceID string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	inv := s.m.invoices[invoiceID]
	inv.Items = nil
	s.m.invoices[invoiceID] = inv
	return nil
}

func (s memInvoices) GetByID(_ context.Context, orgID, invoiceID string) (models.Invoice, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	inv, ok := s.m.invoices[invoiceID]
	if !ok || inv.OrganizationID != orgID {
		return models.Invoice{}, sql.ErrNoRows
	}
	return copyInvoice(inv), nil
}

func (s memInvoices) GetForUpdate(ctx context.Context, _ store.Tx, orgID, invoiceID string) (models.Invoice, error) {
	return s.GetByID(ctx, orgID, invoiceID)
}

func (s memInvoices) List(_ context.Context, orgID string, filter store.InvoiceFilter) ([]models.Invoice, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	statuses := map[string]bool{}
	for _, status := range filter.Statuses {
		statuses[status] = true
	}
	var rows []models.Invoice
	for _, inv := range s.m.invoices {
		if inv.OrganizationID != orgID {
			continue
		}
		if filter.Type != "" && string(inv.Type) != filter.Type {
			continue
		}
		if len(statuses) > 0 && !statuses[string(inv.Status)] {
			continue
		}
		rows = append(rows, copyInvoice(inv))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Number > rows[j].Number })
	return rows, nil
}

func (s memInvoices) OpenAsOf(_ context.Context, orgID string, invoiceType models.InvoiceType, asOf time.Time) ([]models.Invoice, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var rows []models.Invoice
	for _, inv := range s.m.invoices {
		if inv.OrganizationID == orgID && inv.Type == invoiceType && inv.Status.Open() && !inv.Date.After(asOf) {
			rows = append(rows, copyInvoice(inv))
		}
	}
	return rows, nil
}

func (s memInvoices) UpdateTotals(_ context.Context, _ store.Execer, inv models.Invoice) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	stored := s.m.invoices[inv.ID]
	stored.Subtotal = inv.Subtotal
	stored.TaxAmount = inv.TaxAmount
	stored.Total = inv.Total
	stored.Items = append([]models.InvoiceItem(nil), inv.Items...)
	s.m.invoices[inv.ID] = stored
	return nil
}

func (s memInvoices) UpdateStatus(_ context.Context, _ store.Execer, invoiceID string, from, to models.InvoiceStatus) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	inv, ok := s.m.invoices[invoiceID]
	if !ok || inv.Status != from {
		return 0, nil
	}
	inv.Status = to
	s.m.invoices[invoiceID] = inv
	return 1, nil
}

func (s memInvoices) UpdatePaid(_ context.Context, _ store.Execer, invoiceID string, paid decimal.Decimal, status models.InvoiceStatus) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	inv := s.m.invoices[invoiceID]
	inv.AmountPaid = paid
	inv.Status = status
	s.m.invoices[invoiceID] = inv
	return nil
}

func (s memInvoices) CountByPrefix(_ context.Context, _ store.Getter, orgID, prefix string) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	count := 0
	for _, inv := range s.m.invoices {
		if inv.OrganizationID == orgID && strings.HasPrefix(inv.Number, prefix) {
			count++
		}
	}
	return count, nil
}

// payments

type memPayments struct{ m *memory }

func (s memPayments) Create(_ context.Context, _ store.Execer, p models.Payment) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.payments[p.ID] = p
	return nil
}

func (s memPayments) GetByID(_ context.Context, orgID, paymentID string) (models.Payment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.payments[paymentID]
	if !ok || p.OrganizationID != orgID {
		return models.Payment{}, sql.ErrNoRows
	}
	return p, nil
}

func (s memPayments) GetForUpdate(ctx context.Context, _ store.Getter, orgID, paymentID string) (models.Payment, error) {
	return s.GetByID(ctx, orgID, paymentID)
}

func (s memPayments) ListByInvoice(_ context.Context, _ store.Selecter, invoiceID string) ([]models.Payment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var rows []models.Payment
	for _, p := range s.m.payments {
		if p.InvoiceID == invoiceID {
			rows = append(rows, p)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (s memPayments) Payments(ctx context.Context, invoiceID string) ([]models.Payment, error) {
	return s.ListByInvoice(ctx, nil, invoiceID)
}

func (s memPayments) UpdateStatus(_ context.Context, _ store.Execer, paymentID string, from, to models.PaymentStatus) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.payments[paymentID]
	if !ok || p.Status != from {
		return 0, nil
	}
	p.Status = to
	s.m.payments[paymentID] = p
	return 1, nil
}

// tax rates

type memTaxRates struct{ m *memory }

func (s memTaxRates) Create(_ context.Context, _ store.Execer, t models.TaxRate) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.taxRates[t.ID] = t
	return nil
}

func (s memTaxRates) GetByID(_ context.Context, orgID, taxRateID string) (models.TaxRate, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t, ok := s.m.taxRates[taxRateID]
	if !ok || t.OrganizationID != orgID {
		return models.TaxRate{}, sql.ErrNoRows
	}
	return t, nil
}

func (s memTaxRates) List(_ context.Context, orgID string) ([]models.TaxRate, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var rows []models.TaxRate
	for _, t := range s.m.taxRates {
		if t.OrganizationID == orgID {
			rows = append(rows, t)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}

func (s memTaxRates) References(_ context.Context, _ store.Getter, taxRateID string) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	count := 0
	for _, inv := range s.m.invoices {
		for _, item := range inv.Items {
			if item.TaxRateID != nil && *item.TaxRateID == taxRateID {
				count++
			}
		}
	}
	for _, r := range s.m.templates {
		for _, item := range r.Items {
			if item.TaxRateID != nil && *item.TaxRateID == taxRateID {
				count++
			}
		}
	}
	return count, nil
}

func (s memTaxRates) Delete(_ context.Context, _ store.Execer, orgID, taxRateID string) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t, ok := s.m.taxRates[taxRateID]
	if !ok || t.OrganizationID != orgID {
		return 0, nil
	}
	delete(s.m.taxRates, taxRateID)
	return 1, nil
}

// recurring templates

type memRecurring struct{ m *memory }

func (s memRecurring) Create(_ context.Context, _ store.Execer, r models.RecurringInvoice) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r.Items = append([]models.RecurringInvoiceItem(nil), r.Items...)
	s.m.templates[r.ID] = r
	return nil
}

func (s memRecurring) GetByID(_ context.Context, orgID, templateID string) (models.RecurringInvoice, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.templates[templateID]
	if !ok || r.OrganizationID != orgID {
		return models.RecurringInvoice{}, sql.ErrNoRows
	}
	r.Items = append([]models.RecurringInvoiceItem(nil), r.Items...)
	return r, nil
}

func (s memRecurring) GetForUpdate(ctx context.Context, _ store.Tx, orgID, templateID string) (models.RecurringInvoice, error) {
	return s.GetByID(ctx, orgID, templateID)
}

func (s memRecurring) List(_ context.Context, orgID string) ([]models.RecurringInvoice, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var rows []models.RecurringInvoice
	for _, r := range s.m.templates {
		if r.OrganizationID == orgID {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}

func (s memRecurring) ListDue(_ context.Context, orgID string, asOf time.Time) ([]string, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var ids []string
	for _, r := range s.m.templates {
		if r.OrganizationID != orgID || !r.Due(asOf) {
			continue
		}
		ids = append(ids, r.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s memRecurring) UpdateSchedule(_ context.Context, _ store.Execer, templateID string, next time.Time, active bool) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r := s.m.templates[templateID]
	r.NextDate = next
	r.IsActive = active
	s.m.templates[templateID] = r
	return nil
}

// assets

type memAssets struct{ m *memory }

func (s memAssets) Create(_ context.Context, _ store.Execer, a models.FixedAsset) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.assets[a.ID] = a
	return nil
}

func (s memAssets) GetByID(_ context.Context, orgID, assetID string) (models.FixedAsset, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	a, ok := s.m.assets[assetID]
	if !ok || a.OrganizationID != orgID {
		return models.FixedAsset{}, sql.ErrNoRows
	}
	return a, nil
}

func (s memAssets) GetForUpdate(ctx context.Context, _ store.Getter, orgID, assetID string) (models.FixedAsset, error) {
	return s.GetByID(ctx, orgID, assetID)
}

func (s memAssets) List(_ context.Context, orgID string) ([]models.FixedAsset, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var rows []models.FixedAsset
	for _, a := range s.m.assets {
		if a.OrganizationID == orgID {
			rows = append(rows, a)
		}
	}
	return rows, nil
}

func (s memAssets) UpdateValues(_ context.Context, _ store.Execer, assetID string, accumulated, current decimal.Decimal) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	a, ok := s.m.assets[assetID]
	if !ok || a.Status != models.AssetActive {
		return 0, nil
	}
	a.AccumulatedDepreciation = accumulated
	a.CurrentValue = current
	s.m.assets[assetID] = a
	return 1, nil
}

func (s memAssets) Dispose(_ context.Context, _ store.Execer, assetID string, status models.AssetStatus, date time.Time, value decimal.Decimal) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	a, ok := s.m.assets[assetID]
	if !ok || a.Status != models.AssetActive {
		return 0, nil
	}
	a.Status = status
	a.DisposalDate = &date
	a.DisposalValue = decimal.NullDecimal{Decimal: value, Valid: true}
	a.CurrentValue = value
	s.m.assets[assetID] = a
	return 1, nil
}

// budgets

type memBudgets struct{ m *memory }

func (s memBudgets) Create(_ context.Context, _ store.Execer, b models.Budget) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	b.Items = append([]models.BudgetItem(nil), b.Items...)
	s.m.budgets[b.ID] = b
	return nil
}

func (s memBudgets) GetByID(_ context.Context, orgID, budgetID string) (models.Budget, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	b, ok := s.m.budgets[budgetID]
	if !ok || b.OrganizationID != orgID {
		return models.Budget{}, sql.ErrNoRows
	}
	return b, nil
}

func (s memBudgets) List(_ context.Context, orgID string) ([]models.Budget, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var rows []models.Budget
	for _, b := range s.m.budgets {
		if b.OrganizationID == orgID {
			rows = append(rows, b)
		}
	}
	return rows, nil
}

func (s memBudgets) ActiveOn(_ context.Context, orgID string, date time.Time) ([]string, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var ids []string
	for _, b := range s.m.budgets {
		if b.OrganizationID == orgID && b.IsActive && !date.Before(b.StartDate) && !date.After(b.EndDate) {
			ids = append(ids, b.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// report rows

type memReports struct{ m *memory }

func (s memReports) EntryRows(_ context.Context, orgID string, end time.Time) ([]reports.EntryRow, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var rows []reports.EntryRow
	for txID, entries := range s.m.entries {
		t := s.m.transactions[txID]
		if t.OrganizationID != orgID || !t.Status.Booked() || t.Date.After(end) {
			continue
		}
		for _, e := range entries {
			rows = append(rows, reports.EntryRow{
				TransactionID: t.ID,
				AccountID:     e.AccountID,
				Date:          t.Date,
				Description:   t.Description,
				Amount:        e.Amount,
				Status:        t.Status,
				Tags:          t.Tags,
			})
		}
	}
	return rows, nil
}

func (s memReports) TaxLines(_ context.Context, orgID string, start, end time.Time) ([]reports.TaxLine, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var lines []reports.TaxLine
	for _, inv := range s.m.invoices {
		if inv.OrganizationID != orgID || inv.Date.Before(start) || inv.Date.After(end) {
			continue
		}
		for _, item := range inv.Items {
			if item.TaxRateID == nil {
				continue
			}
			lines = append(lines, reports.TaxLine{
				TaxRateID:     *item.TaxRateID,
				InvoiceType:   inv.Type,
				InvoiceStatus: inv.Status,
				InvoiceDate:   inv.Date,
				TaxAmount:     item.TaxAmount,
			})
		}
	}
	return lines, nil
}

// users and organizations

type memUsers struct{ m *memory }

func (s memUsers) Create(_ context.Context, _ store.Execer, u models.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, existing := range s.m.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return errUnique
		}
	}
	s.m.users[u.ID] = u
	return nil
}

func (s memUsers) GetByEmail(_ context.Context, email string) (models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, sql.ErrNoRows
}

func (s memUsers) GetByID(_ context.Context, userID string) (models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[userID]
	if !ok {
		return models.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s memUsers) ListByOrganization(_ context.Context, orgID string) ([]models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var rows []models.User
	for _, u := range s.m.users {
		if u.OrganizationID == orgID {
			rows = append(rows, u)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Username < rows[j].Username })
	return rows, nil
}

func (s memUsers) SetRole(_ context.Context, _ store.Execer, orgID, userID string, role models.Role) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[userID]
	if !ok || u.OrganizationID != orgID {
		return 0, nil
	}
	u.Role = role
	s.m.users[userID] = u
	return 1, nil
}

func (s memUsers) CountOwners(_ context.Context, _ store.Getter, orgID string) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	count := 0
	for _, u := range s.m.users {
		if u.OrganizationID == orgID && u.Role == models.RoleOwner {
			count++
		}
	}
	return count, nil
}

type memOrganizations struct{ m *memory }

func (s memOrganizations) Create(_ context.Context, _ store.Execer, org models.Organization) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.orgs[org.ID] = org
	return nil
}

func (s memOrganizations) GetByID(_ context.Context, orgID string) (models.Organization, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	org, ok := s.m.orgs[orgID]
	if !ok {
		return models.Organization{}, sql.ErrNoRows
	}
	return org, nil
}

func (s memOrganizations) IDs(context.Context) ([]string, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var ids []string
	for id := range s.m.orgs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

type memAudit struct{ m *memory }

func (s memAudit) Log(_ context.Context, _ store.Execer, orgID, actorID, action, entityType, entityID, _ string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.audit = append(s.m.audit, auditRecord{
		OrganizationID: orgID,
		ActorID:        actorID,
		Action:         action,
		EntityType:     entityType,
		EntityID:       entityID,
	})
	return nil
}

type recordingHub struct {
	mu      sync.Mutex
	updates []websocket.BalanceUpdate
}

func (h *recordingHub) BroadcastBalance(_ string, update websocket.BalanceUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updates = append(h.updates, update)
}

type recordingPublisher struct {
	mu     sync.Mutex
	err    error
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// testEnv wires every service over one memory instance.
type testEnv struct {
	mem       *memory
	hub       *recordingHub
	publisher *recordingPublisher
	accounts  *AccountService
	ledger    *LedgerService
	invoices  *InvoiceService
	recurring *RecurringService
	assets    *AssetService
	budgets   *BudgetService
	taxRates  *TaxRateService
	reports   *ReportService
	users     *UserService
}

func newTestEnv() *testEnv {
	mem := newMemory()
	hub := &recordingHub{}
	publisher := &recordingPublisher{}
	runner := fakeTxRunner{}
	accounts := memAccounts{mem}
	ledger := memLedger{mem}
	invoices := memInvoices{mem}
	taxRates := memTaxRates{mem}
	budgets := memBudgets{mem}
	audit := memAudit{mem}
	return &testEnv{
		mem:       mem,
		hub:       hub,
		publisher: publisher,
		accounts:  NewAccountService(runner, accounts, ledger, audit),
		ledger:    NewLedgerService(runner, accounts, ledger, memTransactions{mem}, audit, hub, publisher),
		invoices:  NewInvoiceService(runner, accounts, invoices, memPayments{mem}, taxRates, audit, publisher),
		recurring: NewRecurringService(runner, accounts, memRecurring{mem}, invoices, taxRates, audit, publisher),
		assets:    NewAssetService(runner, accounts, memAssets{mem}, audit, publisher),
		budgets:   NewBudgetService(runner, accounts, budgets, audit),
		taxRates:  NewTaxRateService(runner, accounts, taxRates, audit),
		reports:   NewReportService(accounts, invoices, budgets, taxRates, memReports{mem}),
		users:     NewUserService(runner, memUsers{mem}, memOrganizations{mem}, audit, "test-secret", time.Hour),
	}
}

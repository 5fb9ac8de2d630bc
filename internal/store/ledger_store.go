package store

import (
	"context"
	"time"

	"lynkledger/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// LedgerStore owns transaction_entries.
type LedgerStore struct {
	db DB
}

func NewLedgerStore(db DB) *LedgerStore {
	return &LedgerStore{db: db}
}

const entryColumns = `id, transaction_id, account_id, description, amount, tax_rate, currency, exchange_rate, reconciled, reconciled_date`

func (s *LedgerStore) InsertEntries(ctx context.Context, tx Execer, entries models.Entries) error {
	query := `
		INSERT INTO transaction_entries (id, transaction_id, account_id, description, amount, tax_rate, currency, exchange_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, query,
			entry.ID, entry.TransactionID, entry.AccountID, entry.Description,
			entry.Amount, entry.TaxRate, entry.Currency, entry.ExchangeRate,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *LedgerStore) DeleteByTransaction(ctx context.Context, tx Execer, transactionID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM transaction_entries WHERE transaction_id = $1`, transactionID)
	return err
}

func (s *LedgerStore) ListByTransaction(ctx context.Context, q Selecter, transactionID string) (models.Entries, error) {
	var rows models.Entries
	err := q.SelectContext(ctx, &rows, `
		SELECT `+entryColumns+`
		FROM transaction_entries
		WHERE transaction_id = $1
		ORDER BY account_id, id
	`, transactionID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *LedgerStore) Entries(ctx context.Context, transactionID string) (models.Entries, error) {
	return s.ListByTransaction(ctx, s.db, transactionID)
}

// SumBooked is the authoritative balance of an account: the sum of entries on
// posted or reconciled transactions dated on or before asOf.
func (s *LedgerStore) SumBooked(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := s.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(e.amount), 0)
		FROM transaction_entries e
		JOIN transactions t ON t.id = e.transaction_id
		WHERE e.account_id = $1 AND t.status IN ('posted', 'reconciled') AND t.date <= $2
	`, accountID, asOf)
	return sum, err
}

type AccountLedgerRow struct {
	EntryID       string                   `db:"entry_id" json:"entry_id"`
	TransactionID string                   `db:"transaction_id" json:"transaction_id"`
	Date          time.Time                `db:"date" json:"date"`
	Description   string                   `db:"description" json:"description"`
	Reference     string                   `db:"reference" json:"reference"`
	Status        models.TransactionStatus `db:"status" json:"status"`
	Amount        decimal.Decimal          `db:"amount" json:"amount"`
	Reconciled    bool                     `db:"reconciled" json:"reconciled"`
}

// AccountLedger lists booked entries on one account inside [start, end].
func (s *LedgerStore) AccountLedger(ctx context.Context, accountID string, start, end time.Time) ([]AccountLedgerRow, error) {
	var rows []AccountLedgerRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT e.id AS entry_id, t.id AS transaction_id, t.date, t.description, t.reference, t.status, e.amount, e.reconciled
		FROM transaction_entries e
		JOIN transactions t ON t.id = e.transaction_id
		WHERE e.account_id = $1
		  AND t.status IN ('posted', 'reconciled')
		  AND t.date >= $2 AND t.date <= $3
		ORDER BY t.date, t.created_at, e.id
	`, accountID, start, end)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Unreconciled lists booked, unreconciled entries on the account up to through.
func (s *LedgerStore) Unreconciled(ctx context.Context, q Selecter, accountID string, through time.Time) ([]AccountLedgerRow, error) {
	var rows []AccountLedgerRow
	err := q.SelectContext(ctx, &rows, `
		SELECT e.id AS entry_id, t.id AS transaction_id, t.date, t.description, t.reference, t.status, e.amount, e.reconciled
		FROM transaction_entries e
		JOIN transactions t ON t.id = e.transaction_id
		WHERE e.account_id = $1
		  AND t.status IN ('posted', 'reconciled')
		  AND NOT e.reconciled
		  AND t.date <= $2
		ORDER BY t.date, e.id
	`, accountID, through)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkReconciled flags the listed entries of one account as reconciled.
func (s *LedgerStore) MarkReconciled(ctx context.Context, tx Execer, accountID string, entryIDs []string, date time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE transaction_entries
		SET reconciled = TRUE, reconciled_date = $1
		WHERE account_id = $2 AND id = ANY($3) AND NOT reconciled
	`, date, accountID, pq.Array(entryIDs))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReconciledBalance sums reconciled entries on the account.
func (s *LedgerStore) ReconciledBalance(ctx context.Context, q Getter, accountID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := q.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(amount), 0)
		FROM transaction_entries
		WHERE account_id = $1 AND reconciled
	`, accountID)
	return sum, err
}

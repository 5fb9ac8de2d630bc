package store

import (
	"context"

	"lynkledger/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type AccountStore struct {
	db DB
}

const accountColumns = `id, organization_id, name, code, description, account_type, subtype, parent_id,
	current_balance, available_balance, currency, is_active, is_archived, created_by, created_at, updated_at`

// AccountBalanceCheck compares the cached balance with the booked entries.
type AccountBalanceCheck struct {
	ID                string          `db:"id" json:"id"`
	Code              string          `db:"code" json:"code"`
	Name              string          `db:"name" json:"name"`
	StoredBalance     decimal.Decimal `db:"stored_balance" json:"stored_balance"`
	CalculatedBalance decimal.Decimal `db:"calculated_balance" json:"calculated_balance"`
	Difference        decimal.Decimal `db:"difference" json:"difference"`
}

func NewAccountStore(db DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Create(ctx context.Context, tx Execer, a models.Account) error {
	query := `
		INSERT INTO accounts (id, organization_id, name, code, description, account_type, subtype, parent_id, currency, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := tx.ExecContext(ctx, query,
		a.ID, a.OrganizationID, a.Name, a.Code, a.Description, a.Type, a.Subtype, a.ParentID,
		a.Currency, a.IsActive, a.CreatedBy,
	)
	return err
}

func (s *AccountStore) GetByID(ctx context.Context, orgID, accountID string) (models.Account, error) {
	var row models.Account
	err := s.db.GetContext(ctx, &row, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1 AND organization_id = $2
	`, accountID, orgID)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

func (s *AccountStore) List(ctx context.Context, orgID string, includeArchived bool) ([]models.Account, error) {
	var rows []models.Account
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE organization_id = $1 AND ($2 OR NOT is_archived)
		ORDER BY code
	`, orgID, includeArchived)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByIDs loads accounts regardless of organization so callers can tell a
// missing account from one owned by another organization.
func (s *AccountStore) ListByIDs(ctx context.Context, q Selecter, ids []string) ([]models.Account, error) {
	var rows []models.Account
	err := q.SelectContext(ctx, &rows, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *AccountStore) GetForUpdate(ctx context.Context, tx Getter, accountID string) (models.Account, error) {
	var row models.Account
	err := tx.GetContext(ctx, &row, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`, accountID)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

// AdjustBalance adds delta to the cached balance. Only posting calls it.
func (s *AccountStore) AdjustBalance(ctx context.Context, tx Execer, accountID string, delta decimal.Decimal) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET current_balance = current_balance + $1,
		    available_balance = available_balance + $1,
		    updated_at = NOW()
		WHERE id = $2
	`, delta, accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ParentMap returns child id to parent id for every parented account.
func (s *AccountStore) ParentMap(ctx context.Context, orgID string) (map[string]string, error) {
	var rows []struct {
		ID       string `db:"id"`
		ParentID string `db:"parent_id"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, parent_id
		FROM accounts
		WHERE organization_id = $1 AND parent_id IS NOT NULL
	`, orgID)
	if err != nil {
		return nil, err
	}
	parents := make(map[string]string, len(rows))
	for _, row := range rows {
		parents[row.ID] = row.ParentID
	}
	return parents, nil
}

func (s *AccountStore) SetParent(ctx context.Context, tx Execer, orgID, accountID string, parentID *string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET parent_id = $1, updated_at = NOW()
		WHERE id = $2 AND organization_id = $3
	`, parentID, accountID, orgID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *AccountStore) Archive(ctx context.Context, tx Execer, orgID, accountID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET is_archived = TRUE, is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2
	`, accountID, orgID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// References counts rows that protect the account from deletion.
func (s *AccountStore) References(ctx context.Context, q Getter, accountID string) (int, error) {
	var count int
	err := q.GetContext(ctx, &count, `
		SELECT (SELECT COUNT(*) FROM transaction_entries WHERE account_id = $1)
		     + (SELECT COUNT(*) FROM invoice_items WHERE income_account_id = $1 OR tax_account_id = $1)
		     + (SELECT COUNT(*) FROM payments WHERE bank_account_id = $1)
		     + (SELECT COUNT(*) FROM tax_rates WHERE sales_tax_account_id = $1 OR purchase_tax_account_id = $1)
		     + (SELECT COUNT(*) FROM budget_items WHERE account_id = $1)
	`, accountID)
	return count, err
}

func (s *AccountStore) Delete(ctx context.Context, tx Execer, orgID, accountID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1 AND organization_id = $2`, accountID, orgID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// BalanceChecks compares every account's cached balance with the sum of its
// posted and reconciled entries.
func (s *AccountStore) BalanceChecks(ctx context.Context, orgID string) ([]AccountBalanceCheck, error) {
	var rows []AccountBalanceCheck
	err := s.db.SelectContext(ctx, &rows, `
		SELECT a.id,
		       a.code,
		       a.name,
		       a.current_balance AS stored_balance,
		       COALESCE(SUM(e.amount) FILTER (WHERE t.status IN ('posted', 'reconciled')), 0) AS calculated_balance,
		       a.current_balance - COALESCE(SUM(e.amount) FILTER (WHERE t.status IN ('posted', 'reconciled')), 0) AS difference
		FROM accounts a
		LEFT JOIN transaction_entries e ON e.account_id = a.id
		LEFT JOIN transactions t ON t.id = e.transaction_id
		WHERE a.organization_id = $1
		GROUP BY a.id, a.code, a.name, a.current_balance
		ORDER BY a.code
	`, orgID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

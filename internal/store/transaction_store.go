package store

import (
	"context"

	"lynkledger/internal/models"
)

type TransactionStore struct {
	db DB
}

const transactionColumns = `id, organization_id, date, description, reference, status, is_recurring, recurrence_type,
	recurrence_end_date, tags, reversal_of, created_by, approved_by, created_at, updated_at`

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

func (s *TransactionStore) Create(ctx context.Context, tx Execer, t models.Transaction) error {
	query := `
		INSERT INTO transactions (id, organization_id, date, description, reference, status, is_recurring,
		                          recurrence_type, recurrence_end_date, tags, reversal_of, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := tx.ExecContext(ctx, query,
		t.ID, t.OrganizationID, t.Date, t.Description, t.Reference, t.Status, t.IsRecurring,
		t.RecurrenceType, t.RecurrenceEndDate, t.Tags, t.ReversalOf, t.CreatedBy,
	)
	return err
}

func (s *TransactionStore) GetByID(ctx context.Context, orgID, transactionID string) (models.Transaction, error) {
	var row models.Transaction
	err := s.db.GetContext(ctx, &row, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = $1 AND organization_id = $2
	`, transactionID, orgID)
	if err != nil {
		return models.Transaction{}, err
	}
	return row, nil
}

func (s *TransactionStore) GetForUpdate(ctx context.Context, tx Getter, orgID, transactionID string) (models.Transaction, error) {
	var row models.Transaction
	err := tx.GetContext(ctx, &row, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = $1 AND organization_id = $2
		FOR UPDATE
	`, transactionID, orgID)
	if err != nil {
		return models.Transaction{}, err
	}
	return row, nil
}

// UpdateStatus moves a transaction from one status to another. Zero rows
// affected means another caller changed the status first.
func (s *TransactionStore) UpdateStatus(ctx context.Context, tx Execer, transactionID string, from, to models.TransactionStatus) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, to, transactionID, from)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *TransactionStore) Approve(ctx context.Context, tx Execer, transactionID string, from models.TransactionStatus, approvedBy string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET status = 'approved', approved_by = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, approvedBy, transactionID, from)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *TransactionStore) Touch(ctx context.Context, tx Execer, transactionID string) error {
	_, err := tx.ExecContext(ctx, `UPDATE transactions SET updated_at = NOW() WHERE id = $1`, transactionID)
	return err
}

type TransactionFilter struct {
	Status string
	Limit  int
	Offset int
}

func (s *TransactionStore) List(ctx context.Context, orgID string, filter TransactionFilter) ([]models.Transaction, error) {
	var rows []models.Transaction
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE organization_id = $1
	`
	args := []any{orgID}
	param := 2
	if filter.Status != "" {
		query += " AND status = $2"
		args = append(args, filter.Status)
		param = 3
	}
	query += " ORDER BY date DESC, created_at DESC LIMIT $" + itoa(param) + " OFFSET $" + itoa(param+1)
	args = append(args, filter.Limit, filter.Offset)
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

package store

import (
	"context"

	"lynkledger/internal/models"
)

type PaymentStore struct {
	db DB
}

const paymentColumns = `id, organization_id, invoice_id, date, amount, currency, exchange_rate, payment_method, status,
	reference, bank_account_id, notes, created_by, created_at, updated_at`

func NewPaymentStore(db DB) *PaymentStore {
	return &PaymentStore{db: db}
}

func (s *PaymentStore) Create(ctx context.Context, tx Execer, p models.Payment) error {
	query := `
		INSERT INTO payments (id, organization_id, invoice_id, date, amount, currency, exchange_rate, payment_method,
		                      status, reference, bank_account_id, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := tx.ExecContext(ctx, query,
		p.ID, p.OrganizationID, p.InvoiceID, p.Date, p.Amount, p.Currency, p.ExchangeRate, p.Method,
		p.Status, p.Reference, p.BankAccountID, p.Notes, p.CreatedBy,
	)
	return err
}

func (s *PaymentStore) GetByID(ctx context.Context, orgID, paymentID string) (models.Payment, error) {
	var row models.Payment
	err := s.db.GetContext(ctx, &row, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE id = $1 AND organization_id = $2
	`, paymentID, orgID)
	if err != nil {
		return models.Payment{}, err
	}
	return row, nil
}

func (s *PaymentStore) GetForUpdate(ctx context.Context, tx Getter, orgID, paymentID string) (models.Payment, error) {
	var row models.Payment
	err := tx.GetContext(ctx, &row, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE id = $1 AND organization_id = $2
		FOR UPDATE
	`, paymentID, orgID)
	if err != nil {
		return models.Payment{}, err
	}
	return row, nil
}

func (s *PaymentStore) ListByInvoice(ctx context.Context, q Selecter, invoiceID string) ([]models.Payment, error) {
	var rows []models.Payment
	err := q.SelectContext(ctx, &rows, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE invoice_id = $1
		ORDER BY date, created_at
	`, invoiceID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *PaymentStore) Payments(ctx context.Context, invoiceID string) ([]models.Payment, error) {
	return s.ListByInvoice(ctx, s.db, invoiceID)
}

func (s *PaymentStore) UpdateStatus(ctx context.Context, tx Execer, paymentID string, from, to models.PaymentStatus) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE payments
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, to, paymentID, from)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

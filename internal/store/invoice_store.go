package store

import (
	"context"
	"time"

	"lynkledger/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type InvoiceStore struct {
	db DB
}

const invoiceColumns = `id, organization_id, invoice_type, number, reference, date, due_date,
	party_name, party_tax_id, party_address, party_email, party_phone,
	subtotal, tax_amount, total, amount_paid, currency, exchange_rate, notes, terms, status,
	created_by, created_at, updated_at`

const invoiceItemColumns = `id, invoice_id, description, quantity, unit_price, discount_rate, tax_rate, tax_rate_id,
	income_account_id, tax_account_id, amount, tax_amount`

func NewInvoiceStore(db DB) *InvoiceStore {
	return &InvoiceStore{db: db}
}

func (s *InvoiceStore) Create(ctx context.Context, tx Execer, inv models.Invoice) error {
	query := `
		INSERT INTO invoices (id, organization_id, invoice_type, number, reference, date, due_date,
		                      party_name, party_tax_id, party_address, party_email, party_phone,
		                      subtotal, tax_amount, total, amount_paid, currency, exchange_rate, notes, terms, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`
	_, err := tx.ExecContext(ctx, query,
		inv.ID, inv.OrganizationID, inv.Type, inv.Number, inv.Reference, inv.Date, inv.DueDate,
		inv.Name, inv.TaxID, inv.Address, inv.Email, inv.Phone,
		inv.Subtotal, inv.TaxAmount, inv.Total, inv.AmountPaid, inv.Currency, inv.ExchangeRate,
		inv.Notes, inv.Terms, inv.Status, inv.CreatedBy,
	)
	return err
}

func (s *InvoiceStore) InsertItems(ctx context.Context, tx Execer, items []models.InvoiceItem) error {
	query := `
		INSERT INTO invoice_items (id, invoice_id, description, quantity, unit_price, discount_rate, tax_rate, tax_rate_id,
		                           income_account_id, tax_account_id, amount, tax_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	for _, item := range items {
		if _, err := tx.ExecContext(ctx, query,
			item.ID, item.InvoiceID, item.Description, item.Quantity, item.UnitPrice, item.DiscountRate,
			item.TaxRate, item.TaxRateID, item.IncomeAccountID, item.TaxAccountID, item.Amount, item.TaxAmount,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *InvoiceStore) DeleteItems(ctx context.Context, tx Execer, invoiceID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, invoiceID)
	return err
}

func (s *InvoiceStore) Items(ctx context.Context, q Selecter, invoiceID string) ([]models.InvoiceItem, error) {
	var rows []models.InvoiceItem
	err := q.SelectContext(ctx, &rows, `
		SELECT `+invoiceItemColumns+`
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY id
	`, invoiceID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *InvoiceStore) GetByID(ctx context.Context, orgID, invoiceID string) (models.Invoice, error) {
	var row models.Invoice
	err := s.db.GetContext(ctx, &row, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE id = $1 AND organization_id = $2
	`, invoiceID, orgID)
	if err != nil {
		return models.Invoice{}, err
	}
	row.Items, err = s.Items(ctx, s.db, row.ID)
	if err != nil {
		return models.Invoice{}, err
	}
	return row, nil
}

// GetForUpdate locks the invoice row and loads its items inside tx.
func (s *InvoiceStore) GetForUpdate(ctx context.Context, tx Tx, orgID, invoiceID string) (models.Invoice, error) {
	var row models.Invoice
	err := tx.GetContext(ctx, &row, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE id = $1 AND organization_id = $2
		FOR UPDATE
	`, invoiceID, orgID)
	if err != nil {
		return models.Invoice{}, err
	}
	row.Items, err = s.Items(ctx, tx, row.ID)
	if err != nil {
		return models.Invoice{}, err
	}
	return row, nil
}

type InvoiceFilter struct {
	Type     string
	Statuses []string
	Limit    int
	Offset   int
}

func (s *InvoiceStore) List(ctx context.Context, orgID string, filter InvoiceFilter) ([]models.Invoice, error) {
	var rows []models.Invoice
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE organization_id = $1
	`
	args := []any{orgID}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += " AND invoice_type = $" + itoa(len(args))
	}
	if len(filter.Statuses) > 0 {
		args = append(args, pq.Array(filter.Statuses))
		query += " AND status = ANY($" + itoa(len(args)) + ")"
	}
	query += " ORDER BY date DESC, number DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += " LIMIT $" + itoa(len(args)-1) + " OFFSET $" + itoa(len(args))
	}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// OpenAsOf lists sent, partially paid and overdue invoices of one type dated
// on or before asOf.
func (s *InvoiceStore) OpenAsOf(ctx context.Context, orgID string, invoiceType models.InvoiceType, asOf time.Time) ([]models.Invoice, error) {
	var rows []models.Invoice
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE organization_id = $1
		  AND invoice_type = $2
		  AND status IN ('sent', 'partially_paid', 'overdue')
		  AND date <= $3
		ORDER BY due_date, number
	`, orgID, invoiceType, asOf)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *InvoiceStore) UpdateTotals(ctx context.Context, tx Execer, inv models.Invoice) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE invoices
		SET subtotal = $1, tax_amount = $2, total = $3, updated_at = NOW()
		WHERE id = $4
	`, inv.Subtotal, inv.TaxAmount, inv.Total, inv.ID)
	return err
}

// UpdateStatus is guarded on the status the caller read.
func (s *InvoiceStore) UpdateStatus(ctx context.Context, tx Execer, invoiceID string, from, to models.InvoiceStatus) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE invoices
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, to, invoiceID, from)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *InvoiceStore) UpdatePaid(ctx context.Context, tx Execer, invoiceID string, paid decimal.Decimal, status models.InvoiceStatus) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE invoices
		SET amount_paid = $1, status = $2, updated_at = NOW()
		WHERE id = $3
	`, paid, status, invoiceID)
	return err
}

// CountByPrefix counts invoice numbers starting with prefix, for numbering.
func (s *InvoiceStore) CountByPrefix(ctx context.Context, q Getter, orgID, prefix string) (int, error) {
	var count int
	err := q.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM invoices
		WHERE organization_id = $1 AND number LIKE $2
	`, orgID, prefix+"%")
	return count, err
}

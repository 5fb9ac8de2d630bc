package store

import (
	"context"
	"time"

	"lynkledger/internal/models"
)

type RecurringStore struct {
	db DB
}

const recurringColumns = `id, organization_id, name, invoice_type, start_date, end_date, frequency, next_date,
	party_name, party_tax_id, party_address, party_email, party_phone,
	currency, terms, notes, is_active, auto_send, days_due, created_by, created_at`

const recurringItemColumns = `id, recurring_invoice_id, description, quantity, unit_price, discount_rate, tax_rate,
	tax_rate_id, income_account_id, tax_account_id`

func NewRecurringStore(db DB) *RecurringStore {
	return &RecurringStore{db: db}
}

func (s *RecurringStore) Create(ctx context.Context, tx Execer, r models.RecurringInvoice) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO recurring_invoices (id, organization_id, name, invoice_type, start_date, end_date, frequency, next_date,
		                                party_name, party_tax_id, party_address, party_email, party_phone,
		                                currency, terms, notes, is_active, auto_send, days_due, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`,
		r.ID, r.OrganizationID, r.Name, r.InvoiceType, r.StartDate, r.EndDate, r.Frequency, r.NextDate,
		r.Party.Name, r.TaxID, r.Address, r.Email, r.Phone,
		r.Currency, r.Terms, r.Notes, r.IsActive, r.AutoSend, r.DaysDue, r.CreatedBy,
	)
	if err != nil {
		return err
	}
	for _, item := range r.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recurring_invoice_items (id, recurring_invoice_id, description, quantity, unit_price, discount_rate,
			                                     tax_rate, tax_rate_id, income_account_id, tax_account_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			item.ID, r.ID, item.Description, item.Quantity, item.UnitPrice, item.DiscountRate,
			item.TaxRate, item.TaxRateID, item.IncomeAccountID, item.TaxAccountID,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *RecurringStore) items(ctx context.Context, q Selecter, templateID string) ([]models.RecurringInvoiceItem, error) {
	var rows []models.RecurringInvoiceItem
	err := q.SelectContext(ctx, &rows, `
		SELECT `+recurringItemColumns+`
		FROM recurring_invoice_items
		WHERE recurring_invoice_id = $1
		ORDER BY id
	`, templateID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *RecurringStore) GetByID(ctx context.Context, orgID, templateID string) (models.RecurringInvoice, error) {
	var row models.RecurringInvoice
	err := s.db.GetContext(ctx, &row, `
		SELECT `+recurringColumns+`
		FROM recurring_invoices
		WHERE id = $1 AND organization_id = $2
	`, templateID, orgID)
	if err != nil {
		return models.RecurringInvoice{}, err
	}
	row.Items, err = s.items(ctx, s.db, row.ID)
	if err != nil {
		return models.RecurringInvoice{}, err
	}
	return row, nil
}

// GetForUpdate locks the template row and loads its items inside tx.
func (s *RecurringStore) GetForUpdate(ctx context.Context, tx Tx, orgID, templateID string) (models.RecurringInvoice, error) {
	var row models.RecurringInvoice
	err := tx.GetContext(ctx, &row, `
		SELECT `+recurringColumns+`
		FROM recurring_invoices
		WHERE id = $1 AND organization_id = $2
		FOR UPDATE
	`, templateID, orgID)
	if err != nil {
		return models.RecurringInvoice{}, err
	}
	row.Items, err = s.items(ctx, tx, row.ID)
	if err != nil {
		return models.RecurringInvoice{}, err
	}
	return row, nil
}

func (s *RecurringStore) List(ctx context.Context, orgID string) ([]models.RecurringInvoice, error) {
	var rows []models.RecurringInvoice
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+recurringColumns+`
		FROM recurring_invoices
		WHERE organization_id = $1
		ORDER BY next_date, name
	`, orgID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListDue returns ids of active templates whose next date is on or before
// asOf and whose end date, if any, is not before asOf.
func (s *RecurringStore) ListDue(ctx context.Context, orgID string, asOf time.Time) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids, `
		SELECT id
		FROM recurring_invoices
		WHERE organization_id = $1
		  AND is_active
		  AND next_date <= $2
		  AND (end_date IS NULL OR end_date >= $2)
		ORDER BY next_date, id
	`, orgID, asOf)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *RecurringStore) UpdateSchedule(ctx context.Context, tx Execer, templateID string, next time.Time, active bool) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE recurring_invoices
		SET next_date = $1, is_active = $2
		WHERE id = $3
	`, next, active, templateID)
	return err
}

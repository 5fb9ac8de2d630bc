package store

import (
	"context"

	"lynkledger/internal/models"
)

type TaxRateStore struct {
	db DB
}

const taxRateColumns = `id, organization_id, name, description, rate, is_compound, is_recoverable, is_active,
	sales_tax_account_id, purchase_tax_account_id, created_at`

func NewTaxRateStore(db DB) *TaxRateStore {
	return &TaxRateStore{db: db}
}

func (s *TaxRateStore) Create(ctx context.Context, tx Execer, t models.TaxRate) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO tax_rates (id, organization_id, name, description, rate, is_compound, is_recoverable, is_active,
		                       sales_tax_account_id, purchase_tax_account_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		t.ID, t.OrganizationID, t.Name, t.Description, t.Rate, t.IsCompound, t.IsRecoverable, t.IsActive,
		t.SalesTaxAccountID, t.PurchaseTaxAccountID,
	)
	return err
}

func (s *TaxRateStore) GetByID(ctx context.Context, orgID, taxRateID string) (models.TaxRate, error) {
	var row models.TaxRate
	err := s.db.GetContext(ctx, &row, `
		SELECT `+taxRateColumns+`
		FROM tax_rates
		WHERE id = $1 AND organization_id = $2
	`, taxRateID, orgID)
	if err != nil {
		return models.TaxRate{}, err
	}
	return row, nil
}

func (s *TaxRateStore) List(ctx context.Context, orgID string) ([]models.TaxRate, error) {
	var rows []models.TaxRate
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+taxRateColumns+`
		FROM tax_rates
		WHERE organization_id = $1
		ORDER BY name
	`, orgID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// References counts invoice and template items using the rate.
func (s *TaxRateStore) References(ctx context.Context, q Getter, taxRateID string) (int, error) {
	var count int
	err := q.GetContext(ctx, &count, `
		SELECT (SELECT COUNT(*) FROM invoice_items WHERE tax_rate_id = $1)
		     + (SELECT COUNT(*) FROM recurring_invoice_items WHERE tax_rate_id = $1)
	`, taxRateID)
	return count, err
}

func (s *TaxRateStore) Delete(ctx context.Context, tx Execer, orgID, taxRateID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM tax_rates WHERE id = $1 AND organization_id = $2`, taxRateID, orgID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

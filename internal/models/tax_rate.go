package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TaxRate struct {
	ID                   string          `db:"id" json:"id"`
	OrganizationID       string          `db:"organization_id" json:"organization_id"`
	Name                 string          `db:"name" json:"name"`
	Description          string          `db:"description" json:"description"`
	Rate                 decimal.Decimal `db:"rate" json:"rate"`
	IsCompound           bool            `db:"is_compound" json:"is_compound"`
	IsRecoverable        bool            `db:"is_recoverable" json:"is_recoverable"`
	IsActive             bool            `db:"is_active" json:"is_active"`
	SalesTaxAccountID    *string         `db:"sales_tax_account_id" json:"sales_tax_account_id,omitempty"`
	PurchaseTaxAccountID *string         `db:"purchase_tax_account_id" json:"purchase_tax_account_id,omitempty"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
}

func (t TaxRate) Validate() error {
	if t.Name == "" {
		return invalid("name", "is required")
	}
	if t.Rate.IsNegative() || t.Rate.GreaterThan(hundred) {
		return invalid("rate", "must be between 0 and 100")
	}
	return nil
}

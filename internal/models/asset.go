package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DepreciationMethod string

const (
	StraightLine     DepreciationMethod = "straight_line"
	DecliningBalance DepreciationMethod = "declining_balance"
	SumOfYearsDigits DepreciationMethod = "sum_of_years"
)

func (m DepreciationMethod) Valid() bool {
	return m == StraightLine || m == DecliningBalance || m == SumOfYearsDigits
}

type AssetStatus string

const (
	AssetActive     AssetStatus = "active"
	AssetDisposed   AssetStatus = "disposed"
	AssetSold       AssetStatus = "sold"
	AssetWrittenOff AssetStatus = "written_off"
)

type FixedAsset struct {
	ID                      string              `db:"id" json:"id"`
	OrganizationID          string              `db:"organization_id" json:"organization_id"`
	Name                    string              `db:"name" json:"name"`
	AssetNumber             string              `db:"asset_number" json:"asset_number"`
	Description             string              `db:"description" json:"description"`
	PurchaseDate            time.Time           `db:"purchase_date" json:"purchase_date"`
	PurchaseCost            decimal.Decimal     `db:"purchase_cost" json:"purchase_cost"`
	UsefulLifeYears         int                 `db:"useful_life_years" json:"useful_life_years"`
	SalvageValue            decimal.Decimal     `db:"salvage_value" json:"salvage_value"`
	DepreciationMethod      DepreciationMethod  `db:"depreciation_method" json:"depreciation_method"`
	Status                  AssetStatus         `db:"status" json:"status"`
	CurrentValue            decimal.Decimal     `db:"current_value" json:"current_value"`
	AccumulatedDepreciation decimal.Decimal     `db:"accumulated_depreciation" json:"accumulated_depreciation"`
	AssetAccountID          *string             `db:"asset_account_id" json:"asset_account_id,omitempty"`
	Location                string              `db:"location" json:"location"`
	DisposalDate            *time.Time          `db:"disposal_date" json:"disposal_date,omitempty"`
	DisposalValue           decimal.NullDecimal `db:"disposal_value" json:"disposal_value"`
	CreatedAt               time.Time           `db:"created_at" json:"created_at"`
}

func (a FixedAsset) Validate() error {
	if a.Name == "" {
		return invalid("name", "is required")
	}
	if a.AssetNumber == "" {
		return invalid("asset_number", "is required")
	}
	if a.PurchaseDate.IsZero() {
		return invalid("purchase_date", "is required")
	}
	if a.PurchaseCost.IsNegative() {
		return invalid("purchase_cost", "must not be negative")
	}
	if a.SalvageValue.IsNegative() {
		return invalid("salvage_value", "must not be negative")
	}
	if a.UsefulLifeYears < 1 {
		return invalid("useful_life_years", "must be at least 1")
	}
	if !a.DepreciationMethod.Valid() {
		return invalid("depreciation_method", "unknown method")
	}
	return nil
}

// Dispose retires an active asset at the given value.
func (a *FixedAsset) Dispose(date time.Time, value decimal.Decimal) error {
	if a.Status != AssetActive {
		return ErrAssetNotActive
	}
	if value.IsNegative() {
		return invalid("disposal_value", "must not be negative")
	}
	a.Status = AssetDisposed
	a.DisposalDate = &date
	a.DisposalValue = decimal.NullDecimal{Decimal: value, Valid: true}
	a.CurrentValue = value
	return nil
}

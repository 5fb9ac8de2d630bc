// Package depreciation computes fixed-asset value decay. Every function is a
// pure function of the asset attributes and a date.
package depreciation

import (
	"math"
	"time"

	"lynkledger/internal/models"
	"lynkledger/internal/money"

	"github.com/shopspring/decimal"
)

const daysPerYear = 365.25

// YearsHeld is the elapsed time between purchase and asOf in years, clamped
// into [0, useful life].
func YearsHeld(asset models.FixedAsset, asOf time.Time) float64 {
	days := math.Floor(asOf.Sub(asset.PurchaseDate).Hours() / 24)
	years := days / daysPerYear
	life := float64(asset.UsefulLifeYears)
	switch {
	case years < 0:
		return 0
	case years > life:
		return life
	}
	return years
}

// DepreciableAmount is purchase cost less salvage, floored at zero.
func DepreciableAmount(asset models.FixedAsset) decimal.Decimal {
	amount := asset.PurchaseCost.Sub(asset.SalvageValue)
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// Calculate returns the depreciation of asset as of asOf, rounded to cents.
// Inactive assets and assets without a useful life depreciate by zero.
func Calculate(asset models.FixedAsset, asOf time.Time) decimal.Decimal {
	if asset.Status != models.AssetActive || asset.UsefulLifeYears < 1 {
		return decimal.Zero
	}
	factor := Factor(asset.DepreciationMethod, asset.UsefulLifeYears, YearsHeld(asset, asOf))
	return money.Round(DepreciableAmount(asset).Mul(factor))
}

// Factor is the share of the depreciable amount written off after
// yearsHeld years of a life of life years. It is always within [0, 1].
func Factor(method models.DepreciationMethod, life int, yearsHeld float64) decimal.Decimal {
	if life < 1 {
		return decimal.Zero
	}
	l := float64(life)
	var f float64
	switch method {
	case models.StraightLine:
		f = yearsHeld / l
	case models.DecliningBalance:
		base := 1 - 2/l
		if base < 0 {
			base = 0
		}
		f = 1 - math.Pow(base, yearsHeld)
	case models.SumOfYearsDigits:
		f = (l - yearsHeld) / (l * (l + 1) / 2)
	default:
		return decimal.Zero
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return decimal.Zero
	}
	if f > 1 {
		f = 1
	}
	return decimal.NewFromFloat(f)
}

type ScheduleRow struct {
	Year         int             `json:"year"`
	AsOf         time.Time       `json:"as_of"`
	Depreciation decimal.Decimal `json:"depreciation"`
	BookValue    decimal.Decimal `json:"book_value"`
}

// Schedule projects the calculator at each purchase anniversary over the
// useful life, treating the asset as active. The final row always covers the
// full life.
func Schedule(asset models.FixedAsset) []ScheduleRow {
	if asset.UsefulLifeYears < 1 {
		return nil
	}
	depreciable := DepreciableAmount(asset)
	rows := make([]ScheduleRow, 0, asset.UsefulLifeYears)
	for year := 1; year <= asset.UsefulLifeYears; year++ {
		asOf := asset.PurchaseDate.AddDate(year, 0, 0)
		held := YearsHeld(asset, asOf)
		if year == asset.UsefulLifeYears {
			held = float64(year)
		}
		amount := money.Round(depreciable.Mul(Factor(asset.DepreciationMethod, asset.UsefulLifeYears, held)))
		rows = append(rows, ScheduleRow{
			Year:         year,
			AsOf:         asOf,
			Depreciation: amount,
			BookValue:    asset.PurchaseCost.Sub(amount),
		})
	}
	return rows
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BudgetPeriod string

const (
	BudgetMonthly   BudgetPeriod = "monthly"
	BudgetQuarterly BudgetPeriod = "quarterly"
	BudgetYearly    BudgetPeriod = "yearly"
)

type Budget struct {
	ID             string       `db:"id" json:"id"`
	OrganizationID string       `db:"organization_id" json:"organization_id"`
	Name           string       `db:"name" json:"name"`
	Description    string       `db:"description" json:"description"`
	StartDate      time.Time    `db:"start_date" json:"start_date"`
	EndDate        time.Time    `db:"end_date" json:"end_date"`
	Period         BudgetPeriod `db:"period" json:"period"`
	IsActive       bool         `db:"is_active" json:"is_active"`
	CreatedBy      string       `db:"created_by" json:"created_by"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	Items          []BudgetItem `db:"-" json:"items"`
}

type BudgetItem struct {
	ID            string              `db:"id" json:"id"`
	BudgetID      string              `db:"budget_id" json:"budget_id"`
	AccountID     string              `db:"account_id" json:"account_id"`
	Amount        decimal.Decimal     `db:"amount" json:"amount"`
	MinimumAmount decimal.NullDecimal `db:"minimum_amount" json:"minimum_amount"`
	MaximumAmount decimal.NullDecimal `db:"maximum_amount" json:"maximum_amount"`
	Notes         string              `db:"notes" json:"notes"`
}

func (i BudgetItem) Validate() error {
	if i.AccountID == "" {
		return invalid("items.account_id", "is required")
	}
	if i.MinimumAmount.Valid && i.MaximumAmount.Valid && i.MinimumAmount.Decimal.GreaterThan(i.MaximumAmount.Decimal) {
		return invalid("items.minimum_amount", "must not exceed maximum_amount")
	}
	if i.MinimumAmount.Valid && i.Amount.LessThan(i.MinimumAmount.Decimal) {
		return invalid("items.amount", "is below minimum_amount")
	}
	if i.MaximumAmount.Valid && i.Amount.GreaterThan(i.MaximumAmount.Decimal) {
		return invalid("items.amount", "is above maximum_amount")
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Name == "" {
		return invalid("name", "is required")
	}
	switch b.Period {
	case BudgetMonthly, BudgetQuarterly, BudgetYearly:
	default:
		return invalid("period", "must be monthly, quarterly or yearly")
	}
	if b.EndDate.Before(b.StartDate) {
		return invalid("end_date", "must not be before start_date")
	}
	for _, item := range b.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

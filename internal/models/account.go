package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
	AccountEquity    AccountType = "equity"
	AccountIncome    AccountType = "income"
	AccountExpense   AccountType = "expense"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountAsset, AccountLiability, AccountEquity, AccountIncome, AccountExpense:
		return true
	}
	return false
}

// IsBalanceSheet is true for the types reported on the balance sheet.
func (t AccountType) IsBalanceSheet() bool {
	return t == AccountAsset || t == AccountLiability || t == AccountEquity
}

type AccountSubtype string

const (
	SubtypeNone        AccountSubtype = ""
	SubtypeCash        AccountSubtype = "cash"
	SubtypeBank        AccountSubtype = "bank"
	SubtypeReceivable  AccountSubtype = "receivable"
	SubtypeInventory   AccountSubtype = "inventory"
	SubtypeFixedAsset  AccountSubtype = "fixed_asset"
	SubtypePayable     AccountSubtype = "payable"
	SubtypeCreditCard  AccountSubtype = "credit_card"
	SubtypeLoan        AccountSubtype = "loan"
	SubtypeTax         AccountSubtype = "tax"
	SubtypeSales       AccountSubtype = "sales"
	SubtypeService     AccountSubtype = "service"
	SubtypeInterest    AccountSubtype = "interest"
	SubtypeCostOfGoods AccountSubtype = "cost_of_goods"
	SubtypeOperating   AccountSubtype = "operating"
	SubtypePayroll     AccountSubtype = "payroll"
)

var subtypeFamily = map[AccountSubtype]AccountType{
	SubtypeCash:        AccountAsset,
	SubtypeBank:        AccountAsset,
	SubtypeReceivable:  AccountAsset,
	SubtypeInventory:   AccountAsset,
	SubtypeFixedAsset:  AccountAsset,
	SubtypePayable:     AccountLiability,
	SubtypeCreditCard:  AccountLiability,
	SubtypeLoan:        AccountLiability,
	SubtypeTax:         AccountLiability,
	SubtypeSales:       AccountIncome,
	SubtypeService:     AccountIncome,
	SubtypeInterest:    AccountIncome,
	SubtypeCostOfGoods: AccountExpense,
	SubtypeOperating:   AccountExpense,
	SubtypePayroll:     AccountExpense,
}

// ValidFor reports whether the subtype belongs to the account type. The empty
// subtype fits every type.
func (s AccountSubtype) ValidFor(t AccountType) bool {
	if s == SubtypeNone {
		return true
	}
	family, ok := subtypeFamily[s]
	return ok && family == t
}

type Account struct {
	ID               string          `db:"id" json:"id"`
	OrganizationID   string          `db:"organization_id" json:"organization_id"`
	Name             string          `db:"name" json:"name"`
	Code             string          `db:"code" json:"code"`
	Description      string          `db:"description" json:"description"`
	Type             AccountType     `db:"account_type" json:"account_type"`
	Subtype          AccountSubtype  `db:"subtype" json:"subtype"`
	ParentID         *string         `db:"parent_id" json:"parent_id,omitempty"`
	CurrentBalance   decimal.Decimal `db:"current_balance" json:"current_balance"`
	AvailableBalance decimal.Decimal `db:"available_balance" json:"available_balance"`
	Currency         string          `db:"currency" json:"currency"`
	IsActive         bool            `db:"is_active" json:"is_active"`
	IsArchived       bool            `db:"is_archived" json:"is_archived"`
	CreatedBy        *string         `db:"created_by" json:"created_by,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// IsCash marks the accounts the cash flow report walks.
func (a Account) IsCash() bool {
	return a.Type == AccountAsset && (a.Subtype == SubtypeCash || a.Subtype == SubtypeBank)
}

func (a Account) Validate() error {
	if a.Name == "" {
		return invalid("name", "is required")
	}
	if a.Code == "" {
		return invalid("code", "is required")
	}
	if !a.Type.Valid() {
		return invalid("account_type", "unknown account type")
	}
	if !a.Subtype.ValidFor(a.Type) {
		return invalid("subtype", "does not belong to account type")
	}
	if len(a.Currency) != 3 {
		return invalid("currency", "must be a 3 letter code")
	}
	return nil
}

// CheckParent rejects a parent assignment that would make accountID its own
// ancestor. parentOf returns the stored parent of an account, if any.
func CheckParent(accountID, parentID string, parentOf func(id string) (string, bool)) error {
	if parentID == "" {
		return nil
	}
	seen := map[string]struct{}{}
	for current := parentID; current != ""; {
		if current == accountID {
			return ErrAccountCycle
		}
		if _, ok := seen[current]; ok {
			return ErrAccountCycle
		}
		seen[current] = struct{}{}
		next, ok := parentOf(current)
		if !ok {
			break
		}
		current = next
	}
	return nil
}

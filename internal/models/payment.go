package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCheck        PaymentMethod = "check"
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentDebitCard    PaymentMethod = "debit_card"
	PaymentOnline       PaymentMethod = "online"
	PaymentOther        PaymentMethod = "other"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentBankTransfer, PaymentCheck, PaymentCreditCard, PaymentDebitCard, PaymentOnline, PaymentOther:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentDraft     PaymentStatus = "draft"
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentVoided    PaymentStatus = "voided"
	PaymentRefunded  PaymentStatus = "refunded"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentDraft:     {PaymentPending, PaymentCompleted, PaymentFailed, PaymentVoided},
	PaymentPending:   {PaymentCompleted, PaymentFailed, PaymentVoided},
	PaymentCompleted: {PaymentVoided, PaymentRefunded},
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentDraft, PaymentPending, PaymentCompleted, PaymentFailed, PaymentVoided, PaymentRefunded:
		return true
	}
	return false
}

func (s PaymentStatus) Transition(next PaymentStatus) (PaymentStatus, error) {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return next, nil
		}
	}
	return s, &TransitionError{Entity: "payment", From: string(s), To: string(next)}
}

type Payment struct {
	ID             string          `db:"id" json:"id"`
	OrganizationID string          `db:"organization_id" json:"organization_id"`
	InvoiceID      string          `db:"invoice_id" json:"invoice_id"`
	Date           time.Time       `db:"date" json:"date"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	Currency       string          `db:"currency" json:"currency"`
	ExchangeRate   decimal.Decimal `db:"exchange_rate" json:"exchange_rate"`
	Method         PaymentMethod   `db:"payment_method" json:"payment_method"`
	Status         PaymentStatus   `db:"status" json:"status"`
	Reference      string          `db:"reference" json:"reference"`
	BankAccountID  *string         `db:"bank_account_id" json:"bank_account_id,omitempty"`
	Notes          string          `db:"notes" json:"notes"`
	CreatedBy      string          `db:"created_by" json:"created_by"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// ValidateAgainst checks the payment against the invoice it settles.
func (p Payment) ValidateAgainst(inv Invoice) error {
	if !p.Amount.IsPositive() {
		return invalid("amount", "must be greater than zero")
	}
	if !p.Method.Valid() {
		return invalid("payment_method", "unknown payment method")
	}
	if !inv.Status.Open() {
		return &TransitionError{Entity: "invoice", From: string(inv.Status), To: "payment"}
	}
	if p.Amount.GreaterThan(inv.BalanceDue()) {
		return invalid("amount", "exceeds balance due")
	}
	return nil
}

// PaidAmount sums completed payments.
func PaidAmount(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p.Status == PaymentCompleted {
			total = total.Add(p.Amount)
		}
	}
	return total
}

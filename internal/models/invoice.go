package models

import (
	"time"

	"lynkledger/internal/money"

	"github.com/shopspring/decimal"
)

type InvoiceType string

const (
	InvoiceSale       InvoiceType = "sale"
	InvoicePurchase   InvoiceType = "purchase"
	InvoiceCreditNote InvoiceType = "credit_note"
	InvoiceDebitNote  InvoiceType = "debit_note"
)

func (t InvoiceType) Valid() bool {
	switch t {
	case InvoiceSale, InvoicePurchase, InvoiceCreditNote, InvoiceDebitNote:
		return true
	}
	return false
}

type InvoiceStatus string

const (
	InvoiceDraft         InvoiceStatus = "draft"
	InvoiceSent          InvoiceStatus = "sent"
	InvoiceApproved      InvoiceStatus = "approved"
	InvoicePartiallyPaid InvoiceStatus = "partially_paid"
	InvoicePaid          InvoiceStatus = "paid"
	InvoiceOverdue       InvoiceStatus = "overdue"
	InvoiceVoid          InvoiceStatus = "void"
	InvoiceCancelled     InvoiceStatus = "cancelled"
)

// Open statuses accept payments and show up in aging.
func (s InvoiceStatus) Open() bool {
	return s == InvoiceSent || s == InvoicePartiallyPaid || s == InvoiceOverdue
}

// Closed statuses ignore payment-driven status derivation.
func (s InvoiceStatus) Closed() bool {
	return s == InvoiceVoid || s == InvoiceCancelled
}

type Party struct {
	Name    string `db:"party_name" json:"party_name"`
	TaxID   string `db:"party_tax_id" json:"party_tax_id"`
	Address string `db:"party_address" json:"party_address"`
	Email   string `db:"party_email" json:"party_email"`
	Phone   string `db:"party_phone" json:"party_phone"`
}

type Invoice struct {
	ID             string      `db:"id" json:"id"`
	OrganizationID string      `db:"organization_id" json:"organization_id"`
	Type           InvoiceType `db:"invoice_type" json:"type"`
	Number         string      `db:"number" json:"number"`
	Reference      string      `db:"reference" json:"reference"`
	Date           time.Time   `db:"date" json:"date"`
	DueDate        time.Time   `db:"due_date" json:"due_date"`
	Party
	Subtotal     decimal.Decimal `db:"subtotal" json:"subtotal"`
	TaxAmount    decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	Total        decimal.Decimal `db:"total" json:"total"`
	AmountPaid   decimal.Decimal `db:"amount_paid" json:"amount_paid"`
	Currency     string          `db:"currency" json:"currency"`
	ExchangeRate decimal.Decimal `db:"exchange_rate" json:"exchange_rate"`
	Notes        string          `db:"notes" json:"notes"`
	Terms        string          `db:"terms" json:"terms"`
	Status       InvoiceStatus   `db:"status" json:"status"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
	Items        []InvoiceItem   `db:"-" json:"items"`
}

type InvoiceItem struct {
	ID              string          `db:"id" json:"id"`
	InvoiceID       string          `db:"invoice_id" json:"invoice_id"`
	Description     string          `db:"description" json:"description"`
	Quantity        decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice       decimal.Decimal `db:"unit_price" json:"unit_price"`
	DiscountRate    decimal.Decimal `db:"discount_rate" json:"discount_rate"`
	TaxRate         decimal.Decimal `db:"tax_rate" json:"tax_rate"`
	TaxRateID       *string         `db:"tax_rate_id" json:"tax_rate_id,omitempty"`
	IncomeAccountID string          `db:"income_account_id" json:"income_account_id"`
	TaxAccountID    *string         `db:"tax_account_id" json:"tax_account_id,omitempty"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	TaxAmount       decimal.Decimal `db:"tax_amount" json:"tax_amount"`
}

var hundred = decimal.NewFromInt(100)

// LineAmount is quantity * unit_price * (1 - discount_rate/100) in cents.
func (i InvoiceItem) LineAmount() decimal.Decimal {
	discount := hundred.Sub(i.DiscountRate).Div(hundred)
	return money.Round(i.Quantity.Mul(i.UnitPrice).Mul(discount))
}

// LineTax is the rounded line amount times tax_rate/100.
func (i InvoiceItem) LineTax() decimal.Decimal {
	return money.Percent(i.LineAmount(), i.TaxRate)
}

func (i *InvoiceItem) Calculate() {
	i.Amount = i.LineAmount()
	i.TaxAmount = i.LineTax()
}

func (i InvoiceItem) Validate() error {
	if !i.Quantity.IsPositive() {
		return invalid("items.quantity", "must be greater than zero")
	}
	if i.UnitPrice.IsNegative() {
		return invalid("items.unit_price", "must not be negative")
	}
	if i.DiscountRate.IsNegative() || i.DiscountRate.GreaterThan(hundred) {
		return invalid("items.discount_rate", "must be between 0 and 100")
	}
	if i.TaxRate.IsNegative() {
		return invalid("items.tax_rate", "must not be negative")
	}
	if i.IncomeAccountID == "" {
		return invalid("items.income_account_id", "is required")
	}
	return nil
}

// CalculateTotals recomputes every derived amount from the items. It reads
// nothing else, so calling it twice gives the same result.
func (inv *Invoice) CalculateTotals() {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for idx := range inv.Items {
		inv.Items[idx].Calculate()
		subtotal = subtotal.Add(inv.Items[idx].Amount)
		tax = tax.Add(inv.Items[idx].TaxAmount)
	}
	inv.Subtotal = subtotal
	inv.TaxAmount = tax
	inv.Total = subtotal.Add(tax)
}

func (inv Invoice) BalanceDue() decimal.Decimal {
	return inv.Total.Sub(inv.AmountPaid)
}

func (inv Invoice) IsPaid() bool {
	return inv.AmountPaid.GreaterThanOrEqual(inv.Total)
}

func (inv Invoice) Validate() error {
	if !inv.Type.Valid() {
		return invalid("type", "unknown invoice type")
	}
	if inv.Date.IsZero() || inv.DueDate.IsZero() {
		return invalid("date", "date and due_date are required")
	}
	if inv.DueDate.Before(inv.Date) {
		return invalid("due_date", "must not be before date")
	}
	if inv.Name == "" {
		return invalid("party_name", "is required")
	}
	for _, item := range inv.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Send moves a draft with at least one item to sent.
func (inv *Invoice) Send() error {
	if inv.Status != InvoiceDraft {
		return &TransitionError{Entity: "invoice", From: string(inv.Status), To: string(InvoiceSent)}
	}
	if len(inv.Items) == 0 {
		return invalid("items", "cannot send an invoice without items")
	}
	inv.Status = InvoiceSent
	return nil
}

func (inv *Invoice) Cancel() error {
	if inv.Status == InvoicePaid || inv.Status == InvoiceCancelled {
		return &TransitionError{Entity: "invoice", From: string(inv.Status), To: string(InvoiceCancelled)}
	}
	inv.Status = InvoiceCancelled
	return nil
}

// Void is allowed only while nothing has been paid.
func (inv *Invoice) Void() error {
	switch inv.Status {
	case InvoiceDraft, InvoiceSent, InvoiceOverdue:
	default:
		return &TransitionError{Entity: "invoice", From: string(inv.Status), To: string(InvoiceVoid)}
	}
	if inv.AmountPaid.IsPositive() {
		return &TransitionError{Entity: "invoice", From: string(InvoicePartiallyPaid), To: string(InvoiceVoid)}
	}
	inv.Status = InvoiceVoid
	return nil
}

// MarkOverdue flags an open invoice whose due date is before asOf.
func (inv *Invoice) MarkOverdue(asOf time.Time) bool {
	if inv.Status != InvoiceSent && inv.Status != InvoicePartiallyPaid {
		return false
	}
	if !inv.DueDate.Before(asOf) || inv.IsPaid() {
		return false
	}
	inv.Status = InvoiceOverdue
	return true
}

// ApplyPaidAmount stores the recomputed amount_paid and derives the status.
// removal is true when a payment left the completed set.
func (inv *Invoice) ApplyPaidAmount(paid decimal.Decimal, removal bool) {
	inv.AmountPaid = paid
	if inv.Status.Closed() {
		return
	}
	switch {
	case removal && !paid.IsPositive():
		inv.Status = InvoiceSent
	case paid.IsPositive() && paid.GreaterThanOrEqual(inv.Total):
		inv.Status = InvoicePaid
	case paid.IsPositive():
		inv.Status = InvoicePartiallyPaid
	}
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// Advance moves date forward one period. Month based periods keep the day of
// month when it exists and otherwise clamp to the last day of the target month.
func (f Frequency) Advance(date time.Time) time.Time {
	switch f {
	case FrequencyDaily:
		return date.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return date.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return AddMonthsClamped(date, 1)
	case FrequencyQuarterly:
		return AddMonthsClamped(date, 3)
	default:
		return AddMonthsClamped(date, 12)
	}
}

// AddMonthsClamped adds months without rolling over into the following month.
func AddMonthsClamped(date time.Time, months int) time.Time {
	year, month, day := date.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, date.Location())
	if last := daysIn(first.Year(), first.Month(), date.Location()); day > last {
		day = last
	}
	hour, min, sec := date.Clock()
	return time.Date(first.Year(), first.Month(), day, hour, min, sec, date.Nanosecond(), date.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

type RecurringInvoice struct {
	ID             string      `db:"id" json:"id"`
	OrganizationID string      `db:"organization_id" json:"organization_id"`
	Name           string      `db:"name" json:"name"`
	InvoiceType    InvoiceType `db:"invoice_type" json:"invoice_type"`
	StartDate      time.Time   `db:"start_date" json:"start_date"`
	EndDate        *time.Time  `db:"end_date" json:"end_date,omitempty"`
	Frequency      Frequency   `db:"frequency" json:"frequency"`
	NextDate       time.Time   `db:"next_date" json:"next_date"`
	Party
	Currency  string                 `db:"currency" json:"currency"`
	Terms     string                 `db:"terms" json:"terms"`
	Notes     string                 `db:"notes" json:"notes"`
	IsActive  bool                   `db:"is_active" json:"is_active"`
	AutoSend  bool                   `db:"auto_send" json:"auto_send"`
	DaysDue   int                    `db:"days_due" json:"days_due"`
	CreatedBy string                 `db:"created_by" json:"created_by"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
	Items     []RecurringInvoiceItem `db:"-" json:"items"`
}

type RecurringInvoiceItem struct {
	ID                 string          `db:"id" json:"id"`
	RecurringInvoiceID string          `db:"recurring_invoice_id" json:"recurring_invoice_id"`
	Description        string          `db:"description" json:"description"`
	Quantity           decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice          decimal.Decimal `db:"unit_price" json:"unit_price"`
	DiscountRate       decimal.Decimal `db:"discount_rate" json:"discount_rate"`
	TaxRate            decimal.Decimal `db:"tax_rate" json:"tax_rate"`
	TaxRateID          *string         `db:"tax_rate_id" json:"tax_rate_id,omitempty"`
	IncomeAccountID    string          `db:"income_account_id" json:"income_account_id"`
	TaxAccountID       *string         `db:"tax_account_id" json:"tax_account_id,omitempty"`
}

const DefaultDaysDue = 30

func (r RecurringInvoice) Validate() error {
	if r.Name == "" {
		return invalid("name", "is required")
	}
	if !r.InvoiceType.Valid() {
		return invalid("invoice_type", "unknown invoice type")
	}
	if !r.Frequency.Valid() {
		return invalid("frequency", "unknown frequency")
	}
	if r.DaysDue < 0 {
		return invalid("days_due", "must not be negative")
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		return invalid("end_date", "must not be before start_date")
	}
	if len(r.Items) == 0 {
		return invalid("items", "at least one item is required")
	}
	return nil
}

// Ended reports whether the schedule has run out.
func (r RecurringInvoice) Ended() bool {
	return r.EndDate != nil && !r.NextDate.Before(*r.EndDate)
}

// Expired reports whether the end date lies before today.
func (r RecurringInvoice) Expired(today time.Time) bool {
	return r.EndDate != nil && r.EndDate.Before(today)
}

// Due reports whether the template should produce an invoice on today.
func (r RecurringInvoice) Due(today time.Time) bool {
	if !r.IsActive || r.NextDate.After(today) {
		return false
	}
	return !r.Expired(today)
}

// BuildInvoice stamps out an invoice for the current next_date. The caller
// assigns ids and the number.
func (r RecurringInvoice) BuildInvoice() Invoice {
	status := InvoiceDraft
	if r.AutoSend {
		status = InvoiceSent
	}
	inv := Invoice{
		OrganizationID: r.OrganizationID,
		Type:           r.InvoiceType,
		Date:           r.NextDate,
		DueDate:        r.NextDate.AddDate(0, 0, r.DaysDue),
		Party:          r.Party,
		Currency:       r.Currency,
		ExchangeRate:   decimal.NewFromInt(1),
		Notes:          r.Notes,
		Terms:          r.Terms,
		Status:         status,
		CreatedBy:      r.CreatedBy,
	}
	for _, item := range r.Items {
		inv.Items = append(inv.Items, InvoiceItem{
			Description:     item.Description,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountRate:    item.DiscountRate,
			TaxRate:         item.TaxRate,
			TaxRateID:       item.TaxRateID,
			IncomeAccountID: item.IncomeAccountID,
			TaxAccountID:    item.TaxAccountID,
		})
	}
	inv.CalculateTotals()
	return inv
}

// UpdateNextDate advances next_date by one period unless the template is
// inactive or its end date has been reached.
func (r *RecurringInvoice) UpdateNextDate() bool {
	if !r.IsActive || r.Ended() {
		return false
	}
	r.NextDate = r.Frequency.Advance(r.NextDate)
	return true
}

// PreviewDates lists the next count generation dates without mutating r.
func (r RecurringInvoice) PreviewDates(count int) []time.Time {
	dates := make([]time.Time, 0, count)
	next := r.NextDate
	for len(dates) < count {
		if r.EndDate != nil && next.After(*r.EndDate) {
			break
		}
		dates = append(dates, next)
		next = r.Frequency.Advance(next)
	}
	return dates
}

package reports

import (
	"time"

	"lynkledger/internal/models"

	"github.com/shopspring/decimal"
)

const (
	BucketCurrent = "current"
	Bucket1To30   = "1-30"
	Bucket31To60  = "31-60"
	Bucket61To90  = "61-90"
	BucketOver90  = "over_90"
)

var bucketOrder = []string{BucketCurrent, Bucket1To30, Bucket31To60, Bucket61To90, BucketOver90}

// BucketFor maps days past due onto an aging bucket. Zero or negative days
// are current.
func BucketFor(daysOverdue int) string {
	switch {
	case daysOverdue <= 0:
		return BucketCurrent
	case daysOverdue <= 30:
		return Bucket1To30
	case daysOverdue <= 60:
		return Bucket31To60
	case daysOverdue <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}

// DaysOverdue counts whole calendar days from dueDate to asOf.
func DaysOverdue(dueDate, asOf time.Time) int {
	return int(dateOnly(asOf).Sub(dateOnly(dueDate)).Hours() / 24)
}

type AgingLine struct {
	InvoiceID   string          `json:"invoice_id"`
	Number      string          `json:"invoice_number"`
	PartyName   string          `json:"party_name"`
	Date        time.Time       `json:"date"`
	DueDate     time.Time       `json:"due_date"`
	Total       decimal.Decimal `json:"total"`
	BalanceDue  decimal.Decimal `json:"balance_due"`
	DaysOverdue int             `json:"days_overdue"`
}

type AgingBucket struct {
	Name     string          `json:"name"`
	Invoices []AgingLine     `json:"invoices"`
	Total    decimal.Decimal `json:"total"`
}

type AgingReport struct {
	InvoiceType models.InvoiceType `json:"invoice_type"`
	AsOf        time.Time          `json:"as_of_date"`
	Buckets     []AgingBucket      `json:"aging"`
	Total       decimal.Decimal    `json:"total"`
}

// Bucket returns the named bucket, or an empty one.
func (r AgingReport) Bucket(name string) AgingBucket {
	for _, b := range r.Buckets {
		if b.Name == name {
			return b
		}
	}
	return AgingBucket{Name: name}
}

// Aging buckets the open invoices of invoiceType dated on or before asOf by
// days past due. Sales give receivables and purchases give payables.
func Aging(invoices []models.Invoice, invoiceType models.InvoiceType, asOf time.Time) AgingReport {
	index := make(map[string]int, len(bucketOrder))
	report := AgingReport{InvoiceType: invoiceType, AsOf: asOf}
	for i, name := range bucketOrder {
		index[name] = i
		report.Buckets = append(report.Buckets, AgingBucket{Name: name, Invoices: []AgingLine{}})
	}
	for _, inv := range invoices {
		if inv.Type != invoiceType || !inv.Status.Open() || dateOnly(inv.Date).After(dateOnly(asOf)) {
			continue
		}
		days := DaysOverdue(inv.DueDate, asOf)
		line := AgingLine{
			InvoiceID:  inv.ID,
			Number:     inv.Number,
			PartyName:  inv.Name,
			Date:       inv.Date,
			DueDate:    inv.DueDate,
			Total:      inv.Total,
			BalanceDue: inv.BalanceDue(),
		}
		if days > 0 {
			line.DaysOverdue = days
		}
		bucket := &report.Buckets[index[BucketFor(days)]]
		bucket.Invoices = append(bucket.Invoices, line)
		bucket.Total = bucket.Total.Add(line.BalanceDue)
		report.Total = report.Total.Add(line.BalanceDue)
	}
	return report
}

package reports

import (
	"time"

	"lynkledger/internal/models"

	"github.com/shopspring/decimal"
)

// TaxLine is one invoice item carrying a tax rate reference.
type TaxLine struct {
	TaxRateID     string               `db:"tax_rate_id"`
	InvoiceType   models.InvoiceType   `db:"invoice_type"`
	InvoiceStatus models.InvoiceStatus `db:"status"`
	InvoiceDate   time.Time            `db:"date"`
	TaxAmount     decimal.Decimal      `db:"tax_amount"`
}

type TaxRateSummary struct {
	TaxRateID     string          `json:"tax_rate_id"`
	Name          string          `json:"name"`
	Rate          decimal.Decimal `json:"rate"`
	IsRecoverable bool            `json:"is_recoverable"`
	Collected     decimal.Decimal `json:"tax_collected"`
	Paid          decimal.Decimal `json:"tax_paid"`
	NetTax        decimal.Decimal `json:"net_tax"`
}

type TaxTotals struct {
	Collected     decimal.Decimal `json:"tax_collected"`
	Paid          decimal.Decimal `json:"tax_paid"`
	NetTaxPayable decimal.Decimal `json:"net_tax_payable"`
}

type TaxSummaryReport struct {
	Period   Period           `json:"period"`
	TaxRates []TaxRateSummary `json:"tax_rates"`
	Totals   TaxTotals        `json:"totals"`
}

func taxable(status models.InvoiceStatus) bool {
	return status == models.InvoiceSent || status == models.InvoicePartiallyPaid ||
		status == models.InvoicePaid || status == models.InvoiceOverdue
}

// TaxSummary totals item tax per active tax rate, matched by rate id. Sales
// collect tax and purchases pay it; paid tax offsets only recoverable rates.
func TaxSummary(rates []models.TaxRate, lines []TaxLine, p Period) TaxSummaryReport {
	collected := map[string]decimal.Decimal{}
	paid := map[string]decimal.Decimal{}
	for _, line := range lines {
		if !taxable(line.InvoiceStatus) || !p.Contains(line.InvoiceDate) {
			continue
		}
		switch line.InvoiceType {
		case models.InvoiceSale:
			collected[line.TaxRateID] = collected[line.TaxRateID].Add(line.TaxAmount)
		case models.InvoicePurchase:
			paid[line.TaxRateID] = paid[line.TaxRateID].Add(line.TaxAmount)
		}
	}

	report := TaxSummaryReport{Period: p, TaxRates: []TaxRateSummary{}}
	for _, rate := range rates {
		if !rate.IsActive {
			continue
		}
		summary := TaxRateSummary{
			TaxRateID:     rate.ID,
			Name:          rate.Name,
			Rate:          rate.Rate,
			IsRecoverable: rate.IsRecoverable,
			Collected:     collected[rate.ID],
			Paid:          paid[rate.ID],
		}
		offset := decimal.Zero
		if rate.IsRecoverable {
			offset = summary.Paid
		}
		summary.NetTax = summary.Collected.Sub(offset)
		report.TaxRates = append(report.TaxRates, summary)
		report.Totals.Collected = report.Totals.Collected.Add(summary.Collected)
		report.Totals.Paid = report.Totals.Paid.Add(offset)
	}
	report.Totals.NetTaxPayable = report.Totals.Collected.Sub(report.Totals.Paid)
	return report
}

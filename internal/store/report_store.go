package store

import (
	"context"
	"time"

	"lynkledger/internal/reports"
)

// ReportStore loads the flat rows the reports package aggregates.
type ReportStore struct {
	db DB
}

func NewReportStore(db DB) *ReportStore {
	return &ReportStore{db: db}
}

// EntryRows returns every booked entry of the organization dated on or
// before end. Period filtering happens in reports.
func (s *ReportStore) EntryRows(ctx context.Context, orgID string, end time.Time) ([]reports.EntryRow, error) {
	var rows []reports.EntryRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT t.id AS transaction_id, e.account_id, t.date, t.description, e.amount, t.status, t.tags
		FROM transaction_entries e
		JOIN transactions t ON t.id = e.transaction_id
		WHERE t.organization_id = $1
		  AND t.status IN ('posted', 'reconciled')
		  AND t.date <= $2
		ORDER BY t.date, t.id, e.id
	`, orgID, end)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// TaxLines returns taxed invoice items with their invoice type, status and date.
func (s *ReportStore) TaxLines(ctx context.Context, orgID string, start, end time.Time) ([]reports.TaxLine, error) {
	var rows []reports.TaxLine
	err := s.db.SelectContext(ctx, &rows, `
		SELECT ii.tax_rate_id, i.invoice_type, i.status, i.date, ii.tax_amount
		FROM invoice_items ii
		JOIN invoices i ON i.id = ii.invoice_id
		WHERE i.organization_id = $1
		  AND ii.tax_rate_id IS NOT NULL
		  AND i.date >= $2 AND i.date <= $3
		ORDER BY i.date
	`, orgID, start, end)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

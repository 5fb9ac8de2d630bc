// Package reports builds financial statements from booked entry rows. The
// builders never touch storage; callers load rows and hand them in.
package reports

import (
	"errors"
	"sort"
	"time"

	"lynkledger/internal/models"

	"github.com/shopspring/decimal"
)

var ErrInvalidDateRange = errors.New("end date is before start date")

// EntryRow is one transaction entry joined to its transaction header.
type EntryRow struct {
	TransactionID string                   `db:"transaction_id" json:"transaction_id"`
	AccountID     string                   `db:"account_id" json:"account_id"`
	Date          time.Time                `db:"date" json:"date"`
	Description   string                   `db:"description" json:"description"`
	Amount        decimal.Decimal          `db:"amount" json:"amount"`
	Status        models.TransactionStatus `db:"status" json:"status"`
	Tags          models.Tags              `db:"tags" json:"tags"`
}

// Period is an inclusive date window. A zero Start leaves it open.
type Period struct {
	Start time.Time `json:"start_date,omitempty"`
	End   time.Time `json:"end_date"`
}

func (p Period) Validate() error {
	if !p.Start.IsZero() && dateOnly(p.End).Before(dateOnly(p.Start)) {
		return ErrInvalidDateRange
	}
	return nil
}

func (p Period) Contains(t time.Time) bool {
	d := dateOnly(t)
	if !p.Start.IsZero() && d.Before(dateOnly(p.Start)) {
		return false
	}
	return !d.After(dateOnly(p.End))
}

// AsOf is the open period ending on date.
func AsOf(date time.Time) Period {
	return Period{End: date}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// booked keeps rows of posted or reconciled transactions inside p.
func booked(rows []EntryRow, p Period) []EntryRow {
	out := make([]EntryRow, 0, len(rows))
	for _, row := range rows {
		if row.Status.Booked() && p.Contains(row.Date) {
			out = append(out, row)
		}
	}
	return out
}

// Balances sums booked amounts per account within p.
func Balances(rows []EntryRow, p Period) map[string]decimal.Decimal {
	balances := map[string]decimal.Decimal{}
	for _, row := range booked(rows, p) {
		balances[row.AccountID] = balances[row.AccountID].Add(row.Amount)
	}
	return balances
}

type AccountLine struct {
	AccountID string          `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
}

type Section struct {
	Accounts []AccountLine  `json:"accounts"`
	Total    decimal.Decimal `json:"total"`
}

func (s *Section) add(line AccountLine) {
	s.Accounts = append(s.Accounts, line)
	s.Total = s.Total.Add(line.Balance)
}

func sortedAccounts(accounts []models.Account) []models.Account {
	out := append([]models.Account(nil), accounts...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code == out[j].Code {
			return out[i].ID < out[j].ID
		}
		return out[i].Code < out[j].Code
	})
	return out
}

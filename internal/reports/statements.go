package reports

import (
	"time"

	"lynkledger/internal/models"
	"lynkledger/internal/money"

	"github.com/shopspring/decimal"
)

type TrialBalanceLine struct {
	AccountID string          `json:"account_id"`
	Code      string          `json:"account_code"`
	Name      string          `json:"account_name"`
	Debits    decimal.Decimal `json:"debits"`
	Credits   decimal.Decimal `json:"credits"`
}

type TrialBalanceTotals struct {
	Debits     decimal.Decimal `json:"debits"`
	Credits    decimal.Decimal `json:"credits"`
	Difference decimal.Decimal `json:"difference"`
}

type TrialBalanceReport struct {
	Date     time.Time          `json:"date"`
	Accounts []TrialBalanceLine `json:"accounts"`
	Totals   TrialBalanceTotals `json:"totals"`
}

// Balanced reports whether debits equal credits within money.Epsilon.
func (r TrialBalanceReport) Balanced() bool {
	return money.IsZero(r.Totals.Difference)
}

// TrialBalance splits every account's booked entries up to asOf into
// positive debits and the magnitude of negative credits. Accounts without
// activity are left out.
func TrialBalance(accounts []models.Account, rows []EntryRow, asOf time.Time) TrialBalanceReport {
	debits := map[string]decimal.Decimal{}
	credits := map[string]decimal.Decimal{}
	for _, row := range booked(rows, AsOf(asOf)) {
		if row.Amount.IsPositive() {
			debits[row.AccountID] = debits[row.AccountID].Add(row.Amount)
		} else {
			credits[row.AccountID] = credits[row.AccountID].Add(row.Amount.Abs())
		}
	}

	report := TrialBalanceReport{Date: asOf, Accounts: []TrialBalanceLine{}}
	for _, account := range sortedAccounts(accounts) {
		d, c := debits[account.ID], credits[account.ID]
		if d.IsZero() && c.IsZero() {
			continue
		}
		report.Accounts = append(report.Accounts, TrialBalanceLine{
			AccountID: account.ID,
			Code:      account.Code,
			Name:      account.Name,
			Debits:    d,
			Credits:   c,
		})
		report.Totals.Debits = report.Totals.Debits.Add(d)
		report.Totals.Credits = report.Totals.Credits.Add(c)
	}
	report.Totals.Difference = report.Totals.Debits.Sub(report.Totals.Credits)
	return report
}

type BalanceSheetReport struct {
	Date                      time.Time       `json:"date"`
	Assets                    Section         `json:"assets"`
	Liabilities               Section         `json:"liabilities"`
	Equity                    Section         `json:"equity"`
	TotalLiabilitiesAndEquity decimal.Decimal `json:"total_liabilities_and_equity"`
}

func (r BalanceSheetReport) Balanced() bool {
	return money.IsZero(r.Assets.Total.Sub(r.TotalLiabilitiesAndEquity))
}

// CurrentEarningsLine is the synthetic equity line that carries income and
// expense balances not yet closed into equity.
const CurrentEarningsLine = "current_earnings"

// BalanceSheet partitions balance sheet accounts as of asOf. Liabilities and
// equity are shown credit-positive, and unclosed income and expense net into
// a current earnings line so assets equal liabilities plus equity.
func BalanceSheet(accounts []models.Account, rows []EntryRow, asOf time.Time) BalanceSheetReport {
	balances := Balances(rows, AsOf(asOf))
	report := BalanceSheetReport{
		Date:        asOf,
		Assets:      Section{Accounts: []AccountLine{}},
		Liabilities: Section{Accounts: []AccountLine{}},
		Equity:      Section{Accounts: []AccountLine{}},
	}
	earnings := decimal.Zero
	for _, account := range sortedAccounts(accounts) {
		balance := balances[account.ID]
		line := AccountLine{AccountID: account.ID, Code: account.Code, Name: account.Name}
		switch account.Type {
		case models.AccountAsset:
			line.Balance = balance
			report.Assets.add(line)
		case models.AccountLiability:
			line.Balance = balance.Neg()
			report.Liabilities.add(line)
		case models.AccountEquity:
			line.Balance = balance.Neg()
			report.Equity.add(line)
		default:
			earnings = earnings.Sub(balance)
		}
	}
	if !earnings.IsZero() {
		report.Equity.add(AccountLine{AccountID: CurrentEarningsLine, Name: "Current earnings", Balance: earnings})
	}
	report.TotalLiabilitiesAndEquity = report.Liabilities.Total.Add(report.Equity.Total)
	return report
}

type IncomeStatementReport struct {
	Period    Period          `json:"period"`
	Income    Section         `json:"income"`
	Expenses  Section         `json:"expenses"`
	NetIncome decimal.Decimal `json:"net_income"`
}

// IncomeStatement reports income and expense accounts over p as positive
// magnitudes.
func IncomeStatement(accounts []models.Account, rows []EntryRow, p Period) IncomeStatementReport {
	balances := Balances(rows, p)
	report := IncomeStatementReport{
		Period:   p,
		Income:   Section{Accounts: []AccountLine{}},
		Expenses: Section{Accounts: []AccountLine{}},
	}
	for _, account := range sortedAccounts(accounts) {
		line := AccountLine{AccountID: account.ID, Code: account.Code, Name: account.Name, Balance: balances[account.ID].Abs()}
		switch account.Type {
		case models.AccountIncome:
			report.Income.add(line)
		case models.AccountExpense:
			report.Expenses.add(line)
		}
	}
	report.NetIncome = report.Income.Total.Sub(report.Expenses.Total)
	return report
}

type FlowItem struct {
	TransactionID string          `json:"transaction_id"`
	AccountID     string          `json:"account_id"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
}

type FlowSection struct {
	Items []FlowItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func (s *FlowSection) add(item FlowItem) {
	s.Items = append(s.Items, item)
	s.Total = s.Total.Add(item.Amount)
}

type CashFlowReport struct {
	Period      Period          `json:"period"`
	Operating   FlowSection     `json:"operating_activities"`
	Investing   FlowSection     `json:"investing_activities"`
	Financing   FlowSection     `json:"financing_activities"`
	NetCashFlow decimal.Decimal `json:"net_cash_flow"`
}

// CashFlow walks booked entries on cash and bank accounts within p and files
// each under the flow type tagged on its transaction.
func CashFlow(accounts []models.Account, rows []EntryRow, p Period) CashFlowReport {
	cash := map[string]bool{}
	for _, account := range accounts {
		if account.IsCash() {
			cash[account.ID] = true
		}
	}
	report := CashFlowReport{
		Period:    p,
		Operating: FlowSection{Items: []FlowItem{}},
		Investing: FlowSection{Items: []FlowItem{}},
		Financing: FlowSection{Items: []FlowItem{}},
	}
	for _, row := range booked(rows, p) {
		if !cash[row.AccountID] {
			continue
		}
		item := FlowItem{
			TransactionID: row.TransactionID,
			AccountID:     row.AccountID,
			Date:          row.Date,
			Description:   row.Description,
			Amount:        row.Amount,
		}
		switch row.Tags.FlowType() {
		case models.FlowInvesting:
			report.Investing.add(item)
		case models.FlowFinancing:
			report.Financing.add(item)
		default:
			report.Operating.add(item)
		}
	}
	report.NetCashFlow = report.Operating.Total.Add(report.Investing.Total).Add(report.Financing.Total)
	return report
}

// FinancialStatements bundles the three primary statements for one period.
type FinancialStatements struct {
	BalanceSheet    BalanceSheetReport    `json:"balance_sheet"`
	IncomeStatement IncomeStatementReport `json:"income_statement"`
	CashFlow        CashFlowReport        `json:"cash_flow"`
}

func Statements(accounts []models.Account, rows []EntryRow, p Period) FinancialStatements {
	return FinancialStatements{
		BalanceSheet:    BalanceSheet(accounts, rows, p.End),
		IncomeStatement: IncomeStatement(accounts, rows, p),
		CashFlow:        CashFlow(accounts, rows, p),
	}
}

package reports

import (
	"lynkledger/internal/models"
	"lynkledger/internal/money"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type BudgetLine struct {
	AccountID          string          `json:"account_id"`
	Code               string          `json:"account_code"`
	Name               string          `json:"account_name"`
	Budget             decimal.Decimal `json:"budget_amount"`
	Actual             decimal.Decimal `json:"actual_amount"`
	Variance           decimal.Decimal `json:"variance"`
	VariancePercentage decimal.Decimal `json:"variance_percentage"`
}

type BudgetTotals struct {
	Budget             decimal.Decimal `json:"budget"`
	Actual             decimal.Decimal `json:"actual"`
	Variance           decimal.Decimal `json:"variance"`
	VariancePercentage decimal.Decimal `json:"variance_percentage"`
}

type BudgetReport struct {
	Budget models.Budget `json:"budget"`
	Items  []BudgetLine  `json:"items"`
	Totals BudgetTotals  `json:"totals"`
}

// EmptyBudgetReport is the report for an organization without a matching
// budget.
func EmptyBudgetReport() BudgetReport {
	return BudgetReport{Items: []BudgetLine{}}
}

func variancePercentage(variance, planned decimal.Decimal) decimal.Decimal {
	if planned.IsZero() {
		return decimal.Zero
	}
	return money.Round(variance.Div(planned).Mul(hundred))
}

// BudgetVsActual compares each budget item with the booked entries on its
// account inside the budget window. variance = budget - actual.
func BudgetVsActual(budget models.Budget, accounts []models.Account, rows []EntryRow) BudgetReport {
	byID := make(map[string]models.Account, len(accounts))
	for _, account := range accounts {
		byID[account.ID] = account
	}
	actuals := Balances(rows, Period{Start: budget.StartDate, End: budget.EndDate})

	report := BudgetReport{Budget: budget, Items: []BudgetLine{}}
	report.Budget.Items = nil
	for _, item := range budget.Items {
		account := byID[item.AccountID]
		actual := actuals[item.AccountID]
		variance := item.Amount.Sub(actual)
		report.Items = append(report.Items, BudgetLine{
			AccountID:          item.AccountID,
			Code:               account.Code,
			Name:               account.Name,
			Budget:             item.Amount,
			Actual:             actual,
			Variance:           variance,
			VariancePercentage: variancePercentage(variance, item.Amount),
		})
		report.Totals.Budget = report.Totals.Budget.Add(item.Amount)
		report.Totals.Actual = report.Totals.Actual.Add(actual)
	}
	report.Totals.Variance = report.Totals.Budget.Sub(report.Totals.Actual)
	report.Totals.VariancePercentage = variancePercentage(report.Totals.Variance, report.Totals.Budget)
	return report
}

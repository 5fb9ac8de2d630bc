package store

import (
	"context"
	"time"

	"lynkledger/internal/models"
)

type BudgetStore struct {
	db DB
}

const budgetColumns = `id, organization_id, name, description, start_date, end_date, period, is_active, created_by, created_at`

func NewBudgetStore(db DB) *BudgetStore {
	return &BudgetStore{db: db}
}

func (s *BudgetStore) Create(ctx context.Context, tx Execer, b models.Budget) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO budgets (id, organization_id, name, description, start_date, end_date, period, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, b.ID, b.OrganizationID, b.Name, b.Description, b.StartDate, b.EndDate, b.Period, b.IsActive, b.CreatedBy)
	if err != nil {
		return err
	}
	for _, item := range b.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO budget_items (id, budget_id, account_id, amount, minimum_amount, maximum_amount, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, item.ID, b.ID, item.AccountID, item.Amount, item.MinimumAmount, item.MaximumAmount, item.Notes); err != nil {
			return err
		}
	}
	return nil
}

func (s *BudgetStore) GetByID(ctx context.Context, orgID, budgetID string) (models.Budget, error) {
	var row models.Budget
	err := s.db.GetContext(ctx, &row, `
		SELECT `+budgetColumns+`
		FROM budgets
		WHERE id = $1 AND organization_id = $2
	`, budgetID, orgID)
	if err != nil {
		return models.Budget{}, err
	}
	err = s.db.SelectContext(ctx, &row.Items, `
		SELECT id, budget_id, account_id, amount, minimum_amount, maximum_amount, notes
		FROM budget_items
		WHERE budget_id = $1
		ORDER BY id
	`, row.ID)
	if err != nil {
		return models.Budget{}, err
	}
	return row, nil
}

func (s *BudgetStore) List(ctx context.Context, orgID string) ([]models.Budget, error) {
	var rows []models.Budget
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+budgetColumns+`
		FROM budgets
		WHERE organization_id = $1
		ORDER BY start_date DESC, name
	`, orgID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ActiveOn returns ids of active budgets whose range covers date.
func (s *BudgetStore) ActiveOn(ctx context.Context, orgID string, date time.Time) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids, `
		SELECT id
		FROM budgets
		WHERE organization_id = $1 AND is_active AND start_date <= $2 AND end_date >= $2
		ORDER BY start_date
	`, orgID, date)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

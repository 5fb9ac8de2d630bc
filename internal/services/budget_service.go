package services

import (
	"context"
	"strings"
	"time"

	"lynkledger/internal/db"
	"lynkledger/internal/logger"
	"lynkledger/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

type BudgetService struct {
	txRunner db.TxRunner
	accounts AccountStore
	budgets  BudgetStore
	audit    AuditStore
	log      zerolog.Logger
}

func NewBudgetService(txRunner db.TxRunner, accounts AccountStore, budgets BudgetStore, audit AuditStore) *BudgetService {
	return &BudgetService{
		txRunner: txRunner,
		accounts: accounts,
		budgets:  budgets,
		audit:    audit,
		log:      logger.WithComponent("budgets"),
	}
}

func (s *BudgetService) Create(ctx context.Context, orgID, actorID string, b models.Budget) (models.Budget, error) {
	b.ID = uuid.NewString()
	b.OrganizationID = orgID
	b.Name = strings.TrimSpace(b.Name)
	b.CreatedBy = actorID
	b.IsActive = true
	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		return models.Budget{}, invalid("start_date", "start_date and end_date are required")
	}
	if err := b.Validate(); err != nil {
		return models.Budget{}, err
	}
	accountIDs := make([]string, 0, len(b.Items))
	for i := range b.Items {
		b.Items[i].ID = uuid.NewString()
		b.Items[i].BudgetID = b.ID
		accountIDs = append(accountIDs, b.Items[i].AccountID)
	}
	if len(distinct(accountIDs)) != len(accountIDs) {
		return models.Budget{}, invalid("items.account_id", "an account may appear once per budget")
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := orgAccounts(ctx, tx, s.accounts, orgID, accountIDs, false); err != nil {
			return err
		}
		if err := s.budgets.Create(ctx, tx, b); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, orgID, actorID, "budget.create", "budget", b.ID, auditData(map[string]string{
			"name":   b.Name,
			"period": string(b.Period),
		}))
	})
	if err != nil {
		return models.Budget{}, err
	}
	s.log.Info().Str("organization_id", orgID).Str("budget_id", b.ID).Msg("budget created")
	return b, nil
}

func (s *BudgetService) Get(ctx context.Context, orgID, budgetID string) (models.Budget, error) {
	b, err := s.budgets.GetByID(ctx, orgID, budgetID)
	if err != nil {
		return models.Budget{}, notFound(err, "budget")
	}
	return b, nil
}

func (s *BudgetService) List(ctx context.Context, orgID string) ([]models.Budget, error) {
	return s.budgets.List(ctx, orgID)
}

// ActiveOn returns the budgets whose window contains date.
func (s *BudgetService) ActiveOn(ctx context.Context, orgID string, date time.Time) ([]models.Budget, error) {
	ids, err := s.budgets.ActiveOn(ctx, orgID, date)
	if err != nil {
		return nil, err
	}
	budgets := make([]models.Budget, 0, len(ids))
	for _, id := range ids {
		b, err := s.Get(ctx, orgID, id)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, nil
}

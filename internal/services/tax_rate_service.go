package services

import (
	"context"
	"strings"

	"lynkledger/internal/db"
	"lynkledger/internal/logger"
	"lynkledger/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

type TaxRateService struct {
	txRunner db.TxRunner
	accounts AccountStore
	taxRates TaxRateStore
	audit    AuditStore
	log      zerolog.Logger
}

func NewTaxRateService(txRunner db.TxRunner, accounts AccountStore, taxRates TaxRateStore, audit AuditStore) *TaxRateService {
	return &TaxRateService{
		txRunner: txRunner,
		accounts: accounts,
		taxRates: taxRates,
		audit:    audit,
		log:      logger.WithComponent("tax_rates"),
	}
}

func (s *TaxRateService) Create(ctx context.Context, orgID, actorID string, t models.TaxRate) (models.TaxRate, error) {
	t.ID = uuid.NewString()
	t.OrganizationID = orgID
	t.Name = strings.TrimSpace(t.Name)
	t.IsActive = true
	if err := t.Validate(); err != nil {
		return models.TaxRate{}, err
	}
	var accountIDs []string
	for _, id := range []*string{t.SalesTaxAccountID, t.PurchaseTaxAccountID} {
		if id != nil && *id != "" {
			accountIDs = append(accountIDs, *id)
		}
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := orgAccounts(ctx, tx, s.accounts, orgID, distinct(accountIDs), true); err != nil {
			return err
		}
		if err := s.taxRates.Create(ctx, tx, t); err != nil {
			return conflict(err, "tax rate "+t.Name)
		}
		return s.audit.Log(ctx, tx, orgID, actorID, "tax_rate.create", "tax_rate", t.ID, auditData(map[string]string{
			"rate": t.Rate.String(),
		}))
	})
	if err != nil {
		return models.TaxRate{}, err
	}
	return t, nil
}

func (s *TaxRateService) List(ctx context.Context, orgID string) ([]models.TaxRate, error) {
	return s.taxRates.List(ctx, orgID)
}

// Delete refuses rates that invoice or template items still reference.
func (s *TaxRateService) Delete(ctx context.Context, orgID, actorID, taxRateID string) error {
	if _, err := s.taxRates.GetByID(ctx, orgID, taxRateID); err != nil {
		return notFound(err, "tax rate")
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		refs, err := s.taxRates.References(ctx, tx, taxRateID)
		if err != nil {
			return err
		}
		if refs > 0 {
			return ErrTaxRateInUse
		}
		rows, err := s.taxRates.Delete(ctx, tx, orgID, taxRateID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return missing("tax rate")
		}
		return s.audit.Log(ctx, tx, orgID, actorID, "tax_rate.delete", "tax_rate", taxRateID, "")
	})
}

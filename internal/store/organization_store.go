package store

import (
	"context"

	"lynkledger/internal/models"
)

type OrganizationStore struct {
	db DB
}

func NewOrganizationStore(db DB) *OrganizationStore {
	return &OrganizationStore{db: db}
}

func (s *OrganizationStore) Create(ctx context.Context, tx Execer, org models.Organization) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO organizations (id, name, currency)
		VALUES ($1, $2, $3)
	`, org.ID, org.Name, org.Currency)
	return err
}

func (s *OrganizationStore) GetByID(ctx context.Context, orgID string) (models.Organization, error) {
	var row models.Organization
	err := s.db.GetContext(ctx, &row, `
		SELECT id, name, currency, created_at
		FROM organizations
		WHERE id = $1
	`, orgID)
	if err != nil {
		return models.Organization{}, err
	}
	return row, nil
}

// IDs lists every organization, for jobs that sweep all tenants.
func (s *OrganizationStore) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, `SELECT id FROM organizations ORDER BY created_at`); err != nil {
		return nil, err
	}
	return ids, nil
}

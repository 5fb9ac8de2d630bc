package store

import (
	"context"

	"lynkledger/internal/models"
)

type UserStore struct {
	db DB
}

const userColumns = `id, organization_id, username, email, password_hash, role, created_at`

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, tx Execer, u models.User) error {
	query := `
		INSERT INTO users (id, organization_id, username, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query, u.ID, u.OrganizationID, u.Username, u.Email, u.PasswordHash, u.Role)
	return err
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

func (s *UserStore) ListByOrganization(ctx context.Context, orgID string) ([]models.User, error) {
	var rows []models.User
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+userColumns+`
		FROM users
		WHERE organization_id = $1
		ORDER BY username
	`, orgID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *UserStore) SetRole(ctx context.Context, tx Execer, orgID, userID string, role models.Role) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET role = $1
		WHERE id = $2 AND organization_id = $3
	`, role, userID, orgID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountOwners guards against demoting the last owner of an organization.
func (s *UserStore) CountOwners(ctx context.Context, q Getter, orgID string) (int, error) {
	var count int
	err := q.GetContext(ctx, &count, `
		SELECT COUNT(1)
		FROM users
		WHERE organization_id = $1 AND role = 'owner'
	`, orgID)
	return count, err
}

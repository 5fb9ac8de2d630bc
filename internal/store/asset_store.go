package store

import (
	"context"
	"time"

	"lynkledger/internal/models"

	"github.com/shopspring/decimal"
)

type AssetStore struct {
	db DB
}

const assetColumns = `id, organization_id, name, asset_number, description, purchase_date, purchase_cost, useful_life_years,
	salvage_value, depreciation_method, status, current_value, accumulated_depreciation, asset_account_id, location,
	disposal_date, disposal_value, created_at`

func NewAssetStore(db DB) *AssetStore {
	return &AssetStore{db: db}
}

func (s *AssetStore) Create(ctx context.Context, tx Execer, a models.FixedAsset) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO fixed_assets (id, organization_id, name, asset_number, description, purchase_date, purchase_cost,
		                          useful_life_years, salvage_value, depreciation_method, status, current_value,
		                          accumulated_depreciation, asset_account_id, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		a.ID, a.OrganizationID, a.Name, a.AssetNumber, a.Description, a.PurchaseDate, a.PurchaseCost,
		a.UsefulLifeYears, a.SalvageValue, a.DepreciationMethod, a.Status, a.CurrentValue,
		a.AccumulatedDepreciation, a.AssetAccountID, a.Location,
	)
	return err
}

func (s *AssetStore) GetByID(ctx context.Context, orgID, assetID string) (models.FixedAsset, error) {
	var row models.FixedAsset
	err := s.db.GetContext(ctx, &row, `
		SELECT `+assetColumns+`
		FROM fixed_assets
		WHERE id = $1 AND organization_id = $2
	`, assetID, orgID)
	if err != nil {
		return models.FixedAsset{}, err
	}
	return row, nil
}

func (s *AssetStore) GetForUpdate(ctx context.Context, tx Getter, orgID, assetID string) (models.FixedAsset, error) {
	var row models.FixedAsset
	err := tx.GetContext(ctx, &row, `
		SELECT `+assetColumns+`
		FROM fixed_assets
		WHERE id = $1 AND organization_id = $2
		FOR UPDATE
	`, assetID, orgID)
	if err != nil {
		return models.FixedAsset{}, err
	}
	return row, nil
}

func (s *AssetStore) List(ctx context.Context, orgID string) ([]models.FixedAsset, error) {
	var rows []models.FixedAsset
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+assetColumns+`
		FROM fixed_assets
		WHERE organization_id = $1
		ORDER BY asset_number
	`, orgID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateValues stores recalculated depreciation for an active asset.
func (s *AssetStore) UpdateValues(ctx context.Context, tx Execer, assetID string, accumulated, current decimal.Decimal) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE fixed_assets
		SET accumulated_depreciation = $1, current_value = $2
		WHERE id = $3 AND status = 'active'
	`, accumulated, current, assetID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Dispose is guarded on the asset still being active.
func (s *AssetStore) Dispose(ctx context.Context, tx Execer, assetID string, status models.AssetStatus, date time.Time, value decimal.Decimal) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE fixed_assets
		SET status = $1, disposal_date = $2, disposal_value = $3, current_value = $3
		WHERE id = $4 AND status = 'active'
	`, status, date, value, assetID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

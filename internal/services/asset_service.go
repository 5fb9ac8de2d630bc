package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"lynkledger/internal/db"
	"lynkledger/internal/depreciation"
	"lynkledger/internal/events"
	"lynkledger/internal/logger"
	"lynkledger/internal/models"
	"lynkledger/internal/money"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type AssetService struct {
	txRunner  db.TxRunner
	accounts  AccountStore
	assets    AssetStore
	audit     AuditStore
	publisher events.Publisher
	log       zerolog.Logger
}

func NewAssetService(txRunner db.TxRunner, accounts AccountStore, assets AssetStore, audit AuditStore, publisher events.Publisher) *AssetService {
	return &AssetService{
		txRunner:  txRunner,
		accounts:  accounts,
		assets:    assets,
		audit:     audit,
		publisher: publisher,
		log:       logger.WithComponent("assets"),
	}
}

func (s *AssetService) Create(ctx context.Context, orgID, actorID string, a models.FixedAsset) (models.FixedAsset, error) {
	a.ID = uuid.NewString()
	a.OrganizationID = orgID
	a.Name = strings.TrimSpace(a.Name)
	a.Status = models.AssetActive
	a.AccumulatedDepreciation = decimal.Zero
	a.CurrentValue = a.PurchaseCost
	a.DisposalDate = nil
	a.DisposalValue = decimal.NullDecimal{}
	if err := a.Validate(); err != nil {
		return models.FixedAsset{}, err
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if a.AssetAccountID != nil && *a.AssetAccountID != "" {
			if _, err := orgAccounts(ctx, tx, s.accounts, orgID, []string{*a.AssetAccountID}, true); err != nil {
				return err
			}
		} else {
			a.AssetAccountID = nil
		}
		if err := s.assets.Create(ctx, tx, a); err != nil {
			return conflict(err, "asset number "+a.AssetNumber)
		}
		return s.audit.Log(ctx, tx, orgID, actorID, "asset.create", "fixed_asset", a.ID, auditData(map[string]string{
			"cost":   money.Format(a.PurchaseCost),
			"method": string(a.DepreciationMethod),
		}))
	})
	if err != nil {
		return models.FixedAsset{}, err
	}
	return a, nil
}

func (s *AssetService) Get(ctx context.Context, orgID, assetID string) (models.FixedAsset, error) {
	a, err := s.assets.GetByID(ctx, orgID, assetID)
	if err != nil {
		return models.FixedAsset{}, notFound(err, "asset")
	}
	return a, nil
}

func (s *AssetService) List(ctx context.Context, orgID string) ([]models.FixedAsset, error) {
	return s.assets.List(ctx, orgID)
}

type DepreciationView struct {
	AssetID                 string                     `json:"asset_id"`
	AsOf                    time.Time                  `json:"as_of"`
	AccumulatedDepreciation decimal.Decimal            `json:"accumulated_depreciation"`
	CurrentValue            decimal.Decimal            `json:"current_value"`
	Schedule                []depreciation.ScheduleRow `json:"schedule"`
}

// Depreciation computes the figures as of asOf without storing them.
func (s *AssetService) Depreciation(ctx context.Context, orgID, assetID string, asOf time.Time) (DepreciationView, error) {
	a, err := s.Get(ctx, orgID, assetID)
	if err != nil {
		return DepreciationView{}, err
	}
	accumulated := depreciation.Calculate(a, asOf)
	view := DepreciationView{
		AssetID:                 a.ID,
		AsOf:                    asOf,
		AccumulatedDepreciation: accumulated,
		CurrentValue:            a.PurchaseCost.Sub(accumulated),
		Schedule:                depreciation.Schedule(a),
	}
	if a.Status != models.AssetActive {
		view.AccumulatedDepreciation = a.AccumulatedDepreciation
		view.CurrentValue = a.CurrentValue
	}
	if view.Schedule == nil {
		view.Schedule = []depreciation.ScheduleRow{}
	}
	return view, nil
}

// Recalculate stores accumulated depreciation and current value as of asOf.
func (s *AssetService) Recalculate(ctx context.Context, orgID, actorID, assetID string, asOf time.Time) (models.FixedAsset, error) {
	var a models.FixedAsset
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		a, err = s.assets.GetForUpdate(ctx, tx, orgID, assetID)
		if err != nil {
			return notFound(err, "asset")
		}
		if a.Status != models.AssetActive {
			return ErrAssetNotActive
		}
		a.AccumulatedDepreciation = depreciation.Calculate(a, asOf)
		a.CurrentValue = a.PurchaseCost.Sub(a.AccumulatedDepreciation)
		rows, err := s.assets.UpdateValues(ctx, tx, a.ID, a.AccumulatedDepreciation, a.CurrentValue)
		if err != nil {
			return err
		}
		if err := stale(rows, "asset"); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, orgID, actorID, "asset.recalculate", "fixed_asset", a.ID, auditData(map[string]string{
			"as_of":       asOf.Format("2006-01-02"),
			"accumulated": money.Format(a.AccumulatedDepreciation),
		}))
	})
	if err != nil {
		return models.FixedAsset{}, err
	}
	return a, nil
}

type DisposeRequest struct {
	Date   time.Time
	Value  decimal.Decimal
	Status models.AssetStatus
}

// Dispose retires an active asset. Status defaults to disposed and may be
// sold or written_off.
func (s *AssetService) Dispose(ctx context.Context, orgID, actorID, assetID string, req DisposeRequest) (models.FixedAsset, error) {
	status := req.Status
	if status == "" {
		status = models.AssetDisposed
	}
	switch status {
	case models.AssetDisposed, models.AssetSold, models.AssetWrittenOff:
	default:
		return models.FixedAsset{}, invalid("status", "must be disposed, sold or written_off")
	}
	if req.Date.IsZero() {
		req.Date = time.Now().UTC()
	}
	var a models.FixedAsset
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		a, err = s.assets.GetForUpdate(ctx, tx, orgID, assetID)
		if err != nil {
			return notFound(err, "asset")
		}
		if err := a.Dispose(req.Date, req.Value); err != nil {
			return err
		}
		a.Status = status
		rows, err := s.assets.Dispose(ctx, tx, a.ID, status, req.Date, req.Value)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAssetNotActive
		}
		return s.audit.Log(ctx, tx, orgID, actorID, "asset.dispose", "fixed_asset", a.ID, auditData(map[string]string{
			"status": string(status),
			"value":  money.Format(req.Value),
		}))
	})
	if err != nil {
		if errors.Is(err, ErrAssetNotActive) {
			s.log.Info().Str("organization_id", orgID).Str("asset_id", assetID).Msg("dispose refused for inactive asset")
		}
		return models.FixedAsset{}, err
	}
	publish(ctx, s.publisher, s.log, events.New(events.AssetDisposed, orgID, a.ID, actorID, map[string]string{
		"status": string(a.Status),
		"value":  money.Format(req.Value),
	}))
	return a, nil
}

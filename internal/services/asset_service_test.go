package services

import (
	"context"
	"testing"

	"lynkledger/internal/events"
	"lynkledger/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAsset(t *testing.T, env *testEnv, number string) models.FixedAsset {
	t.Helper()
	a, err := env.assets.Create(context.Background(), orgA, actor, models.FixedAsset{
		Name:               "Delivery van",
		AssetNumber:        number,
		PurchaseDate:       day(2020, 1, 1),
		PurchaseCost:       dec("10000"),
		SalvageValue:       dec("1000"),
		UsefulLifeYears:    5,
		DepreciationMethod: models.StraightLine,
	})
	require.NoError(t, err)
	return a
}

func TestAssetCreate(t *testing.T) {
	env := newTestEnv()
	a := newAsset(t, env, "FA-1")
	assert.Equal(t, models.AssetActive, a.Status)
	assert.True(t, dec("10000").Equal(a.CurrentValue))
	assert.True(t, a.AccumulatedDepreciation.IsZero())

	_, err := env.assets.Create(context.Background(), orgA, actor, models.FixedAsset{
		Name:               "Broken",
		AssetNumber:        "FA-2",
		PurchaseDate:       day(2020, 1, 1),
		UsefulLifeYears:    0,
		DepreciationMethod: models.StraightLine,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAssetDepreciationView(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	a := newAsset(t, env, "FA-1")

	before, err := env.assets.Depreciation(ctx, orgA, a.ID, day(2019, 6, 1))
	require.NoError(t, err)
	assert.True(t, before.AccumulatedDepreciation.IsZero())

	mid, err := env.assets.Depreciation(ctx, orgA, a.ID, day(2022, 1, 1))
	require.NoError(t, err)
	assert.InDelta(t, 3600, mid.AccumulatedDepreciation.InexactFloat64(), 5)
	require.Len(t, mid.Schedule, 5)
	assert.True(t, dec("9000").Equal(mid.Schedule[4].Depreciation))
	assert.True(t, dec("1000").Equal(mid.Schedule[4].BookValue))

	stored, err := env.assets.Get(ctx, orgA, a.ID)
	require.NoError(t, err)
	assert.True(t, stored.AccumulatedDepreciation.IsZero(), "the view stores nothing")
}

func TestAssetRecalculate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	a := newAsset(t, env, "FA-1")

	updated, err := env.assets.Recalculate(ctx, orgA, actor, a.ID, day(2030, 1, 1))
	require.NoError(t, err)
	assert.True(t, dec("9000").Equal(updated.AccumulatedDepreciation))
	assert.True(t, dec("1000").Equal(updated.CurrentValue))

	stored, err := env.assets.Get(ctx, orgA, a.ID)
	require.NoError(t, err)
	assert.True(t, dec("1000").Equal(stored.CurrentValue))
	assert.Contains(t, env.mem.actions(), "asset.recalculate")
}

func TestAssetDispose(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	a := newAsset(t, env, "FA-1")

	sold, err := env.assets.Dispose(ctx, orgA, actor, a.ID, DisposeRequest{Date: day(2023, 6, 30), Value: dec("4200"), Status: models.AssetSold})
	require.NoError(t, err)
	assert.Equal(t, models.AssetSold, sold.Status)
	assert.True(t, dec("4200").Equal(sold.CurrentValue))
	require.NotNil(t, sold.DisposalDate)
	assert.Contains(t, env.publisher.types(), events.AssetDisposed)

	_, err = env.assets.Dispose(ctx, orgA, actor, a.ID, DisposeRequest{Value: dec("1")})
	assert.ErrorIs(t, err, ErrAssetNotActive)
	_, err = env.assets.Recalculate(ctx, orgA, actor, a.ID, day(2024, 1, 1))
	assert.ErrorIs(t, err, ErrAssetNotActive)

	view, err := env.assets.Depreciation(ctx, orgA, a.ID, day(2024, 1, 1))
	require.NoError(t, err)
	assert.True(t, dec("4200").Equal(view.CurrentValue))

	other := newAsset(t, env, "FA-2")
	_, err = env.assets.Dispose(ctx, orgA, actor, other.ID, DisposeRequest{Status: models.AssetActive})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.assets.Dispose(ctx, orgA, actor, other.ID, DisposeRequest{Value: dec("-1")})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.assets.Dispose(ctx, orgB, actor, other.ID, DisposeRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

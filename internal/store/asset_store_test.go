package store

import (
	"path/filepath"
	"testing"

	"taxi/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAssetStore(t *testing.T) *AssetStore {
	t.Helper()
	return NewAssetStore(filepath.Join(t.TempDir(), "assets.json"), zap.NewNop())
}

func validAsset(id, group string) model.Asset {
	return model.Asset{
		AssetID:      id,
		Name:         "Office " + id,
		AssetType:    model.AssetBuilding,
		TaxationType: model.TaxationOther,
		UrbanArea:    model.UrbanAreaNo,
		GroupID:      group,
		Area:         100,
		YearlyData: map[string]model.YearSnapshot{
			"2024": {ApplicableYear: 2024, StandardMarketValue: 100_000_000},
		},
	}
}

func TestAssetStore_CreateAndGet(t *testing.T) {
	s := newAssetStore(t)

	created, warnings, err := s.Create(validAsset("A-1", "HQ"))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "A-1", created.AssetID)

	got, ok := s.Get("A-1")
	require.True(t, ok)
	assert.Equal(t, created.Name, got.Name)

	_, _, err = s.Create(validAsset("A-1", "HQ"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestAssetStore_CreateCorrectsFixableFields(t *testing.T) {
	s := newAssetStore(t)

	asset := validAsset("A-2", "HQ")
	asset.AssetType = model.AssetLand
	asset.TaxationType = model.TaxationOther // land cannot use 기타
	asset.UrbanArea = "maybe"

	created, warnings, err := s.Create(asset)
	require.NoError(t, err, "correctable problems must not reject the asset")
	assert.Len(t, warnings, 2)
	assert.Equal(t, model.TaxationAggregated, created.TaxationType)
	assert.Equal(t, model.UrbanAreaNo, created.UrbanArea)
}

func TestAssetStore_CreateRejectsInvalid(t *testing.T) {
	s := newAssetStore(t)

	asset := model.Asset{AssetType: "요트", Area: -1}
	_, _, err := s.Create(asset)
	require.Error(t, err)
	// every violation is reported, not just the first
	assert.Contains(t, err.Error(), "asset_id is required")
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "unknown asset_type")
	assert.Contains(t, err.Error(), "group_id is required")
	assert.Contains(t, err.Error(), "area must be positive")
}

func TestAssetStore_UpdateMergesYearSnapshots(t *testing.T) {
	s := newAssetStore(t)
	_, _, err := s.Create(validAsset("A-3", "HQ"))
	require.NoError(t, err)

	update := validAsset("A-3", "BRANCH")
	update.Name = "Renamed"
	update.YearlyData = map[string]model.YearSnapshot{
		"2025": {ApplicableYear: 2025, StandardMarketValue: 120_000_000},
	}

	updated, _, err := s.Update(update)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "BRANCH", updated.GroupID)

	// 2024 data survives, 2025 is added
	_, ok := updated.Snapshot(2024)
	assert.True(t, ok)
	snap, ok := updated.Snapshot(2025)
	require.True(t, ok)
	assert.Equal(t, int64(120_000_000), snap.StandardMarketValue)
}

func TestAssetStore_UpdateReplacesSameYear(t *testing.T) {
	s := newAssetStore(t)
	_, _, err := s.Create(validAsset("A-4", "HQ"))
	require.NoError(t, err)

	update := validAsset("A-4", "HQ")
	update.YearlyData = map[string]model.YearSnapshot{
		"2024": {ApplicableYear: 2024, StandardMarketValue: 999},
	}

	updated, _, err := s.Update(update)
	require.NoError(t, err)
	snap, ok := updated.Snapshot(2024)
	require.True(t, ok)
	assert.Equal(t, int64(999), snap.StandardMarketValue)
}

func TestAssetStore_UpdateUnknownAsset(t *testing.T) {
	s := newAssetStore(t)
	_, _, err := s.Update(validAsset("GHOST", "HQ"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestAssetStore_ListFilters(t *testing.T) {
	s := newAssetStore(t)
	for _, spec := range []struct{ id, group string }{
		{"B-1", "HQ"}, {"A-1", "HQ"}, {"C-1", "BRANCH"},
	} {
		_, _, err := s.Create(validAsset(spec.id, spec.group))
		require.NoError(t, err)
	}

	hq := s.List("HQ")
	require.Len(t, hq, 2)
	assert.Equal(t, "A-1", hq[0].AssetID, "sorted by id")
	assert.Equal(t, "B-1", hq[1].AssetID)

	assert.Len(t, s.List(""), 3)
	assert.Len(t, s.List(model.GroupAll), 3)
	assert.Empty(t, s.List("NOPE"))
}

func TestAssetStore_DeleteAndYears(t *testing.T) {
	s := newAssetStore(t)
	_, _, err := s.Create(validAsset("A-5", "HQ"))
	require.NoError(t, err)

	assert.Equal(t, []int{2024}, s.Years())
	assert.Equal(t, []string{"A-5"}, s.AssetsWithYear(2024))
	assert.Empty(t, s.AssetsWithYear(2023))

	require.NoError(t, s.Delete("A-5"))
	_, ok := s.Get("A-5")
	assert.False(t, ok)
	assert.Error(t, s.Delete("A-5"))
}

func TestAssetStore_PersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.json")
	s := NewAssetStore(path, zap.NewNop())
	asset := validAsset("A-6", "HQ")
	asset.YearlyData["2024"] = model.YearSnapshot{
		ApplicableYear:      2024,
		StandardMarketValue: 100_000_000,
		ReductionRate:       decimal.RequireFromString("12.5"),
	}
	_, _, err := s.Create(asset)
	require.NoError(t, err)

	reloaded := NewAssetStore(path, zap.NewNop())
	got, ok := reloaded.Get("A-6")
	require.True(t, ok)
	snap, ok := got.Snapshot(2024)
	require.True(t, ok)
	assert.True(t, snap.ReductionRate.Equal(decimal.RequireFromString("12.5")))
}

func TestImportRows(t *testing.T) {
	s := newAssetStore(t)
	_, _, err := s.Create(validAsset("EXIST-1", "HQ"))
	require.NoError(t, err)

	rows := []ImportRow{
		{
			// new asset, clean row
			AssetID: "NEW-1", Name: "Warehouse", AssetType: model.AssetBuilding,
			TaxationType: model.TaxationOther, UrbanArea: "Y", GroupID: "HQ", Area: 800,
			Year: 2024, StandardMarketValue: 300_000_000,
		},
		{
			// existing asset, merges a new year
			AssetID: "EXIST-1", Name: "Office EXIST-1", AssetType: model.AssetBuilding,
			TaxationType: model.TaxationOther, UrbanArea: "N", GroupID: "HQ", Area: 100,
			Year: 2025, StandardMarketValue: 110_000_000,
		},
		{
			// land with a non-land taxation type: corrected, still imports
			AssetID: "LND-9", Name: "Yard", AssetType: model.AssetLand,
			TaxationType: model.TaxationOther, UrbanArea: "N", GroupID: "HQ", Area: 500,
			Year: 2024, StandardMarketValue: 90_000_000,
		},
		{
			// hard failure: no name, bad area
			AssetID: "BAD-1", AssetType: model.AssetBuilding,
			TaxationType: model.TaxationOther, UrbanArea: "N", GroupID: "HQ", Area: 0,
		},
	}

	summary, err := s.ImportRows(rows)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Failures, 1)
	assert.Contains(t, summary.Failures[0], "BAD-1")
	require.Len(t, summary.Warnings, 1)
	assert.Contains(t, summary.Warnings[0], "LND-9")

	corrected, ok := s.Get("LND-9")
	require.True(t, ok)
	assert.Equal(t, model.TaxationAggregated, corrected.TaxationType)

	merged, ok := s.Get("EXIST-1")
	require.True(t, ok)
	_, has2024 := merged.Snapshot(2024)
	_, has2025 := merged.Snapshot(2025)
	assert.True(t, has2024, "existing year data must survive the merge")
	assert.True(t, has2025)

	_, ok = s.Get("BAD-1")
	assert.False(t, ok, "failed rows must not be stored")
}

func TestImportRows_Empty(t *testing.T) {
	s := newAssetStore(t)
	summary, err := s.ImportRows(nil)
	require.NoError(t, err)
	assert.Equal(t, ImportSummary{}, summary)
}

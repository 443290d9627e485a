package engine

import (
	"path/filepath"
	"testing"

	"taxi/internal/model"
	"taxi/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStores(t *testing.T) (*store.RateStore, *store.AssetStore) {
	t.Helper()
	dir := t.TempDir()
	logger := zap.NewNop()
	rates := store.NewRateStore(filepath.Join(dir, "rates.json"), logger)
	assets := store.NewAssetStore(filepath.Join(dir, "assets.json"), logger)
	if !rates.HasYear(2024) {
		require.NoError(t, rates.AddYear(2024, nil))
	}
	return rates, assets
}

func seedHousingAsset(t *testing.T, assets *store.AssetStore, urban string) {
	t.Helper()
	_, _, err := assets.Create(model.Asset{
		AssetID:      "HQ-001",
		Name:         "Head office building",
		AssetType:    model.AssetHousing,
		TaxationType: model.TaxationOther,
		UrbanArea:    urban,
		GroupID:      "HQ",
		Area:         1250.5,
		YearlyData: map[string]model.YearSnapshot{
			"2024": {
				ApplicableYear:      2024,
				StandardMarketValue: 850_000_000,
			},
		},
	})
	require.NoError(t, err)
}

func TestProgressiveTax_ZeroAndNegativeBase(t *testing.T) {
	brackets := []model.TaxBracket{
		model.Bounded(0, 60_000_000, 0, "0.1"),
		model.Open(60_000_000, 60_000, "0.15"),
	}

	assert.True(t, ProgressiveTax(decimal.Zero, brackets).IsZero())
	assert.True(t, ProgressiveTax(decimal.NewFromInt(-1_000_000), brackets).IsZero())
	assert.True(t, ProgressiveTax(decimal.NewFromInt(100), nil).IsZero())
}

func TestProgressiveTax_Monotonic(t *testing.T) {
	rates, _ := newTestStores(t)
	brackets, ok := rates.BracketsFor(2024, model.AssetHousing, model.TaxationOther)
	require.True(t, ok)

	bases := []int64{
		0, 1, 30_000_000, 59_999_999, 60_000_000, 60_000_001,
		100_000_000, 150_000_000, 299_999_999, 300_000_000,
		510_000_000, 2_000_000_000,
	}
	previous := decimal.Zero
	for _, base := range bases {
		tax := ProgressiveTax(decimal.NewFromInt(base), brackets)
		assert.True(t, tax.GreaterThanOrEqual(previous),
			"tax decreased from %s to %s at base %d", previous, tax, base)
		previous = tax
	}
}

// Tax at a bracket's upper bound must equal the next bracket's base
// amount: the pre-computed base amounts have to keep the curve continuous
// at every boundary.
func TestProgressiveTax_ContinuousAtBoundaries(t *testing.T) {
	rates, _ := newTestStores(t)

	tables := map[string][]model.TaxBracket{}
	for _, taxation := range []model.TaxationType{model.TaxationAggregated, model.TaxationSeparated} {
		brackets, ok := rates.BracketsFor(2024, model.AssetLand, taxation)
		require.True(t, ok)
		tables["land/"+string(taxation)] = brackets
	}
	housing, ok := rates.BracketsFor(2024, model.AssetHousing, model.TaxationOther)
	require.True(t, ok)
	tables["housing"] = housing
	resource, ok := rates.ResourceBrackets(2024)
	require.True(t, ok)
	tables["resource"] = resource

	for name, brackets := range tables {
		for i := 0; i < len(brackets)-1; i++ {
			require.NotNil(t, brackets[i].UpperBound, "%s: bracket %d should be bounded", name, i)
			upper := *brackets[i].UpperBound
			atBoundary := ProgressiveTax(decimal.NewFromInt(upper), brackets)
			nextBase := decimal.NewFromInt(brackets[i+1].BaseAmount)
			assert.True(t, atBoundary.Equal(nextBase),
				"%s: discontinuity at %d: %s != %s", name, upper, atBoundary, nextBase)
		}
	}
}

// The reference scenario: housing asset, 2024, standard market value 850M,
// fair-market ratio 60%, no reduction, urban area. Every component amount
// is pinned.
func TestCalculateForAsset_HousingScenario(t *testing.T) {
	rates, assets := newTestStores(t)
	seedHousingAsset(t, assets, model.UrbanAreaYes)
	calculator := NewCalculator(rates, assets)

	calc := calculator.CalculateForAsset("HQ-001", 2024)
	require.NotNil(t, calc)

	assert.Equal(t, int64(850_000_000), calc.BaseAmount)
	assert.Equal(t, int64(510_000_000), calc.TaxableBase)
	assert.Equal(t, int64(1_410_000), calc.PropertyTax)
	assert.Equal(t, int64(714_000), calc.UrbanAreaTax)
	assert.Equal(t, int64(282_000), calc.EducationTax)
	assert.Equal(t, int64(584_300), calc.RegionalResourceTax)
	assert.Equal(t, int64(2_990_300), calc.TotalTax)
	assert.NotEmpty(t, calc.CalculationProcess)
}

func TestCalculateForAsset_HousingPrefersBuildingValue(t *testing.T) {
	rates, assets := newTestStores(t)
	_, _, err := assets.Create(model.Asset{
		AssetID:      "HQ-002",
		Name:         "Annex",
		AssetType:    model.AssetHousing,
		TaxationType: model.TaxationOther,
		UrbanArea:    model.UrbanAreaNo,
		GroupID:      "HQ",
		Area:         300,
		YearlyData: map[string]model.YearSnapshot{
			"2024": {
				ApplicableYear:      2024,
				StandardMarketValue: 850_000_000,
				BuildingMarketValue: 400_000_000,
			},
		},
	})
	require.NoError(t, err)

	calc := NewCalculator(rates, assets).CalculateForAsset("HQ-002", 2024)
	require.NotNil(t, calc)
	assert.Equal(t, int64(400_000_000), calc.BaseAmount)
	assert.Equal(t, int64(0), calc.UrbanAreaTax, "not in urban area")
}

func TestCalculateForAsset_LandExcludesResourceTax(t *testing.T) {
	rates, assets := newTestStores(t)
	_, _, err := assets.Create(model.Asset{
		AssetID:      "LND-001",
		Name:         "Factory site",
		AssetType:    model.AssetLand,
		TaxationType: model.TaxationAggregated,
		UrbanArea:    model.UrbanAreaYes,
		GroupID:      "PLANT",
		Area:         9000,
		YearlyData: map[string]model.YearSnapshot{
			"2024": {
				ApplicableYear:      2024,
				StandardMarketValue: 2_000_000_000,
				SurchargeRate:       decimal.NewFromInt(20),
			},
		},
	})
	require.NoError(t, err)

	calc := NewCalculator(rates, assets).CalculateForAsset("LND-001", 2024)
	require.NotNil(t, calc)
	assert.Equal(t, int64(0), calc.RegionalResourceTax,
		"land is exempt regardless of configured rates and surcharge")
	assert.Greater(t, calc.PropertyTax, int64(0))
}

func TestCalculateForAsset_ReductionAndSurcharge(t *testing.T) {
	rates, assets := newTestStores(t)
	_, _, err := assets.Create(model.Asset{
		AssetID:      "HQ-003",
		Name:         "Dormitory",
		AssetType:    model.AssetHousing,
		TaxationType: model.TaxationOther,
		UrbanArea:    model.UrbanAreaNo,
		GroupID:      "HQ",
		Area:         500,
		YearlyData: map[string]model.YearSnapshot{
			"2024": {
				ApplicableYear:      2024,
				StandardMarketValue: 850_000_000,
				ReductionRate:       decimal.NewFromInt(50),
				SurchargeRate:       decimal.NewFromInt(10),
			},
		},
	})
	require.NoError(t, err)

	calc := NewCalculator(rates, assets).CalculateForAsset("HQ-003", 2024)
	require.NotNil(t, calc)

	// 850M * 60% * 50% = 255M
	assert.Equal(t, int64(255_000_000), calc.TaxableBase)
	// 195,000 + (255M - 150M) * 0.25% = 457,500
	assert.Equal(t, int64(457_500), calc.PropertyTax)
	// Resource: 49,100 + (255M - 64M) * 0.12% = 278,300; +10% surcharge = 306,130
	assert.Equal(t, int64(306_130), calc.RegionalResourceTax)
}

func TestCalculateForAsset_MissingData(t *testing.T) {
	rates, assets := newTestStores(t)
	seedHousingAsset(t, assets, model.UrbanAreaYes)
	calculator := NewCalculator(rates, assets)

	assert.Nil(t, calculator.CalculateForAsset("NOPE", 2024), "unknown asset")
	assert.Nil(t, calculator.CalculateForAsset("HQ-001", 2023), "no snapshot for year")
}

func TestCalculateForGroup(t *testing.T) {
	rates, assets := newTestStores(t)
	seedHousingAsset(t, assets, model.UrbanAreaYes)
	_, _, err := assets.Create(model.Asset{
		AssetID:      "BR-001",
		Name:         "Branch office",
		AssetType:    model.AssetBuilding,
		TaxationType: model.TaxationOther,
		UrbanArea:    model.UrbanAreaNo,
		GroupID:      "BRANCH",
		Area:         200,
		YearlyData: map[string]model.YearSnapshot{
			"2024": {ApplicableYear: 2024, StandardMarketValue: 100_000_000},
		},
	})
	require.NoError(t, err)

	calculator := NewCalculator(rates, assets)

	hq := calculator.CalculateForGroup("HQ", 2024)
	assert.Equal(t, "HQ_2024", hq.CalcKey)
	assert.Empty(t, hq.Error)
	assert.Len(t, hq.PerAsset, 1)
	assert.Equal(t, int64(2_990_300), hq.TotalTax)

	all := calculator.CalculateForGroup(model.GroupAll, 2024)
	assert.Len(t, all.PerAsset, 2)
	assert.Equal(t, hq.TotalTax+all.PerAsset["BR-001"].TotalTax, all.TotalTax)
}

func TestCalculateForGroup_EmptySelection(t *testing.T) {
	rates, assets := newTestStores(t)
	calculator := NewCalculator(rates, assets)

	result := calculator.CalculateForGroup("GHOST", 2024)
	assert.NotEmpty(t, result.Error)
	assert.Equal(t, int64(0), result.TotalTax)
	assert.Empty(t, result.PerAsset)
}

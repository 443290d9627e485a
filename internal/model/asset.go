package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AssetType enum constants. The Korean values are the wire and file format.
type AssetType string

const (
	AssetLand     AssetType = "토지"
	AssetBuilding AssetType = "건축물"
	AssetHousing  AssetType = "주택"
)

// TaxationType enum constants. Land assets use one of the three land
// taxation schemes; buildings and housing always use 기타.
type TaxationType string

const (
	TaxationAggregated TaxationType = "종합합산"
	TaxationSeparated  TaxationType = "별도합산"
	TaxationSegregated TaxationType = "분리과세"
	TaxationOther      TaxationType = "기타"
)

// Urban-area flag values.
const (
	UrbanAreaYes = "Y"
	UrbanAreaNo  = "N"
)

// GroupAll selects every asset regardless of group.
const GroupAll = "ALL"

// AllAssetTypes lists the valid asset types in display order.
var AllAssetTypes = []AssetType{AssetLand, AssetBuilding, AssetHousing}

// ValidAssetType reports whether t is a known asset type.
func ValidAssetType(t AssetType) bool {
	switch t {
	case AssetLand, AssetBuilding, AssetHousing:
		return true
	}
	return false
}

// TaxationTypesFor returns the taxation types valid for an asset type.
func TaxationTypesFor(t AssetType) []TaxationType {
	if t == AssetLand {
		return []TaxationType{TaxationAggregated, TaxationSeparated, TaxationSegregated}
	}
	return []TaxationType{TaxationOther}
}

// DefaultTaxationType returns the taxation type an invalid pairing is
// corrected to: 종합합산 for land, 기타 for everything else.
func DefaultTaxationType(t AssetType) TaxationType {
	if t == AssetLand {
		return TaxationAggregated
	}
	return TaxationOther
}

// NormalizeTaxationType returns a taxation type valid for the asset type.
// The second return is false when the input had to be corrected.
func NormalizeTaxationType(assetType AssetType, taxation TaxationType) (TaxationType, bool) {
	for _, valid := range TaxationTypesFor(assetType) {
		if taxation == valid {
			return taxation, true
		}
	}
	return DefaultTaxationType(assetType), false
}

// YearSnapshot holds one year's valuation data for an asset.
// BuildingMarketValue is only meaningful for housing assets.
type YearSnapshot struct {
	ApplicableYear      int             `json:"applicable_year"`
	PublishedLandPrice  int64           `json:"published_land_price"`
	StandardMarketValue int64           `json:"standard_market_value"`
	BuildingMarketValue int64           `json:"building_market_value,omitempty"`
	ReductionRate       decimal.Decimal `json:"reduction_rate"`
	SurchargeRate       decimal.Decimal `json:"surcharge_rate"`
	ValidThrough        string          `json:"valid_through"`
}

// Asset is one property record. YearlyData is keyed by year string because
// JSON map keys must be strings; convert with YearKey/ParseYearKey.
type Asset struct {
	AssetID      string                  `json:"asset_id"`
	Name         string                  `json:"name"`
	AssetType    AssetType               `json:"asset_type"`
	DetailType   string                  `json:"detail_type"`
	TaxationType TaxationType            `json:"taxation_type"`
	UrbanArea    string                  `json:"urban_area"`
	GroupID      string                  `json:"group_id"`
	Province     string                  `json:"province"`
	City         string                  `json:"city"`
	Address      string                  `json:"address"`
	Area         float64                 `json:"area"`
	YearlyData   map[string]YearSnapshot `json:"yearly_data"`
}

// Snapshot returns the asset's snapshot for a year, if present.
func (a *Asset) Snapshot(year int) (YearSnapshot, bool) {
	snap, ok := a.YearlyData[YearKey(year)]
	return snap, ok
}

// SnapshotYears returns the years the asset carries data for.
func (a *Asset) SnapshotYears() []int {
	years := make([]int, 0, len(a.YearlyData))
	for key := range a.YearlyData {
		if year, ok := ParseYearKey(key); ok {
			years = append(years, year)
		}
	}
	return years
}

// Validate checks the asset invariants that are hard failures (auto-corrected
// fields are handled by the caller before validation). It accumulates every
// violation so the caller sees all problems at once.
func (a *Asset) Validate() []string {
	var problems []string
	if a.AssetID == "" {
		problems = append(problems, "asset_id is required")
	}
	if a.Name == "" {
		problems = append(problems, "name is required")
	}
	if !ValidAssetType(a.AssetType) {
		problems = append(problems, fmt.Sprintf("unknown asset_type %q", a.AssetType))
	}
	if a.UrbanArea != UrbanAreaYes && a.UrbanArea != UrbanAreaNo {
		problems = append(problems, fmt.Sprintf("urban_area must be Y or N, got %q", a.UrbanArea))
	}
	if a.GroupID == "" {
		problems = append(problems, "group_id is required")
	}
	if a.Area <= 0 {
		problems = append(problems, fmt.Sprintf("area must be positive, got %v", a.Area))
	}
	for key, snap := range a.YearlyData {
		if _, ok := ParseYearKey(key); !ok {
			problems = append(problems, fmt.Sprintf("invalid year key %q", key))
			continue
		}
		problems = append(problems, validateSnapshot(key, snap)...)
	}
	return problems
}

func validateSnapshot(yearKey string, snap YearSnapshot) []string {
	var problems []string
	if snap.StandardMarketValue < 0 {
		problems = append(problems, fmt.Sprintf("year %s: standard_market_value must not be negative", yearKey))
	}
	if snap.BuildingMarketValue < 0 {
		problems = append(problems, fmt.Sprintf("year %s: building_market_value must not be negative", yearKey))
	}
	hundred := decimal.NewFromInt(100)
	if snap.ReductionRate.IsNegative() || snap.ReductionRate.GreaterThan(hundred) {
		problems = append(problems, fmt.Sprintf("year %s: reduction_rate must be between 0 and 100", yearKey))
	}
	if snap.SurchargeRate.IsNegative() || snap.SurchargeRate.GreaterThan(hundred) {
		problems = append(problems, fmt.Sprintf("year %s: surcharge_rate must be between 0 and 100", yearKey))
	}
	return problems
}

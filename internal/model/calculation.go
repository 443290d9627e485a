package model

import (
	"fmt"
	"time"
)

// AssetCalculation is the itemized tax breakdown for one asset in one year.
// CalculationProcess is the ordered human-readable audit trail of every
// computation step, kept for transparency in the UI and in saved records.
type AssetCalculation struct {
	AssetID             string   `json:"asset_id"`
	AssetName           string   `json:"asset_name"`
	BaseAmount          int64    `json:"base_amount"`
	TaxableBase         int64    `json:"taxable_base"`
	PropertyTax         int64    `json:"property_tax"`
	UrbanAreaTax        int64    `json:"urban_area_tax"`
	EducationTax        int64    `json:"education_tax"`
	RegionalResourceTax int64    `json:"regional_resource_tax"`
	TotalTax            int64    `json:"total_tax"`
	CalculationProcess  []string `json:"calculation_process"`
}

// CalculationResult groups per-asset calculations for one group and year.
// Error is set (and TotalTax is zero) when no asset matched the selection;
// callers render that as an empty state rather than a failure.
type CalculationResult struct {
	CalcKey      string                      `json:"calc_key"`
	GroupID      string                      `json:"group_id"`
	Year         int                         `json:"year"`
	ComputedAt   time.Time                   `json:"computed_at"`
	PerAsset     map[string]AssetCalculation `json:"per_asset"`
	TotalTax     int64                       `json:"total_tax"`
	Error        string                      `json:"error,omitempty"`
	Finalization *FinalizationRecord         `json:"finalization,omitempty"`
}

// CalcKeyFor builds the persistence key for a group/year pair.
func CalcKeyFor(groupID string, year int) string {
	return fmt.Sprintf("%s_%d", groupID, year)
}

// FinalizationRecord reconciles a computed result against the externally
// issued tax bill. Variance is bill minus computed total.
type FinalizationRecord struct {
	BillAmount  int64     `json:"bill_amount"`
	Variance    int64     `json:"variance"`
	FinalValue  int64     `json:"final_value"`
	Reason      string    `json:"reason"`
	FinalizedBy string    `json:"finalized_by"`
	FinalizedAt time.Time `json:"finalized_at"`
}

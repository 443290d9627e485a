package engine

import (
	"fmt"
	"time"

	"taxi/internal/model"

	"github.com/shopspring/decimal"
)

// RateSource is the read-only slice of the rate store the engine consumes.
type RateSource interface {
	BracketsFor(year int, assetType model.AssetType, taxationType model.TaxationType) ([]model.TaxBracket, bool)
	UrbanAreaRate(year int) (decimal.Decimal, bool)
	EducationRate(year int) (decimal.Decimal, bool)
	ResourceBrackets(year int) ([]model.TaxBracket, bool)
	FairMarketRatio(year int, assetType model.AssetType) (decimal.Decimal, bool)
}

// AssetSource is the read-only slice of the asset store the engine consumes.
type AssetSource interface {
	Get(assetID string) (model.Asset, bool)
	List(groupID string) []model.Asset
}

// Calculator computes property-tax liabilities from store data. It never
// mutates the stores and never fails on missing data: a missing asset or
// snapshot yields a nil per-asset result, an empty group selection yields a
// result with its Error field set.
type Calculator struct {
	rates  RateSource
	assets AssetSource
}

func NewCalculator(rates RateSource, assets AssetSource) *Calculator {
	return &Calculator{rates: rates, assets: assets}
}

var hundred = decimal.NewFromInt(100)

// ProgressiveTax computes bracketed tax for a taxable base. The active
// bracket is the last one whose lower bound is below the base, stopping as
// soon as the base fits under an upper bound or the open-ended bracket is
// reached. Returns zero for a non-positive base or when no bracket matches.
func ProgressiveTax(base decimal.Decimal, brackets []model.TaxBracket) decimal.Decimal {
	if base.Sign() <= 0 {
		return decimal.Zero
	}
	var active *model.TaxBracket
	for i := range brackets {
		b := &brackets[i]
		if base.LessThanOrEqual(decimal.NewFromInt(b.LowerBound)) {
			break
		}
		active = b
		if b.UpperBound == nil || base.LessThanOrEqual(decimal.NewFromInt(*b.UpperBound)) {
			break
		}
	}
	if active == nil {
		return decimal.Zero
	}
	excess := base.Sub(decimal.NewFromInt(active.LowerBound))
	return decimal.NewFromInt(active.BaseAmount).Add(excess.Mul(active.Rate).Div(hundred))
}

// roundWon rounds a tax amount half-up to whole won.
func roundWon(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// CalculateForAsset computes the full itemized breakdown for one asset and
// year. Returns nil when the asset, its year snapshot, or the year's
// property-tax brackets are absent.
func (c *Calculator) CalculateForAsset(assetID string, year int) *model.AssetCalculation {
	asset, ok := c.assets.Get(assetID)
	if !ok {
		return nil
	}
	snap, ok := asset.Snapshot(year)
	if !ok {
		return nil
	}
	brackets, ok := c.rates.BracketsFor(year, asset.AssetType, asset.TaxationType)
	if !ok {
		return nil
	}

	var steps []string
	step := func(format string, args ...interface{}) {
		steps = append(steps, fmt.Sprintf(format, args...))
	}

	// 1. Base amount: housing prefers the building market value.
	baseAmount := snap.StandardMarketValue
	if asset.AssetType == model.AssetHousing && snap.BuildingMarketValue > 0 {
		baseAmount = snap.BuildingMarketValue
		step("base amount: building market value %d won", baseAmount)
	} else {
		step("base amount: standard market value %d won", baseAmount)
	}

	// 2. Fair-market-value ratio. A year without a configured ratio keeps
	// the full assessed value.
	taxable := decimal.NewFromInt(baseAmount)
	ratio, ok := c.rates.FairMarketRatio(year, asset.AssetType)
	if !ok {
		ratio = hundred
	}
	taxable = taxable.Mul(ratio).Div(hundred)
	step("fair-market ratio %s%% applied: taxable base %d won", ratio.String(), roundWon(taxable))

	// 3. Reduction. Logged even when zero so the trail stays complete.
	if snap.ReductionRate.Sign() > 0 {
		taxable = taxable.Mul(hundred.Sub(snap.ReductionRate)).Div(hundred)
		step("reduction %s%% applied: taxable base %d won", snap.ReductionRate.String(), roundWon(taxable))
	} else {
		step("no reduction applied")
	}
	taxableBase := decimal.NewFromInt(roundWon(taxable))

	// 4. Progressive property tax.
	propertyTax := ProgressiveTax(taxableBase, brackets)
	step("progressive property tax on %d won: %d won", taxableBase.IntPart(), roundWon(propertyTax))

	// 5. Urban-area surtax is levied on the taxable base, not on the
	// property-tax amount. That asymmetry with the education surtax is
	// statutory.
	urbanTax := decimal.Zero
	if asset.UrbanArea == model.UrbanAreaYes {
		if rate, ok := c.rates.UrbanAreaRate(year); ok {
			urbanTax = taxableBase.Mul(rate).Div(hundred)
			step("urban-area surtax %s%% of taxable base: %d won", rate.String(), roundWon(urbanTax))
		}
	} else {
		step("not in an urban area, no urban-area surtax")
	}

	// 6. Education surtax is levied on the property-tax amount.
	educationTax := decimal.Zero
	if rate, ok := c.rates.EducationRate(year); ok {
		educationTax = propertyTax.Mul(rate).Div(hundred)
		step("education surtax %s%% of property tax: %d won", rate.String(), roundWon(educationTax))
	}

	// 7. Regional resource tax: land is exempt; otherwise the same
	// progressive algorithm over the resource brackets, plus an optional
	// surcharge applied once.
	resourceTax := decimal.Zero
	if asset.AssetType == model.AssetLand {
		step("land is exempt from regional resource tax")
	} else if resourceBrackets, ok := c.rates.ResourceBrackets(year); ok {
		resourceTax = ProgressiveTax(taxableBase, resourceBrackets)
		step("regional resource tax on %d won: %d won", taxableBase.IntPart(), roundWon(resourceTax))
		if snap.SurchargeRate.Sign() > 0 {
			resourceTax = resourceTax.Add(resourceTax.Mul(snap.SurchargeRate).Div(hundred))
			step("resource surcharge %s%% applied: %d won", snap.SurchargeRate.String(), roundWon(resourceTax))
		}
	}

	calc := &model.AssetCalculation{
		AssetID:             asset.AssetID,
		AssetName:           asset.Name,
		BaseAmount:          baseAmount,
		TaxableBase:         taxableBase.IntPart(),
		PropertyTax:         roundWon(propertyTax),
		UrbanAreaTax:        roundWon(urbanTax),
		EducationTax:        roundWon(educationTax),
		RegionalResourceTax: roundWon(resourceTax),
	}
	calc.TotalTax = calc.PropertyTax + calc.UrbanAreaTax + calc.EducationTax + calc.RegionalResourceTax
	step("total tax: %d won", calc.TotalTax)
	calc.CalculationProcess = steps
	return calc
}

// CalculateForGroup computes every asset in a group for one year and sums
// the totals. model.GroupAll selects all assets; assets without snapshot
// data for the year are skipped.
func (c *Calculator) CalculateForGroup(groupID string, year int) model.CalculationResult {
	result := model.CalculationResult{
		CalcKey:    model.CalcKeyFor(groupID, year),
		GroupID:    groupID,
		Year:       year,
		ComputedAt: time.Now(),
		PerAsset:   map[string]model.AssetCalculation{},
	}

	for _, asset := range c.assets.List(groupID) {
		if _, ok := asset.Snapshot(year); !ok {
			continue
		}
		calc := c.CalculateForAsset(asset.AssetID, year)
		if calc == nil {
			continue
		}
		result.PerAsset[asset.AssetID] = *calc
		result.TotalTax += calc.TotalTax
	}

	if len(result.PerAsset) == 0 {
		result.Error = fmt.Sprintf("no assets with data for group %q in year %d", groupID, year)
	}
	return result
}

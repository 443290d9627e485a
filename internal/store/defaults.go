package store

import (
	"taxi/internal/model"

	"github.com/shopspring/decimal"
)

// Tax years must fall inside [MinYear, currentYear+MaxYearAhead].
const (
	MinYear      = 2020
	MaxYearAhead = 10
)

// defaultPropertyBrackets returns the statutory property-tax brackets used
// to seed a new year when no base year is given.
func defaultPropertyBrackets() map[model.AssetType]map[model.TaxationType][]model.TaxBracket {
	million := int64(1_000_000)
	return map[model.AssetType]map[model.TaxationType][]model.TaxBracket{
		model.AssetHousing: {
			model.TaxationOther: {
				model.Bounded(0, 60*million, 0, "0.1"),
				model.Bounded(60*million, 150*million, 60_000, "0.15"),
				model.Bounded(150*million, 300*million, 195_000, "0.25"),
				model.Open(300*million, 570_000, "0.4"),
			},
		},
		model.AssetBuilding: {
			model.TaxationOther: {
				model.Open(0, 0, "0.25"),
			},
		},
		model.AssetLand: {
			model.TaxationAggregated: {
				model.Bounded(0, 50*million, 0, "0.2"),
				model.Bounded(50*million, 100*million, 100_000, "0.3"),
				model.Open(100*million, 250_000, "0.5"),
			},
			model.TaxationSeparated: {
				model.Bounded(0, 200*million, 0, "0.2"),
				model.Bounded(200*million, 1000*million, 400_000, "0.3"),
				model.Open(1000*million, 2_800_000, "0.4"),
			},
			model.TaxationSegregated: {
				model.Open(0, 0, "0.2"),
			},
		},
	}
}

// defaultResourceBrackets returns the regional-resource-tax brackets. The
// table is asset-type independent; land is exempt at calculation time.
func defaultResourceBrackets() []model.TaxBracket {
	million := int64(1_000_000)
	return []model.TaxBracket{
		model.Bounded(0, 6*million, 0, "0.04"),
		model.Bounded(6*million, 13*million, 2_400, "0.05"),
		model.Bounded(13*million, 26*million, 5_900, "0.06"),
		model.Bounded(26*million, 39*million, 13_700, "0.08"),
		model.Bounded(39*million, 64*million, 24_100, "0.1"),
		model.Open(64*million, 49_100, "0.12"),
	}
}

func defaultFairMarketRatios() map[model.AssetType]decimal.Decimal {
	return map[model.AssetType]decimal.Decimal{
		model.AssetHousing:  decimal.NewFromInt(60),
		model.AssetLand:     decimal.NewFromInt(70),
		model.AssetBuilding: decimal.NewFromInt(70),
	}
}

func defaultUrbanAreaRate() decimal.Decimal {
	return decimal.RequireFromString("0.14")
}

func defaultEducationRate() decimal.Decimal {
	return decimal.NewFromInt(20)
}

// defaultRateTable builds a rate table seeded with the default rate set for
// a single year. Used both for first-run bootstrap and for AddYear without
// a base year.
func defaultRateTable(year int) model.RateTable {
	key := model.YearKey(year)
	return model.RateTable{
		PropertyTax: map[string]map[model.AssetType]map[model.TaxationType][]model.TaxBracket{
			key: defaultPropertyBrackets(),
		},
		UrbanAreaTax: map[string]model.FlatRate{
			key: {Rate: defaultUrbanAreaRate()},
		},
		EducationTax: map[string]model.FlatRate{
			key: {Rate: defaultEducationRate()},
		},
		ResourceTax: map[string][]model.TaxBracket{
			key: defaultResourceBrackets(),
		},
		FairMarketRatio: map[string]map[model.AssetType]decimal.Decimal{
			key: defaultFairMarketRatios(),
		},
	}
}

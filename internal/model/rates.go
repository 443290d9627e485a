package model

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// UnboundedUpper is the sentinel stored in JSON files for an open-ended
// bracket upper bound. JSON cannot carry infinity, so persisted brackets
// use this constant; in-memory brackets use a nil UpperBound instead.
const UnboundedUpper int64 = 1_000_000_000_000

// Rate precision by tax type: progressive bracket rates keep 4 decimal
// places, flat rates (urban-area, education) keep 3. Values are normalized
// with round-half-up on every load and save so rates never drift across
// persistence cycles.
const (
	BracketRatePrecision int32 = 4
	FlatRatePrecision    int32 = 3
	RatioPrecision       int32 = 2
)

// TaxBracket is one band of a progressive rate table. Rate is a percentage
// (0.4 means 0.4%). A nil UpperBound means the bracket is open-ended.
type TaxBracket struct {
	LowerBound int64
	UpperBound *int64
	BaseAmount int64
	Rate       decimal.Decimal
}

type taxBracketJSON struct {
	LowerBound int64           `json:"lower_bound"`
	UpperBound int64           `json:"upper_bound"`
	BaseAmount int64           `json:"base_amount"`
	Rate       decimal.Decimal `json:"rate_percent"`
}

func (b TaxBracket) MarshalJSON() ([]byte, error) {
	upper := UnboundedUpper
	if b.UpperBound != nil {
		upper = *b.UpperBound
	}
	return json.Marshal(taxBracketJSON{
		LowerBound: b.LowerBound,
		UpperBound: upper,
		BaseAmount: b.BaseAmount,
		Rate:       b.Rate.Round(BracketRatePrecision),
	})
}

func (b *TaxBracket) UnmarshalJSON(data []byte) error {
	var raw taxBracketJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.LowerBound = raw.LowerBound
	b.BaseAmount = raw.BaseAmount
	b.Rate = raw.Rate.Round(BracketRatePrecision)
	if raw.UpperBound >= UnboundedUpper {
		b.UpperBound = nil
	} else {
		upper := raw.UpperBound
		b.UpperBound = &upper
	}
	return nil
}

// Unbounded reports whether the bracket has no upper limit.
func (b TaxBracket) Unbounded() bool {
	return b.UpperBound == nil
}

// Bounded returns a bracket with a concrete upper bound.
func Bounded(lower, upper, base int64, rate string) TaxBracket {
	u := upper
	return TaxBracket{
		LowerBound: lower,
		UpperBound: &u,
		BaseAmount: base,
		Rate:       decimal.RequireFromString(rate),
	}
}

// Open returns a bracket with no upper bound.
func Open(lower, base int64, rate string) TaxBracket {
	return TaxBracket{
		LowerBound: lower,
		BaseAmount: base,
		Rate:       decimal.RequireFromString(rate),
	}
}

// FlatRate wraps a single percentage rate for a year, persisted under the
// "비율" key the rate file uses.
type FlatRate struct {
	Rate decimal.Decimal `json:"비율"`
}

// RateTable is the full year-versioned rate set. The JSON field names are
// the persisted file format and must not change.
type RateTable struct {
	PropertyTax     map[string]map[AssetType]map[TaxationType][]TaxBracket `json:"재산세"`
	UrbanAreaTax    map[string]FlatRate                                    `json:"재산세_도시지역분"`
	EducationTax    map[string]FlatRate                                    `json:"지방교육세"`
	ResourceTax     map[string][]TaxBracket                                `json:"지역자원시설세"`
	FairMarketRatio map[string]map[AssetType]decimal.Decimal               `json:"공정시장가액비율"`
}

// YearKey converts a year to the string form used as a JSON map key.
func YearKey(year int) string {
	return strconv.Itoa(year)
}

// ParseYearKey converts a JSON map key back to an int year.
func ParseYearKey(key string) (int, bool) {
	year, err := strconv.Atoi(key)
	if err != nil {
		return 0, false
	}
	return year, true
}

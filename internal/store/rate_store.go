package store

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"taxi/internal/model"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RateStore owns the year-versioned rate tables. Every mutation validates
// its input, applies the change to a copy of the in-memory table and only
// swaps the copy in after the JSON file was written, so a failed save
// leaves the store unchanged.
type RateStore struct {
	mu    sync.RWMutex
	path  string
	table model.RateTable
	log   *zap.Logger
}

// NewRateStore loads the rate file at path, bootstrapping a default rate
// set for the current year when the file is missing or unreadable.
func NewRateStore(path string, logger *zap.Logger) *RateStore {
	s := &RateStore{path: path, log: logger}
	s.load()
	return s
}

func (s *RateStore) load() {
	var table model.RateTable
	err := loadJSON(s.path, &table)
	switch {
	case err == nil:
		s.table = normalizeRateTable(table)
		return
	case errors.Is(err, os.ErrNotExist):
		s.log.Info("rate file not found, seeding defaults", zap.String("path", s.path))
	default:
		s.log.Warn("failed to load rate file, falling back to defaults",
			zap.String("path", s.path), zap.Error(err))
	}
	s.table = defaultRateTable(time.Now().Year())
	if err := saveJSON(s.path, s.table); err != nil {
		s.log.Warn("failed to write default rate file", zap.String("path", s.path), zap.Error(err))
	}
}

// normalizeRateTable makes sure every map exists and every rate is rounded
// to its fixed precision so loaded values match what a save would produce.
func normalizeRateTable(t model.RateTable) model.RateTable {
	if t.PropertyTax == nil {
		t.PropertyTax = map[string]map[model.AssetType]map[model.TaxationType][]model.TaxBracket{}
	}
	if t.UrbanAreaTax == nil {
		t.UrbanAreaTax = map[string]model.FlatRate{}
	}
	if t.EducationTax == nil {
		t.EducationTax = map[string]model.FlatRate{}
	}
	if t.ResourceTax == nil {
		t.ResourceTax = map[string][]model.TaxBracket{}
	}
	if t.FairMarketRatio == nil {
		t.FairMarketRatio = map[string]map[model.AssetType]decimal.Decimal{}
	}
	for year, rate := range t.UrbanAreaTax {
		t.UrbanAreaTax[year] = model.FlatRate{Rate: rate.Rate.Round(model.FlatRatePrecision)}
	}
	for year, rate := range t.EducationTax {
		t.EducationTax[year] = model.FlatRate{Rate: rate.Rate.Round(model.FlatRatePrecision)}
	}
	for year, ratios := range t.FairMarketRatio {
		for assetType, ratio := range ratios {
			t.FairMarketRatio[year][assetType] = ratio.Round(model.RatioPrecision)
		}
	}
	return t
}

func (s *RateStore) commit(next model.RateTable) error {
	if err := saveJSON(s.path, next); err != nil {
		return err
	}
	s.table = next
	return nil
}

// Years returns the years that have rate data, sorted descending.
func (s *RateStore) Years() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[int]bool{}
	for key := range s.table.PropertyTax {
		if year, ok := model.ParseYearKey(key); ok {
			seen[year] = true
		}
	}
	years := make([]int, 0, len(seen))
	for year := range seen {
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// HasYear reports whether rate data exists for a year.
func (s *RateStore) HasYear(year int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.table.PropertyTax[model.YearKey(year)]
	return ok
}

// AddYear creates rate data for a new year, either deep-copied from an
// existing base year or seeded from the default rate set.
func (s *RateStore) AddYear(year int, baseYear *int) error {
	maxYear := time.Now().Year() + MaxYearAhead
	if year < MinYear || year > maxYear {
		return fmt.Errorf("year %d is outside the allowed range %d–%d", year, MinYear, maxYear)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.YearKey(year)
	if _, exists := s.table.PropertyTax[key]; exists {
		return fmt.Errorf("rate data for year %d already exists", year)
	}

	next := s.cloneTable()
	if baseYear != nil {
		baseKey := model.YearKey(*baseYear)
		base, ok := s.table.PropertyTax[baseKey]
		if !ok {
			return fmt.Errorf("base year %d has no rate data", *baseYear)
		}
		next.PropertyTax[key] = clonePropertyYear(base)
		next.UrbanAreaTax[key] = s.table.UrbanAreaTax[baseKey]
		next.EducationTax[key] = s.table.EducationTax[baseKey]
		next.ResourceTax[key] = cloneBrackets(s.table.ResourceTax[baseKey])
		next.FairMarketRatio[key] = cloneRatios(s.table.FairMarketRatio[baseKey])
	} else {
		next.PropertyTax[key] = defaultPropertyBrackets()
		next.UrbanAreaTax[key] = model.FlatRate{Rate: defaultUrbanAreaRate()}
		next.EducationTax[key] = model.FlatRate{Rate: defaultEducationRate()}
		next.ResourceTax[key] = defaultResourceBrackets()
		next.FairMarketRatio[key] = defaultFairMarketRatios()
	}
	return s.commit(next)
}

// DeleteYear removes a year's rate data. The caller is responsible for
// checking cross-store dependents (assets, saved calculations); the store
// itself only refuses to delete the last remaining year.
func (s *RateStore) DeleteYear(year int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.YearKey(year)
	if _, ok := s.table.PropertyTax[key]; !ok {
		return fmt.Errorf("no rate data for year %d", year)
	}
	if len(s.table.PropertyTax) <= 1 {
		return fmt.Errorf("cannot delete year %d: it is the only remaining rate year", year)
	}

	next := s.cloneTable()
	delete(next.PropertyTax, key)
	delete(next.UrbanAreaTax, key)
	delete(next.EducationTax, key)
	delete(next.ResourceTax, key)
	delete(next.FairMarketRatio, key)
	return s.commit(next)
}

// UpdatePropertyBrackets replaces the full bracket list for one
// (year, asset type, taxation type) atomically.
func (s *RateStore) UpdatePropertyBrackets(year int, assetType model.AssetType, taxationType model.TaxationType, brackets []model.TaxBracket) error {
	if !model.ValidAssetType(assetType) {
		return fmt.Errorf("unknown asset type %q", assetType)
	}
	if _, valid := model.NormalizeTaxationType(assetType, taxationType); !valid {
		return fmt.Errorf("taxation type %q is not valid for asset type %q", taxationType, assetType)
	}
	if problems := validateBrackets(brackets); len(problems) > 0 {
		return fmt.Errorf("invalid brackets: %s", strings.Join(problems, "; "))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.YearKey(year)
	if _, ok := s.table.PropertyTax[key]; !ok {
		return fmt.Errorf("no rate data for year %d", year)
	}

	next := s.cloneTable()
	if next.PropertyTax[key][assetType] == nil {
		next.PropertyTax[key][assetType] = map[model.TaxationType][]model.TaxBracket{}
	}
	next.PropertyTax[key][assetType][taxationType] = normalizeBrackets(brackets)
	return s.commit(next)
}

// UpdateResourceBrackets replaces the regional-resource-tax bracket list.
func (s *RateStore) UpdateResourceBrackets(year int, brackets []model.TaxBracket) error {
	if problems := validateBrackets(brackets); len(problems) > 0 {
		return fmt.Errorf("invalid brackets: %s", strings.Join(problems, "; "))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.YearKey(year)
	if _, ok := s.table.PropertyTax[key]; !ok {
		return fmt.Errorf("no rate data for year %d", year)
	}

	next := s.cloneTable()
	next.ResourceTax[key] = normalizeBrackets(brackets)
	return s.commit(next)
}

// UpdateUrbanAreaRate sets the urban-area surtax rate for a year.
func (s *RateStore) UpdateUrbanAreaRate(year int, rate decimal.Decimal) error {
	if err := validateRate(rate); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.YearKey(year)
	if _, ok := s.table.PropertyTax[key]; !ok {
		return fmt.Errorf("no rate data for year %d", year)
	}

	next := s.cloneTable()
	next.UrbanAreaTax[key] = model.FlatRate{Rate: rate.Round(model.FlatRatePrecision)}
	return s.commit(next)
}

// UpdateEducationRate sets the local-education surtax rate for a year.
func (s *RateStore) UpdateEducationRate(year int, rate decimal.Decimal) error {
	if err := validateRate(rate); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.YearKey(year)
	if _, ok := s.table.PropertyTax[key]; !ok {
		return fmt.Errorf("no rate data for year %d", year)
	}

	next := s.cloneTable()
	next.EducationTax[key] = model.FlatRate{Rate: rate.Round(model.FlatRatePrecision)}
	return s.commit(next)
}

// UpdateFairMarketRatio sets the fair-market-value ratio for a year and
// asset type.
func (s *RateStore) UpdateFairMarketRatio(year int, assetType model.AssetType, ratio decimal.Decimal) error {
	if !model.ValidAssetType(assetType) {
		return fmt.Errorf("unknown asset type %q", assetType)
	}
	if err := validateRate(ratio); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.YearKey(year)
	if _, ok := s.table.PropertyTax[key]; !ok {
		return fmt.Errorf("no rate data for year %d", year)
	}

	next := s.cloneTable()
	if next.FairMarketRatio[key] == nil {
		next.FairMarketRatio[key] = map[model.AssetType]decimal.Decimal{}
	}
	next.FairMarketRatio[key][assetType] = ratio.Round(model.RatioPrecision)
	return s.commit(next)
}

// BracketsFor returns the property-tax brackets for a year, asset type and
// taxation type.
func (s *RateStore) BracketsFor(year int, assetType model.AssetType, taxationType model.TaxationType) ([]model.TaxBracket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byAsset, ok := s.table.PropertyTax[model.YearKey(year)]
	if !ok {
		return nil, false
	}
	byTaxation, ok := byAsset[assetType]
	if !ok {
		return nil, false
	}
	brackets, ok := byTaxation[taxationType]
	if !ok || len(brackets) == 0 {
		return nil, false
	}
	return cloneBrackets(brackets), true
}

// UrbanAreaRate returns the urban-area surtax rate for a year.
func (s *RateStore) UrbanAreaRate(year int) (decimal.Decimal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rate, ok := s.table.UrbanAreaTax[model.YearKey(year)]
	return rate.Rate, ok
}

// EducationRate returns the local-education surtax rate for a year.
func (s *RateStore) EducationRate(year int) (decimal.Decimal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rate, ok := s.table.EducationTax[model.YearKey(year)]
	return rate.Rate, ok
}

// ResourceBrackets returns the regional-resource-tax brackets for a year.
func (s *RateStore) ResourceBrackets(year int) ([]model.TaxBracket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	brackets, ok := s.table.ResourceTax[model.YearKey(year)]
	if !ok || len(brackets) == 0 {
		return nil, false
	}
	return cloneBrackets(brackets), true
}

// FairMarketRatio returns the fair-market-value ratio for a year and asset
// type.
func (s *RateStore) FairMarketRatio(year int, assetType model.AssetType) (decimal.Decimal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ratios, ok := s.table.FairMarketRatio[model.YearKey(year)]
	if !ok {
		return decimal.Zero, false
	}
	ratio, ok := ratios[assetType]
	return ratio, ok
}

// YearRates bundles every rate table for one year, for API responses.
type YearRates struct {
	Year            int                                                           `json:"year"`
	PropertyTax     map[model.AssetType]map[model.TaxationType][]model.TaxBracket `json:"property_tax"`
	UrbanAreaRate   decimal.Decimal                                               `json:"urban_area_rate"`
	EducationRate   decimal.Decimal                                               `json:"education_rate"`
	ResourceTax     []model.TaxBracket                                            `json:"resource_tax"`
	FairMarketRatio map[model.AssetType]decimal.Decimal                           `json:"fair_market_ratio"`
}

// RatesForYear returns the complete rate set for one year.
func (s *RateStore) RatesForYear(year int) (YearRates, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := model.YearKey(year)
	property, ok := s.table.PropertyTax[key]
	if !ok {
		return YearRates{}, fmt.Errorf("no rate data for year %d", year)
	}
	return YearRates{
		Year:            year,
		PropertyTax:     clonePropertyYear(property),
		UrbanAreaRate:   s.table.UrbanAreaTax[key].Rate,
		EducationRate:   s.table.EducationTax[key].Rate,
		ResourceTax:     cloneBrackets(s.table.ResourceTax[key]),
		FairMarketRatio: cloneRatios(s.table.FairMarketRatio[key]),
	}, nil
}

// --- Validation ---

func validateRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("rate must be between 0 and 100, got %s", rate.String())
	}
	return nil
}

// validateBrackets checks every bracket and accumulates all violations so
// the caller sees the full list at once, not just the first problem.
func validateBrackets(brackets []model.TaxBracket) []string {
	if len(brackets) == 0 {
		return []string{"at least one bracket is required"}
	}
	var problems []string
	hundred := decimal.NewFromInt(100)
	for i, b := range brackets {
		label := fmt.Sprintf("bracket %d", i+1)
		if b.LowerBound < 0 {
			problems = append(problems, fmt.Sprintf("%s: lower bound must not be negative", label))
		}
		if b.BaseAmount < 0 {
			problems = append(problems, fmt.Sprintf("%s: base amount must not be negative", label))
		}
		if b.Rate.IsNegative() || b.Rate.GreaterThan(hundred) {
			problems = append(problems, fmt.Sprintf("%s: rate must be between 0 and 100, got %s", label, b.Rate.String()))
		}
		if b.UpperBound != nil && *b.UpperBound <= b.LowerBound {
			problems = append(problems, fmt.Sprintf("%s: upper bound %d must exceed lower bound %d", label, *b.UpperBound, b.LowerBound))
		}
		if b.UpperBound == nil && i != len(brackets)-1 {
			problems = append(problems, fmt.Sprintf("%s: only the last bracket may be open-ended", label))
		}
		if i > 0 {
			prev := brackets[i-1]
			if prev.UpperBound != nil && *prev.UpperBound != b.LowerBound {
				problems = append(problems, fmt.Sprintf("%s: lower bound %d does not continue the previous upper bound %d", label, b.LowerBound, *prev.UpperBound))
			}
		}
	}
	if last := brackets[len(brackets)-1]; last.UpperBound != nil {
		problems = append(problems, "the last bracket must be open-ended")
	}
	return problems
}

func normalizeBrackets(brackets []model.TaxBracket) []model.TaxBracket {
	out := cloneBrackets(brackets)
	for i := range out {
		out[i].Rate = out[i].Rate.Round(model.BracketRatePrecision)
	}
	return out
}

// --- Deep copies ---

func (s *RateStore) cloneTable() model.RateTable {
	next := model.RateTable{
		PropertyTax:     make(map[string]map[model.AssetType]map[model.TaxationType][]model.TaxBracket, len(s.table.PropertyTax)),
		UrbanAreaTax:    make(map[string]model.FlatRate, len(s.table.UrbanAreaTax)),
		EducationTax:    make(map[string]model.FlatRate, len(s.table.EducationTax)),
		ResourceTax:     make(map[string][]model.TaxBracket, len(s.table.ResourceTax)),
		FairMarketRatio: make(map[string]map[model.AssetType]decimal.Decimal, len(s.table.FairMarketRatio)),
	}
	for year, byAsset := range s.table.PropertyTax {
		next.PropertyTax[year] = clonePropertyYear(byAsset)
	}
	for year, rate := range s.table.UrbanAreaTax {
		next.UrbanAreaTax[year] = rate
	}
	for year, rate := range s.table.EducationTax {
		next.EducationTax[year] = rate
	}
	for year, brackets := range s.table.ResourceTax {
		next.ResourceTax[year] = cloneBrackets(brackets)
	}
	for year, ratios := range s.table.FairMarketRatio {
		next.FairMarketRatio[year] = cloneRatios(ratios)
	}
	return next
}

func clonePropertyYear(src map[model.AssetType]map[model.TaxationType][]model.TaxBracket) map[model.AssetType]map[model.TaxationType][]model.TaxBracket {
	out := make(map[model.AssetType]map[model.TaxationType][]model.TaxBracket, len(src))
	for assetType, byTaxation := range src {
		out[assetType] = make(map[model.TaxationType][]model.TaxBracket, len(byTaxation))
		for taxationType, brackets := range byTaxation {
			out[assetType][taxationType] = cloneBrackets(brackets)
		}
	}
	return out
}

func cloneBrackets(src []model.TaxBracket) []model.TaxBracket {
	out := make([]model.TaxBracket, len(src))
	for i, b := range src {
		out[i] = b
		if b.UpperBound != nil {
			upper := *b.UpperBound
			out[i].UpperBound = &upper
		}
	}
	return out
}

func cloneRatios(src map[model.AssetType]decimal.Decimal) map[model.AssetType]decimal.Decimal {
	out := make(map[model.AssetType]decimal.Decimal, len(src))
	for assetType, ratio := range src {
		out[assetType] = ratio
	}
	return out
}

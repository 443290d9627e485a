package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"taxi/internal/model"
	"taxi/internal/store"
	"taxi/internal/websocket"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type AddYearRequest struct {
	Year     int  `json:"year" binding:"required"`
	BaseYear *int `json:"base_year"` // Copy this year's rates; defaults when absent
}

// BracketPayload is one bracket in a rate-update request. Rates travel as
// decimal strings, like every other rate field in the API. An absent upper
// bound (or the sentinel value) means the bracket is open-ended.
type BracketPayload struct {
	LowerBound int64  `json:"lower_bound"`
	UpperBound *int64 `json:"upper_bound"`
	BaseAmount int64  `json:"base_amount"`
	Rate       string `json:"rate_percent" binding:"required"`
}

type UpdateBracketsRequest struct {
	AssetType    string           `json:"asset_type" binding:"required"`
	TaxationType string           `json:"taxation_type" binding:"required"`
	Brackets     []BracketPayload `json:"brackets" binding:"required"`
}

type UpdateResourceBracketsRequest struct {
	Brackets []BracketPayload `json:"brackets" binding:"required"`
}

type UpdateFlatRateRequest struct {
	Rate string `json:"rate" binding:"required"` // Decimal string, e.g. "0.14"
}

type UpdateRatioRequest struct {
	AssetType string `json:"asset_type" binding:"required"`
	Ratio     string `json:"ratio" binding:"required"` // Percentage, e.g. "60"
}

// --- Interface ---

type RateService interface {
	AvailableYears(ctx context.Context) []int
	AddYear(ctx context.Context, req AddYearRequest, actor string) error
	DeleteYear(ctx context.Context, year int, actor string) error
	YearRates(ctx context.Context, year int) (store.YearRates, error)
	UpdateBrackets(ctx context.Context, year int, req UpdateBracketsRequest, actor string) error
	UpdateResourceBrackets(ctx context.Context, year int, req UpdateResourceBracketsRequest, actor string) error
	UpdateUrbanAreaRate(ctx context.Context, year int, req UpdateFlatRateRequest, actor string) error
	UpdateEducationRate(ctx context.Context, year int, req UpdateFlatRateRequest, actor string) error
	UpdateFairMarketRatio(ctx context.Context, year int, req UpdateRatioRequest, actor string) error
}

type rateService struct {
	rates  *store.RateStore
	assets *store.AssetStore
	calcs  *store.CalculationStore
	db     *gorm.DB
	hub    *websocket.Hub
}

func NewRateService(rates *store.RateStore, assets *store.AssetStore, calcs *store.CalculationStore, db *gorm.DB, hub *websocket.Hub) RateService {
	return &rateService{rates: rates, assets: assets, calcs: calcs, db: db, hub: hub}
}

// --- Implementation ---

// AvailableYears returns the union of rate-table years and asset snapshot
// years, newest first. Never empty: falls back to the current year.
func (s *rateService) AvailableYears(_ context.Context) []int {
	seen := map[int]bool{}
	for _, year := range s.rates.Years() {
		seen[year] = true
	}
	for _, year := range s.assets.Years() {
		seen[year] = true
	}
	if len(seen) == 0 {
		return []int{time.Now().Year()}
	}
	years := make([]int, 0, len(seen))
	for year := range seen {
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

func (s *rateService) AddYear(ctx context.Context, req AddYearRequest, actor string) error {
	if err := s.rates.AddYear(req.Year, req.BaseYear); err != nil {
		return err
	}
	writeAuditLog(ctx, s.db, actor, model.ActionAddTaxYear, model.YearKey(req.Year), fmt.Sprintf("tax year %d", req.Year), req)
	s.hub.Notify(websocket.EventRatesUpdated, map[string]int{"year": req.Year})
	return nil
}

// DeleteYear refuses to delete a year that any asset snapshot or stored
// calculation still references, enumerating every blocking entity.
func (s *rateService) DeleteYear(ctx context.Context, year int, actor string) error {
	var blockers []string
	if ids := s.assets.AssetsWithYear(year); len(ids) > 0 {
		blockers = append(blockers, fmt.Sprintf("assets with %d data: %s", year, strings.Join(ids, ", ")))
	}
	if keys := s.calcs.KeysWithYear(year); len(keys) > 0 {
		blockers = append(blockers, fmt.Sprintf("saved calculations for %d: %s", year, strings.Join(keys, ", ")))
	}
	if len(blockers) > 0 {
		return fmt.Errorf("cannot delete year %d: %s", year, strings.Join(blockers, "; "))
	}

	if err := s.rates.DeleteYear(year); err != nil {
		return err
	}
	writeAuditLog(ctx, s.db, actor, model.ActionDeleteTaxYear, model.YearKey(year), fmt.Sprintf("tax year %d", year), nil)
	s.hub.Notify(websocket.EventRatesUpdated, map[string]int{"year": year})
	return nil
}

func (s *rateService) YearRates(_ context.Context, year int) (store.YearRates, error) {
	return s.rates.RatesForYear(year)
}

func (s *rateService) UpdateBrackets(ctx context.Context, year int, req UpdateBracketsRequest, actor string) error {
	brackets, err := parseBrackets(req.Brackets)
	if err != nil {
		return err
	}
	assetType := model.AssetType(req.AssetType)
	taxationType := model.TaxationType(req.TaxationType)
	if err := s.rates.UpdatePropertyBrackets(year, assetType, taxationType, brackets); err != nil {
		return err
	}
	entity := fmt.Sprintf("%d/%s/%s", year, assetType, taxationType)
	writeAuditLog(ctx, s.db, actor, model.ActionUpdateTaxRates, entity, "property tax brackets", req)
	s.hub.Notify(websocket.EventRatesUpdated, map[string]int{"year": year})
	return nil
}

func (s *rateService) UpdateResourceBrackets(ctx context.Context, year int, req UpdateResourceBracketsRequest, actor string) error {
	brackets, err := parseBrackets(req.Brackets)
	if err != nil {
		return err
	}
	if err := s.rates.UpdateResourceBrackets(year, brackets); err != nil {
		return err
	}
	writeAuditLog(ctx, s.db, actor, model.ActionUpdateTaxRates, model.YearKey(year), "regional resource tax brackets", req)
	s.hub.Notify(websocket.EventRatesUpdated, map[string]int{"year": year})
	return nil
}

func (s *rateService) UpdateUrbanAreaRate(ctx context.Context, year int, req UpdateFlatRateRequest, actor string) error {
	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		return fmt.Errorf("invalid rate value: %w", err)
	}
	if err := s.rates.UpdateUrbanAreaRate(year, rate); err != nil {
		return err
	}
	writeAuditLog(ctx, s.db, actor, model.ActionUpdateTaxRates, model.YearKey(year), "urban-area surtax rate", req)
	s.hub.Notify(websocket.EventRatesUpdated, map[string]int{"year": year})
	return nil
}

func (s *rateService) UpdateEducationRate(ctx context.Context, year int, req UpdateFlatRateRequest, actor string) error {
	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		return fmt.Errorf("invalid rate value: %w", err)
	}
	if err := s.rates.UpdateEducationRate(year, rate); err != nil {
		return err
	}
	writeAuditLog(ctx, s.db, actor, model.ActionUpdateTaxRates, model.YearKey(year), "education surtax rate", req)
	s.hub.Notify(websocket.EventRatesUpdated, map[string]int{"year": year})
	return nil
}

func (s *rateService) UpdateFairMarketRatio(ctx context.Context, year int, req UpdateRatioRequest, actor string) error {
	ratio, err := decimal.NewFromString(req.Ratio)
	if err != nil {
		return fmt.Errorf("invalid ratio value: %w", err)
	}
	if err := s.rates.UpdateFairMarketRatio(year, model.AssetType(req.AssetType), ratio); err != nil {
		return err
	}
	entity := fmt.Sprintf("%d/%s", year, req.AssetType)
	writeAuditLog(ctx, s.db, actor, model.ActionUpdateTaxRates, entity, "fair-market-value ratio", req)
	s.hub.Notify(websocket.EventRatesUpdated, map[string]int{"year": year})
	return nil
}

// --- Helpers ---

func parseBrackets(payloads []BracketPayload) ([]model.TaxBracket, error) {
	brackets := make([]model.TaxBracket, 0, len(payloads))
	var problems []string
	for i, p := range payloads {
		rate, err := decimal.NewFromString(p.Rate)
		if err != nil {
			problems = append(problems, fmt.Sprintf("bracket %d: invalid rate %q", i+1, p.Rate))
			continue
		}
		b := model.TaxBracket{
			LowerBound: p.LowerBound,
			BaseAmount: p.BaseAmount,
			Rate:       rate,
		}
		if p.UpperBound != nil && *p.UpperBound < model.UnboundedUpper {
			upper := *p.UpperBound
			b.UpperBound = &upper
		}
		brackets = append(brackets, b)
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid brackets: %s", strings.Join(problems, "; "))
	}
	return brackets, nil
}

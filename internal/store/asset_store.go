package store

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"taxi/internal/model"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AssetStore owns the asset registry. The full registry is persisted to one
// JSON file on every mutation; mutations apply to a copied map that is only
// swapped in after a successful write.
type AssetStore struct {
	mu     sync.RWMutex
	path   string
	assets map[string]model.Asset
	log    *zap.Logger
}

// NewAssetStore loads the asset file at path, starting from an empty
// registry when the file is missing or unreadable.
func NewAssetStore(path string, logger *zap.Logger) *AssetStore {
	s := &AssetStore{path: path, log: logger}
	s.load()
	return s
}

func (s *AssetStore) load() {
	assets := map[string]model.Asset{}
	err := loadJSON(s.path, &assets)
	switch {
	case err == nil:
		s.assets = assets
		return
	case errors.Is(err, os.ErrNotExist):
		s.log.Info("asset file not found, starting empty", zap.String("path", s.path))
	default:
		s.log.Warn("failed to load asset file, starting empty",
			zap.String("path", s.path), zap.Error(err))
	}
	s.assets = map[string]model.Asset{}
	if err := saveJSON(s.path, s.assets); err != nil {
		s.log.Warn("failed to write empty asset file", zap.String("path", s.path), zap.Error(err))
	}
}

func (s *AssetStore) commit(next map[string]model.Asset) error {
	if err := saveJSON(s.path, next); err != nil {
		return err
	}
	s.assets = next
	return nil
}

func (s *AssetStore) cloneAssets() map[string]model.Asset {
	next := make(map[string]model.Asset, len(s.assets))
	for id, asset := range s.assets {
		next[id] = cloneAsset(asset)
	}
	return next
}

func cloneAsset(a model.Asset) model.Asset {
	out := a
	out.YearlyData = make(map[string]model.YearSnapshot, len(a.YearlyData))
	for year, snap := range a.YearlyData {
		out.YearlyData[year] = snap
	}
	return out
}

// Get returns one asset by id.
func (s *AssetStore) Get(assetID string) (model.Asset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	asset, ok := s.assets[assetID]
	if !ok {
		return model.Asset{}, false
	}
	return cloneAsset(asset), true
}

// List returns assets sorted by id. An empty group or model.GroupAll
// selects every asset.
func (s *AssetStore) List(groupID string) []model.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Asset, 0, len(s.assets))
	for _, asset := range s.assets {
		if groupID != "" && groupID != model.GroupAll && asset.GroupID != groupID {
			continue
		}
		out = append(out, cloneAsset(asset))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetID < out[j].AssetID })
	return out
}

// Years returns every year any asset carries snapshot data for.
func (s *AssetStore) Years() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[int]bool{}
	for _, asset := range s.assets {
		for _, year := range asset.SnapshotYears() {
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

// AssetsWithYear returns the ids of assets holding snapshot data for a
// year, for delete-year dependency checks.
func (s *AssetStore) AssetsWithYear(year int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := model.YearKey(year)
	var ids []string
	for id, asset := range s.assets {
		if _, ok := asset.YearlyData[key]; ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// normalize corrects the auto-correctable fields in place and returns a
// warning message per correction.
func normalizeAsset(a *model.Asset) []string {
	var warnings []string
	if corrected, valid := model.NormalizeTaxationType(a.AssetType, a.TaxationType); !valid {
		warnings = append(warnings, fmt.Sprintf(
			"asset %s: taxation type %q is not valid for %s, corrected to %q",
			a.AssetID, a.TaxationType, a.AssetType, corrected))
		a.TaxationType = corrected
	}
	if a.UrbanArea != model.UrbanAreaYes && a.UrbanArea != model.UrbanAreaNo {
		warnings = append(warnings, fmt.Sprintf(
			"asset %s: urban area flag %q corrected to %q", a.AssetID, a.UrbanArea, model.UrbanAreaNo))
		a.UrbanArea = model.UrbanAreaNo
	}
	return warnings
}

// Create validates and stores a new asset. Correctable fields (taxation
// type, urban flag) are fixed up rather than rejected; the returned
// warnings describe each correction.
func (s *AssetStore) Create(asset model.Asset) (model.Asset, []string, error) {
	if asset.YearlyData == nil {
		asset.YearlyData = map[string]model.YearSnapshot{}
	}
	warnings := normalizeAsset(&asset)
	if problems := asset.Validate(); len(problems) > 0 {
		return model.Asset{}, warnings, fmt.Errorf("invalid asset: %s", strings.Join(problems, "; "))
	}
	for _, w := range warnings {
		s.log.Warn("asset field corrected", zap.String("asset_id", asset.AssetID), zap.String("correction", w))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.assets[asset.AssetID]; exists {
		return model.Asset{}, warnings, fmt.Errorf("asset %s already exists", asset.AssetID)
	}

	next := s.cloneAssets()
	next[asset.AssetID] = cloneAsset(asset)
	if err := s.commit(next); err != nil {
		return model.Asset{}, warnings, err
	}
	return asset, warnings, nil
}

// Update replaces an asset's fields. Provided year snapshots fully replace
// the existing snapshot for the same year; other years are kept.
func (s *AssetStore) Update(asset model.Asset) (model.Asset, []string, error) {
	warnings := normalizeAsset(&asset)
	if problems := asset.Validate(); len(problems) > 0 {
		return model.Asset{}, warnings, fmt.Errorf("invalid asset: %s", strings.Join(problems, "; "))
	}
	for _, w := range warnings {
		s.log.Warn("asset field corrected", zap.String("asset_id", asset.AssetID), zap.String("correction", w))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.assets[asset.AssetID]
	if !ok {
		return model.Asset{}, warnings, fmt.Errorf("asset %s not found", asset.AssetID)
	}

	merged := cloneAsset(existing)
	merged.Name = asset.Name
	merged.AssetType = asset.AssetType
	merged.DetailType = asset.DetailType
	merged.TaxationType = asset.TaxationType
	merged.UrbanArea = asset.UrbanArea
	merged.GroupID = asset.GroupID
	merged.Province = asset.Province
	merged.City = asset.City
	merged.Address = asset.Address
	merged.Area = asset.Area
	for year, snap := range asset.YearlyData {
		merged.YearlyData[year] = snap
	}

	next := s.cloneAssets()
	next[asset.AssetID] = merged
	if err := s.commit(next); err != nil {
		return model.Asset{}, warnings, err
	}
	return merged, warnings, nil
}

// Delete removes an asset. Assets have no dependents, so deletion is
// unconditional.
func (s *AssetStore) Delete(assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[assetID]; !ok {
		return fmt.Errorf("asset %s not found", assetID)
	}
	next := s.cloneAssets()
	delete(next, assetID)
	return s.commit(next)
}

// ImportRow is one parsed row from a bulk Excel upload. The Excel parsing
// itself happens upstream; the store only sees dict-like rows.
type ImportRow struct {
	AssetID             string             `json:"asset_id"`
	Name                string             `json:"name"`
	AssetType           model.AssetType    `json:"asset_type"`
	DetailType          string             `json:"detail_type"`
	TaxationType        model.TaxationType `json:"taxation_type"`
	UrbanArea           string             `json:"urban_area"`
	GroupID             string             `json:"group_id"`
	Province            string             `json:"province"`
	City                string             `json:"city"`
	Address             string             `json:"address"`
	Area                float64            `json:"area"`
	Year                int                `json:"year"`
	PublishedLandPrice  int64              `json:"published_land_price"`
	StandardMarketValue int64              `json:"standard_market_value"`
	BuildingMarketValue int64              `json:"building_market_value"`
	ReductionRate       decimal.Decimal    `json:"reduction_rate"`
	SurchargeRate       decimal.Decimal    `json:"surcharge_rate"`
	ValidThrough        string             `json:"valid_through"`
}

// ImportSummary reports the outcome of a bulk import. Warnings are
// non-fatal corrections; Failures are rows that were not imported.
type ImportSummary struct {
	Created  int      `json:"created"`
	Updated  int      `json:"updated"`
	Failed   int      `json:"failed"`
	Warnings []string `json:"warnings"`
	Failures []string `json:"failures"`
}

// ImportRows bulk-imports assets with create-or-update-by-id semantics.
// Correctable problems become warnings and the row still imports; hard
// validation failures skip the row. The registry is persisted once at the
// end regardless of how many rows changed.
func (s *AssetStore) ImportRows(rows []ImportRow) (ImportSummary, error) {
	summary := ImportSummary{}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cloneAssets()

	for i, row := range rows {
		label := fmt.Sprintf("row %d (%s)", i+1, row.AssetID)
		asset := model.Asset{
			AssetID:      row.AssetID,
			Name:         row.Name,
			AssetType:    row.AssetType,
			DetailType:   row.DetailType,
			TaxationType: row.TaxationType,
			UrbanArea:    row.UrbanArea,
			GroupID:      row.GroupID,
			Province:     row.Province,
			City:         row.City,
			Address:      row.Address,
			Area:         row.Area,
			YearlyData:   map[string]model.YearSnapshot{},
		}
		if row.Year != 0 {
			asset.YearlyData[model.YearKey(row.Year)] = model.YearSnapshot{
				ApplicableYear:      row.Year,
				PublishedLandPrice:  row.PublishedLandPrice,
				StandardMarketValue: row.StandardMarketValue,
				BuildingMarketValue: row.BuildingMarketValue,
				ReductionRate:       row.ReductionRate,
				SurchargeRate:       row.SurchargeRate,
				ValidThrough:        row.ValidThrough,
			}
		}

		corrections := normalizeAsset(&asset)
		for _, c := range corrections {
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("%s: %s", label, c))
			s.log.Warn("import row corrected", zap.String("row", label), zap.String("correction", c))
		}

		if existing, ok := next[row.AssetID]; ok {
			merged := cloneAsset(existing)
			merged.Name = asset.Name
			merged.AssetType = asset.AssetType
			merged.DetailType = asset.DetailType
			merged.TaxationType = asset.TaxationType
			merged.UrbanArea = asset.UrbanArea
			merged.GroupID = asset.GroupID
			merged.Province = asset.Province
			merged.City = asset.City
			merged.Address = asset.Address
			merged.Area = asset.Area
			for year, snap := range asset.YearlyData {
				merged.YearlyData[year] = snap
			}
			if problems := merged.Validate(); len(problems) > 0 {
				summary.Failed++
				summary.Failures = append(summary.Failures, fmt.Sprintf("%s: %s", label, strings.Join(problems, "; ")))
				continue
			}
			next[row.AssetID] = merged
			summary.Updated++
		} else {
			if problems := asset.Validate(); len(problems) > 0 {
				summary.Failed++
				summary.Failures = append(summary.Failures, fmt.Sprintf("%s: %s", label, strings.Join(problems, "; ")))
				continue
			}
			next[row.AssetID] = asset
			summary.Created++
		}
	}

	if err := s.commit(next); err != nil {
		return summary, fmt.Errorf("failed to persist imported assets: %w", err)
	}
	return summary, nil
}

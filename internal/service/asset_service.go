package service

import (
	"context"
	"fmt"

	"taxi/internal/model"
	"taxi/internal/store"
	"taxi/internal/websocket"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

// SnapshotPayload carries one year's valuation data. Rates are decimal
// strings; empty means zero.
type SnapshotPayload struct {
	Year                int    `json:"year" binding:"required"`
	PublishedLandPrice  int64  `json:"published_land_price"`
	StandardMarketValue int64  `json:"standard_market_value" binding:"gte=0"`
	BuildingMarketValue int64  `json:"building_market_value"`
	ReductionRate       string `json:"reduction_rate"`
	SurchargeRate       string `json:"surcharge_rate"`
	ValidThrough        string `json:"valid_through"`
}

type AssetRequest struct {
	AssetID      string            `json:"asset_id" binding:"required"`
	Name         string            `json:"name" binding:"required"`
	AssetType    string            `json:"asset_type" binding:"required"`
	DetailType   string            `json:"detail_type"`
	TaxationType string            `json:"taxation_type"`
	UrbanArea    string            `json:"urban_area"`
	GroupID      string            `json:"group_id" binding:"required"`
	Province     string            `json:"province"`
	City         string            `json:"city"`
	Address      string            `json:"address"`
	Area         float64           `json:"area" binding:"required,gt=0"`
	Snapshots    []SnapshotPayload `json:"snapshots"`
}

type ImportAssetsRequest struct {
	Rows []store.ImportRow `json:"rows" binding:"required"`
}

// --- Interface ---

type AssetService interface {
	ListAssets(ctx context.Context, groupID string) []model.Asset
	GetAsset(ctx context.Context, assetID string) (model.Asset, error)
	CreateAsset(ctx context.Context, req AssetRequest, actor string) (model.Asset, []string, error)
	UpdateAsset(ctx context.Context, assetID string, req AssetRequest, actor string) (model.Asset, []string, error)
	DeleteAsset(ctx context.Context, assetID string, actor string) error
	ImportAssets(ctx context.Context, req ImportAssetsRequest, actor string) (store.ImportSummary, error)
}

type assetService struct {
	assets *store.AssetStore
	db     *gorm.DB
	hub    *websocket.Hub
}

func NewAssetService(assets *store.AssetStore, db *gorm.DB, hub *websocket.Hub) AssetService {
	return &assetService{assets: assets, db: db, hub: hub}
}

// --- Implementation ---

func (s *assetService) ListAssets(_ context.Context, groupID string) []model.Asset {
	return s.assets.List(groupID)
}

func (s *assetService) GetAsset(_ context.Context, assetID string) (model.Asset, error) {
	asset, ok := s.assets.Get(assetID)
	if !ok {
		return model.Asset{}, fmt.Errorf("asset %s not found", assetID)
	}
	return asset, nil
}

func (s *assetService) CreateAsset(ctx context.Context, req AssetRequest, actor string) (model.Asset, []string, error) {
	asset, err := assetFromRequest(req)
	if err != nil {
		return model.Asset{}, nil, err
	}

	created, warnings, err := s.assets.Create(asset)
	if err != nil {
		return model.Asset{}, warnings, err
	}

	writeAuditLog(ctx, s.db, actor, model.ActionCreateAsset, created.AssetID, created.Name, req)
	s.hub.Notify(websocket.EventAssetsChanged, map[string]string{"asset_id": created.AssetID})
	return created, warnings, nil
}

func (s *assetService) UpdateAsset(ctx context.Context, assetID string, req AssetRequest, actor string) (model.Asset, []string, error) {
	asset, err := assetFromRequest(req)
	if err != nil {
		return model.Asset{}, nil, err
	}
	asset.AssetID = assetID

	updated, warnings, err := s.assets.Update(asset)
	if err != nil {
		return model.Asset{}, warnings, err
	}

	writeAuditLog(ctx, s.db, actor, model.ActionUpdateAsset, updated.AssetID, updated.Name, req)
	s.hub.Notify(websocket.EventAssetsChanged, map[string]string{"asset_id": updated.AssetID})
	return updated, warnings, nil
}

func (s *assetService) DeleteAsset(ctx context.Context, assetID string, actor string) error {
	asset, ok := s.assets.Get(assetID)
	if !ok {
		return fmt.Errorf("asset %s not found", assetID)
	}
	if err := s.assets.Delete(assetID); err != nil {
		return err
	}

	writeAuditLog(ctx, s.db, actor, model.ActionDeleteAsset, assetID, asset.Name, map[string]string{"deleted_id": assetID})
	s.hub.Notify(websocket.EventAssetsChanged, map[string]string{"asset_id": assetID})
	return nil
}

func (s *assetService) ImportAssets(ctx context.Context, req ImportAssetsRequest, actor string) (store.ImportSummary, error) {
	summary, err := s.assets.ImportRows(req.Rows)
	if err != nil {
		return summary, err
	}

	writeAuditLog(ctx, s.db, actor, model.ActionImportAssets, "", fmt.Sprintf("%d rows", len(req.Rows)), summary)
	if summary.Created+summary.Updated > 0 {
		s.hub.Notify(websocket.EventAssetsChanged, summary)
	}
	return summary, nil
}

// --- Helpers ---

func assetFromRequest(req AssetRequest) (model.Asset, error) {
	asset := model.Asset{
		AssetID:      req.AssetID,
		Name:         req.Name,
		AssetType:    model.AssetType(req.AssetType),
		DetailType:   req.DetailType,
		TaxationType: model.TaxationType(req.TaxationType),
		UrbanArea:    req.UrbanArea,
		GroupID:      req.GroupID,
		Province:     req.Province,
		City:         req.City,
		Address:      req.Address,
		Area:         req.Area,
		YearlyData:   map[string]model.YearSnapshot{},
	}
	if asset.UrbanArea == "" {
		asset.UrbanArea = model.UrbanAreaNo
	}
	for _, payload := range req.Snapshots {
		snap, err := snapshotFromPayload(payload)
		if err != nil {
			return model.Asset{}, err
		}
		asset.YearlyData[model.YearKey(payload.Year)] = snap
	}
	return asset, nil
}

func snapshotFromPayload(p SnapshotPayload) (model.YearSnapshot, error) {
	reduction, err := parseOptionalRate(p.ReductionRate)
	if err != nil {
		return model.YearSnapshot{}, fmt.Errorf("year %d: invalid reduction_rate: %w", p.Year, err)
	}
	surcharge, err := parseOptionalRate(p.SurchargeRate)
	if err != nil {
		return model.YearSnapshot{}, fmt.Errorf("year %d: invalid surcharge_rate: %w", p.Year, err)
	}
	return model.YearSnapshot{
		ApplicableYear:      p.Year,
		PublishedLandPrice:  p.PublishedLandPrice,
		StandardMarketValue: p.StandardMarketValue,
		BuildingMarketValue: p.BuildingMarketValue,
		ReductionRate:       reduction,
		SurchargeRate:       surcharge,
		ValidThrough:        p.ValidThrough,
	}, nil
}

func parseOptionalRate(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

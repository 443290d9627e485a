package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taxi/internal/engine"
	"taxi/internal/model"
	"taxi/internal/store"
	"taxi/internal/websocket"

	"gorm.io/gorm"
)

// --- DTOs ---

type CalculateGroupRequest struct {
	GroupID string `json:"group_id" binding:"required"` // "ALL" selects every asset
	Year    int    `json:"year" binding:"required"`
	Save    bool   `json:"save"` // Persist the result under {group}_{year}
}

type FinalizationRequest struct {
	BillAmount  int64  `json:"bill_amount" binding:"required"`
	FinalValue  int64  `json:"final_value" binding:"required"`
	Reason      string `json:"reason" binding:"required"`
	FinalizedBy string `json:"finalized_by" binding:"required"`
}

// SaveFinalizationRequest carries the computed half and the human half of a
// finalized record. When Calculation is omitted the stored result for the
// key is finalized instead.
type SaveFinalizationRequest struct {
	Calculation  *model.CalculationResult `json:"calculation,omitempty"`
	Finalization FinalizationRequest      `json:"finalization" binding:"required"`
}

// --- Interface ---

type CalculationService interface {
	CalculateAsset(ctx context.Context, assetID string, year int) (*model.AssetCalculation, error)
	CalculateGroup(ctx context.Context, req CalculateGroupRequest, actor string) (model.CalculationResult, error)
	GetResult(ctx context.Context, calcKey string) (model.CalculationResult, error)
	History(ctx context.Context, year *int, groupID string) []model.CalculationResult
	SaveWithFinalization(ctx context.Context, calcKey string, req SaveFinalizationRequest, actor string) (model.CalculationResult, error)
}

type calculationService struct {
	calculator *engine.Calculator
	results    *store.CalculationStore
	db         *gorm.DB
	hub        *websocket.Hub
}

func NewCalculationService(calculator *engine.Calculator, results *store.CalculationStore, db *gorm.DB, hub *websocket.Hub) CalculationService {
	return &calculationService{calculator: calculator, results: results, db: db, hub: hub}
}

// --- Implementation ---

// CalculateAsset computes one asset's breakdown without persisting it.
// A missing asset or year snapshot is reported as an error message, not a
// nil dereference downstream.
func (s *calculationService) CalculateAsset(_ context.Context, assetID string, year int) (*model.AssetCalculation, error) {
	calc := s.calculator.CalculateForAsset(assetID, year)
	if calc == nil {
		return nil, fmt.Errorf("no calculation data for asset %s in year %d", assetID, year)
	}
	return calc, nil
}

// CalculateGroup runs the engine over a group and optionally persists the
// result. A result carrying an error (empty selection) is returned to the
// caller but never persisted.
func (s *calculationService) CalculateGroup(ctx context.Context, req CalculateGroupRequest, actor string) (model.CalculationResult, error) {
	result := s.calculator.CalculateForGroup(req.GroupID, req.Year)

	if req.Save && result.Error == "" {
		if err := s.results.Save(result); err != nil {
			return result, err
		}
		writeAuditLog(ctx, s.db, actor, model.ActionSaveCalculation, result.CalcKey,
			fmt.Sprintf("group %s, year %d", req.GroupID, req.Year),
			map[string]interface{}{"total_tax": result.TotalTax, "assets": len(result.PerAsset)})
		s.hub.Notify(websocket.EventCalculationSaved, map[string]interface{}{
			"calc_key": result.CalcKey, "total_tax": result.TotalTax,
		})
	}
	return result, nil
}

func (s *calculationService) GetResult(_ context.Context, calcKey string) (model.CalculationResult, error) {
	result, ok := s.results.Get(calcKey)
	if !ok {
		return model.CalculationResult{}, fmt.Errorf("no saved calculation for key %s", calcKey)
	}
	return result, nil
}

func (s *calculationService) History(_ context.Context, year *int, groupID string) []model.CalculationResult {
	return s.results.History(year, groupID)
}

// SaveWithFinalization merges a computed result with the human-supplied
// finalization and persists the combined record. This is the only write
// path combining both halves; neither may be silently dropped, so both are
// fully validated before anything is stored.
func (s *calculationService) SaveWithFinalization(ctx context.Context, calcKey string, req SaveFinalizationRequest, actor string) (model.CalculationResult, error) {
	calc := req.Calculation
	if calc == nil {
		stored, ok := s.results.Get(calcKey)
		if !ok {
			return model.CalculationResult{}, fmt.Errorf("no saved calculation for key %s", calcKey)
		}
		calc = &stored
	}

	if problems := validateCalculation(calcKey, calc); len(problems) > 0 {
		return model.CalculationResult{}, fmt.Errorf("invalid calculation payload: %s", strings.Join(problems, "; "))
	}

	merged := *calc
	merged.CalcKey = calcKey
	merged.Finalization = &model.FinalizationRecord{
		BillAmount:  req.Finalization.BillAmount,
		Variance:    req.Finalization.BillAmount - calc.TotalTax,
		FinalValue:  req.Finalization.FinalValue,
		Reason:      req.Finalization.Reason,
		FinalizedBy: req.Finalization.FinalizedBy,
		FinalizedAt: time.Now(),
	}

	if err := s.results.Save(merged); err != nil {
		return model.CalculationResult{}, err
	}

	writeAuditLog(ctx, s.db, actor, model.ActionFinalizeResult, calcKey,
		fmt.Sprintf("group %s, year %d", merged.GroupID, merged.Year),
		map[string]interface{}{
			"bill_amount": merged.Finalization.BillAmount,
			"variance":    merged.Finalization.Variance,
			"final_value": merged.Finalization.FinalValue,
		})
	s.hub.Notify(websocket.EventResultFinalized, map[string]interface{}{
		"calc_key": calcKey, "variance": merged.Finalization.Variance,
	})
	return merged, nil
}

func validateCalculation(calcKey string, calc *model.CalculationResult) []string {
	var problems []string
	if calc.Error != "" {
		problems = append(problems, fmt.Sprintf("calculation carries an error: %s", calc.Error))
	}
	if calc.GroupID == "" {
		problems = append(problems, "group_id is required")
	}
	if calc.Year == 0 {
		problems = append(problems, "year is required")
	}
	if len(calc.PerAsset) == 0 {
		problems = append(problems, "per_asset breakdown is required")
	}
	if calc.CalcKey != "" && calc.CalcKey != calcKey {
		problems = append(problems, fmt.Sprintf("calc_key %s does not match %s", calc.CalcKey, calcKey))
	}
	if calc.ComputedAt.IsZero() {
		problems = append(problems, "computed_at is required")
	}
	return problems
}

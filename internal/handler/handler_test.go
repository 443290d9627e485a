package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"taxi/internal/engine"
	"taxi/internal/model"
	"taxi/internal/service"
	"taxi/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// newTestRouter wires the full HTTP surface over real stores with rate
// data for 2024.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	logger := zap.NewNop()
	rates := store.NewRateStore(filepath.Join(dir, "rates.json"), logger)
	assets := store.NewAssetStore(filepath.Join(dir, "assets.json"), logger)
	calcs := store.NewCalculationStore(filepath.Join(dir, "calcs.json"), logger)
	if !rates.HasYear(2024) {
		require.NoError(t, rates.AddYear(2024, nil))
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.AuditLog{}))

	calculator := engine.NewCalculator(rates, assets)

	router := gin.New()
	api := router.Group("")
	NewRateHandler(service.NewRateService(rates, assets, calcs, db, nil)).RegisterRoutes(api)
	NewAssetHandler(service.NewAssetService(assets, db, nil)).RegisterRoutes(api)
	NewCalculationHandler(service.NewCalculationService(calculator, calcs, db, nil)).RegisterRoutes(api)
	NewAuditHandler(service.NewAuditService(db)).RegisterRoutes(api)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor", "kim")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Warnings   []string        `json:"warnings"`
	Error      string          `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestGetYears(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/years", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.Equal(t, "success", env.Status)
	var years []int
	require.NoError(t, json.Unmarshal(env.Data, &years))
	assert.Contains(t, years, 2024)
}

func TestYearLifecycle(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/years", gin.H{"year": 2021})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/years/2021/rates", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/years/2021", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/years/2021/rates", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/years/이천이십일/rates", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAsset_WarningsInEnvelope(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/assets", gin.H{
		"asset_id":      "LND-1",
		"name":          "Yard",
		"asset_type":    "토지",
		"taxation_type": "기타", // corrected for land
		"group_id":      "HQ",
		"area":          500,
		"snapshots": []gin.H{
			{"year": 2024, "standard_market_value": 90_000_000},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	env := decodeEnvelope(t, rec)
	require.Len(t, env.Warnings, 1)
	assert.Contains(t, env.Warnings[0], "corrected")

	var asset model.Asset
	require.NoError(t, json.Unmarshal(env.Data, &asset))
	assert.Equal(t, model.TaxationAggregated, asset.TaxationType)
}

func TestCreateAsset_MissingFields(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/api/assets", gin.H{"asset_id": "A-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalculateAndFinalizeFlow(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/assets", gin.H{
		"asset_id":   "HQ-001",
		"name":       "Head office building",
		"asset_type": "주택",
		"urban_area": "Y",
		"group_id":   "HQ",
		"area":       1250.5,
		"snapshots": []gin.H{
			{"year": 2024, "standard_market_value": 850_000_000},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/calculations/group", gin.H{
		"group_id": "HQ", "year": 2024, "save": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result model.CalculationResult
	env := decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "HQ_2024", result.CalcKey)
	assert.Equal(t, int64(2_990_300), result.TotalTax)

	rec = doJSON(t, router, http.MethodGet, "/api/calculations/asset/HQ-001?year=2024", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/calculations/HQ_2024/finalize", gin.H{
		"finalization": gin.H{
			"bill_amount":  3_000_000,
			"final_value":  3_000_000,
			"reason":       "city bill includes rounding adjustment",
			"finalized_by": "kim",
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env = decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.NotNil(t, result.Finalization)
	assert.Equal(t, int64(9_700), result.Finalization.Variance)

	rec = doJSON(t, router, http.MethodGet, "/api/calculations/history?group_id=HQ", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// actor from the X-Actor header lands in the audit trail
	rec = doJSON(t, router, http.MethodGet, "/api/audit-logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env = decodeEnvelope(t, rec)
	var body struct {
		Logs       []service.AuditLogResponse `json:"logs"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, int64(3), body.Pagination.Total)
	for _, entry := range body.Logs {
		assert.Equal(t, "kim", entry.Actor)
	}
}

func TestDeleteYear_BlockedReturnsConflict(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/assets", gin.H{
		"asset_id":   "A-1",
		"name":       "Office",
		"asset_type": "건축물",
		"group_id":   "HQ",
		"area":       100,
		"snapshots": []gin.H{
			{"year": 2024, "standard_market_value": 100_000_000},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/years/2024", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Contains(t, env.Error, "A-1")
}

func TestGetResult_NotFound(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/api/calculations/GHOST_2024", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

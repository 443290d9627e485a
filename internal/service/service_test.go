package service

import (
	"path/filepath"
	"testing"

	"taxi/internal/engine"
	"taxi/internal/model"
	"taxi/internal/store"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fixture wires real stores, an in-memory audit database and a nil hub,
// with rate data for 2024 and one housing asset in group HQ.
type fixture struct {
	rates  *store.RateStore
	assets *store.AssetStore
	calcs  *store.CalculationStore
	db     *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	logger := zap.NewNop()

	f := &fixture{
		rates:  store.NewRateStore(filepath.Join(dir, "rates.json"), logger),
		assets: store.NewAssetStore(filepath.Join(dir, "assets.json"), logger),
		calcs:  store.NewCalculationStore(filepath.Join(dir, "calcs.json"), logger),
		db:     newAuditDB(t),
	}
	if !f.rates.HasYear(2024) {
		require.NoError(t, f.rates.AddYear(2024, nil))
	}
	return f
}

func newAuditDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.AuditLog{}))
	return db
}

func (f *fixture) seedHousing(t *testing.T) {
	t.Helper()
	_, _, err := f.assets.Create(model.Asset{
		AssetID:      "HQ-001",
		Name:         "Head office building",
		AssetType:    model.AssetHousing,
		TaxationType: model.TaxationOther,
		UrbanArea:    model.UrbanAreaYes,
		GroupID:      "HQ",
		Area:         1250.5,
		YearlyData: map[string]model.YearSnapshot{
			"2024": {ApplicableYear: 2024, StandardMarketValue: 850_000_000},
		},
	})
	require.NoError(t, err)
}

func (f *fixture) calculator() *engine.Calculator {
	return engine.NewCalculator(f.rates, f.assets)
}

// auditActions returns the recorded audit actions, oldest first.
func (f *fixture) auditActions(t *testing.T) []model.AuditLog {
	t.Helper()
	var logs []model.AuditLog
	require.NoError(t, f.db.Order("created_at asc").Find(&logs).Error)
	return logs
}

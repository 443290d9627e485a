package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionAddTaxYear      = "ADD_TAX_YEAR"
	ActionDeleteTaxYear   = "DELETE_TAX_YEAR"
	ActionUpdateTaxRates  = "UPDATE_TAX_RATES"
	ActionCreateAsset     = "CREATE_ASSET"
	ActionUpdateAsset     = "UPDATE_ASSET"
	ActionDeleteAsset     = "DELETE_ASSET"
	ActionImportAssets    = "IMPORT_ASSETS"
	ActionSaveCalculation = "SAVE_CALCULATION"
	ActionFinalizeResult  = "FINALIZE_RESULT"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Actor      string    `gorm:"type:varchar(100);index" json:"actor"` // Empty gracefully if automated
	Action     string    `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string    `gorm:"type:varchar(100);index" json:"entity_id"`
	EntityName string    `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string    `gorm:"type:text" json:"details"`                       // Serialized JSON payload of the action
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns the primary key; sqlite has no UUID default.
func (l *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

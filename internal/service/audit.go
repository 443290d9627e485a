package service

import (
	"context"
	"encoding/json"

	"taxi/internal/model"

	"gorm.io/gorm"
)

// writeAuditLog records an activity event. Best-effort: an audit failure
// never fails the operation that triggered it.
func writeAuditLog(ctx context.Context, db *gorm.DB, actor, action, entityID, entityName string, details interface{}) {
	if db == nil {
		return
	}
	detailsJSON, _ := json.Marshal(details)

	entry := model.AuditLog{
		Actor:      actor,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(detailsJSON),
	}

	_ = db.WithContext(ctx).Create(&entry).Error
}

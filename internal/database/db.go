package database

import (
	"log"

	"taxi/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// NewConnection opens the local audit database with the pure-Go sqlite
// driver (no cgo, works on the team's shared host as-is)
func NewConnection(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&model.AuditLog{}); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

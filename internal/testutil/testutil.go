// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"indico/config"
	"indico/internal/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OpenDB returns a migrated, isolated in-memory SQLite database.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
	}
	db, err := database.NewDB(cfg)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

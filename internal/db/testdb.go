package db

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"labstock/internal/models"
)

// NewTestDB opens a fresh in-memory sqlite database with the current
// schema, for store and handler tests. The production schema history
// is postgres-specific, so tests build the end-state schema straight
// from the models instead of replaying Migrations.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	if err := gdb.AutoMigrate(&models.User{}, &models.Item{}, &models.Room{}, &models.AuditLog{}); err != nil {
		t.Fatalf("creating test schema: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

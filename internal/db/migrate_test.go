package db

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openBare(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

var testMigrations = []Migration{
	{
		ID: "0001_widgets",
		Up: func(tx *gorm.DB) error {
			return tx.Exec(`CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`).Error
		},
		Down: func(tx *gorm.DB) error {
			return tx.Exec(`DROP TABLE widgets`).Error
		},
	},
	{
		ID: "0002_widget_color",
		Up: func(tx *gorm.DB) error {
			return tx.Exec(`ALTER TABLE widgets ADD COLUMN color TEXT`).Error
		},
		Down: func(tx *gorm.DB) error {
			return tx.Exec(`ALTER TABLE widgets DROP COLUMN color`).Error
		},
	},
}

func TestUpAppliesInOrder(t *testing.T) {
	gdb := openBare(t)
	if err := Up(gdb, testMigrations); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if !gdb.Migrator().HasTable("widgets") {
		t.Error("widgets table missing after Up")
	}
	if !gdb.Migrator().HasColumn("widgets", "color") {
		t.Error("color column missing after Up")
	}
	status, err := Status(gdb, testMigrations)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	for id, ok := range status {
		if !ok {
			t.Errorf("migration %s not recorded as applied", id)
		}
	}
}

func TestUpIsIdempotent(t *testing.T) {
	gdb := openBare(t)
	if err := Up(gdb, testMigrations); err != nil {
		t.Fatalf("first Up: %v", err)
	}
	if err := Up(gdb, testMigrations); err != nil {
		t.Fatalf("second Up: %v", err)
	}
}

func TestDownRollsBackLastOnly(t *testing.T) {
	gdb := openBare(t)
	if err := Up(gdb, testMigrations); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := Down(gdb, testMigrations); err != nil {
		t.Fatalf("Down: %v", err)
	}
	if gdb.Migrator().HasColumn("widgets", "color") {
		t.Error("color column should be gone after rollback")
	}
	if !gdb.Migrator().HasTable("widgets") {
		t.Error("widgets table should survive rolling back only the last migration")
	}
	status, _ := Status(gdb, testMigrations)
	if status["0002_widget_color"] {
		t.Error("rolled-back migration still recorded as applied")
	}
	if !status["0001_widgets"] {
		t.Error("earlier migration lost its applied state")
	}
}

func TestDownWithNothingApplied(t *testing.T) {
	gdb := openBare(t)
	if err := Down(gdb, testMigrations); err == nil {
		t.Error("expected error when nothing is applied")
	}
}

func TestFailedMigrationLeavesNoLedgerRow(t *testing.T) {
	gdb := openBare(t)
	broken := []Migration{
		{
			ID: "0001_broken",
			Up: func(tx *gorm.DB) error {
				return tx.Exec(`THIS IS NOT SQL`).Error
			},
			Down: func(tx *gorm.DB) error { return nil },
		},
	}
	if err := Up(gdb, broken); err == nil {
		t.Fatal("expected Up to fail")
	}
	status, err := Status(gdb, broken)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status["0001_broken"] {
		t.Error("failed migration must not be recorded as applied")
	}
}

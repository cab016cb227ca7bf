package db

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Migration is one versioned schema change. Up and Down run inside a
// transaction; Down must be the exact inverse of Up.
type Migration struct {
	ID   string
	Up   func(tx *gorm.DB) error
	Down func(tx *gorm.DB) error
}

type schemaMigration struct {
	ID        string    `gorm:"primaryKey;size:64"`
	AppliedAt time.Time `gorm:"not null"`
}

func (schemaMigration) TableName() string { return "schema_migrations" }

func ensureLedger(db *gorm.DB) error {
	return db.AutoMigrate(&schemaMigration{})
}

func applied(db *gorm.DB) (map[string]bool, error) {
	var rows []schemaMigration
	if err := db.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		seen[r.ID] = true
	}
	return seen, nil
}

// Up applies every pending migration in order, each in its own
// transaction together with its ledger row.
func Up(db *gorm.DB, migrations []Migration) error {
	if err := ensureLedger(db); err != nil {
		return fmt.Errorf("migration ledger: %w", err)
	}
	seen, err := applied(db)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if seen[m.ID] {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&schemaMigration{ID: m.ID, AppliedAt: time.Now()}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %s: %w", m.ID, err)
		}
	}
	return nil
}

// Down rolls back the most recently applied migration.
func Down(db *gorm.DB, migrations []Migration) error {
	if err := ensureLedger(db); err != nil {
		return fmt.Errorf("migration ledger: %w", err)
	}
	seen, err := applied(db)
	if err != nil {
		return err
	}
	for i := len(migrations) - 1; i >= 0; i-- {
		m := migrations[i]
		if !seen[m.ID] {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Down(tx); err != nil {
				return err
			}
			return tx.Delete(&schemaMigration{}, "id = ?", m.ID).Error
		})
		if err != nil {
			return fmt.Errorf("rollback %s: %w", m.ID, err)
		}
		return nil
	}
	return fmt.Errorf("nothing to roll back")
}

// Status returns each migration id with its applied state, in order.
func Status(db *gorm.DB, migrations []Migration) (map[string]bool, error) {
	if err := ensureLedger(db); err != nil {
		return nil, fmt.Errorf("migration ledger: %w", err)
	}
	seen, err := applied(db)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(migrations))
	for _, m := range migrations {
		out[m.ID] = seen[m.ID]
	}
	return out, nil
}

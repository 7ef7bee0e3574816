package db

import (
	"fmt"

	"github.com/eliejuven/PR-Arena/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Agent{},
		&models.AgentOnboarding{},
		&models.Round{},
		&models.Submission{},
		&models.Vote{},
		&models.RoundComment{},
		&models.Event{},
	}
}

// AutoMigrate creates or updates all tables and the open-round guard index.
func AutoMigrate(gormDB *gorm.DB) error {
	if err := gormDB.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	if err := ensureOpenRoundGuard(gormDB); err != nil {
		return err
	}
	return nil
}

// ensureOpenRoundGuard adds a partial unique index so the store itself
// rejects a second open round. Partial indexes are a sqlite feature; on
// mysql the unique round_number column is the backstop for concurrent opens
// (both writers compute max+1 and one loses).
func ensureOpenRoundGuard(gormDB *gorm.DB) error {
	if gormDB.Dialector.Name() != "sqlite" {
		return nil
	}
	stmt := `CREATE UNIQUE INDEX IF NOT EXISTS uq_rounds_single_open ON rounds(status) WHERE status = 'open'`
	if err := gormDB.Exec(stmt).Error; err != nil {
		return fmt.Errorf("db: create open-round guard index: %w", err)
	}
	return nil
}

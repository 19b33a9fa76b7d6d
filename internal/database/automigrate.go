package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/afnanahmadtariq/collab-pm/internal/domain"
)

// Models lists every table the service owns, parents first
func Models() []interface{} {
	return []interface{}{
		&domain.Organization{},
		&domain.OrganizationMember{},
		&domain.Project{},
		&domain.Board{},
		&domain.Column{},
		&domain.Tag{},
		&domain.Task{},
		&domain.Comment{},
		&domain.Attachment{},
		&domain.Activity{},
		&domain.Notification{},
	}
}

// AutoMigrate runs GORM auto-migration for all domain models
func AutoMigrate(db *gorm.DB, logger *zap.Logger) error {
	migrator := db.Migrator()
	models := Models()

	logger.Info("Starting auto-migration", zap.Int("total_models", len(models)))

	for _, m := range models {
		existed := migrator.HasTable(m)
		if err := db.AutoMigrate(m); err != nil {
			logger.Error("Failed to migrate table",
				zap.String("model", fmt.Sprintf("%T", m)),
				zap.Bool("table_existed", existed),
				zap.Error(err),
			)
			return fmt.Errorf("failed to migrate %T: %w", m, err)
		}
		logger.Debug("Migrated table",
			zap.String("model", fmt.Sprintf("%T", m)),
			zap.Bool("was_existing", existed),
		)
	}

	logger.Info("Auto-migration completed", zap.Int("tables_migrated", len(models)))
	return nil
}

package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/RK62021/Project-Verse/models"
)

type Migrator struct {
	db *gorm.DB
}

func NewMigrator(db *gorm.DB) *Migrator {
	return &Migrator{db: db}
}

// Up creates or alters every table to match the models.
func (mg *Migrator) Up() error {
	if mg.db == nil {
		return fmt.Errorf("migrator not initialized")
	}
	if err := mg.db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate failed: %w", err)
	}
	if err := mg.BackfillSearchText(); err != nil {
		return fmt.Errorf("backfill search text failed: %w", err)
	}
	return nil
}

// BackfillSearchText folds rows written before the search_text column existed.
func (mg *Migrator) BackfillSearchText() error {
	var stale []models.Project
	return mg.db.Select("id", "title", "description").
		Where("search_text = ''").
		FindInBatches(&stale, 200, func(tx *gorm.DB, _ int) error {
			for _, p := range stale {
				err := mg.db.Model(&models.Project{}).Where("id = ?", p.ID).
					UpdateColumn("search_text", models.FoldSearchText(p.Title, p.Description)).Error
				if err != nil {
					return err
				}
			}
			return nil
		}).Error
}

// Down drops every table, children first.
func (mg *Migrator) Down() error {
	if mg.db == nil {
		return fmt.Errorf("migrator not initialized")
	}
	all := models.All()
	for i := len(all) - 1; i >= 0; i-- {
		if err := mg.db.Migrator().DropTable(all[i]); err != nil {
			return fmt.Errorf("drop table for %T failed: %w", all[i], err)
		}
	}
	return nil
}

package database

import (
	"context"

	"gorm.io/gorm"
)

type Database struct {
	db             *gorm.DB
	projectRepo    *ProjectRepo
	projectTagRepo *ProjectTagRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		db:             db,
		projectRepo:    NewProjectRepo(db),
		projectTagRepo: NewProjectTagRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) ProjectRepo() *ProjectRepo {
	return d.projectRepo
}

func (d Database) ProjectTagRepo() *ProjectTagRepo {
	return d.projectTagRepo
}

// Ping checks that the primary database answers.
func (d Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool. Call once on shutdown.
func (d Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrator returns a schema migrator bound to this database.
func (d Database) Migrator() *Migrator {
	return NewMigrator(d.db)
}

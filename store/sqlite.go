package store

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cppla/streakholic/models"
)

// OpenSQLite opens a SQLite database and migrates the schema.
// An empty dsn selects a private in-memory database.
func OpenSQLite(dsn string, logger gormlogger.Interface) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "file::memory:"
	}
	if logger == nil {
		logger = gormlogger.Discard
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite serializes writers; one connection keeps in-memory databases coherent.
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or extends every table the service owns.
func Migrate(db *gorm.DB) error {
	for _, model := range models.MigrateModels {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("auto migration failed for %T: %w", model, err)
		}
	}
	return nil
}

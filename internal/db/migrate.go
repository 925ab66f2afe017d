package db

import (
	"shopmirror/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Tenant{},
		&models.Customer{},
		&models.Product{},
		&models.Order{},
		&models.SyncLog{},
	)
}

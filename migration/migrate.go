package migration

import (
	"biblio-app/models"

	"gorm.io/gorm"
)

// Migrate creates or updates every table owned by the catalog database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Genre{},
		&models.ShelfUnit{},
		&models.ShelfLevel{},
		&models.Slot{},
		&models.Item{},
		&models.SuggestionLog{},
	)
}

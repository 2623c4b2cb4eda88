package models

import (
	"log"

	"github.com/aiengrshafiq/QuickBooksImporter/config"
	"gorm.io/gorm"
)

// Migrate runs AutoMigrate for every importer entity on the given handle.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Project{}, &User{},
		&Supplier{}, &Material{},
		&LPO{}, &LPOItem{}, &LPOAttachment{},
		&Invoice{}, &InvoiceItem{}, &InvoiceAttachment{},
	)
}

func MigrateTable() {
	db := config.GetDB()

	if err := Migrate(db); err != nil {
		log.Fatal(err)
	}
}

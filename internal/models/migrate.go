package models

import (
	"log"

	"gorm.io/gorm"
)

// AutoMigrate cria/atualiza as tabelas da aplicação. Idempotente; roda uma
// vez no boot.
func AutoMigrate(db *gorm.DB) error {
	log.Println("🔄 Executando migrações do banco de dados...")

	return db.AutoMigrate(
		&User{},
		&Task{},
		&Delivery{},
		&Pickup{},
		&Equipment{},
		&CatalogClient{},
		&CatalogUploadBatch{},
		&CatalogInventoryItem{},
		&WithdrawalOrder{},
		&WithdrawalOrderItem{},
	)
}

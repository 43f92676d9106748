package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/marblerush/economy/internal/models"
)

// Migrate creates or updates every table the economy core persists.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errMigrate := conn.AutoMigrate(
		&models.Account{},
		&models.RedeemCode{},
		&models.Gift{},
		&models.GiftRedemption{},
		&models.TransferLog{},
		&models.MapEntry{},
		&models.Skin{},
		&models.GameConfig{},
	); errMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errMigrate)
	}
	return nil
}

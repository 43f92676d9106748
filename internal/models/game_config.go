package models

import "time"

// GameConfig stores one typed reward configuration entry.
type GameConfig struct {
	Key       string    `gorm:"type:varchar(255);primaryKey"`                      // Configuration key.
	Value     JSONText  `gorm:"not null"`                                          // JSON-encoded value, schema fixed per key.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime;default:CURRENT_TIMESTAMP"` // Last update timestamp.
}

// TableName overrides the default table name.
func (GameConfig) TableName() string {
	return "game_config"
}

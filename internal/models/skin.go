package models

import "time"

// Skin is a selectable marble appearance.
type Skin struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name     string `gorm:"type:text;not null"` // Display name.
	ImageRef string `gorm:"type:text;not null"` // Opaque image reference.
	IsActive bool   `gorm:"not null"`           // Whether players can pick it.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

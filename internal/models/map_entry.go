package models

import "time"

// SystemAuthor is the author recorded on built-in map entries.
const SystemAuthor = "System"

// MapEntry is a playable board layout with a draw weight.
type MapEntry struct {
	Seq uint64 `gorm:"primaryKey;autoIncrement"`               // Insertion order, used for draw intervals.
	Key string `gorm:"type:varchar(128);not null;uniqueIndex"` // Unique map key.

	Name     string `gorm:"type:text;not null"` // Display name.
	IsActive bool   `gorm:"not null"`           // Whether the map takes part in draws.
	Weight   int64  `gorm:"not null"`           // Draw weight, never negative.
	Author   string `gorm:"type:text;not null"` // Creator name.
	IsSystem bool   `gorm:"not null"`           // Seeded entries are protected from deletion.

	Payload JSONText // Editor layout data, nil for built-in maps.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

// TableName overrides the default table name.
func (MapEntry) TableName() string {
	return "maps"
}

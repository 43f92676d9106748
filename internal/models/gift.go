package models

import "time"

// Gift is a catalog item bought with tickets.
type Gift struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name     string `gorm:"type:text;not null"`            // Display name.
	ImageRef string `gorm:"type:text;not null;default:''"` // Opaque image reference.
	Price    int64  `gorm:"not null;index"`                // Price in tickets.
	Stock    int64  `gorm:"not null"`                      // Remaining units, never negative.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// GiftRedemptionStatusSuccess is the only status written by the ledger.
const GiftRedemptionStatusSuccess = "success"

// GiftRedemption is an immutable snapshot of one gift purchase.
type GiftRedemption struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Username string `gorm:"type:varchar(255);not null;index"` // Buying account.
	GiftID   uint64 `gorm:"not null;index"`                   // Purchased gift.
	GiftName string `gorm:"type:text;not null"`               // Gift name at purchase time.
	Cost     int64  `gorm:"not null"`                         // Tickets paid.
	Status   string `gorm:"type:varchar(32);not null"`

	RedeemedAt time.Time `gorm:"not null;index"` // Purchase timestamp.
}

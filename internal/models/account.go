package models

import "time"

// DefaultSkin is the skin reference assigned at registration.
const DefaultSkin = "default"

// Account holds the coin and ticket balances of one player.
type Account struct {
	Username string  `gorm:"type:varchar(255);primaryKey"`  // Unique account identifier.
	Email    *string `gorm:"type:varchar(255);uniqueIndex"` // Optional unique email.

	Coins   int64 `gorm:"not null;index"` // Coin balance, never negative.
	Tickets int64 `gorm:"not null;index"` // Ticket balance, never negative.

	CurrentSkin string `gorm:"type:text;not null;default:'default'"` // Selected skin reference.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Registration timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

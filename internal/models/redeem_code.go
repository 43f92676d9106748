package models

import "time"

// RedeemCode is a voucher with a bounded number of total uses.
type RedeemCode struct {
	Code string `gorm:"type:varchar(128);primaryKey"` // Unique voucher code.

	MaxUses     int64 `gorm:"not null;default:1"` // Total allowed uses.
	CurrentUses int64 `gorm:"not null;default:0"` // Uses consumed so far, never above MaxUses.

	TargetUser   string `gorm:"type:varchar(255);not null;default:''"` // Restricts the code to one account when set.
	RewardAmount int64  `gorm:"not null;default:100"`                  // Coins credited per use.

	LastUsedAt *time.Time // Time of the latest successful use.
	CreatedAt  time.Time  `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

// Exhausted reports whether every use has been consumed.
func (c *RedeemCode) Exhausted() bool {
	return c.CurrentUses >= c.MaxUses
}

// AllowedFor reports whether username may apply the code.
func (c *RedeemCode) AllowedFor(username string) bool {
	return c.TargetUser == "" || c.TargetUser == username
}

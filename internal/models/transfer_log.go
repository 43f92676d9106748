package models

import "time"

// TransferLog is one append-only ticket transfer record.
type TransferLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Sender   string `gorm:"type:varchar(255);not null;index:idx_transfer_sender_time,priority:1"` // Debited account.
	Receiver string `gorm:"type:varchar(255);not null;index"`                                     // Credited account.
	Amount   int64  `gorm:"not null"`                                                             // Tickets moved, always positive.

	CreatedAt time.Time `gorm:"not null;index:idx_transfer_sender_time,priority:2"` // Transfer timestamp.
}

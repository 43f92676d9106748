// Package audit keeps the append-only ticket transfer history.
package audit

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/marblerush/economy/internal/errors"
	"github.com/marblerush/economy/internal/models"
	"github.com/marblerush/economy/internal/store"
)

// Default list sizes.
const (
	DefaultContactLimit = 5
	DefaultHistoryLimit = 50
)

// Log reads transfer history. Records are only written through Append.
type Log struct {
	st *store.Store
}

// New constructs a transfer Log.
func New(st *store.Store) *Log {
	return &Log{st: st}
}

// Append writes one transfer record inside tx. It is the only write path.
func Append(tx *gorm.DB, record *models.TransferLog) error {
	if record.Amount <= 0 {
		return apperrors.InvalidArgument("transfer amount must be positive")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	return tx.Create(record).Error
}

// RecentContacts returns the distinct receivers sender transferred to,
// ordered by their latest transfer time. The newest id breaks time ties.
func (l *Log) RecentContacts(ctx context.Context, sender string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultContactLimit
	}
	var rows []struct {
		Receiver string
	}
	if errFind := l.st.DB(ctx).Model(&models.TransferLog{}).
		Select("receiver").
		Where("sender = ?", sender).
		Group("receiver").
		Order("MAX(created_at) DESC, MAX(id) DESC").
		Limit(limit).
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("audit: recent contacts: %w", errFind)
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Receiver)
	}
	return out, nil
}

// History returns the latest transfers where username is sender or receiver.
func (l *Log) History(ctx context.Context, username string, limit int) ([]models.TransferLog, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	var rows []models.TransferLog
	if errFind := l.st.DB(ctx).
		Where("sender = ? OR receiver = ?", username, username).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("audit: history: %w", errFind)
	}
	return rows, nil
}

package settings

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marblerush/economy/internal/models"
)

// Refresh reloads every key from the database and swaps the in-memory snapshot.
//
// Writes through this Store refresh automatically; the scheduler calls Refresh
// to pick up writes made by other processes.
func (s *Store) Refresh(ctx context.Context) error {
	snap, errLoad := loadSnapshot(s.st.DB(ctx))
	if errLoad != nil {
		return errLoad
	}
	s.snapshot.Store(snap)
	return nil
}

func loadSnapshot(conn *gorm.DB) (*Snapshot, error) {
	var rows []models.GameConfig
	if errFind := conn.
		Select("key", "value", "updated_at").
		Order("key ASC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("settings: load snapshot: %w", errFind)
	}

	snap := defaultSnapshot()
	maxUpdatedAt := time.Time{}
	for _, row := range rows {
		f, known := schema[row.Key]
		if !known {
			continue
		}
		value, errDecode := decodeStored(row.Key, f, row.Value)
		if errDecode != nil {
			return nil, errDecode
		}
		snap.values[row.Key] = value
		if rowUpdatedAt := row.UpdatedAt.UTC(); rowUpdatedAt.After(maxUpdatedAt) {
			maxUpdatedAt = rowUpdatedAt
		}
	}
	snap.updatedAt = maxUpdatedAt
	return snap, nil
}

// Package maps manages the board catalog and draws the next map to play.
package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbutil "github.com/marblerush/economy/internal/db"
	apperrors "github.com/marblerush/economy/internal/errors"
	"github.com/marblerush/economy/internal/models"
	"github.com/marblerush/economy/internal/settings"
	"github.com/marblerush/economy/internal/store"
)

// keyAttempts bounds retries when a generated custom key collides.
const keyAttempts = 5

// Catalog reads and writes map entries.
type Catalog struct {
	st       *store.Store
	selector *settings.Selector
	now      func() time.Time
	suffix   func() int
}

// New constructs a Catalog drawing from the process-wide random source.
func New(st *store.Store) *Catalog {
	return NewWithSelector(st, settings.DefaultSelector())
}

// NewWithSelector constructs a Catalog that draws with sel.
func NewWithSelector(st *store.Store, sel *settings.Selector) *Catalog {
	return &Catalog{
		st:       st,
		selector: sel,
		now:      time.Now,
		suffix:   func() int { return 100 + rand.IntN(900) },
	}
}

// SeedDefaults inserts every system map that is not present yet.
func (c *Catalog) SeedDefaults(ctx context.Context) (int, error) {
	inserted := 0
	errTx := c.st.Transaction(ctx, func(tx *gorm.DB) error {
		inserted = 0
		for _, m := range builtin {
			entry := models.MapEntry{
				Key:      m.Key,
				Name:     m.Name,
				IsActive: true,
				Weight:   DefaultWeight,
				Author:   models.SystemAuthor,
				IsSystem: true,
			}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry)
			if res.Error != nil {
				return res.Error
			}
			inserted += int(res.RowsAffected)
		}
		return nil
	})
	if errTx != nil {
		return 0, fmt.Errorf("maps: seed defaults: %w", errTx)
	}
	if inserted > 0 {
		log.WithField("count", inserted).Info("maps: seeded system maps")
	}
	return inserted, nil
}

// List returns every map in insertion order.
func (c *Catalog) List(ctx context.Context) ([]models.MapEntry, error) {
	var rows []models.MapEntry
	if errFind := c.st.DB(ctx).Order("seq ASC").Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("maps: list: %w", errFind)
	}
	return rows, nil
}

// Active returns the maps that take part in draws, in insertion order.
func (c *Catalog) Active(ctx context.Context) ([]models.MapEntry, error) {
	var rows []models.MapEntry
	if errFind := c.st.DB(ctx).
		Where("is_active = ?", true).
		Order("seq ASC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("maps: active: %w", errFind)
	}
	return rows, nil
}

// Get returns the map stored under key.
func (c *Catalog) Get(ctx context.Context, key string) (*models.MapEntry, error) {
	var entry models.MapEntry
	if errFind := c.st.DB(ctx).Where("key = ?", key).First(&entry).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("map not found")
		}
		return nil, fmt.Errorf("maps: get: %w", errFind)
	}
	return &entry, nil
}

// SaveCustom stores an editor-built map under a generated key. The map is
// active immediately with the default weight.
func (c *Catalog) SaveCustom(ctx context.Context, name, author string, payload json.RawMessage) (*models.MapEntry, error) {
	data, errPayload := normalizePayload(payload)
	if errPayload != nil {
		return nil, errPayload
	}
	entry := &models.MapEntry{
		Name:     orDefault(name, DefaultName),
		Author:   orDefault(author, DefaultAuthor),
		IsActive: true,
		Weight:   DefaultWeight,
		Payload:  data,
	}

	for attempt := 0; attempt < keyAttempts; attempt++ {
		entry.Seq = 0
		entry.Key = fmt.Sprintf("%s%d_%d", customKeyPrefix, c.now().Unix(), c.suffix())
		res := c.st.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(entry)
		if res.Error != nil && !dbutil.IsUniqueViolation(res.Error) {
			return nil, fmt.Errorf("maps: save custom: %w", res.Error)
		}
		if res.Error == nil && res.RowsAffected == 1 {
			log.WithFields(log.Fields{"key": entry.Key, "author": entry.Author}).Info("maps: custom map saved")
			return entry, nil
		}
	}
	return nil, apperrors.Conflict("could not allocate a unique map key")
}

// Update replaces name, author and payload of an existing map.
func (c *Catalog) Update(ctx context.Context, key, name, author string, payload json.RawMessage) (*models.MapEntry, error) {
	data, errPayload := normalizePayload(payload)
	if errPayload != nil {
		return nil, errPayload
	}
	if errUpdate := c.update(ctx, key, map[string]any{
		"name":    orDefault(name, DefaultName),
		"author":  orDefault(author, DefaultAuthor),
		"payload": data,
	}); errUpdate != nil {
		return nil, errUpdate
	}
	return c.Get(ctx, key)
}

// SetActive toggles whether key takes part in draws.
func (c *Catalog) SetActive(ctx context.Context, key string, active bool) error {
	return c.update(ctx, key, map[string]any{"is_active": active})
}

// SetWeight changes the draw weight of key. Negative weights are stored as 0.
func (c *Catalog) SetWeight(ctx context.Context, key string, weight int64) error {
	if weight < 0 {
		weight = 0
	}
	return c.update(ctx, key, map[string]any{"weight": weight})
}

// Delete removes a custom map. System maps are protected.
func (c *Catalog) Delete(ctx context.Context, key string) error {
	if IsBuiltin(key) {
		return apperrors.InvalidArgument("system maps cannot be deleted")
	}
	res := c.st.DB(ctx).Where("key = ? AND is_system = ?", key, false).Delete(&models.MapEntry{})
	if res.Error != nil {
		return fmt.Errorf("maps: delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, errGet := c.Get(ctx, key); errGet != nil {
			return errGet
		}
		return apperrors.InvalidArgument("system maps cannot be deleted")
	}
	log.WithField("key", key).Info("maps: map deleted")
	return nil
}

// Draw picks one active map with probability proportional to its weight.
func (c *Catalog) Draw(ctx context.Context) (*models.MapEntry, error) {
	active, errActive := c.Active(ctx)
	if errActive != nil {
		return nil, errActive
	}
	entries := make([]settings.Weighted[*models.MapEntry], 0, len(active))
	for i := range active {
		entries = append(entries, settings.Weighted[*models.MapEntry]{Value: &active[i], Weight: active[i].Weight})
	}
	return settings.SelectFrom(c.selector, entries)
}

func (c *Catalog) update(ctx context.Context, key string, values map[string]any) error {
	res := c.st.DB(ctx).Model(&models.MapEntry{}).Where("key = ?", key).Updates(values)
	if res.Error != nil {
		return fmt.Errorf("maps: update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("map not found")
	}
	return nil
}

func normalizePayload(payload json.RawMessage) (models.JSONText, error) {
	if len(strings.TrimSpace(string(payload))) == 0 {
		return models.JSONText("{}"), nil
	}
	if !json.Valid(payload) {
		return nil, apperrors.InvalidArgument("map payload is not valid JSON")
	}
	return models.JSONText(payload), nil
}

func orDefault(value, fallback string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return fallback
}

// Package settings stores the typed reward configuration in game_config.
//
// Every key has a fixed schema. Writes are validated and canonicalized before
// they are persisted, and each Store keeps a read snapshot of all keys.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/marblerush/economy/internal/errors"
	"github.com/marblerush/economy/internal/models"
	"github.com/marblerush/economy/internal/store"
)

// Store reads and writes reward configuration.
type Store struct {
	st       *store.Store
	snapshot atomic.Pointer[Snapshot]
}

// New constructs a settings Store whose snapshot starts with defaults.
func New(st *store.Store) *Store {
	s := &Store{st: st}
	s.snapshot.Store(defaultSnapshot())
	return s
}

// Snapshot returns the latest in-memory view of every key.
func (s *Store) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Get returns the decoded value for key, or its default when unset.
func (s *Store) Get(ctx context.Context, key string) (any, error) {
	f, known := schema[key]
	if !known {
		return nil, apperrors.InvalidArgument(fmt.Sprintf("unknown config key %q", key))
	}

	var row models.GameConfig
	if errFind := s.st.DB(ctx).Where("key = ?", key).First(&row).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return f.def(), nil
		}
		return nil, fmt.Errorf("settings: get %s: %w", key, errFind)
	}
	return decodeStored(key, f, row.Value)
}

// decodeStored decodes a persisted value. Lenient keys fall back to their
// default on a schema mismatch; strict keys report it.
func decodeStored(key string, f field, raw models.JSONText) (any, error) {
	value, errDecode := f.decode(json.RawMessage(raw))
	if errDecode == nil {
		return value, nil
	}
	if f.strict {
		return nil, fmt.Errorf("settings: stored %s is invalid: %w", key, errDecode)
	}
	log.WithError(errDecode).WithField("key", key).Warn("settings: stored value does not match schema, using default")
	return f.def(), nil
}

// ExchangeRate returns the coins granted per ticket.
func (s *Store) ExchangeRate(ctx context.Context) (float64, error) {
	v, err := s.Get(ctx, ExchangeRateKey)
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// SlotCount returns the configured number of board slots.
func (s *Store) SlotCount(ctx context.Context) (int, error) {
	v, err := s.Get(ctx, SlotCountKey)
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// APIKey returns the commentary API key, or "" when it was never configured.
func (s *Store) APIKey(ctx context.Context) (string, error) {
	v, err := s.Get(ctx, OpenAIKeyKey)
	if err != nil {
		return "", err
	}
	key := v.(string)
	if isPlaceholderSecret(key) {
		return "", nil
	}
	return key, nil
}

// Set validates raw against key's schema and upserts it.
func (s *Store) Set(ctx context.Context, key string, raw json.RawMessage) error {
	return s.SetMany(ctx, map[string]json.RawMessage{key: raw})
}

// pendingValue is one validated write.
type pendingValue struct {
	key       string
	canonical []byte
	secret    bool
	blank     bool
}

// SetMany validates every value and writes the batch in one transaction.
// Nothing is written when any value is rejected.
func (s *Store) SetMany(ctx context.Context, values map[string]json.RawMessage) error {
	if len(values) == 0 {
		return nil
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pending := make([]pendingValue, 0, len(keys))
	for _, key := range keys {
		f, known := schema[key]
		if !known {
			return apperrors.InvalidArgument(fmt.Sprintf("unknown config key %q", key))
		}
		raw := values[key]
		if !json.Valid(raw) {
			return apperrors.InvalidArgument(fmt.Sprintf("%s: value is not valid JSON", key))
		}
		decoded, errDecode := f.decode(raw)
		if errDecode != nil {
			return apperrors.InvalidArgument(fmt.Sprintf("%s: %v", key, errDecode))
		}
		canonical, errMarshal := json.Marshal(decoded)
		if errMarshal != nil {
			return fmt.Errorf("settings: encode %s: %w", key, errMarshal)
		}
		p := pendingValue{key: key, canonical: canonical, secret: f.secret}
		if f.secret {
			p.blank = isPlaceholderSecret(decoded.(string))
		}
		pending = append(pending, p)
	}

	now := time.Now().UTC()
	var written []string
	errTx := s.st.Transaction(ctx, func(tx *gorm.DB) error {
		written = written[:0]
		for _, p := range pending {
			if p.secret && p.blank {
				keep, errKeep := hasConfiguredSecret(tx, p.key)
				if errKeep != nil {
					return errKeep
				}
				if keep {
					continue
				}
			}
			if errUpsert := upsert(tx, p.key, p.canonical, now); errUpsert != nil {
				return errUpsert
			}
			written = append(written, p.key)
		}
		return nil
	})
	if errTx != nil {
		if apperrors.CodeOf(errTx) == apperrors.CodeUnavailable {
			return errTx
		}
		return fmt.Errorf("settings: write: %w", errTx)
	}

	fields := log.Fields{"keys": strings.Join(written, ",")}
	for _, p := range pending {
		if p.secret && !p.blank {
			fields[p.key] = maskSecret(string(p.canonical))
		}
	}
	log.WithFields(fields).Info("settings: configuration updated")

	if errRefresh := s.Refresh(ctx); errRefresh != nil {
		return fmt.Errorf("settings: refresh after write: %w", errRefresh)
	}
	return nil
}

// Public returns every non-secret key with its current value.
func (s *Store) Public(ctx context.Context) (map[string]any, error) {
	snap, errLoad := loadSnapshot(s.st.DB(ctx))
	if errLoad != nil {
		return nil, errLoad
	}
	return snap.Public(), nil
}

// EnsureDefaults writes the default value of every key that has no row yet.
func (s *Store) EnsureDefaults(ctx context.Context) error {
	now := time.Now().UTC()
	errTx := s.st.Transaction(ctx, func(tx *gorm.DB) error {
		for _, key := range Keys() {
			canonical, errMarshal := json.Marshal(schema[key].def())
			if errMarshal != nil {
				return errMarshal
			}
			row := models.GameConfig{Key: key, Value: models.JSONText(canonical), UpdatedAt: now}
			if errCreate := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; errCreate != nil {
				return errCreate
			}
		}
		return nil
	})
	if errTx != nil {
		return fmt.Errorf("settings: ensure defaults: %w", errTx)
	}
	return s.Refresh(ctx)
}

func upsert(tx *gorm.DB, key string, canonical []byte, now time.Time) error {
	row := models.GameConfig{Key: key, Value: models.JSONText(canonical), UpdatedAt: now}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

// hasConfiguredSecret reports whether key already holds a real secret.
func hasConfiguredSecret(tx *gorm.DB, key string) (bool, error) {
	var row models.GameConfig
	if errFind := tx.Where("key = ?", key).First(&row).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, errFind
	}
	var existing string
	if errUnmarshal := json.Unmarshal(row.Value, &existing); errUnmarshal != nil {
		return false, nil
	}
	return !isPlaceholderSecret(existing), nil
}

func isPlaceholderSecret(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" || strings.Contains(value, APIKeyPlaceholder)
}

// maskSecret obscures a secret for logging, keeping only its edges.
func maskSecret(secret string) string {
	secret = strings.Trim(secret, `"`)
	switch {
	case len(secret) > 8:
		return secret[:4] + "..." + secret[len(secret)-4:]
	case len(secret) > 4:
		return secret[:2] + "..." + secret[len(secret)-2:]
	case len(secret) > 2:
		return secret[:1] + "..." + secret[len(secret)-1:]
	}
	return secret
}

package settings

import (
	"time"
)

// Snapshot is an immutable view of every configuration key, with defaults
// filled in for keys that were never written. Values must not be modified.
type Snapshot struct {
	updatedAt time.Time
	values    map[string]any
}

// defaultSnapshot returns a snapshot holding only defaults.
func defaultSnapshot() *Snapshot {
	values := make(map[string]any, len(schema))
	for key, f := range schema {
		values[key] = f.def()
	}
	return &Snapshot{values: values}
}

// UpdatedAt returns the newest updated_at among the stored keys.
func (s *Snapshot) UpdatedAt() time.Time {
	return s.updatedAt
}

// Value returns the decoded value for key.
func (s *Snapshot) Value(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// ExchangeRate returns the snapshot's exchange_rate.
func (s *Snapshot) ExchangeRate() float64 {
	if rate, ok := s.values[ExchangeRateKey].(float64); ok {
		return rate
	}
	return DefaultExchangeRate
}

// Public returns every non-secret value keyed by name.
func (s *Snapshot) Public() map[string]any {
	out := make(map[string]any, len(s.values))
	for key, v := range s.values {
		if IsSecret(key) {
			continue
		}
		out[key] = v
	}
	return out
}

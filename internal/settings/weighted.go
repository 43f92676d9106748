package settings

import (
	"math/rand/v2"
	"sync"

	apperrors "github.com/marblerush/economy/internal/errors"
)

// Weighted is one candidate of a weighted draw.
type Weighted[T any] struct {
	Value  T
	Weight int64
}

// Selector draws indexes proportionally to their weights.
// The zero value is not usable; use NewSelector or DefaultSelector.
type Selector struct {
	mu   sync.Mutex
	draw func(n int64) int64
}

// DefaultSelector draws from the process-wide random source.
func DefaultSelector() *Selector {
	return &Selector{draw: rand.Int64N}
}

// NewSelector returns a Selector with its own seeded source, for reproducible draws.
func NewSelector(seed1, seed2 uint64) *Selector {
	r := rand.New(rand.NewPCG(seed1, seed2))
	return &Selector{draw: r.Int64N}
}

// Select returns the index whose cumulative interval contains one uniform draw
// in [0, total). Intervals are laid out in slice order and zero weights never
// win. Negative weights, an empty slice or a zero total are rejected.
func (s *Selector) Select(weights []int64) (int, error) {
	if len(weights) == 0 {
		return -1, apperrors.InvalidArgument("no entries to draw from")
	}
	var total int64
	for _, w := range weights {
		if w < 0 {
			return -1, apperrors.InvalidArgument("weights must not be negative")
		}
		total += w
	}
	if total == 0 {
		return -1, apperrors.InvalidArgument("total weight is zero")
	}

	s.mu.Lock()
	r := s.draw(total)
	s.mu.Unlock()

	var upto int64
	for i, w := range weights {
		if w == 0 {
			continue
		}
		upto += w
		if r < upto {
			return i, nil
		}
	}
	// Unreachable while draw honours [0, total).
	return -1, apperrors.InvalidArgument("draw out of range")
}

// SelectFrom draws one entry's value using s.
func SelectFrom[T any](s *Selector, entries []Weighted[T]) (T, error) {
	weights := make([]int64, len(entries))
	for i, e := range entries {
		weights[i] = e.Weight
	}
	idx, err := s.Select(weights)
	if err != nil {
		var zero T
		return zero, err
	}
	return entries[idx].Value, nil
}

var defaultSelector = DefaultSelector()

// WeightedSelect draws one entry's value from the process-wide random source.
func WeightedSelect[T any](entries []Weighted[T]) (T, error) {
	return SelectFrom(defaultSelector, entries)
}

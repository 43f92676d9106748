// Package redemption manages redeem codes, the gift catalog and gift purchases.
//
// Administrative reads and writes go through Registry. The Lock/Take/Consume
// helpers run inside a caller's transaction and are used by the ledger.
package redemption

import (
	"fmt"

	apperrors "github.com/marblerush/economy/internal/errors"
	"github.com/marblerush/economy/internal/store"
)

// Registry owns codes and gifts.
type Registry struct {
	st *store.Store
}

// New constructs a Registry.
func New(st *store.Store) *Registry {
	return &Registry{st: st}
}

func wrapTxError(op string, err error) error {
	if apperrors.CodeOf(err) != apperrors.CodeUnknown {
		return err
	}
	return fmt.Errorf("redemption: %s: %w", op, err)
}

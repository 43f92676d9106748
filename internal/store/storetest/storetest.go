// Package storetest opens throwaway SQLite stores for package tests.
package storetest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marblerush/economy/internal/store"
)

var seq atomic.Int64

// New opens a migrated store on a private shared-cache in-memory database.
func New(t *testing.T) *store.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d_%d?mode=memory&cache=shared", name, time.Now().UnixNano(), seq.Add(1))
	s, errOpen := store.Open(dsn, store.Options{MaxAttempts: 3, Backoff: time.Millisecond})
	if errOpen != nil {
		t.Fatalf("open store: %v", errOpen)
	}
	t.Cleanup(func() {
		if errClose := s.Close(); errClose != nil {
			t.Errorf("close store: %v", errClose)
		}
	})
	return s
}

// Package store owns the database handle shared by every economy component.
//
// A Store is constructed explicitly, passed to each component, and closed by
// its owner. Transaction re-runs the whole callback on storage contention up
// to a fixed attempt budget and then fails with CodeUnavailable.
package store

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	dbutil "github.com/marblerush/economy/internal/db"
	apperrors "github.com/marblerush/economy/internal/errors"
)

// Default retry budget for contended transactions.
const (
	DefaultMaxAttempts = 5
	DefaultBackoff     = 20 * time.Millisecond
)

// Options tunes transaction retry behaviour.
type Options struct {
	MaxAttempts int           // Total attempts per transaction, including the first.
	Backoff     time.Duration // Base delay, multiplied by the attempt number.
}

// Store wraps a gorm connection with an explicit lifecycle.
type Store struct {
	db          *gorm.DB
	maxAttempts int
	backoff     time.Duration
}

// Open connects to dsn, migrates the schema and returns a ready Store.
func Open(dsn string, opts Options) (*Store, error) {
	conn, err := dbutil.Open(dsn)
	if err != nil {
		return nil, err
	}
	if errMigrate := dbutil.Migrate(conn); errMigrate != nil {
		closeConn(conn)
		return nil, errMigrate
	}
	return New(conn, opts), nil
}

// New wraps an already opened connection.
func New(conn *gorm.DB, opts Options) *Store {
	s := &Store{db: conn, maxAttempts: opts.MaxAttempts, backoff: opts.Backoff}
	if s.maxAttempts <= 0 {
		s.maxAttempts = DefaultMaxAttempts
	}
	if s.backoff < 0 {
		s.backoff = DefaultBackoff
	}
	return s
}

// DB returns a handle bound to ctx for single-statement reads and writes.
func (s *Store) DB(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Dialect returns the active database dialect name.
func (s *Store) Dialect() string {
	return dbutil.DialectName(s.db)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return sqlDB.Close()
}

// Transaction runs fn inside a database transaction.
//
// fn must only use the tx it receives and must be safe to run more than once.
// Business errors from fn abort immediately; contention errors re-run fn
// until the attempt budget is spent.
func (s *Store) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		errTx := s.db.WithContext(ctx).Transaction(fn)
		if errTx == nil {
			return nil
		}
		if apperrors.IsBusiness(errTx) || !dbutil.IsContention(errTx) {
			return errTx
		}
		lastErr = errTx

		log.WithFields(log.Fields{
			"attempt":      attempt,
			"max_attempts": s.maxAttempts,
		}).WithError(errTx).Debug("store: transaction contention, retrying")

		if attempt == s.maxAttempts {
			break
		}
		if errWait := s.wait(ctx, attempt); errWait != nil {
			return errWait
		}
	}
	return apperrors.Wrap(apperrors.CodeUnavailable, "store: transaction aborted after contention retries", lastErr)
}

func (s *Store) wait(ctx context.Context, attempt int) error {
	if s.backoff == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(attempt) * s.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func closeConn(conn *gorm.DB) {
	if sqlDB, err := conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

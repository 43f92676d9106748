package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/marblerush/economy/internal/errors"
	"github.com/marblerush/economy/internal/models"
	"github.com/marblerush/economy/internal/store/storetest"
)

func TestTransactionRetriesContention(t *testing.T) {
	s := storetest.New(t)

	calls := 0
	err := s.Transaction(context.Background(), func(tx *gorm.DB) error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: "40001"}
		}
		return tx.Create(&models.Account{Username: "alice", Coins: 100}).Error
	})
	if err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestTransactionSurfacesUnavailableAfterBudget(t *testing.T) {
	s := storetest.New(t)

	calls := 0
	err := s.Transaction(context.Background(), func(tx *gorm.DB) error {
		calls++
		return &pgconn.PgError{Code: "40P01"}
	})
	if !errors.Is(err, apperrors.ErrUnavailable) {
		t.Fatalf("expected Unavailable, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected the full budget of 3 attempts, got %d", calls)
	}
}

func TestTransactionDoesNotRetryBusinessErrors(t *testing.T) {
	s := storetest.New(t)

	calls := 0
	err := s.Transaction(context.Background(), func(tx *gorm.DB) error {
		calls++
		return apperrors.InsufficientFunds("not enough tickets")
	})
	if !errors.Is(err, apperrors.ErrInsufficientFunds) {
		t.Fatalf("expected InsufficientFunds, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("business errors must not be retried, got %d attempts", calls)
	}
}

func TestTransactionRollsBackOnError(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()

	errBoom := errors.New("boom")
	err := s.Transaction(ctx, func(tx *gorm.DB) error {
		if errCreate := tx.Create(&models.Account{Username: "bob", Coins: 100}).Error; errCreate != nil {
			return errCreate
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}

	var count int64
	if errCount := s.DB(ctx).Model(&models.Account{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count: %v", errCount)
	}
	if count != 0 {
		t.Fatalf("expected rollback to leave no accounts, got %d", count)
	}
}

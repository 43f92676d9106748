package accounts

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	apperrors "github.com/marblerush/economy/internal/errors"
	"github.com/marblerush/economy/internal/store/storetest"
)

func TestCreateInitializesBalances(t *testing.T) {
	ctx := context.Background()
	s := New(storetest.New(t))

	account, errCreate := s.Create(ctx, "alice", "alice@example.com")
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	if account.Coins != 100 || account.Tickets != 0 || account.CurrentSkin != "default" {
		t.Fatalf("unexpected initial account: %+v", account)
	}

	got, errGet := s.Get(ctx, "alice")
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}
	if got.Coins != 100 || got.Email == nil || *got.Email != "alice@example.com" {
		t.Fatalf("unexpected stored account: %+v", got)
	}
}

func TestCreateRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := New(storetest.New(t))

	if _, err := s.Create(ctx, "alice", "alice@example.com"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Create(ctx, "alice", ""); !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected Conflict for duplicate username, got %v", err)
	}
	if _, err := s.Create(ctx, "alice2", "alice@example.com"); !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected Conflict for duplicate email, got %v", err)
	}
	// Accounts without email never collide on it.
	if _, err := s.Create(ctx, "bob", ""); err != nil {
		t.Fatalf("create bob: %v", err)
	}
	if _, err := s.Create(ctx, "carol", ""); err != nil {
		t.Fatalf("create carol: %v", err)
	}
	if _, err := s.Create(ctx, "  ", ""); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("expected InvalidArgument for blank username, got %v", err)
	}
}

func TestGetMissing(t *testing.T) {
	s := New(storetest.New(t))
	if _, err := s.Get(context.Background(), "ghost"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestAdjustBalances(t *testing.T) {
	ctx := context.Background()
	s := New(storetest.New(t))
	if _, err := s.Create(ctx, "alice", ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, errAdjust := s.AdjustBalances(ctx, "alice", -40, 25)
	if errAdjust != nil {
		t.Fatalf("adjust: %v", errAdjust)
	}
	if got.Coins != 60 || got.Tickets != 25 {
		t.Fatalf("unexpected balances: %+v", got)
	}

	if _, err := s.AdjustBalances(ctx, "alice", -61, 0); !errors.Is(err, apperrors.ErrInsufficientFunds) {
		t.Fatalf("expected InsufficientFunds for coins, got %v", err)
	}
	if _, err := s.AdjustBalances(ctx, "alice", 10, -26); !errors.Is(err, apperrors.ErrInsufficientFunds) {
		t.Fatalf("expected InsufficientFunds for tickets, got %v", err)
	}

	// A rejected adjustment leaves both balances untouched.
	account, errGet := s.Get(ctx, "alice")
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}
	if account.Coins != 60 || account.Tickets != 25 {
		t.Fatalf("balances changed after rejected adjustment: %+v", account)
	}

	if _, err := s.AdjustBalances(ctx, "ghost", 1, 1); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestApplyDeltaGuardsStaleRow(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)
	s := New(st)
	if _, err := s.Create(ctx, "alice", ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	errTx := st.Transaction(ctx, func(tx *gorm.DB) error {
		account, errLock := LockForUpdate(tx, "alice")
		if errLock != nil {
			return errLock
		}
		if errDrain := tx.Exec("UPDATE accounts SET coins = 0 WHERE username = ?", "alice").Error; errDrain != nil {
			return errDrain
		}
		// account still believes it holds 100 coins.
		return ApplyDelta(tx, account, -50, 0)
	})
	if !errors.Is(errTx, apperrors.ErrInsufficientFunds) {
		t.Fatalf("expected guarded update to refuse, got %v", errTx)
	}

	account, errGet := s.Get(ctx, "alice")
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}
	if account.Coins != 100 {
		t.Fatalf("expected rollback to restore 100 coins, got %d", account.Coins)
	}
}

func TestSetBalancesAndSkin(t *testing.T) {
	ctx := context.Background()
	s := New(storetest.New(t))
	if _, err := s.Create(ctx, "alice", ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.SetBalances(ctx, "alice", -1, 0); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	if _, err := s.SetBalances(ctx, "ghost", 1, 1); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if _, err := s.SetBalances(ctx, "alice", 7, 9); err != nil {
		t.Fatalf("set balances: %v", err)
	}

	if err := s.SetSkin(ctx, "alice", "neon"); err != nil {
		t.Fatalf("set skin: %v", err)
	}
	if err := s.SetSkin(ctx, "ghost", "neon"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}

	account, errGet := s.Get(ctx, "alice")
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}
	if account.Coins != 7 || account.Tickets != 9 || account.CurrentSkin != "neon" {
		t.Fatalf("unexpected account: %+v", account)
	}
}

func TestSearchAndUsernames(t *testing.T) {
	ctx := context.Background()
	s := New(storetest.New(t))
	for _, item := range []struct{ name, email string }{
		{"Zed", "zed@games.io"},
		{"alice", "ALICE@example.com"},
		{"bob_1", ""},
	} {
		if _, err := s.Create(ctx, item.name, item.email); err != nil {
			t.Fatalf("create %s: %v", item.name, err)
		}
	}

	rows, errSearch := s.Search(ctx, "example")
	if errSearch != nil {
		t.Fatalf("search: %v", errSearch)
	}
	if len(rows) != 1 || rows[0].Username != "alice" {
		t.Fatalf("unexpected email search result: %+v", rows)
	}

	rows, errSearch = s.Search(ctx, "ZE")
	if errSearch != nil {
		t.Fatalf("search: %v", errSearch)
	}
	if len(rows) != 1 || rows[0].Username != "Zed" {
		t.Fatalf("unexpected case-insensitive search result: %+v", rows)
	}

	// Underscore is matched literally.
	rows, errSearch = s.Search(ctx, "b_")
	if errSearch != nil {
		t.Fatalf("search: %v", errSearch)
	}
	if len(rows) != 1 || rows[0].Username != "bob_1" {
		t.Fatalf("unexpected escaped search result: %+v", rows)
	}

	rows, errSearch = s.Search(ctx, "")
	if errSearch != nil {
		t.Fatalf("search all: %v", errSearch)
	}
	if len(rows) != 3 {
		t.Fatalf("expected all accounts, got %d", len(rows))
	}

	names, errNames := s.Usernames(ctx)
	if errNames != nil {
		t.Fatalf("usernames: %v", errNames)
	}
	if len(names) != 3 || names[0] != "Zed" || names[1] != "alice" || names[2] != "bob_1" {
		t.Fatalf("unexpected usernames: %v", names)
	}
}

package redemption

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/marblerush/economy/internal/errors"
	"github.com/marblerush/economy/internal/models"
	"github.com/marblerush/economy/internal/store/storetest"
)

func TestCreateCodeDefaultsAndValidation(t *testing.T) {
	ctx := context.Background()
	r := New(storetest.New(t))

	code, err := r.CreateCode(ctx, CodeSpec{Code: "WELCOME10"})
	if err != nil {
		t.Fatalf("create code: %v", err)
	}
	if code.MaxUses != 1 || code.RewardAmount != 100 || code.CurrentUses != 0 {
		t.Fatalf("unexpected defaults: %+v", code)
	}

	if _, err := r.CreateCode(ctx, CodeSpec{Code: "WELCOME10", MaxUses: 5}); !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
	for _, spec := range []CodeSpec{
		{Code: " "},
		{Code: "NEG", MaxUses: -1},
		{Code: "FREE", RewardAmount: -5},
	} {
		if _, err := r.CreateCode(ctx, spec); !errors.Is(err, apperrors.ErrInvalidArgument) {
			t.Fatalf("%+v: expected InvalidArgument, got %v", spec, err)
		}
	}
}

func TestUpdateCodeCannotDropBelowUses(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)
	r := New(st)

	if _, err := r.CreateCode(ctx, CodeSpec{Code: "SPRING", MaxUses: 5, RewardAmount: 20}); err != nil {
		t.Fatalf("create code: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := st.Transaction(ctx, func(tx *gorm.DB) error {
			return ConsumeCodeUse(tx, "SPRING", time.Now().UTC())
		}); err != nil {
			t.Fatalf("consume use %d: %v", i, err)
		}
	}

	if _, err := r.UpdateCode(ctx, "SPRING", CodeSpec{MaxUses: 2}); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	updated, err := r.UpdateCode(ctx, "SPRING", CodeSpec{MaxUses: 3, TargetUser: "alice"})
	if err != nil {
		t.Fatalf("update code: %v", err)
	}
	if updated.MaxUses != 3 || updated.RewardAmount != 20 || updated.TargetUser != "alice" {
		t.Fatalf("unexpected updated code: %+v", updated)
	}
	if _, err := r.UpdateCode(ctx, "MISSING", CodeSpec{MaxUses: 3}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestConsumeCodeUseStopsAtMax(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)
	r := New(st)

	if _, err := r.CreateCode(ctx, CodeSpec{Code: "ONCE"}); err != nil {
		t.Fatalf("create code: %v", err)
	}
	consume := func() error {
		return st.Transaction(ctx, func(tx *gorm.DB) error {
			return ConsumeCodeUse(tx, "ONCE", time.Now().UTC())
		})
	}
	if err := consume(); err != nil {
		t.Fatalf("first use: %v", err)
	}
	if err := consume(); !errors.Is(err, apperrors.ErrLimitExceeded) {
		t.Fatalf("expected LimitExceeded, got %v", err)
	}

	codes, err := r.ListCodes(ctx)
	if err != nil {
		t.Fatalf("list codes: %v", err)
	}
	if len(codes) != 1 || codes[0].CurrentUses != 1 || codes[0].LastUsedAt == nil {
		t.Fatalf("unexpected code state: %+v", codes)
	}
}

func TestListCodesUsedFirst(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)
	r := New(st)

	for _, code := range []string{"A", "B", "C"} {
		if _, err := r.CreateCode(ctx, CodeSpec{Code: code, MaxUses: 10}); err != nil {
			t.Fatalf("create %s: %v", code, err)
		}
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for code, at := range map[string]time.Time{"A": base, "C": base.Add(time.Hour)} {
		usedAt := at
		if err := st.Transaction(ctx, func(tx *gorm.DB) error {
			return ConsumeCodeUse(tx, code, usedAt)
		}); err != nil {
			t.Fatalf("consume %s: %v", code, err)
		}
	}

	codes, err := r.ListCodes(ctx)
	if err != nil {
		t.Fatalf("list codes: %v", err)
	}
	if len(codes) != 3 || codes[0].Code != "C" || codes[1].Code != "A" || codes[2].Code != "B" {
		t.Fatalf("unexpected order: %+v", codes)
	}
}

func TestGiftCatalog(t *testing.T) {
	ctx := context.Background()
	r := New(storetest.New(t))

	for _, spec := range []GiftSpec{
		{Name: "Sticker", Price: 50, Stock: 10, ImageRef: "sticker.png"},
		{Name: "Mug", Price: 20, Stock: 0},
		{Name: "Pin", Price: 20, Stock: 3},
	} {
		if _, err := r.CreateGift(ctx, spec); err != nil {
			t.Fatalf("create %s: %v", spec.Name, err)
		}
	}
	for _, spec := range []GiftSpec{{Name: ""}, {Name: "x", Price: -1}, {Name: "x", Stock: -1}} {
		if _, err := r.CreateGift(ctx, spec); !errors.Is(err, apperrors.ErrInvalidArgument) {
			t.Fatalf("%+v: expected InvalidArgument, got %v", spec, err)
		}
	}

	active, err := r.ListActiveGifts(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 2 || active[0].Name != "Pin" || active[1].Name != "Sticker" {
		t.Fatalf("unexpected active gifts: %+v", active)
	}

	all, err := r.ListGifts(ctx)
	if err != nil {
		t.Fatalf("list gifts: %v", err)
	}
	if len(all) != 3 || all[0].Name != "Pin" {
		t.Fatalf("expected newest first, got %+v", all)
	}

	sticker := active[1]
	updated, err := r.UpdateGift(ctx, sticker.ID, GiftSpec{Name: "Big Sticker", Price: 60, Stock: 4})
	if err != nil {
		t.Fatalf("update gift: %v", err)
	}
	if updated.ImageRef != "sticker.png" || updated.Price != 60 || updated.Stock != 4 {
		t.Fatalf("unexpected updated gift: %+v", updated)
	}
	if _, err := r.UpdateGift(ctx, 9999, GiftSpec{Name: "x"}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestTakeGiftUnitAndRecord(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)
	r := New(st)

	gift, err := r.CreateGift(ctx, GiftSpec{Name: "Badge", Price: 5, Stock: 1})
	if err != nil {
		t.Fatalf("create gift: %v", err)
	}
	take := func() error {
		return st.Transaction(ctx, func(tx *gorm.DB) error {
			locked, errLock := LockGift(tx, gift.ID)
			if errLock != nil {
				return errLock
			}
			if errTake := TakeGiftUnit(tx, locked.ID); errTake != nil {
				return errTake
			}
			_, errRecord := RecordRedemption(tx, "alice", locked, time.Now().UTC())
			return errRecord
		})
	}
	if err := take(); err != nil {
		t.Fatalf("first take: %v", err)
	}
	if err := take(); !errors.Is(err, apperrors.ErrLimitExceeded) {
		t.Fatalf("expected LimitExceeded, got %v", err)
	}

	rows, err := r.Redemptions(ctx, "alice")
	if err != nil {
		t.Fatalf("redemptions: %v", err)
	}
	if len(rows) != 1 || rows[0].GiftName != "Badge" || rows[0].Cost != 5 || rows[0].Status != models.GiftRedemptionStatusSuccess {
		t.Fatalf("unexpected redemptions: %+v", rows)
	}
	recent, err := r.RecentRedemptions(ctx, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 recent redemption, got %d", len(recent))
	}
}

package redemption

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/marblerush/economy/internal/errors"
	"github.com/marblerush/economy/internal/models"
)

// DefaultRecentRedemptions is the admin redemption list size.
const DefaultRecentRedemptions = 100

// GiftSpec describes a gift to create or edit.
type GiftSpec struct {
	Name     string `json:"name" yaml:"name"`
	Price    int64  `json:"price" yaml:"price"`
	Stock    int64  `json:"stock" yaml:"stock"`
	ImageRef string `json:"image_ref" yaml:"image_ref"`
}

func (spec GiftSpec) validate() error {
	if strings.TrimSpace(spec.Name) == "" {
		return apperrors.InvalidArgument("gift name is required")
	}
	if spec.Price < 0 {
		return apperrors.InvalidArgument("gift price must not be negative")
	}
	if spec.Stock < 0 {
		return apperrors.InvalidArgument("gift stock must not be negative")
	}
	return nil
}

// CreateGift adds a gift to the catalog.
func (r *Registry) CreateGift(ctx context.Context, spec GiftSpec) (*models.Gift, error) {
	if errValidate := spec.validate(); errValidate != nil {
		return nil, errValidate
	}
	gift := &models.Gift{
		Name:     strings.TrimSpace(spec.Name),
		ImageRef: strings.TrimSpace(spec.ImageRef),
		Price:    spec.Price,
		Stock:    spec.Stock,
	}
	if errCreate := r.st.DB(ctx).Create(gift).Error; errCreate != nil {
		return nil, fmt.Errorf("redemption: create gift: %w", errCreate)
	}
	log.WithFields(log.Fields{
		"gift_id": gift.ID,
		"name":    gift.Name,
		"price":   gift.Price,
		"stock":   gift.Stock,
	}).Info("redemption: gift created")
	return gift, nil
}

// UpdateGift replaces name, price and stock. An empty ImageRef keeps the current image.
func (r *Registry) UpdateGift(ctx context.Context, id uint64, spec GiftSpec) (*models.Gift, error) {
	if errValidate := spec.validate(); errValidate != nil {
		return nil, errValidate
	}
	var out models.Gift
	errTx := r.st.Transaction(ctx, func(tx *gorm.DB) error {
		gift, errLock := LockGift(tx, id)
		if errLock != nil {
			return errLock
		}
		gift.Name = strings.TrimSpace(spec.Name)
		gift.Price = spec.Price
		gift.Stock = spec.Stock
		if imageRef := strings.TrimSpace(spec.ImageRef); imageRef != "" {
			gift.ImageRef = imageRef
		}
		gift.UpdatedAt = time.Now().UTC()
		if errUpdate := tx.Model(&models.Gift{}).
			Where("id = ?", gift.ID).
			Updates(map[string]any{
				"name":       gift.Name,
				"price":      gift.Price,
				"stock":      gift.Stock,
				"image_ref":  gift.ImageRef,
				"updated_at": gift.UpdatedAt,
			}).Error; errUpdate != nil {
			return errUpdate
		}
		out = *gift
		return nil
	})
	if errTx != nil {
		return nil, wrapTxError("update gift", errTx)
	}
	return &out, nil
}

// ListActiveGifts returns gifts in stock, cheapest first.
func (r *Registry) ListActiveGifts(ctx context.Context) ([]models.Gift, error) {
	var gifts []models.Gift
	if errFind := r.st.DB(ctx).
		Where("stock > 0").
		Order("price ASC, id ASC").
		Find(&gifts).Error; errFind != nil {
		return nil, fmt.Errorf("redemption: list active gifts: %w", errFind)
	}
	return gifts, nil
}

// ListGifts returns the whole catalog, newest first.
func (r *Registry) ListGifts(ctx context.Context) ([]models.Gift, error) {
	var gifts []models.Gift
	if errFind := r.st.DB(ctx).Order("id DESC").Find(&gifts).Error; errFind != nil {
		return nil, fmt.Errorf("redemption: list gifts: %w", errFind)
	}
	return gifts, nil
}

// Redemptions returns username's gift purchases, newest first.
func (r *Registry) Redemptions(ctx context.Context, username string) ([]models.GiftRedemption, error) {
	var rows []models.GiftRedemption
	if errFind := r.st.DB(ctx).
		Where("username = ?", username).
		Order("redeemed_at DESC, id DESC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("redemption: list redemptions: %w", errFind)
	}
	return rows, nil
}

// RecentRedemptions returns the latest purchases across all accounts.
func (r *Registry) RecentRedemptions(ctx context.Context, limit int) ([]models.GiftRedemption, error) {
	if limit <= 0 {
		limit = DefaultRecentRedemptions
	}
	var rows []models.GiftRedemption
	if errFind := r.st.DB(ctx).
		Order("redeemed_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("redemption: recent redemptions: %w", errFind)
	}
	return rows, nil
}

// LockGift loads a gift inside tx and holds its row lock until commit.
func LockGift(tx *gorm.DB, id uint64) (*models.Gift, error) {
	var gift models.Gift
	if errFind := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&gift).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("gift not found")
		}
		return nil, errFind
	}
	return &gift, nil
}

// TakeGiftUnit removes one unit of stock inside tx. Only one of several
// racers for the last unit sees a row updated; the rest get LimitExceeded.
func TakeGiftUnit(tx *gorm.DB, id uint64) error {
	res := tx.Model(&models.Gift{}).
		Where("id = ? AND stock > 0", id).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.LimitExceeded("gift out of stock")
	}
	return nil
}

// RecordRedemption appends the purchase snapshot inside tx.
func RecordRedemption(tx *gorm.DB, username string, gift *models.Gift, now time.Time) (*models.GiftRedemption, error) {
	row := &models.GiftRedemption{
		Username:   username,
		GiftID:     gift.ID,
		GiftName:   gift.Name,
		Cost:       gift.Price,
		Status:     models.GiftRedemptionStatusSuccess,
		RedeemedAt: now,
	}
	if errCreate := tx.Create(row).Error; errCreate != nil {
		return nil, errCreate
	}
	return row, nil
}

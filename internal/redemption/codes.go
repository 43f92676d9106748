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

	dbutil "github.com/marblerush/economy/internal/db"
	apperrors "github.com/marblerush/economy/internal/errors"
	"github.com/marblerush/economy/internal/models"
)

// Redeem code defaults applied when a spec leaves a field at zero.
const (
	DefaultMaxUses      int64 = 1
	DefaultRewardAmount int64 = 100
)

// CodeSpec describes a redeem code to create or edit.
// Zero MaxUses or RewardAmount selects the default on create and keeps the
// current value on update.
type CodeSpec struct {
	Code         string `json:"code" yaml:"code"`
	MaxUses      int64  `json:"max_uses" yaml:"max_uses"`
	TargetUser   string `json:"target_user" yaml:"target_user"`
	RewardAmount int64  `json:"reward_amount" yaml:"reward_amount"`
}

// CreateCode registers a new redeem code.
func (r *Registry) CreateCode(ctx context.Context, spec CodeSpec) (*models.RedeemCode, error) {
	code := strings.TrimSpace(spec.Code)
	if code == "" {
		return nil, apperrors.InvalidArgument("code is required")
	}
	maxUses := spec.MaxUses
	if maxUses == 0 {
		maxUses = DefaultMaxUses
	}
	reward := spec.RewardAmount
	if reward == 0 {
		reward = DefaultRewardAmount
	}
	if maxUses < 1 {
		return nil, apperrors.InvalidArgument("max uses must be at least 1")
	}
	if reward <= 0 {
		return nil, apperrors.InvalidArgument("reward amount must be positive")
	}

	row := &models.RedeemCode{
		Code:         code,
		MaxUses:      maxUses,
		CurrentUses:  0,
		TargetUser:   strings.TrimSpace(spec.TargetUser),
		RewardAmount: reward,
		CreatedAt:    time.Now().UTC(),
	}
	res := r.st.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		if dbutil.IsUniqueViolation(res.Error) {
			return nil, apperrors.Conflict("code already exists")
		}
		return nil, fmt.Errorf("redemption: create code: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.Conflict("code already exists")
	}

	log.WithFields(log.Fields{
		"code":     code,
		"max_uses": maxUses,
		"reward":   reward,
		"target":   row.TargetUser,
	}).Info("redemption: code created")
	return row, nil
}

// UpdateCode edits max uses, target user and reward of an existing code.
// Max uses can never drop below the uses already consumed.
func (r *Registry) UpdateCode(ctx context.Context, code string, spec CodeSpec) (*models.RedeemCode, error) {
	if spec.MaxUses < 0 {
		return nil, apperrors.InvalidArgument("max uses must be at least 1")
	}
	if spec.RewardAmount < 0 {
		return nil, apperrors.InvalidArgument("reward amount must be positive")
	}

	var out models.RedeemCode
	errTx := r.st.Transaction(ctx, func(tx *gorm.DB) error {
		row, errLock := LockCode(tx, code)
		if errLock != nil {
			return errLock
		}
		if spec.MaxUses != 0 {
			if spec.MaxUses < row.CurrentUses {
				return apperrors.InvalidArgument(fmt.Sprintf("max uses %d is below %d uses already consumed", spec.MaxUses, row.CurrentUses))
			}
			row.MaxUses = spec.MaxUses
		}
		if spec.RewardAmount != 0 {
			row.RewardAmount = spec.RewardAmount
		}
		row.TargetUser = strings.TrimSpace(spec.TargetUser)
		if errUpdate := tx.Model(&models.RedeemCode{}).
			Where("code = ?", row.Code).
			Updates(map[string]any{
				"max_uses":      row.MaxUses,
				"target_user":   row.TargetUser,
				"reward_amount": row.RewardAmount,
			}).Error; errUpdate != nil {
			return errUpdate
		}
		out = *row
		return nil
	})
	if errTx != nil {
		return nil, wrapTxError("update code", errTx)
	}
	return &out, nil
}

// ListCodes returns every code, most recently used first and never-used last.
func (r *Registry) ListCodes(ctx context.Context) ([]models.RedeemCode, error) {
	var rows []models.RedeemCode
	if errFind := r.st.DB(ctx).
		Order("last_used_at IS NULL, last_used_at DESC, code ASC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("redemption: list codes: %w", errFind)
	}
	return rows, nil
}

// LockCode loads code inside tx and holds its row lock until commit.
func LockCode(tx *gorm.DB, code string) (*models.RedeemCode, error) {
	var row models.RedeemCode
	if errFind := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", strings.TrimSpace(code)).
		First(&row).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("code not found")
		}
		return nil, errFind
	}
	return &row, nil
}

// ConsumeCodeUse takes one use of code inside tx. The increment is guarded in
// SQL so current_uses can never pass max_uses.
func ConsumeCodeUse(tx *gorm.DB, code string, now time.Time) error {
	res := tx.Model(&models.RedeemCode{}).
		Where("code = ? AND current_uses < max_uses", code).
		Updates(map[string]any{
			"current_uses": gorm.Expr("current_uses + 1"),
			"last_used_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.LimitExceeded("code has no uses left")
	}
	return nil
}

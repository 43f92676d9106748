// Package accounts owns per-player coin and ticket balances.
package accounts

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
	"github.com/marblerush/economy/internal/store"
)

// InitialCoins is the coin balance granted at registration.
const InitialCoins int64 = 100

// Balances is a coin and ticket pair after a mutation.
type Balances struct {
	Coins   int64 `json:"coins"`
	Tickets int64 `json:"tickets"`
}

// Store reads and writes accounts.
type Store struct {
	st *store.Store
}

// New constructs an account Store.
func New(st *store.Store) *Store {
	return &Store{st: st}
}

// Get returns the account for username.
func (s *Store) Get(ctx context.Context, username string) (*models.Account, error) {
	var account models.Account
	if errFind := s.st.DB(ctx).Where("username = ?", username).First(&account).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("account not found")
		}
		return nil, fmt.Errorf("accounts: get: %w", errFind)
	}
	return &account, nil
}

// Create registers a new account with the starting balances.
func (s *Store) Create(ctx context.Context, username, email string) (*models.Account, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return nil, apperrors.InvalidArgument("username is required")
	}

	account := &models.Account{
		Username:    username,
		Coins:       InitialCoins,
		Tickets:     0,
		CurrentSkin: models.DefaultSkin,
	}
	if email != "" {
		account.Email = &email
	}

	errTx := s.st.Transaction(ctx, func(tx *gorm.DB) error {
		var count int64
		if errCount := tx.Model(&models.Account{}).Where("username = ?", username).Count(&count).Error; errCount != nil {
			return errCount
		}
		if count > 0 {
			return apperrors.Conflict("username already exists")
		}
		if email != "" {
			if errCount := tx.Model(&models.Account{}).Where("email = ?", email).Count(&count).Error; errCount != nil {
				return errCount
			}
			if count > 0 {
				return apperrors.Conflict("email already exists")
			}
		}
		if errCreate := tx.Create(account).Error; errCreate != nil {
			if dbutil.IsUniqueViolation(errCreate) {
				return apperrors.Conflict("account already exists")
			}
			return errCreate
		}
		return nil
	})
	if errTx != nil {
		if apperrors.IsBusiness(errTx) {
			return nil, errTx
		}
		return nil, fmt.Errorf("accounts: create: %w", errTx)
	}

	log.WithField("username", username).Info("accounts: registered")
	return account, nil
}

// AdjustBalances applies signed deltas to both balances atomically.
func (s *Store) AdjustBalances(ctx context.Context, username string, coinDelta, ticketDelta int64) (Balances, error) {
	var out Balances
	errTx := s.st.Transaction(ctx, func(tx *gorm.DB) error {
		account, errLock := LockForUpdate(tx, username)
		if errLock != nil {
			return errLock
		}
		if errApply := ApplyDelta(tx, account, coinDelta, ticketDelta); errApply != nil {
			return errApply
		}
		out = Balances{Coins: account.Coins, Tickets: account.Tickets}
		return nil
	})
	if errTx != nil {
		if apperrors.IsBusiness(errTx) || apperrors.CodeOf(errTx) == apperrors.CodeUnavailable {
			return Balances{}, errTx
		}
		return Balances{}, fmt.Errorf("accounts: adjust balances: %w", errTx)
	}
	return out, nil
}

// SetBalances overwrites both balances. Used by administrators.
func (s *Store) SetBalances(ctx context.Context, username string, coins, tickets int64) (Balances, error) {
	if coins < 0 || tickets < 0 {
		return Balances{}, apperrors.InvalidArgument("balances must not be negative")
	}
	res := s.st.DB(ctx).Model(&models.Account{}).
		Where("username = ?", username).
		Updates(map[string]any{
			"coins":      coins,
			"tickets":    tickets,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return Balances{}, fmt.Errorf("accounts: set balances: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return Balances{}, apperrors.NotFound("account not found")
	}
	log.WithFields(log.Fields{
		"username": username,
		"coins":    coins,
		"tickets":  tickets,
	}).Info("accounts: balances overwritten")
	return Balances{Coins: coins, Tickets: tickets}, nil
}

// SetSkin records the skin the player selected.
func (s *Store) SetSkin(ctx context.Context, username, skinRef string) error {
	skinRef = strings.TrimSpace(skinRef)
	if skinRef == "" {
		skinRef = models.DefaultSkin
	}
	res := s.st.DB(ctx).Model(&models.Account{}).
		Where("username = ?", username).
		Updates(map[string]any{
			"current_skin": skinRef,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("accounts: set skin: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("account not found")
	}
	return nil
}

// Search lists accounts whose username or email contains query, case insensitive.
// An empty query lists every account.
func (s *Store) Search(ctx context.Context, query string) ([]models.Account, error) {
	conn := s.st.DB(ctx)
	q := conn.Model(&models.Account{})
	if query = strings.TrimSpace(query); query != "" {
		pattern := dbutil.NormalizeLikePattern(conn, "%"+dbutil.EscapeLike(query)+"%")
		q = q.Where(
			dbutil.CaseInsensitiveLikeExpr(conn, "username")+` ESCAPE '\' OR `+
				dbutil.CaseInsensitiveLikeExpr(conn, "COALESCE(email, '')")+` ESCAPE '\'`,
			pattern, pattern,
		)
	}
	var rows []models.Account
	if errFind := q.Order("username ASC").Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("accounts: search: %w", errFind)
	}
	return rows, nil
}

// Usernames returns every username in ascending order.
func (s *Store) Usernames(ctx context.Context) ([]string, error) {
	var names []string
	if errPluck := s.st.DB(ctx).Model(&models.Account{}).
		Order("username ASC").
		Pluck("username", &names).Error; errPluck != nil {
		return nil, fmt.Errorf("accounts: usernames: %w", errPluck)
	}
	return names, nil
}

// LockForUpdate loads username inside tx and holds its row lock until commit.
func LockForUpdate(tx *gorm.DB, username string) (*models.Account, error) {
	var account models.Account
	if errFind := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("username = ?", username).
		First(&account).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("account not found")
		}
		return nil, errFind
	}
	return &account, nil
}

// ApplyDelta adds the deltas to a locked account inside tx.
//
// The update is guarded in SQL so a balance can never be written below zero
// even if account is stale. On success account carries the new balances.
func ApplyDelta(tx *gorm.DB, account *models.Account, coinDelta, ticketDelta int64) error {
	if account.Coins+coinDelta < 0 {
		return apperrors.InsufficientFunds("not enough coins")
	}
	if account.Tickets+ticketDelta < 0 {
		return apperrors.InsufficientFunds("not enough tickets")
	}
	if coinDelta == 0 && ticketDelta == 0 {
		return nil
	}

	res := tx.Model(&models.Account{}).
		Where("username = ? AND coins + ? >= 0 AND tickets + ? >= 0", account.Username, coinDelta, ticketDelta).
		Updates(map[string]any{
			"coins":      gorm.Expr("coins + ?", coinDelta),
			"tickets":    gorm.Expr("tickets + ?", ticketDelta),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.InsufficientFunds("balance changed concurrently")
	}
	account.Coins += coinDelta
	account.Tickets += ticketDelta
	return nil
}

// Package ledger is the only writer that changes more than one record at a
// time. Each operation runs in a single store transaction, so callers observe
// either every effect or none.
package ledger

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/marblerush/economy/internal/accounts"
	"github.com/marblerush/economy/internal/audit"
	apperrors "github.com/marblerush/economy/internal/errors"
	"github.com/marblerush/economy/internal/models"
	"github.com/marblerush/economy/internal/redemption"
	"github.com/marblerush/economy/internal/store"
)

// RateSource provides the tickets to coins exchange rate.
type RateSource interface {
	ExchangeRate(ctx context.Context) (float64, error)
}

// TransferResult is the outcome of a ticket transfer.
type TransferResult struct {
	Sender        string `json:"sender"`
	Receiver      string `json:"receiver"`
	Amount        int64  `json:"amount"`
	SenderTickets int64  `json:"sender_tickets"`
}

// ExchangeResult is the outcome of converting tickets into coins.
type ExchangeResult struct {
	PointsSpent int64 `json:"points_spent"`
	CoinsGained int64 `json:"coins_gained"`
	Tickets     int64 `json:"tickets"`
	Coins       int64 `json:"coins"`
}

// GiftResult is the outcome of a gift purchase.
type GiftResult struct {
	Redemption models.GiftRedemption `json:"redemption"`
	Tickets    int64                 `json:"tickets"`
}

// CodeResult is the outcome of applying a redeem code.
type CodeResult struct {
	Code   string `json:"code"`
	Amount int64  `json:"amount"`
	Coins  int64  `json:"coins"`
}

// Coordinator executes the multi-record economy operations.
type Coordinator struct {
	st    *store.Store
	rates RateSource
}

// New constructs a Coordinator.
func New(st *store.Store, rates RateSource) *Coordinator {
	return &Coordinator{st: st, rates: rates}
}

// TransferTickets moves amount tickets from sender to receiver and records it.
func (c *Coordinator) TransferTickets(ctx context.Context, sender, receiver string, amount int64) (*TransferResult, error) {
	sender = strings.TrimSpace(sender)
	receiver = strings.TrimSpace(receiver)
	fields := log.Fields{"sender": sender, "receiver": receiver, "amount": amount}
	if amount <= 0 {
		return nil, c.fail("transfer", fields, apperrors.InvalidArgument("amount must be positive"))
	}
	if sender == receiver {
		return nil, c.fail("transfer", fields, apperrors.InvalidArgument("cannot transfer to yourself"))
	}

	var out TransferResult
	errTx := c.st.Transaction(ctx, func(tx *gorm.DB) error {
		// Lock in username order so opposing transfers cannot deadlock.
		first, second := sender, receiver
		if second < first {
			first, second = second, first
		}
		locked := make(map[string]*models.Account, 2)
		for _, username := range []string{first, second} {
			account, errLock := accounts.LockForUpdate(tx, username)
			if errLock != nil {
				return errLock
			}
			locked[username] = account
		}
		from, to := locked[sender], locked[receiver]

		if from.Tickets < amount {
			return apperrors.InsufficientFunds("not enough tickets")
		}
		if errDebit := accounts.ApplyDelta(tx, from, 0, -amount); errDebit != nil {
			return errDebit
		}
		if errCredit := accounts.ApplyDelta(tx, to, 0, amount); errCredit != nil {
			return errCredit
		}
		if errAppend := audit.Append(tx, &models.TransferLog{
			Sender:   sender,
			Receiver: receiver,
			Amount:   amount,
		}); errAppend != nil {
			return errAppend
		}
		out = TransferResult{Sender: sender, Receiver: receiver, Amount: amount, SenderTickets: from.Tickets}
		return nil
	})
	if errTx != nil {
		return nil, c.fail("transfer", fields, errTx)
	}

	fields["sender_tickets"] = out.SenderTickets
	log.WithFields(fields).Info("ledger: tickets transferred")
	return &out, nil
}

// ExchangeTicketsForCoins converts pointsSpent tickets into coins at the
// configured rate, rounding down.
func (c *Coordinator) ExchangeTicketsForCoins(ctx context.Context, username string, pointsSpent int64) (*ExchangeResult, error) {
	fields := log.Fields{"username": username, "points": pointsSpent}
	if pointsSpent <= 0 {
		return nil, c.fail("exchange", fields, apperrors.InvalidArgument("points must be positive"))
	}
	rate, errRate := c.rates.ExchangeRate(ctx)
	if errRate != nil {
		return nil, c.fail("exchange", fields, errRate)
	}
	coins := exchangeCoins(pointsSpent, rate)
	fields["rate"] = rate
	if coins <= 0 {
		return nil, c.fail("exchange", fields, apperrors.InvalidArgument("points too few to exchange for a coin"))
	}

	var out ExchangeResult
	errTx := c.st.Transaction(ctx, func(tx *gorm.DB) error {
		account, errLock := accounts.LockForUpdate(tx, username)
		if errLock != nil {
			return errLock
		}
		if account.Tickets < pointsSpent {
			return apperrors.InsufficientFunds("not enough tickets")
		}
		if errApply := accounts.ApplyDelta(tx, account, coins, -pointsSpent); errApply != nil {
			return errApply
		}
		out = ExchangeResult{
			PointsSpent: pointsSpent,
			CoinsGained: coins,
			Tickets:     account.Tickets,
			Coins:       account.Coins,
		}
		return nil
	})
	if errTx != nil {
		return nil, c.fail("exchange", fields, errTx)
	}

	fields["coins_gained"] = coins
	log.WithFields(fields).Info("ledger: tickets exchanged")
	return &out, nil
}

// RedeemGiftForTickets buys one unit of a gift with tickets.
func (c *Coordinator) RedeemGiftForTickets(ctx context.Context, username string, giftID uint64) (*GiftResult, error) {
	fields := log.Fields{"username": username, "gift_id": giftID}

	var out GiftResult
	errTx := c.st.Transaction(ctx, func(tx *gorm.DB) error {
		account, errAccount := accounts.LockForUpdate(tx, username)
		if errAccount != nil {
			return errAccount
		}
		gift, errGift := redemption.LockGift(tx, giftID)
		if errGift != nil {
			return errGift
		}
		if gift.Stock <= 0 {
			return apperrors.LimitExceeded("gift out of stock")
		}
		if account.Tickets < gift.Price {
			return apperrors.InsufficientFunds("not enough tickets")
		}
		if errTake := redemption.TakeGiftUnit(tx, gift.ID); errTake != nil {
			return errTake
		}
		if errApply := accounts.ApplyDelta(tx, account, 0, -gift.Price); errApply != nil {
			return errApply
		}
		record, errRecord := redemption.RecordRedemption(tx, username, gift, time.Now().UTC())
		if errRecord != nil {
			return errRecord
		}
		out = GiftResult{Redemption: *record, Tickets: account.Tickets}
		return nil
	})
	if errTx != nil {
		return nil, c.fail("redeem gift", fields, errTx)
	}

	fields["cost"] = out.Redemption.Cost
	log.WithFields(fields).Info("ledger: gift redeemed")
	return &out, nil
}

// ApplyRedeemCode consumes one use of code and credits its reward in coins.
// A code reserved for another account is reported as not found.
func (c *Coordinator) ApplyRedeemCode(ctx context.Context, username, code string) (*CodeResult, error) {
	code = strings.TrimSpace(code)
	fields := log.Fields{"username": username, "code": code}

	var out CodeResult
	errTx := c.st.Transaction(ctx, func(tx *gorm.DB) error {
		account, errAccount := accounts.LockForUpdate(tx, username)
		if errAccount != nil {
			return errAccount
		}
		row, errCode := redemption.LockCode(tx, code)
		if errCode != nil {
			return errCode
		}
		if !row.AllowedFor(username) {
			return apperrors.NotFound("code not found")
		}
		if row.Exhausted() {
			return apperrors.LimitExceeded("code has no uses left")
		}
		if errConsume := redemption.ConsumeCodeUse(tx, row.Code, time.Now().UTC()); errConsume != nil {
			return errConsume
		}
		if errApply := accounts.ApplyDelta(tx, account, row.RewardAmount, 0); errApply != nil {
			return errApply
		}
		out = CodeResult{Code: row.Code, Amount: row.RewardAmount, Coins: account.Coins}
		return nil
	})
	if errTx != nil {
		return nil, c.fail("redeem code", fields, errTx)
	}

	fields["amount"] = out.Amount
	log.WithFields(fields).Info("ledger: code redeemed")
	return &out, nil
}

// fail logs err and returns it in the shape callers expect: domain errors
// unchanged, infrastructure errors wrapped.
func (c *Coordinator) fail(op string, fields log.Fields, err error) error {
	entry := log.WithFields(fields).WithError(err)
	if apperrors.IsBusiness(err) {
		entry.Warnf("ledger: %s rejected", op)
		return err
	}
	entry.Errorf("ledger: %s failed", op)
	if apperrors.CodeOf(err) == apperrors.CodeUnavailable {
		return err
	}
	return fmt.Errorf("ledger: %s: %w", op, err)
}

// exchangeCoins returns floor(points*rate). The epsilon absorbs binary
// rounding such as 0.29*100 = 28.999999999999996.
func exchangeCoins(points int64, rate float64) int64 {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0
	}
	return int64(math.Floor(float64(points)*rate + 1e-9))
}

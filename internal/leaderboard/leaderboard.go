// Package leaderboard ranks accounts by ticket balance.
package leaderboard

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/marblerush/economy/internal/accounts"
	apperrors "github.com/marblerush/economy/internal/errors"
	"github.com/marblerush/economy/internal/models"
	"github.com/marblerush/economy/internal/store"
)

// DefaultTopN is used when a caller asks for a non-positive list size.
const DefaultTopN = 10

// Entry is one ranked account.
type Entry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Tickets  int64  `json:"tickets"`
}

// Standing is the top list together with one account's own position.
type Standing struct {
	Top      []Entry `json:"leaderboard"`
	Username string  `json:"username"`
	Rank     int     `json:"my_rank"`
	Tickets  int64   `json:"my_tickets"`
}

// Cache stores computed top lists. Implementations may fail freely; the
// service treats every error as a miss.
type Cache interface {
	Top(ctx context.Context, n int) ([]Entry, bool, error)
	StoreTop(ctx context.Context, n int, entries []Entry) error
}

// Service answers leaderboard queries. It never writes accounts.
type Service struct {
	st       *store.Store
	accounts *accounts.Store
	cache    Cache
}

// New constructs a Service. cache may be nil.
func New(st *store.Store, cache Cache) *Service {
	return &Service{st: st, accounts: accounts.New(st), cache: cache}
}

// TopN returns the n richest accounts by tickets, ties broken by username.
// Tied accounts share a rank and the next rank skips accordingly.
func (s *Service) TopN(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = DefaultTopN
	}
	if s.cache != nil {
		entries, hit, errCache := s.cache.Top(ctx, n)
		if errCache != nil {
			log.WithError(errCache).Warn("leaderboard: cache read failed, using database")
		} else if hit {
			return entries, nil
		}
	}

	entries, errLoad := s.loadTop(ctx, n)
	if errLoad != nil {
		return nil, errLoad
	}
	if s.cache != nil {
		if errStore := s.cache.StoreTop(ctx, n, entries); errStore != nil {
			log.WithError(errStore).Warn("leaderboard: cache write failed")
		}
	}
	return entries, nil
}

// Warm recomputes the top list for n and stores it in the cache.
func (s *Service) Warm(ctx context.Context, n int) error {
	if s.cache == nil {
		return nil
	}
	if n <= 0 {
		n = DefaultTopN
	}
	entries, errLoad := s.loadTop(ctx, n)
	if errLoad != nil {
		return errLoad
	}
	return s.cache.StoreTop(ctx, n, entries)
}

// Rank returns 1 plus the number of accounts holding strictly more tickets.
func (s *Service) Rank(ctx context.Context, username string) (int, error) {
	account, errGet := s.accounts.Get(ctx, username)
	if errGet != nil {
		return 0, errGet
	}
	return s.rankOf(ctx, account.Tickets)
}

// Standing combines the top n list with username's rank and tickets.
// An empty username yields rank 0, as does an unknown one.
func (s *Service) Standing(ctx context.Context, username string, n int) (*Standing, error) {
	top, errTop := s.TopN(ctx, n)
	if errTop != nil {
		return nil, errTop
	}
	out := &Standing{Top: top, Username: username}
	if username == "" {
		return out, nil
	}
	account, errGet := s.accounts.Get(ctx, username)
	if errGet != nil {
		if errors.Is(errGet, apperrors.ErrNotFound) {
			return out, nil
		}
		return nil, errGet
	}
	rank, errRank := s.rankOf(ctx, account.Tickets)
	if errRank != nil {
		return nil, errRank
	}
	out.Rank = rank
	out.Tickets = account.Tickets
	return out, nil
}

func (s *Service) rankOf(ctx context.Context, tickets int64) (int, error) {
	var greater int64
	if errCount := s.st.DB(ctx).Model(&models.Account{}).
		Where("tickets > ?", tickets).
		Count(&greater).Error; errCount != nil {
		return 0, fmt.Errorf("leaderboard: rank: %w", errCount)
	}
	return int(greater) + 1, nil
}

func (s *Service) loadTop(ctx context.Context, n int) ([]Entry, error) {
	var rows []models.Account
	if errFind := s.st.DB(ctx).
		Select("username", "tickets").
		Order("tickets DESC, username ASC").
		Limit(n).
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("leaderboard: top: %w", errFind)
	}
	entries := make([]Entry, 0, len(rows))
	for i, row := range rows {
		rank := i + 1
		if i > 0 && row.Tickets == rows[i-1].Tickets {
			rank = entries[i-1].Rank
		}
		entries = append(entries, Entry{Rank: rank, Username: row.Username, Tickets: row.Tickets})
	}
	return entries, nil
}

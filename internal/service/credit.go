package service

import (
	"context"
	"errors"

	"github.com/spendwise/backend/internal/model"
	"github.com/spendwise/backend/internal/repository"
)

// CreditStore is implemented by *repository.Repository.
type CreditStore interface {
	GetCreditBalance(ctx context.Context, userID int64) (*model.CreditBalance, error)
	ListLedgerEntries(ctx context.Context, userID int64, limit, offset int) ([]model.CreditLedgerEntry, error)
	GrantCredits(ctx context.Context, userID int64, amount int, entryType model.LedgerEntryType, description string, metadata model.Metadata) (*model.CreditLedgerEntry, error)
	ConsumeCredits(ctx context.Context, userID int64, n int) (*model.CreditBalance, error)
}

var ErrInvalidAmount = errors.New("amount must be positive")

type CreditService struct {
	store CreditStore
}

func NewCreditService(store CreditStore) *CreditService {
	return &CreditService{store: store}
}

// GetBalance returns the user's balance. A user whose balance row has not
// been created yet reads as all zeros.
func (s *CreditService) GetBalance(ctx context.Context, userID int64) (*model.CreditBalance, error) {
	balance, err := s.store.GetCreditBalance(ctx, userID)
	if errors.Is(err, repository.ErrBalanceNotFound) {
		return &model.CreditBalance{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// GetLedger returns ledger history, newest first.
func (s *CreditService) GetLedger(ctx context.Context, userID int64, limit, offset int) ([]model.CreditLedgerEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListLedgerEntries(ctx, userID, limit, offset)
}

// Consume spends n credits on AI usage.
func (s *CreditService) Consume(ctx context.Context, userID int64, n int) (*model.CreditBalance, error) {
	if n <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.store.ConsumeCredits(ctx, userID, n)
}

// GrantManual adds credits as an admin adjustment.
func (s *CreditService) GrantManual(ctx context.Context, userID int64, amount int, description string) (*model.CreditLedgerEntry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.store.GrantCredits(ctx, userID, amount, model.LedgerEntryAdminGrant, description, model.Metadata{
		"source": "admin",
	})
}

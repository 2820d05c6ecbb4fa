package service

import (
	"context"
	"strconv"

	"github.com/spendwise/backend/internal/model"
)

// AdminStore is implemented by *repository.Repository.
type AdminStore interface {
	GetSettingInt(ctx context.Context, key string) (int, error)
	SetSetting(ctx context.Context, key, value string) error
}

type AdminService struct {
	store   AdminStore
	credits *CreditService
}

func NewAdminService(store AdminStore, credits *CreditService) *AdminService {
	return &AdminService{store: store, credits: credits}
}

// GrantCredits applies a manual credit adjustment through the shared ledger path.
func (s *AdminService) GrantCredits(ctx context.Context, userID int64, amount int, description string) (*model.CreditLedgerEntry, error) {
	return s.credits.GrantManual(ctx, userID, amount, description)
}

func (s *AdminService) GetReferralBonus(ctx context.Context) int {
	bonus, err := s.store.GetSettingInt(ctx, referralBonusSettingKey)
	if err != nil || bonus <= 0 {
		return model.DefaultReferralBonusMessages
	}
	return bonus
}

func (s *AdminService) SetReferralBonus(ctx context.Context, bonus int) error {
	if bonus <= 0 {
		return ErrInvalidAmount
	}
	return s.store.SetSetting(ctx, referralBonusSettingKey, strconv.Itoa(bonus))
}

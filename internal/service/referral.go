package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/spendwise/backend/internal/model"
	"github.com/spendwise/backend/internal/repository"
)

var (
	ErrReferralAlreadyExists = errors.New("referral already applied")
	ErrSelfReferral          = errors.New("cannot apply your own referral code")
)

const referralBonusSettingKey = "referral_bonus_messages"

// ReferralStore is implemented by *repository.Repository.
type ReferralStore interface {
	CreateReferral(ctx context.Context, referral *model.Referral) error
	GetReferralByReferredID(ctx context.Context, referredID int64) (*model.Referral, error)
	GrantReferralBonus(ctx context.Context, referralID uuid.UUID, referrerID int64, amount int) (*model.CreditLedgerEntry, error)
	GetReferralStats(ctx context.Context, referrerID int64) (*model.ReferralStats, error)
	CountTutorialCompletions(ctx context.Context, userID int64) (int, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (*model.User, error)
	GetSettingInt(ctx context.Context, key string) (int, error)
}

type ReferralService struct {
	store     ReferralStore
	webAppURL string
}

func NewReferralService(store ReferralStore, webAppURL string) *ReferralService {
	return &ReferralService{store: store, webAppURL: webAppURL}
}

// Apply links the calling user to the referrer owning the given code. The
// bonus amount is snapshotted on the referral so a later settings change does
// not alter rewards already promised.
func (s *ReferralService) Apply(ctx context.Context, userID int64, code string) error {
	referrer, err := s.store.GetUserByReferralCode(ctx, code)
	if err != nil {
		return err
	}

	if referrer.ID == userID {
		return ErrSelfReferral
	}

	_, err = s.store.GetReferralByReferredID(ctx, userID)
	if err == nil {
		return ErrReferralAlreadyExists
	}
	if !errors.Is(err, repository.ErrReferralNotFound) {
		return err
	}

	referral := &model.Referral{
		ReferrerID:    referrer.ID,
		ReferredID:    userID,
		BonusMessages: s.bonusMessages(ctx),
		Status:        model.ReferralStatusPending,
	}
	return s.store.CreateReferral(ctx, referral)
}

// GrantOnboardingReward credits the referrer once the referred user has
// finished the whole tutorial. Safe to call after every step completion: it
// no-ops until the last step, and the credited-status guard in the store
// makes the grant happen at most once.
func (s *ReferralService) GrantOnboardingReward(ctx context.Context, userID int64) error {
	referral, err := s.store.GetReferralByReferredID(ctx, userID)
	if errors.Is(err, repository.ErrReferralNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if referral.Status == model.ReferralStatusCredited {
		return nil
	}

	completed, err := s.store.CountTutorialCompletions(ctx, userID)
	if err != nil {
		return err
	}
	if completed < model.TotalSteps() {
		return nil
	}

	_, err = s.store.GrantReferralBonus(ctx, referral.ID, referral.ReferrerID, referral.BonusMessages)
	if errors.Is(err, repository.ErrReferralAlreadyCredited) {
		return nil
	}
	return err
}

func (s *ReferralService) Stats(ctx context.Context, userID int64) (*model.ReferralStats, error) {
	return s.store.GetReferralStats(ctx, userID)
}

// Link returns the user's shareable invite URL and code.
func (s *ReferralService) Link(ctx context.Context, userID int64) (string, string, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return "", "", err
	}
	link := fmt.Sprintf("%s/invite/%s", s.webAppURL, user.ReferralCode)
	return link, user.ReferralCode, nil
}

func (s *ReferralService) bonusMessages(ctx context.Context) int {
	bonus, err := s.store.GetSettingInt(ctx, referralBonusSettingKey)
	if err != nil || bonus <= 0 {
		return model.DefaultReferralBonusMessages
	}
	return bonus
}

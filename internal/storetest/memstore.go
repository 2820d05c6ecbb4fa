// Package storetest provides an in-memory implementation of the service
// store interfaces for tests. It mirrors the storage-level semantics the
// Postgres repository relies on: duplicate completions are suppressed the way
// the unique index suppresses them, balance mutations serialize on one lock,
// and a failure injected mid-grant leaves no partial state behind.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spendwise/backend/internal/model"
	"github.com/spendwise/backend/internal/repository"
)

type MemStore struct {
	mu sync.Mutex

	users       map[int64]*model.User
	completions map[int64][]model.StepCompletion
	balances    map[int64]*model.CreditBalance
	ledger      map[int64][]model.CreditLedgerEntry
	referrals   map[int64]*model.Referral // keyed by referred user
	settings    map[string]string

	// FailGrants makes every balance mutation fail, emulating a database
	// error inside the transaction.
	FailGrants bool
}

func New() *MemStore {
	return &MemStore{
		users:       make(map[int64]*model.User),
		completions: make(map[int64][]model.StepCompletion),
		balances:    make(map[int64]*model.CreditBalance),
		ledger:      make(map[int64][]model.CreditLedgerEntry),
		referrals:   make(map[int64]*model.Referral),
		settings:    make(map[string]string),
	}
}

var errInjected = errors.New("storetest: injected failure")

// SeedUser registers a user with the given referral code.
func (s *MemStore) SeedUser(id int64, referralCode string) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := &model.User{
		ID:           id,
		ReferralCode: referralCode,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	s.users[id] = user
	return user
}

// SeedBalance installs a balance row directly, bypassing the baseline grant.
func (s *MemStore) SeedBalance(userID int64, remaining, granted, used int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.balances[userID] = &model.CreditBalance{
		UserID:            userID,
		MessagesRemaining: remaining,
		TotalGranted:      granted,
		TotalUsed:         used,
		UpdatedAt:         time.Now(),
	}
}

// ReferralFor returns the referral row for a referred user, or nil.
func (s *MemStore) ReferralFor(referredID int64) *model.Referral {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.referrals[referredID]
}

func (s *MemStore) CompleteTutorialStep(_ context.Context, userID int64, step model.StepID, credits int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.completions[userID] {
		if c.StepID == step {
			return true, nil
		}
	}

	// The grant and the completion insert commit together or not at all.
	if s.FailGrants {
		return false, errInjected
	}

	s.completions[userID] = append(s.completions[userID], model.StepCompletion{
		ID:             uuid.New(),
		UserID:         userID,
		StepID:         step,
		CreditsAwarded: credits,
		CompletedAt:    time.Now(),
	})

	s.grantLocked(userID, credits, model.LedgerEntryTutorialReward, model.Metadata{
		"source":  "tutorial",
		"step_id": string(step),
	})
	return false, nil
}

func (s *MemStore) ListTutorialCompletions(_ context.Context, userID int64) ([]model.StepCompletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.StepCompletion, len(s.completions[userID]))
	copy(out, s.completions[userID])
	return out, nil
}

func (s *MemStore) CountTutorialCompletions(_ context.Context, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.completions[userID]), nil
}

func (s *MemStore) GetCreditBalance(_ context.Context, userID int64) (*model.CreditBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, ok := s.balances[userID]
	if !ok {
		return nil, repository.ErrBalanceNotFound
	}
	copied := *balance
	return &copied, nil
}

func (s *MemStore) ListLedgerEntries(_ context.Context, userID int64, limit, offset int) ([]model.CreditLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.ledger[userID]
	// newest first
	out := make([]model.CreditLedgerEntry, 0, limit)
	for i := len(entries) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, entries[i])
	}
	return out, nil
}

// Entries returns the full ledger in creation order, for replay checks.
func (s *MemStore) Entries(userID int64) []model.CreditLedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.CreditLedgerEntry, len(s.ledger[userID]))
	copy(out, s.ledger[userID])
	return out
}

func (s *MemStore) GrantCredits(_ context.Context, userID int64, amount int, entryType model.LedgerEntryType, description string, metadata model.Metadata) (*model.CreditLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailGrants {
		return nil, errInjected
	}

	entry := s.grantLocked(userID, amount, entryType, metadata)
	if description != "" {
		entry.Description = &description
	}
	return entry, nil
}

func (s *MemStore) ConsumeCredits(_ context.Context, userID int64, n int) (*model.CreditBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailGrants {
		return nil, errInjected
	}

	balance := s.ensureBalanceLocked(userID)
	if balance.MessagesRemaining < n {
		return nil, fmt.Errorf("%w: have %d, need %d", repository.ErrInsufficientCredits, balance.MessagesRemaining, n)
	}

	before := balance.MessagesRemaining
	balance.MessagesRemaining -= n
	balance.TotalUsed += n
	balance.UpdatedAt = time.Now()

	s.ledger[userID] = append(s.ledger[userID], model.CreditLedgerEntry{
		ID:             uuid.New(),
		UserID:         userID,
		Type:           model.LedgerEntryMessageUsed,
		MessagesChange: -n,
		BalanceBefore:  before,
		BalanceAfter:   before - n,
		CreatedAt:      time.Now(),
	})

	copied := *balance
	return &copied, nil
}

func (s *MemStore) CreateReferral(_ context.Context, referral *model.Referral) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.referrals[referral.ReferredID]; exists {
		return errors.New("storetest: duplicate referral")
	}

	referral.ID = uuid.New()
	referral.CreatedAt = time.Now()
	copied := *referral
	s.referrals[referral.ReferredID] = &copied
	return nil
}

func (s *MemStore) GetReferralByReferredID(_ context.Context, referredID int64) (*model.Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	referral, ok := s.referrals[referredID]
	if !ok {
		return nil, repository.ErrReferralNotFound
	}
	copied := *referral
	return &copied, nil
}

func (s *MemStore) GrantReferralBonus(_ context.Context, referralID uuid.UUID, referrerID int64, amount int) (*model.CreditLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var referral *model.Referral
	for _, r := range s.referrals {
		if r.ID == referralID {
			referral = r
			break
		}
	}
	if referral == nil {
		return nil, repository.ErrReferralNotFound
	}
	if referral.Status != model.ReferralStatusPending {
		return nil, repository.ErrReferralAlreadyCredited
	}

	if s.FailGrants {
		return nil, errInjected
	}

	now := time.Now()
	referral.Status = model.ReferralStatusCredited
	referral.CreditedAt = &now

	return s.grantLocked(referrerID, amount, model.LedgerEntryReferralBonus, model.Metadata{
		"source":      "referral",
		"referral_id": referralID.String(),
	}), nil
}

func (s *MemStore) GetReferralStats(_ context.Context, referrerID int64) (*model.ReferralStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &model.ReferralStats{}
	for _, r := range s.referrals {
		if r.ReferrerID != referrerID {
			continue
		}
		stats.TotalReferrals++
		switch r.Status {
		case model.ReferralStatusPending:
			stats.PendingReferrals++
		case model.ReferralStatusCredited:
			stats.CreditedMessages += r.BonusMessages
		}
	}
	return stats, nil
}

func (s *MemStore) GetUser(_ context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *MemStore) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.users[user.ID]; ok {
		existing.Email = user.Email
		existing.FirstName = user.FirstName
		existing.LastName = user.LastName
		existing.UpdatedAt = time.Now()
		*user = *existing
		return nil
	}

	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *MemStore) GetUserByReferralCode(_ context.Context, code string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.ReferralCode == code {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *MemStore) GetSetting(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.settings[key]
	if !ok {
		return "", repository.ErrSettingNotFound
	}
	return value, nil
}

func (s *MemStore) SetSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[key] = value
	return nil
}

func (s *MemStore) GetSettingInt(ctx context.Context, key string) (int, error) {
	value, err := s.GetSetting(ctx, key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}

// grantLocked applies a credit grant; callers hold s.mu.
func (s *MemStore) grantLocked(userID int64, amount int, entryType model.LedgerEntryType, metadata model.Metadata) *model.CreditLedgerEntry {
	balance := s.ensureBalanceLocked(userID)

	before := balance.MessagesRemaining
	balance.MessagesRemaining += amount
	balance.TotalGranted += amount
	balance.UpdatedAt = time.Now()

	entry := model.CreditLedgerEntry{
		ID:             uuid.New(),
		UserID:         userID,
		Type:           entryType,
		MessagesChange: amount,
		BalanceBefore:  before,
		BalanceAfter:   before + amount,
		Metadata:       metadata,
		CreatedAt:      time.Now(),
	}
	s.ledger[userID] = append(s.ledger[userID], entry)
	return &s.ledger[userID][len(s.ledger[userID])-1]
}

// ensureBalanceLocked lazily creates the balance row with the baseline grant,
// the way the repository's insert-on-conflict seed does.
func (s *MemStore) ensureBalanceLocked(userID int64) *model.CreditBalance {
	if balance, ok := s.balances[userID]; ok {
		return balance
	}
	balance := &model.CreditBalance{
		UserID:            userID,
		MessagesRemaining: model.InitialCreditGrant,
		TotalGranted:      model.InitialCreditGrant,
		TotalUsed:         0,
		UpdatedAt:         time.Now(),
	}
	s.balances[userID] = balance
	return balance
}

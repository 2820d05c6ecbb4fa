package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// InitialCreditGrant is the baseline balance a user starts from. It is
// applied when the balance row is first created, before any reward is added.
const InitialCreditGrant = 50

type LedgerEntryType string

const (
	LedgerEntryTutorialReward LedgerEntryType = "tutorial_reward"
	LedgerEntryReferralBonus  LedgerEntryType = "referral_bonus"
	LedgerEntryMessageUsed    LedgerEntryType = "message_used"
	LedgerEntryAdminGrant     LedgerEntryType = "admin_grant"
)

type CreditBalance struct {
	UserID            int64     `json:"user_id" db:"user_id"`
	MessagesRemaining int       `json:"messages_remaining" db:"messages_remaining"`
	TotalGranted      int       `json:"total_granted" db:"total_granted"`
	TotalUsed         int       `json:"total_used" db:"total_used"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// Metadata is free-form entry detail stored as JSONB.
type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("metadata: unsupported scan type")
	}
	return json.Unmarshal(data, m)
}

type CreditLedgerEntry struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	UserID         int64           `json:"user_id" db:"user_id"`
	Type           LedgerEntryType `json:"type" db:"type"`
	MessagesChange int             `json:"messages_change" db:"messages_change"` // positive = grant, negative = spend
	BalanceBefore  int             `json:"balance_before" db:"balance_before"`
	BalanceAfter   int             `json:"balance_after" db:"balance_after"`
	Description    *string         `json:"description,omitempty" db:"description"`
	Metadata       Metadata        `json:"metadata,omitempty" db:"metadata"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

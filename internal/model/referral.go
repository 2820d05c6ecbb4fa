package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultReferralBonusMessages is the fallback onboarding bonus when no
// override is stored in settings.
const DefaultReferralBonusMessages = 25

type ReferralStatus string

const (
	ReferralStatusPending  ReferralStatus = "pending"
	ReferralStatusCredited ReferralStatus = "credited"
)

type Referral struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	ReferrerID    int64          `json:"referrer_id" db:"referrer_id"`
	ReferredID    int64          `json:"referred_id" db:"referred_id"`
	BonusMessages int            `json:"bonus_messages" db:"bonus_messages"` // snapshot taken when the referral is created
	Status        ReferralStatus `json:"status" db:"status"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	CreditedAt    *time.Time     `json:"credited_at,omitempty" db:"credited_at"`
}

type ReferralStats struct {
	TotalReferrals   int `json:"total_referrals"`
	PendingReferrals int `json:"pending_referrals"`
	CreditedMessages int `json:"credited_messages"`
}

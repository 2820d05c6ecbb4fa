package model

import (
	"time"

	"github.com/google/uuid"
)

type StepID string

const (
	StepCreateWallet     StepID = "create_wallet"
	StepAddTransaction   StepID = "add_transaction"
	StepVoiceInput       StepID = "voice_input"
	StepReceiptScan      StepID = "receipt_scan"
	StepPlannedIncome    StepID = "planned_income"
	StepPlannedExpense   StepID = "planned_expense"
	StepViewChart        StepID = "view_chart"
	StepViewTransactions StepID = "view_transactions"
)

// StepRewards maps each onboarding step to its one-time credit reward.
// Adding or removing a step here is the only change needed to alter the
// tutorial; totals are derived.
var StepRewards = map[StepID]int{
	StepCreateWallet:     10,
	StepAddTransaction:   5,
	StepVoiceInput:       15,
	StepReceiptScan:      10,
	StepPlannedIncome:    5,
	StepPlannedExpense:   5,
	StepViewChart:        3,
	StepViewTransactions: 2,
}

func (s StepID) Valid() bool {
	_, ok := StepRewards[s]
	return ok
}

func TotalSteps() int {
	return len(StepRewards)
}

func TotalReward() int {
	sum := 0
	for _, r := range StepRewards {
		sum += r
	}
	return sum
}

type StepCompletion struct {
	ID             uuid.UUID `json:"id" db:"id"`
	UserID         int64     `json:"user_id" db:"user_id"`
	StepID         StepID    `json:"step_id" db:"step_id"`
	CreditsAwarded int       `json:"credits_awarded" db:"credits_awarded"`
	CompletedAt    time.Time `json:"completed_at" db:"completed_at"`
}

type TutorialProgress struct {
	Steps              []StepCompletion `json:"steps"`
	CompletedSteps     int              `json:"completed_steps"`
	TotalSteps         int              `json:"total_steps"`
	TotalCreditsEarned int              `json:"total_credits_earned"`
}

type CompleteStepResult struct {
	AlreadyCompleted bool `json:"already_completed"`
	CreditsAwarded   int  `json:"credits_awarded"`
}

package service

import (
	"context"
	"log"
	"time"

	"github.com/spendwise/backend/internal/model"
)

// TutorialStore is the storage surface the tutorial service needs. It is
// implemented by *repository.Repository.
type TutorialStore interface {
	CompleteTutorialStep(ctx context.Context, userID int64, step model.StepID, credits int) (alreadyCompleted bool, err error)
	ListTutorialCompletions(ctx context.Context, userID int64) ([]model.StepCompletion, error)
}

// OnboardingRewarder is the downstream referral hook fired after a step is
// credited. The tutorial service depends on its existence, not its outcome.
type OnboardingRewarder interface {
	GrantOnboardingReward(ctx context.Context, userID int64) error
}

type InvalidStepError struct {
	Step string
}

func (e *InvalidStepError) Error() string {
	return "unknown tutorial step: " + e.Step
}

type TutorialService struct {
	store    TutorialStore
	referral OnboardingRewarder
}

func NewTutorialService(store TutorialStore) *TutorialService {
	return &TutorialService{store: store}
}

// SetReferralService wires the onboarding reward hook (set after construction
// to avoid a circular dependency).
func (s *TutorialService) SetReferralService(referral OnboardingRewarder) {
	s.referral = referral
}

// CompleteStep records a step completion and credits its reward. Calling it
// again for the same step is not an error; the repeat is reported in the
// result and nothing changes.
func (s *TutorialService) CompleteStep(ctx context.Context, userID int64, step model.StepID) (*model.CompleteStepResult, error) {
	reward, ok := model.StepRewards[step]
	if !ok {
		return nil, &InvalidStepError{Step: string(step)}
	}

	alreadyCompleted, err := s.store.CompleteTutorialStep(ctx, userID, step, reward)
	if err != nil {
		return nil, err
	}
	if alreadyCompleted {
		return &model.CompleteStepResult{AlreadyCompleted: true, CreditsAwarded: 0}, nil
	}

	s.notifyReferral(userID)

	return &model.CompleteStepResult{AlreadyCompleted: false, CreditsAwarded: reward}, nil
}

// notifyReferral fires the onboarding reward check after the completion has
// committed. It must never block or fail the tutorial reward, so it runs in
// its own goroutine with its own context and only logs errors.
func (s *TutorialService) notifyReferral(userID int64) {
	if s.referral == nil {
		log.Printf("tutorial: referral service not configured, skipping onboarding check for user %d", userID)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.referral.GrantOnboardingReward(ctx, userID); err != nil {
			log.Printf("tutorial: onboarding reward check failed for user %d: %v", userID, err)
		}
	}()
}

// GetProgress reports the user's completed steps against the full tutorial.
// A user with no completions gets empty progress, not an error.
func (s *TutorialService) GetProgress(ctx context.Context, userID int64) (*model.TutorialProgress, error) {
	completions, err := s.store.ListTutorialCompletions(ctx, userID)
	if err != nil {
		return nil, err
	}

	earned := 0
	for _, c := range completions {
		earned += c.CreditsAwarded
	}

	if completions == nil {
		completions = []model.StepCompletion{}
	}

	return &model.TutorialProgress{
		Steps:              completions,
		CompletedSteps:     len(completions),
		TotalSteps:         model.TotalSteps(),
		TotalCreditsEarned: earned,
	}, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/spendwise/backend/internal/model"
)

// CompleteTutorialStep records a step completion and credits the reward in a
// single transaction. The unique index on (user_id, step_id) suppresses
// duplicate completions at the storage level, so the idempotence guarantee
// holds under concurrent duplicate calls without a prior read.
func (r *Repository) CompleteTutorialStep(ctx context.Context, userID int64, step model.StepID, credits int) (alreadyCompleted bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO tutorial_completions (user_id, step_id, credits_awarded)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, step_id) DO NOTHING`,
		userID, step, credits)
	if err != nil {
		return false, fmt.Errorf("failed to record completion: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if inserted == 0 {
		// Already completed; nothing to commit.
		return true, nil
	}

	description := fmt.Sprintf("Tutorial step completed: %s (+%d credits)", step, credits)
	_, err = grantCreditsTx(ctx, tx, userID, credits, model.LedgerEntryTutorialReward, description, model.Metadata{
		"source":  "tutorial",
		"step_id": string(step),
	})
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return false, nil
}

// ListTutorialCompletions returns the user's completed steps in completion order.
func (r *Repository) ListTutorialCompletions(ctx context.Context, userID int64) ([]model.StepCompletion, error) {
	var completions []model.StepCompletion
	err := r.db.SelectContext(ctx, &completions, `
		SELECT * FROM tutorial_completions
		WHERE user_id = $1
		ORDER BY completed_at ASC`,
		userID)
	return completions, err
}

func (r *Repository) CountTutorialCompletions(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM tutorial_completions WHERE user_id = $1", userID)
	return count, err
}

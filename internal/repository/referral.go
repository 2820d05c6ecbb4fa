package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/spendwise/backend/internal/model"
)

var (
	ErrReferralNotFound        = errors.New("referral not found")
	ErrReferralAlreadyCredited = errors.New("referral already credited")
)

func (r *Repository) CreateReferral(ctx context.Context, referral *model.Referral) error {
	query := `
		INSERT INTO referrals (referrer_id, referred_id, bonus_messages, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		referral.ReferrerID,
		referral.ReferredID,
		referral.BonusMessages,
		referral.Status,
	).Scan(&referral.ID, &referral.CreatedAt)
}

func (r *Repository) GetReferralByReferredID(ctx context.Context, referredID int64) (*model.Referral, error) {
	var referral model.Referral
	err := r.db.GetContext(ctx, &referral, "SELECT * FROM referrals WHERE referred_id = $1", referredID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReferralNotFound
		}
		return nil, err
	}
	return &referral, nil
}

// GrantReferralBonus flips the referral to credited and grants the bonus to
// the referrer in one transaction. The status guard in the UPDATE makes the
// transition happen at most once even under concurrent grant attempts.
func (r *Repository) GrantReferralBonus(ctx context.Context, referralID uuid.UUID, referrerID int64, amount int) (*model.CreditLedgerEntry, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE referrals SET status = 'credited', credited_at = NOW() WHERE id = $1 AND status = 'pending'",
		referralID)
	if err != nil {
		return nil, fmt.Errorf("failed to credit referral: %w", err)
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if updated == 0 {
		return nil, ErrReferralAlreadyCredited
	}

	description := fmt.Sprintf("Referral bonus: +%d credits", amount)
	entry, err := grantCreditsTx(ctx, tx, referrerID, amount, model.LedgerEntryReferralBonus, description, model.Metadata{
		"source":      "referral",
		"referral_id": referralID.String(),
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *Repository) GetReferralStats(ctx context.Context, referrerID int64) (*model.ReferralStats, error) {
	stats := &model.ReferralStats{}

	err := r.db.GetContext(ctx, &stats.TotalReferrals,
		"SELECT COUNT(*) FROM referrals WHERE referrer_id = $1", referrerID)
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &stats.PendingReferrals,
		"SELECT COUNT(*) FROM referrals WHERE referrer_id = $1 AND status = 'pending'", referrerID)
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &stats.CreditedMessages,
		"SELECT COALESCE(SUM(bonus_messages), 0) FROM referrals WHERE referrer_id = $1 AND status = 'credited'",
		referrerID)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

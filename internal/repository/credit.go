package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/spendwise/backend/internal/model"
)

var (
	ErrBalanceNotFound     = errors.New("credit balance not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// GetCreditBalance returns the user's balance row.
func (r *Repository) GetCreditBalance(ctx context.Context, userID int64) (*model.CreditBalance, error) {
	var balance model.CreditBalance
	err := r.db.GetContext(ctx, &balance, "SELECT * FROM credit_balances WHERE user_id = $1", userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBalanceNotFound
		}
		return nil, err
	}
	return &balance, nil
}

// ListLedgerEntries returns ledger history for a user, newest first.
func (r *Repository) ListLedgerEntries(ctx context.Context, userID int64, limit, offset int) ([]model.CreditLedgerEntry, error) {
	var entries []model.CreditLedgerEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM credit_ledger
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	return entries, err
}

// GrantCredits adds credits to a user's balance and appends a ledger entry in
// one transaction.
func (r *Repository) GrantCredits(ctx context.Context, userID int64, amount int, entryType model.LedgerEntryType, description string, metadata model.Metadata) (*model.CreditLedgerEntry, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	entry, err := grantCreditsTx(ctx, tx, userID, amount, entryType, description, metadata)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entry, nil
}

// ConsumeCredits spends n credits from the user's balance. The balance row is
// locked for the duration of the transaction, so concurrent spenders and
// granters serialize on it.
func (r *Repository) ConsumeCredits(ctx context.Context, userID int64, n int) (*model.CreditBalance, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	balance, err := lockBalanceTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if balance.MessagesRemaining < n {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientCredits, balance.MessagesRemaining, n)
	}

	before := balance.MessagesRemaining
	after := before - n

	_, err = tx.ExecContext(ctx, `
		UPDATE credit_balances
		SET messages_remaining = messages_remaining - $2,
		    total_used = total_used + $2,
		    updated_at = NOW()
		WHERE user_id = $1`,
		userID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	if err := insertLedgerEntryTx(ctx, tx, &model.CreditLedgerEntry{
		UserID:         userID,
		Type:           model.LedgerEntryMessageUsed,
		MessagesChange: -n,
		BalanceBefore:  before,
		BalanceAfter:   after,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	balance.MessagesRemaining = after
	balance.TotalUsed += n
	return balance, nil
}

// lockBalanceTx makes sure the balance row exists and returns it locked.
// The insert seeds the baseline grant; ON CONFLICT DO NOTHING makes it safe
// against concurrent first-time events for the same user.
func lockBalanceTx(ctx context.Context, tx *sqlx.Tx, userID int64) (*model.CreditBalance, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO credit_balances (user_id, messages_remaining, total_granted, total_used)
		VALUES ($1, $2, $2, 0)
		ON CONFLICT (user_id) DO NOTHING`,
		userID, model.InitialCreditGrant)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure balance row: %w", err)
	}

	var balance model.CreditBalance
	err = tx.GetContext(ctx, &balance, "SELECT * FROM credit_balances WHERE user_id = $1 FOR UPDATE", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock balance: %w", err)
	}
	return &balance, nil
}

// grantCreditsTx applies a credit grant inside an existing transaction. Every
// writer that adds credits goes through here so the lock-then-ledger
// discipline is uniform.
func grantCreditsTx(ctx context.Context, tx *sqlx.Tx, userID int64, amount int, entryType model.LedgerEntryType, description string, metadata model.Metadata) (*model.CreditLedgerEntry, error) {
	balance, err := lockBalanceTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	before := balance.MessagesRemaining
	after := before + amount

	_, err = tx.ExecContext(ctx, `
		UPDATE credit_balances
		SET messages_remaining = messages_remaining + $2,
		    total_granted = total_granted + $2,
		    updated_at = NOW()
		WHERE user_id = $1`,
		userID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	var desc *string
	if description != "" {
		desc = &description
	}

	entry := &model.CreditLedgerEntry{
		UserID:         userID,
		Type:           entryType,
		MessagesChange: amount,
		BalanceBefore:  before,
		BalanceAfter:   after,
		Description:    desc,
		Metadata:       metadata,
	}
	if err := insertLedgerEntryTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func insertLedgerEntryTx(ctx context.Context, tx *sqlx.Tx, entry *model.CreditLedgerEntry) error {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO credit_ledger (user_id, type, messages_change, balance_before, balance_after, description, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		entry.UserID,
		entry.Type,
		entry.MessagesChange,
		entry.BalanceBefore,
		entry.BalanceAfter,
		entry.Description,
		entry.Metadata,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}

package credits

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGBank implements Bank on Postgres. The check-and-decrement is a single
// conditional UPDATE, so a debit can never drive a balance negative even
// with concurrent callers.
type PGBank struct {
	pool *pgxpool.Pool
}

func NewPGBank(pool *pgxpool.Pool) *PGBank {
	return &PGBank{pool: pool}
}

func (b *PGBank) CreateAccount(ctx context.Context, userID uuid.UUID, initial int) error {
	if initial < 0 {
		return ErrInvalidAmount
	}

	tag, err := b.pool.Exec(ctx, `
		INSERT INTO credit_balances (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, initial)
	if err != nil {
		return fmt.Errorf("create credit account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountExists
	}

	if initial > 0 {
		if err := b.recordTransaction(ctx, userID, initial, KindCredit, "initial balance"); err != nil {
			return err
		}
	}
	return nil
}

func (b *PGBank) Debit(ctx context.Context, userID uuid.UUID, amount int, description string) (bool, error) {
	if amount <= 0 {
		return false, ErrInvalidAmount
	}

	tag, err := b.pool.Exec(ctx, `
		UPDATE credit_balances
		SET balance = balance - $2, updated_at = NOW()
		WHERE user_id = $1 AND balance >= $2
	`, userID, amount)
	if err != nil {
		return false, fmt.Errorf("debit failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either no account or insufficient balance; distinguish for callers.
		var exists bool
		if err := b.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM credit_balances WHERE user_id = $1)", userID).Scan(&exists); err != nil {
			return false, fmt.Errorf("debit lookup failed: %w", err)
		}
		if !exists {
			return false, ErrAccountNotFound
		}
		return false, nil
	}

	if err := b.recordTransaction(ctx, userID, amount, KindDebit, description); err != nil {
		return true, err
	}
	return true, nil
}

func (b *PGBank) Credit(ctx context.Context, userID uuid.UUID, amount int, description string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	tag, err := b.pool.Exec(ctx, `
		UPDATE credit_balances
		SET balance = balance + $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("credit failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return b.recordTransaction(ctx, userID, amount, KindCredit, description)
}

func (b *PGBank) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	var balance int
	err := b.pool.QueryRow(ctx, "SELECT balance FROM credit_balances WHERE user_id = $1", userID).Scan(&balance)
	if err != nil {
		return 0, ErrAccountNotFound
	}
	return balance, nil
}

func (b *PGBank) History(ctx context.Context, userID uuid.UUID) ([]Transaction, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT id, user_id, amount, kind, description, created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 50
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("history query failed: %w", err)
	}
	defer rows.Close()

	var history []Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Amount, &tx.Kind, &tx.Description, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("history scan failed: %w", err)
		}
		history = append(history, tx)
	}
	return history, rows.Err()
}

func (b *PGBank) recordTransaction(ctx context.Context, userID uuid.UUID, amount int, kind, description string) error {
	_, err := b.pool.Exec(ctx, `
		INSERT INTO credit_transactions (user_id, amount, kind, description)
		VALUES ($1, $2, $3, $4)
	`, userID, amount, kind, description)
	if err != nil {
		return fmt.Errorf("record transaction: %w", err)
	}
	return nil
}

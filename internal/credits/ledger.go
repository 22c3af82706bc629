package credits

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidAmount   = errors.New("credit amount must be positive")
	ErrAccountNotFound = errors.New("credit account not found")
	ErrAccountExists   = errors.New("credit account already exists")
)

// Ledger is the per-user contract the discovery session consumes. Debit is
// an atomic check-and-decrement: it returns false and leaves the balance
// untouched when the balance is below amount. Credit and Debit reject
// non-positive amounts; topping up is always an explicit Credit, never a
// negative debit.
type Ledger interface {
	Debit(ctx context.Context, amount int) (bool, error)
	Credit(ctx context.Context, amount int) error
	Balance(ctx context.Context) (int, error)
}

// Bank manages balances for many users.
type Bank interface {
	CreateAccount(ctx context.Context, userID uuid.UUID, initial int) error
	Debit(ctx context.Context, userID uuid.UUID, amount int, description string) (bool, error)
	Credit(ctx context.Context, userID uuid.UUID, amount int, description string) error
	Balance(ctx context.Context, userID uuid.UUID) (int, error)
	History(ctx context.Context, userID uuid.UUID) ([]Transaction, error)
}

// Transaction records a single balance movement.
type Transaction struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Amount      int       `json:"amount"`
	Kind        string    `json:"kind"` // "debit" or "credit"
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	KindDebit  = "debit"
	KindCredit = "credit"
)

type boundLedger struct {
	bank   Bank
	userID uuid.UUID
}

// Bound adapts a Bank to the single-user Ledger contract.
func Bound(bank Bank, userID uuid.UUID) Ledger {
	return &boundLedger{bank: bank, userID: userID}
}

func (b *boundLedger) Debit(ctx context.Context, amount int) (bool, error) {
	return b.bank.Debit(ctx, b.userID, amount, "search charge")
}

func (b *boundLedger) Credit(ctx context.Context, amount int) error {
	return b.bank.Credit(ctx, b.userID, amount, "refund")
}

func (b *boundLedger) Balance(ctx context.Context) (int, error) {
	return b.bank.Balance(ctx, b.userID)
}

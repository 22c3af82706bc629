package credits

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryBank implements Bank with in-memory storage. It backs tests and the
// CLI tool; the server uses PGBank.
type MemoryBank struct {
	mu           sync.Mutex
	balances     map[uuid.UUID]int
	transactions map[uuid.UUID][]Transaction
}

func NewMemoryBank() *MemoryBank {
	return &MemoryBank{
		balances:     make(map[uuid.UUID]int),
		transactions: make(map[uuid.UUID][]Transaction),
	}
}

func (m *MemoryBank) CreateAccount(_ context.Context, userID uuid.UUID, initial int) error {
	if initial < 0 {
		return ErrInvalidAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.balances[userID]; exists {
		return ErrAccountExists
	}

	m.balances[userID] = initial
	if initial > 0 {
		m.record(userID, initial, KindCredit, "initial balance")
	}
	return nil
}

func (m *MemoryBank) Debit(_ context.Context, userID uuid.UUID, amount int, description string) (bool, error) {
	if amount <= 0 {
		return false, ErrInvalidAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	balance, exists := m.balances[userID]
	if !exists {
		return false, ErrAccountNotFound
	}
	if balance < amount {
		return false, nil
	}

	m.balances[userID] = balance - amount
	m.record(userID, amount, KindDebit, description)
	return true, nil
}

func (m *MemoryBank) Credit(_ context.Context, userID uuid.UUID, amount int, description string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.balances[userID]; !exists {
		return ErrAccountNotFound
	}

	m.balances[userID] += amount
	m.record(userID, amount, KindCredit, description)
	return nil
}

func (m *MemoryBank) Balance(_ context.Context, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	balance, exists := m.balances[userID]
	if !exists {
		return 0, ErrAccountNotFound
	}
	return balance, nil
}

func (m *MemoryBank) History(_ context.Context, userID uuid.UUID) ([]Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.balances[userID]; !exists {
		return nil, ErrAccountNotFound
	}

	history := make([]Transaction, len(m.transactions[userID]))
	copy(history, m.transactions[userID])
	return history, nil
}

// record appends a transaction; callers hold the lock.
func (m *MemoryBank) record(userID uuid.UUID, amount int, kind, description string) {
	m.transactions[userID] = append(m.transactions[userID], Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Kind:        kind,
		Description: description,
		CreatedAt:   time.Now(),
	})
}

package credits

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/alexfalanx/wevibecode/app/models"
)

// fakeRepository keeps balances and log entries in memory, mirroring the SQL
// contract: the conditional decrement checks and debits in one step, a debit
// against a missing settings row matches nothing, and a credit against a
// missing row creates it.
type fakeRepository struct {
	balances map[uint]int
	hasRow   map[uint]bool
	logs     []models.CreditsLogEntry

	debitErr error
	logErr   error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{balances: make(map[uint]int), hasRow: make(map[uint]bool)}
}

func (f *fakeRepository) setBalance(userID uint, balance int) {
	f.balances[userID] = balance
	f.hasRow[userID] = true
}

func (f *fakeRepository) DebitIfSufficient(_ context.Context, userID uint, cost int) (bool, error) {
	if f.debitErr != nil {
		return false, f.debitErr
	}
	if !f.hasRow[userID] || f.balances[userID] < cost {
		return false, nil
	}
	f.balances[userID] -= cost
	return true, nil
}

func (f *fakeRepository) Credit(_ context.Context, userID uint, amount int) error {
	f.balances[userID] += amount
	f.hasRow[userID] = true
	return nil
}

func (f *fakeRepository) Balance(_ context.Context, userID uint) (int, error) {
	return f.balances[userID], nil
}

func (f *fakeRepository) FindLogByIdempotencyKey(_ context.Context, key string) (*models.CreditsLogEntry, error) {
	for i := range f.logs {
		if f.logs[i].IdempotencyKey == key {
			return &f.logs[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) CreateLog(_ context.Context, entry *models.CreditsLogEntry) error {
	if f.logErr != nil {
		return f.logErr
	}
	f.logs = append(f.logs, *entry)
	return nil
}

func (f *fakeRepository) WithinTransaction(ctx context.Context, fn func(Repository) error) error {
	// Snapshot so a failed transaction rolls back balance, row and log.
	balances := make(map[uint]int, len(f.balances))
	for k, v := range f.balances {
		balances[k] = v
	}
	rows := make(map[uint]bool, len(f.hasRow))
	for k, v := range f.hasRow {
		rows[k] = v
	}
	logs := append([]models.CreditsLogEntry(nil), f.logs...)

	if err := fn(f); err != nil {
		f.balances = balances
		f.hasRow = rows
		f.logs = logs
		return err
	}
	return nil
}

func TestCharge_DebitsAndLogs(t *testing.T) {
	repo := newFakeRepository()
	repo.setBalance(1, 10)
	ledger := NewLedger(repo)

	err := ledger.Charge(context.Background(), 1, models.CreditActionGenerateWebsite, 4, "key-1", "landing page")
	require.NoError(t, err)

	balance, err := ledger.Balance(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 6, balance)

	require.Len(t, repo.logs, 1)
	assert.Equal(t, uint(1), repo.logs[0].UserID)
	assert.Equal(t, 4, repo.logs[0].CreditsUsed)
	assert.Equal(t, models.CreditActionGenerateWebsite, repo.logs[0].Action)
}

func TestCharge_InsufficientCreditsLeavesBalanceUnchanged(t *testing.T) {
	repo := newFakeRepository()
	repo.setBalance(1, 1)
	ledger := NewLedger(repo)

	// 1 credit, generation with images costs 4.
	err := ledger.Charge(context.Background(), 1, models.CreditActionGenerateWebsite, GenerationCost(true), "key-1", "")
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	balance, _ := ledger.Balance(context.Background(), 1)
	assert.Equal(t, 1, balance)
	assert.Empty(t, repo.logs)
}

func TestCharge_ExactBalanceSucceeds(t *testing.T) {
	repo := newFakeRepository()
	repo.setBalance(1, 4)
	ledger := NewLedger(repo)

	err := ledger.Charge(context.Background(), 1, models.CreditActionGenerateWebsite, 4, "key-1", "")
	require.NoError(t, err)

	balance, _ := ledger.Balance(context.Background(), 1)
	assert.Equal(t, 0, balance)
}

func TestCharge_RetryWithSameKeyIsNoOp(t *testing.T) {
	repo := newFakeRepository()
	repo.setBalance(1, 10)
	ledger := NewLedger(repo)

	require.NoError(t, ledger.Charge(context.Background(), 1, models.CreditActionGenerateWebsite, 4, "key-1", ""))
	require.NoError(t, ledger.Charge(context.Background(), 1, models.CreditActionGenerateWebsite, 4, "key-1", ""))

	balance, _ := ledger.Balance(context.Background(), 1)
	assert.Equal(t, 6, balance)
	assert.Len(t, repo.logs, 1)
}

func TestCharge_LogFailureRollsBackDebit(t *testing.T) {
	repo := newFakeRepository()
	repo.setBalance(1, 10)
	repo.logErr = assert.AnError
	ledger := NewLedger(repo)

	err := ledger.Charge(context.Background(), 1, models.CreditActionGenerateWebsite, 4, "key-1", "")
	require.Error(t, err)

	balance, _ := ledger.Balance(context.Background(), 1)
	assert.Equal(t, 10, balance)
	assert.Empty(t, repo.logs)
}

func TestCharge_RejectsInvalidInput(t *testing.T) {
	ledger := NewLedger(newFakeRepository())

	assert.Error(t, ledger.Charge(context.Background(), 0, "x", 1, "k", ""))
	assert.Error(t, ledger.Charge(context.Background(), 1, "x", 0, "k", ""))
	assert.Error(t, ledger.Charge(context.Background(), 1, "x", 1, "", ""))
}

func TestGrant_AddsCreditsAndLogsNegativeUsage(t *testing.T) {
	repo := newFakeRepository()
	ledger := NewLedger(repo)

	err := ledger.Grant(context.Background(), 1, models.CreditActionSignupBonus, 5, "signup")
	require.NoError(t, err)

	balance, _ := ledger.Balance(context.Background(), 1)
	assert.Equal(t, 5, balance)
	require.Len(t, repo.logs, 1)
	assert.Equal(t, -5, repo.logs[0].CreditsUsed)
	assert.NotEmpty(t, repo.logs[0].IdempotencyKey)
}

func TestGrant_CreatesBalanceRowForNewUser(t *testing.T) {
	repo := newFakeRepository()
	ledger := NewLedger(repo)

	// Fresh signup: no settings row exists for the user yet. The grant
	// must create it, not update zero rows and lose the credits.
	err := ledger.Grant(context.Background(), 7, models.CreditActionSignupBonus, 5, "signup")
	require.NoError(t, err)
	assert.True(t, repo.hasRow[7])

	balance, err := ledger.Balance(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 5, balance)

	// The granted credits are spendable right away.
	err = ledger.Charge(context.Background(), 7, models.CreditActionGenerateWebsite, 1, "gen-key-7", "first site")
	require.NoError(t, err)

	balance, _ = ledger.Balance(context.Background(), 7)
	assert.Equal(t, 4, balance)
}

func TestGenerationCost(t *testing.T) {
	assert.Equal(t, 1, GenerationCost(false))
	assert.Equal(t, 4, GenerationCost(true))
}

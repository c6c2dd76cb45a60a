package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/dealnest/dealnest-backend/internal/models"
	"github.com/dealnest/dealnest-backend/internal/pkg/apperror"
	"github.com/dealnest/dealnest-backend/internal/repository"
)

type mockWalletRepo struct {
	mock.Mock
}

func (m *mockWalletRepo) GetBalance(ctx context.Context, userID uuid.UUID) (*models.UserBalance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserBalance), args.Error(1)
}

func (m *mockWalletRepo) Deposit(ctx context.Context, userID uuid.UUID, amount float64, reference string) (*models.LedgerEntry, error) {
	args := m.Called(ctx, userID, amount, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LedgerEntry), args.Error(1)
}

func (m *mockWalletRepo) Withdraw(ctx context.Context, userID uuid.UUID, amount float64, reference string) (*models.LedgerEntry, error) {
	args := m.Called(ctx, userID, amount, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LedgerEntry), args.Error(1)
}

func (m *mockWalletRepo) ListEntries(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.LedgerEntry), args.Error(1)
}

func TestWalletService_GetBalance(t *testing.T) {
	repo := new(mockWalletRepo)
	svc := NewWalletService(repo)
	ctx := context.Background()
	userID := uuid.New()

	expected := &models.UserBalance{UserID: userID, Available: 1500}
	repo.On("GetBalance", ctx, userID).Return(expected, nil)

	balance, err := svc.GetBalance(ctx, userID)
	assert.NoError(t, err)
	assert.Equal(t, expected, balance)
}

func TestWalletService_Deposit_Success(t *testing.T) {
	repo := new(mockWalletRepo)
	svc := NewWalletService(repo)
	ctx := context.Background()
	userID := uuid.New()

	expected := &models.LedgerEntry{ID: uuid.New(), Amount: 1000, Direction: models.LedgerDirectionCredit}
	repo.On("Deposit", ctx, userID, float64(1000), "").Return(expected, nil)

	entry, err := svc.Deposit(ctx, userID, 1000, "")
	assert.NoError(t, err)
	assert.Equal(t, expected, entry)
}

func TestWalletService_Deposit_InvalidAmount(t *testing.T) {
	svc := NewWalletService(new(mockWalletRepo))
	ctx := context.Background()

	_, err := svc.Deposit(ctx, uuid.New(), 0, "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "больше нуля")

	_, err = svc.Deposit(ctx, uuid.New(), -50, "")
	assert.Error(t, err)
}

func TestWalletService_Withdraw_InsufficientFunds(t *testing.T) {
	repo := new(mockWalletRepo)
	svc := NewWalletService(repo)
	ctx := context.Background()
	userID := uuid.New()

	repo.On("Withdraw", ctx, userID, float64(5000), "").Return(nil, repository.ErrInsufficientFunds)

	_, err := svc.Withdraw(ctx, userID, 5000, "")
	assert.ErrorIs(t, err, apperror.ErrInsufficientFunds)
}

func TestWalletService_ListEntries_DefaultLimit(t *testing.T) {
	repo := new(mockWalletRepo)
	svc := NewWalletService(repo)
	ctx := context.Background()
	userID := uuid.New()

	repo.On("ListEntries", ctx, userID, 20, 0).Return([]models.LedgerEntry{}, nil)

	_, err := svc.ListEntries(ctx, userID, 0, -1)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dealnest/dealnest-backend/internal/models"
	"github.com/dealnest/dealnest-backend/internal/pkg/apperror"
	"github.com/dealnest/dealnest-backend/internal/repository"
)

// WalletRepository описывает взаимодействие сервиса с балансами и леджером.
type WalletRepository interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (*models.UserBalance, error)
	Deposit(ctx context.Context, userID uuid.UUID, amount float64, reference string) (*models.LedgerEntry, error)
	Withdraw(ctx context.Context, userID uuid.UUID, amount float64, reference string) (*models.LedgerEntry, error)
	ListEntries(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error)
}

// WalletService содержит бизнес-логику работы с кошельком пользователя.
type WalletService struct {
	repo WalletRepository
}

// NewWalletService создаёт новый сервис кошелька.
func NewWalletService(repo WalletRepository) *WalletService {
	return &WalletService{repo: repo}
}

// GetBalance возвращает доступный баланс пользователя.
func (s *WalletService) GetBalance(ctx context.Context, userID uuid.UUID) (*models.UserBalance, error) {
	return s.repo.GetBalance(ctx, userID)
}

// Deposit зачисляет средства на баланс пользователя.
func (s *WalletService) Deposit(ctx context.Context, userID uuid.UUID, amount float64, reference string) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма пополнения должна быть больше нуля")
	}
	return s.repo.Deposit(ctx, userID, amount, reference)
}

// Withdraw списывает средства с баланса пользователя.
func (s *WalletService) Withdraw(ctx context.Context, userID uuid.UUID, amount float64, reference string) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма вывода должна быть больше нуля")
	}
	entry, err := s.repo.Withdraw(ctx, userID, amount, reference)
	if errors.Is(err, repository.ErrInsufficientFunds) {
		return nil, apperror.ErrInsufficientFunds
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListEntries возвращает историю операций пользователя, новые первыми.
func (s *WalletService) ListEntries(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListEntries(ctx, userID, limit, offset)
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dealnest/dealnest-backend/internal/models"
	"github.com/dealnest/dealnest-backend/internal/repository/common"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

type WalletRepository struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// GetBalance возвращает кошелёк пользователя, создаёт если не существует.
func (r *WalletRepository) GetBalance(ctx context.Context, userID uuid.UUID) (*models.UserBalance, error) {
	var balance models.UserBalance
	query := `
		INSERT INTO user_balances (user_id, available)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING user_id, available, updated_at
	`
	if err := r.db.GetContext(ctx, &balance, query, userID); err != nil {
		return nil, fmt.Errorf("wallet repository: get balance %w", err)
	}
	return &balance, nil
}

// Deposit пополняет доступный баланс и пишет запись леджера одной транзакцией.
func (r *WalletRepository) Deposit(ctx context.Context, userID uuid.UUID, amount float64, reference string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := creditAvailable(ctx, tx, userID, amount); err != nil {
			return fmt.Errorf("wallet repository: deposit %w", err)
		}
		return appendEntry(ctx, tx, &entry, userID, nil, models.LedgerDirectionCredit, amount, models.LedgerReasonDeposit, reference)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Withdraw списывает средства с доступного баланса. Проверка достаточности
// выполняется под блокировкой строки, а не до неё.
func (r *WalletRepository) Withdraw(ctx context.Context, userID uuid.UUID, amount float64, reference string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := debitAvailable(ctx, tx, userID, amount); err != nil {
			return err
		}
		return appendEntry(ctx, tx, &entry, userID, nil, models.LedgerDirectionDebit, amount, models.LedgerReasonWithdrawal, reference)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListEntries возвращает историю движений по кошельку, новые первыми.
func (r *WalletRepository) ListEntries(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, user_id, deal_id, direction, amount, reason, reference, created_at
		FROM ledger_entries WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return entries, err
}

// ListBalances возвращает все кошельки платформы, используется сверкой
// балансов при старте.
func (r *WalletRepository) ListBalances(ctx context.Context) ([]models.UserBalance, error) {
	var balances []models.UserBalance
	err := r.db.SelectContext(ctx, &balances,
		`SELECT user_id, available, updated_at FROM user_balances ORDER BY user_id`)
	return balances, err
}

// SumEntries возвращает сумму всех записей леджера по кошельку
// (кредиты минус дебеты). Используется для сверки с текущим балансом.
func (r *WalletRepository) SumEntries(ctx context.Context, userID uuid.UUID) (float64, error) {
	var sum float64
	err := r.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(CASE WHEN direction = 'credit' THEN amount ELSE -amount END), 0)
		FROM ledger_entries WHERE user_id = $1
	`, userID)
	return sum, err
}

// debitAvailable атомарно списывает сумму с кошелька внутри транзакции.
func debitAvailable(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount float64) error {
	var available float64
	err := tx.GetContext(ctx, &available, `SELECT available FROM user_balances WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInsufficientFunds
		}
		return err
	}
	if available < amount {
		return ErrInsufficientFunds
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE user_balances SET available = available - $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, amount)
	return err
}

// creditAvailable атомарно зачисляет сумму на кошелёк внутри транзакции.
func creditAvailable(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount float64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO user_balances (user_id, available)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET available = user_balances.available + $2, updated_at = NOW()
	`, userID, amount)
	return err
}

// appendEntry добавляет ровно одну запись леджера на затронутый кошелёк.
func appendEntry(ctx context.Context, tx *sqlx.Tx, entry *models.LedgerEntry, userID uuid.UUID, dealID *uuid.UUID, direction string, amount float64, reason, reference string) error {
	var ref *string
	if reference != "" {
		ref = &reference
	}
	dst := entry
	if dst == nil {
		dst = &models.LedgerEntry{}
	}
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO ledger_entries (user_id, deal_id, direction, amount, reason, reference)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, userID, dealID, direction, amount, reason, ref).Scan(&dst.ID, &dst.CreatedAt)
	if err != nil {
		return fmt.Errorf("ledger entry insert: %w", err)
	}
	dst.UserID = userID
	dst.DealID = dealID
	dst.Direction = direction
	dst.Amount = amount
	dst.Reason = reason
	dst.Reference = ref
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dealnest/dealnest-backend/internal/models"
	"github.com/dealnest/dealnest-backend/internal/repository/common"
)

// DisputeRepository читает споры. Открытие и разрешение спора выполняет
// DealRepository атомарно со сменой статуса сделки.
type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	return common.GetByID[models.Dispute](ctx, r.db, "disputes", id, ErrDisputeNotFound)
}

func (r *DisputeRepository) GetByDealID(ctx context.Context, dealID uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `SELECT * FROM disputes WHERE deal_id = $1`, dealID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDisputeNotFound
	}
	return &d, err
}

// ListOpen возвращает очередь открытых споров для администратора, старые первыми.
func (r *DisputeRepository) ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT * FROM disputes WHERE status = 'open' ORDER BY created_at LIMIT $1 OFFSET $2
	`, limit, offset)
	return disputes, err
}

// ListByUser возвращает споры по сделкам, где пользователь является стороной.
func (r *DisputeRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT s.* FROM disputes s
		JOIN deals d ON s.deal_id = d.id
		WHERE d.client_id = $1 OR d.freelancer_id = $1
		ORDER BY s.created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return disputes, err
}

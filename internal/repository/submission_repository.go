package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dealnest/dealnest-backend/internal/models"
)

// SubmissionRepository читает историю сдач работы. Создание Submission
// происходит только внутри перехода deliver (DealRepository.Deliver).
type SubmissionRepository struct {
	db *sqlx.DB
}

func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// ListByDeal возвращает все сдачи по сделке, последний раунд первым.
func (r *SubmissionRepository) ListByDeal(ctx context.Context, dealID uuid.UUID) ([]models.Submission, error) {
	var subs []models.Submission
	err := r.db.SelectContext(ctx, &subs, `
		SELECT * FROM submissions WHERE deal_id = $1 ORDER BY revision_round DESC
	`, dealID)
	return subs, err
}

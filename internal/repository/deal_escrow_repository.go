package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dealnest/dealnest-backend/internal/domain/valueobject"
	"github.com/dealnest/dealnest-backend/internal/models"
	"github.com/dealnest/dealnest-backend/internal/repository/common"
)

// Эскроу-переходы сделки. Каждый метод выполняет смену статуса и все
// движения средств в одной транзакции базы: деньги и статус не могут
// разойтись даже при сбое между шагами.

// entryConflict переводит нарушение уникальности ledger reference в
// конфликт статуса: такой переход уже был применён конкурентной попыткой.
func entryConflict(err error) error {
	if isUniqueViolation(err) {
		return ErrStatusConflict
	}
	return err
}

// Fund переводит оплату клиента в эскроу и фиксирует снимок комиссии.
func (r *DealRepository) Fund(ctx context.Context, dealID, clientID uuid.UUID, breakdown valueobject.FeeBreakdown, event *models.DealEvent) (*models.Deal, error) {
	var deal models.Deal
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockDeal(ctx, tx, dealID, models.DealStatusCreated, &deal); err != nil {
			return err
		}

		if err := debitAvailable(ctx, tx, clientID, breakdown.TotalToPay); err != nil {
			return err
		}
		if err := appendEntry(ctx, tx, nil, clientID, &deal.ID, models.LedgerDirectionDebit,
			breakdown.TotalToPay, models.LedgerReasonEscrowHold, "fund-"+deal.ID.String()); err != nil {
			return entryConflict(err)
		}

		_, err := tx.ExecContext(ctx, `
			UPDATE deals SET status = 'funded', fee_breakdown = $2, version = version + 1, updated_at = NOW()
			WHERE id = $1
		`, deal.ID, breakdown)
		if err != nil {
			return err
		}
		deal.Status = models.DealStatusFunded
		deal.FeeBreakdown = breakdown
		deal.Version++
		return insertEvent(ctx, tx, &deal, event)
	})
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

// Deliver фиксирует сдачу работы: новый раунд Submission и запуск окна спора.
func (r *DealRepository) Deliver(ctx context.Context, dealID uuid.UUID, sub *models.Submission, windowExpires time.Time, event *models.DealEvent) (*models.Deal, error) {
	var deal models.Deal
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockDeal(ctx, tx, dealID, models.DealStatusInProgress, &deal); err != nil {
			return err
		}

		// Номер раунда монотонный в пределах сделки.
		var priorMax int
		if err := tx.GetContext(ctx, &priorMax,
			`SELECT COALESCE(MAX(revision_round), 0) FROM submissions WHERE deal_id = $1`, deal.ID); err != nil {
			return err
		}
		sub.DealID = deal.ID
		sub.RevisionRound = priorMax + 1

		err := tx.QueryRowxContext(ctx, `
			INSERT INTO submissions (deal_id, freelancer_id, revision_round, notes, links, files)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at
		`, sub.DealID, sub.FreelancerID, sub.RevisionRound, sub.Notes, sub.Links, sub.Files).
			Scan(&sub.ID, &sub.CreatedAt)
		if err != nil {
			return fmt.Errorf("submission insert: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE deals SET status = 'delivered', dispute_window_expires = $2,
				version = version + 1, updated_at = NOW()
			WHERE id = $1
		`, deal.ID, windowExpires)
		if err != nil {
			return err
		}
		deal.Status = models.DealStatusDelivered
		deal.DisputeWindowExpires = &windowExpires
		deal.Version++
		return insertEvent(ctx, tx, &deal, event)
	})
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

// Release выплачивает фрилансеру total_to_receive и зачисляет комиссию
// платформе. Допустим ровно один раз за жизнь сделки.
func (r *DealRepository) Release(ctx context.Context, dealID uuid.UUID, fromStatuses []string, event *models.DealEvent) (*models.Deal, error) {
	var deal models.Deal
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockDealAny(ctx, tx, dealID, fromStatuses, &deal); err != nil {
			return err
		}
		if deal.FreelancerID == nil {
			return fmt.Errorf("deal repository: release без назначенного фрилансера")
		}
		fb := deal.FeeBreakdown

		if err := creditAvailable(ctx, tx, *deal.FreelancerID, fb.TotalToReceive); err != nil {
			return err
		}
		if err := appendEntry(ctx, tx, nil, *deal.FreelancerID, &deal.ID, models.LedgerDirectionCredit,
			fb.TotalToReceive, models.LedgerReasonEscrowRelease, "release-"+deal.ID.String()); err != nil {
			return entryConflict(err)
		}

		if fb.PlatformRevenue > 0 {
			if err := creditAvailable(ctx, tx, models.PlatformAccountID, fb.PlatformRevenue); err != nil {
				return err
			}
			if err := appendEntry(ctx, tx, nil, models.PlatformAccountID, &deal.ID, models.LedgerDirectionCredit,
				fb.PlatformRevenue, models.LedgerReasonPlatformRevenue, "release-fee-"+deal.ID.String()); err != nil {
				return entryConflict(err)
			}
		}

		if err := applyStatus(ctx, tx, &deal, models.DealStatusCompleted); err != nil {
			return err
		}
		return insertEvent(ctx, tx, &deal, event)
	})
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

// Refund возвращает клиенту полную уплаченную сумму. Платформа при возврате
// комиссию не удерживает.
func (r *DealRepository) Refund(ctx context.Context, dealID uuid.UUID, fromStatuses []string, event *models.DealEvent) (*models.Deal, error) {
	var deal models.Deal
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockDealAny(ctx, tx, dealID, fromStatuses, &deal); err != nil {
			return err
		}
		fb := deal.FeeBreakdown

		if err := creditAvailable(ctx, tx, deal.ClientID, fb.TotalToPay); err != nil {
			return err
		}
		if err := appendEntry(ctx, tx, nil, deal.ClientID, &deal.ID, models.LedgerDirectionCredit,
			fb.TotalToPay, models.LedgerReasonEscrowRefund, "refund-"+deal.ID.String()); err != nil {
			return entryConflict(err)
		}

		if err := applyStatus(ctx, tx, &deal, models.DealStatusRefunded); err != nil {
			return err
		}
		return insertEvent(ctx, tx, &deal, event)
	})
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

// OpenDispute открывает спор и переводит сделку в disputed одной транзакцией.
// На сделку допускается не более одного спора.
func (r *DealRepository) OpenDispute(ctx context.Context, dealID uuid.UUID, dispute *models.Dispute, event *models.DealEvent) (*models.Deal, error) {
	var deal models.Deal
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockDealAny(ctx, tx, dealID,
			[]string{models.DealStatusInProgress, models.DealStatusDelivered}, &deal); err != nil {
			return err
		}

		var exists bool
		if err := tx.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM disputes WHERE deal_id = $1)`, deal.ID); err != nil {
			return err
		}
		if exists {
			return ErrDisputeExists
		}

		dispute.DealID = deal.ID
		dispute.ReferenceID = "DN-DS-" + randomReference(8)
		dispute.Status = models.DisputeStatusOpen
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO disputes (reference_id, deal_id, opened_by, reason, evidence, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at
		`, dispute.ReferenceID, dispute.DealID, dispute.OpenedBy, dispute.Reason, dispute.Evidence, dispute.Status).
			Scan(&dispute.ID, &dispute.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDisputeExists
			}
			return fmt.Errorf("dispute insert: %w", err)
		}

		if err := applyStatus(ctx, tx, &deal, models.DealStatusDisputed); err != nil {
			return err
		}
		return insertEvent(ctx, tx, &deal, event)
	})
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

// ResolveDispute применяет вердикт администратора: выплату фрилансеру либо
// полный возврат клиенту, атомарно с терминальным статусом сделки.
func (r *DealRepository) ResolveDispute(ctx context.Context, dealID, adminID uuid.UUID, decision, notes string, event *models.DealEvent) (*models.Deal, *models.Dispute, error) {
	var (
		deal    models.Deal
		dispute models.Dispute
	)
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockDeal(ctx, tx, dealID, models.DealStatusDisputed, &deal); err != nil {
			return err
		}

		err := tx.GetContext(ctx, &dispute, `SELECT * FROM disputes WHERE deal_id = $1 FOR UPDATE`, deal.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrDisputeNotFound
		}
		if err != nil {
			return err
		}
		if dispute.Status == models.DisputeStatusResolved {
			return ErrDisputeResolved
		}

		fb := deal.FeeBreakdown
		switch decision {
		case models.DecisionReleaseToFreelancer:
			if deal.FreelancerID == nil {
				return fmt.Errorf("deal repository: resolve без назначенного фрилансера")
			}
			if err := creditAvailable(ctx, tx, *deal.FreelancerID, fb.TotalToReceive); err != nil {
				return err
			}
			if err := appendEntry(ctx, tx, nil, *deal.FreelancerID, &deal.ID, models.LedgerDirectionCredit,
				fb.TotalToReceive, models.LedgerReasonEscrowRelease, "release-"+deal.ID.String()); err != nil {
				return entryConflict(err)
			}
			if fb.PlatformRevenue > 0 {
				if err := creditAvailable(ctx, tx, models.PlatformAccountID, fb.PlatformRevenue); err != nil {
					return err
				}
				if err := appendEntry(ctx, tx, nil, models.PlatformAccountID, &deal.ID, models.LedgerDirectionCredit,
					fb.PlatformRevenue, models.LedgerReasonPlatformRevenue, "release-fee-"+deal.ID.String()); err != nil {
					return entryConflict(err)
				}
			}
			if err := applyStatus(ctx, tx, &deal, models.DealStatusCompleted); err != nil {
				return err
			}
		case models.DecisionFullRefund:
			if err := creditAvailable(ctx, tx, deal.ClientID, fb.TotalToPay); err != nil {
				return err
			}
			if err := appendEntry(ctx, tx, nil, deal.ClientID, &deal.ID, models.LedgerDirectionCredit,
				fb.TotalToPay, models.LedgerReasonEscrowRefund, "refund-"+deal.ID.String()); err != nil {
				return entryConflict(err)
			}
			if err := applyStatus(ctx, tx, &deal, models.DealStatusRefunded); err != nil {
				return err
			}
		default:
			return fmt.Errorf("deal repository: неизвестное решение по спору: %s", decision)
		}

		now := time.Now()
		_, err = tx.ExecContext(ctx, `
			UPDATE disputes SET status = 'resolved', admin_decision = $2, decision_notes = $3,
				resolved_by = $4, resolved_at = $5
			WHERE id = $1
		`, dispute.ID, decision, notes, adminID, now)
		if err != nil {
			return err
		}
		dispute.Status = models.DisputeStatusResolved
		dispute.AdminDecision = &decision
		dispute.DecisionNotes = &notes
		dispute.ResolvedBy = &adminID
		dispute.ResolvedAt = &now

		return insertEvent(ctx, tx, &deal, event)
	})
	if err != nil {
		return nil, nil, err
	}
	return &deal, &dispute, nil
}

// ListAutoReleasable возвращает доставленные сделки с истёкшим окном спора
// (либо просроченные по auto_release_days, если окно не записано) без открытого спора.
func (r *DealRepository) ListAutoReleasable(ctx context.Context, now time.Time, autoReleaseDays int) ([]models.Deal, error) {
	var deals []models.Deal
	cutoff := now.Add(-time.Duration(autoReleaseDays) * 24 * time.Hour)
	err := r.db.SelectContext(ctx, &deals, `
		SELECT d.* FROM deals d
		WHERE d.status = 'delivered'
		  AND (
			(d.dispute_window_expires IS NOT NULL AND d.dispute_window_expires <= $1)
			OR (d.dispute_window_expires IS NULL AND d.updated_at <= $2)
		  )
		  AND NOT EXISTS (SELECT 1 FROM disputes s WHERE s.deal_id = d.id AND s.status = 'open')
		ORDER BY d.updated_at
	`, now, cutoff)
	return deals, err
}

// ReconcileIssue описывает расхождение статуса сделки и записей леджера.
type ReconcileIssue struct {
	DealID      uuid.UUID `db:"deal_id"`
	ReferenceID string    `db:"reference_id"`
	Status      string    `db:"status"`
	Problem     string    `db:"problem"`
}

// Reconcile сверяет статусы сделок с записями леджера после рестарта.
// Статус — источник истины; каждая найденная строка означает переход,
// у которого нет ожидаемой записи о движении средств.
func (r *DealRepository) Reconcile(ctx context.Context) ([]ReconcileIssue, error) {
	var issues []ReconcileIssue
	err := r.db.SelectContext(ctx, &issues, `
		SELECT d.id AS deal_id, d.reference_id, d.status, 'missing fund entry' AS problem
		FROM deals d
		WHERE d.status IN ('funded', 'in_progress', 'delivered', 'disputed', 'completed', 'refunded')
		  AND d.fee_breakdown IS NOT NULL
		  AND NOT EXISTS (SELECT 1 FROM ledger_entries e WHERE e.reference = 'fund-' || d.id::text)
		UNION ALL
		SELECT d.id, d.reference_id, d.status, 'missing release entry'
		FROM deals d
		WHERE d.status = 'completed' AND d.fee_breakdown IS NOT NULL
		  AND NOT EXISTS (SELECT 1 FROM ledger_entries e WHERE e.reference = 'release-' || d.id::text)
		UNION ALL
		SELECT d.id, d.reference_id, d.status, 'missing refund entry'
		FROM deals d
		WHERE d.status = 'refunded'
		  AND NOT EXISTS (SELECT 1 FROM ledger_entries e WHERE e.reference = 'refund-' || d.id::text)
	`)
	return issues, err
}

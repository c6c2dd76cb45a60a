package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/dealnest/dealnest-backend/internal/models"
	"github.com/dealnest/dealnest-backend/internal/repository/common"
)

var (
	ErrDealNotFound    = errors.New("deal not found")
	ErrDisputeNotFound = errors.New("dispute not found")
	// ErrStatusConflict возвращается, когда статус сделки под блокировкой
	// не совпал с ожидаемым: параллельный запрос успел выполнить переход.
	ErrStatusConflict  = errors.New("deal status changed concurrently")
	ErrRevisionLimit   = errors.New("revision limit exceeded")
	ErrDisputeExists   = errors.New("dispute already exists for this deal")
	ErrDisputeResolved = errors.New("dispute already resolved")
	ErrDealAssigned    = errors.New("deal already has a freelancer")
)

// referenceAlphabet без похожих символов (0/O, 1/I), как в публичных номерах сделок.
const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type DealRepository struct {
	db *sqlx.DB
}

func NewDealRepository(db *sqlx.DB) *DealRepository {
	return &DealRepository{db: db}
}

// Create сохраняет новую сделку со сгенерированным публичным номером и слагом.
func (r *DealRepository) Create(ctx context.Context, deal *models.Deal) error {
	query := `
		INSERT INTO deals (reference_id, slug, client_id, job_type, title, description, amount, currency, attachments, deadline, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'created')
		RETURNING id, status, revision_count, version, created_at, updated_at
	`

	// Номер и слаг случайные: при маловероятной коллизии пробуем ещё раз.
	for attempt := 0; attempt < 3; attempt++ {
		deal.ReferenceID = "DN-DL-" + randomReference(8)
		deal.Slug = slugify(deal.Title) + "-" + strings.ToLower(randomReference(8))

		err := r.db.QueryRowxContext(ctx, query,
			deal.ReferenceID, deal.Slug, deal.ClientID, deal.JobType,
			deal.Title, deal.Description, deal.Amount, deal.Currency,
			deal.Attachments, deal.Deadline,
		).Scan(&deal.ID, &deal.Status, &deal.RevisionCount, &deal.Version, &deal.CreatedAt, &deal.UpdatedAt)
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return fmt.Errorf("deal repository: create %w", err)
		}
	}
	return fmt.Errorf("deal repository: не удалось сгенерировать уникальный номер сделки")
}

// GetByID возвращает сделку по идентификатору.
func (r *DealRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Deal, error) {
	return common.GetByID[models.Deal](ctx, r.db, "deals", id, ErrDealNotFound)
}

// GetBySlug возвращает сделку по публичному слагу.
func (r *DealRepository) GetBySlug(ctx context.Context, slug string) (*models.Deal, error) {
	return common.GetByField[models.Deal](ctx, r.db, "deals", "slug", slug, ErrDealNotFound)
}

// GetByReference возвращает сделку по публичному номеру DN-DL-XXXXXXXX.
func (r *DealRepository) GetByReference(ctx context.Context, reference string) (*models.Deal, error) {
	return common.GetByField[models.Deal](ctx, r.db, "deals", "reference_id", reference, ErrDealNotFound)
}

// ListForUser возвращает сделки, где пользователь является стороной.
func (r *DealRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Deal, error) {
	var deals []models.Deal
	err := r.db.SelectContext(ctx, &deals, `
		SELECT * FROM deals
		WHERE client_id = $1 OR freelancer_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return deals, err
}

// Delete удаляет сделку. Допустимо только в статусе created: средств в эскроу нет.
func (r *DealRepository) Delete(ctx context.Context, id, clientID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM deals WHERE id = $1 AND client_id = $2 AND status = 'created'
	`, id, clientID)
	if err != nil {
		return fmt.Errorf("deal repository: delete %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// Assign закрепляет фрилансера за свободной сделкой.
func (r *DealRepository) Assign(ctx context.Context, dealID, freelancerID uuid.UUID) (*models.Deal, error) {
	var deal models.Deal
	err := r.db.GetContext(ctx, &deal, `
		UPDATE deals SET freelancer_id = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND freelancer_id IS NULL AND status = 'created'
		RETURNING *
	`, dealID, freelancerID)
	if errors.Is(err, sql.ErrNoRows) {
		// Либо сделка не существует, либо фрилансер уже назначен.
		if _, getErr := r.GetByID(ctx, dealID); getErr != nil {
			return nil, getErr
		}
		return nil, ErrDealAssigned
	}
	if err != nil {
		return nil, fmt.Errorf("deal repository: assign %w", err)
	}
	return &deal, nil
}

// UpdateStatus выполняет переход без движения денег (start_work).
// Статус перепроверяется под блокировкой: проигравший конкурент получает ErrStatusConflict.
func (r *DealRepository) UpdateStatus(ctx context.Context, dealID uuid.UUID, from, to string, event *models.DealEvent) (*models.Deal, error) {
	var deal models.Deal
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockDeal(ctx, tx, dealID, from, &deal); err != nil {
			return err
		}
		if err := applyStatus(ctx, tx, &deal, to); err != nil {
			return err
		}
		return insertEvent(ctx, tx, &deal, event)
	})
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

// RequestRevision возвращает сделку в работу, увеличивая счётчик доработок.
// Лимит проверяется атомарно с переходом.
func (r *DealRepository) RequestRevision(ctx context.Context, dealID uuid.UUID, event *models.DealEvent) (*models.Deal, error) {
	var deal models.Deal
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockDeal(ctx, tx, dealID, models.DealStatusDelivered, &deal); err != nil {
			return err
		}
		if deal.RevisionCount >= models.MaxRevisions {
			return ErrRevisionLimit
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE deals SET status = 'in_progress', revision_count = revision_count + 1,
				version = version + 1, updated_at = NOW()
			WHERE id = $1
		`, deal.ID)
		if err != nil {
			return err
		}
		deal.Status = models.DealStatusInProgress
		deal.RevisionCount++
		deal.Version++
		return insertEvent(ctx, tx, &deal, event)
	})
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

// ListEvents возвращает историю переходов сделки, новые первыми.
func (r *DealRepository) ListEvents(ctx context.Context, dealID uuid.UUID) ([]models.DealEvent, error) {
	var events []models.DealEvent
	err := r.db.SelectContext(ctx, &events, `
		SELECT * FROM deal_events WHERE deal_id = $1 ORDER BY created_at DESC
	`, dealID)
	return events, err
}

// lockDeal читает сделку с блокировкой строки и сверяет статус с ожидаемым.
func lockDeal(ctx context.Context, tx *sqlx.Tx, dealID uuid.UUID, expectedStatus string, deal *models.Deal) error {
	err := tx.GetContext(ctx, deal, `SELECT * FROM deals WHERE id = $1 FOR UPDATE`, dealID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDealNotFound
	}
	if err != nil {
		return err
	}
	if deal.Status != expectedStatus {
		return ErrStatusConflict
	}
	return nil
}

// lockDealAny как lockDeal, но допускает несколько ожидаемых статусов.
func lockDealAny(ctx context.Context, tx *sqlx.Tx, dealID uuid.UUID, expected []string, deal *models.Deal) error {
	err := tx.GetContext(ctx, deal, `SELECT * FROM deals WHERE id = $1 FOR UPDATE`, dealID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDealNotFound
	}
	if err != nil {
		return err
	}
	for _, s := range expected {
		if deal.Status == s {
			return nil
		}
	}
	return ErrStatusConflict
}

func applyStatus(ctx context.Context, tx *sqlx.Tx, deal *models.Deal, to string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE deals SET status = $2, version = version + 1, updated_at = NOW() WHERE id = $1
	`, deal.ID, to)
	if err != nil {
		return err
	}
	deal.Status = to
	deal.Version++
	return nil
}

func insertEvent(ctx context.Context, tx *sqlx.Tx, deal *models.Deal, event *models.DealEvent) error {
	if event == nil {
		return nil
	}
	event.DealID = deal.ID
	event.ToStatus = deal.Status
	_, err := tx.ExecContext(ctx, `
		INSERT INTO deal_events (deal_id, actor_id, actor_role, action, from_status, to_status, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, event.DealID, event.ActorID, event.ActorRole, event.Action, event.FromStatus, event.ToStatus, event.Note)
	if err != nil {
		return fmt.Errorf("deal event insert: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func randomReference(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = referenceAlphabet[rand.Intn(len(referenceAlphabet))]
	}
	return string(b)
}

// slugify приводит заголовок к виду, пригодному для публичной ссылки.
func slugify(title string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		case !prevDash && b.Len() > 0:
			b.WriteByte('-')
			prevDash = true
		}
		if b.Len() >= 50 {
			break
		}
	}
	s := strings.Trim(b.String(), "-")
	if s == "" {
		s = "deal"
	}
	return s
}

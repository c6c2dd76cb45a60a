package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealnest/dealnest-backend/internal/domain/valueobject"
)

// Deal описывает сделку между клиентом и фрилансером с удержанием средств в эскроу.
type Deal struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	ReferenceID  string     `db:"reference_id" json:"reference_id"`
	Slug         string     `db:"slug" json:"slug"`
	ClientID     uuid.UUID  `db:"client_id" json:"client_id"`
	FreelancerID *uuid.UUID `db:"freelancer_id" json:"freelancer_id,omitempty"`
	JobType      *string    `db:"job_type" json:"job_type,omitempty"`

	Title       string   `db:"title" json:"title"`
	Description string   `db:"description" json:"description"`
	Amount      float64  `db:"amount" json:"amount"`
	Currency    string   `db:"currency" json:"currency"`
	Attachments JSONList `db:"attachments" json:"attachments"`

	Status        string `db:"status" json:"status"`
	RevisionCount int    `db:"revision_count" json:"revision_count"`
	// Версия для оптимистичной проверки при конкурентных переходах.
	Version int `db:"version" json:"-"`

	// FeeBreakdown фиксируется в момент фандинга и далее не пересчитывается.
	// До фандинга в базе NULL, в структуре — нулевой снимок.
	FeeBreakdown valueobject.FeeBreakdown `db:"fee_breakdown" json:"fee_breakdown"`

	Deadline             *time.Time `db:"deadline" json:"deadline,omitempty"`
	DisputeWindowExpires *time.Time `db:"dispute_window_expires" json:"dispute_window_expires,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsTerminal сообщает, достигла ли сделка конечного статуса.
func (d *Deal) IsTerminal() bool {
	return valueobject.DealStatus(d.Status).IsTerminal()
}

// Submission описывает один раунд сдачи работы по сделке. Записи не редактируются.
type Submission struct {
	ID            uuid.UUID `db:"id" json:"id"`
	DealID        uuid.UUID `db:"deal_id" json:"deal_id"`
	FreelancerID  uuid.UUID `db:"freelancer_id" json:"freelancer_id"`
	RevisionRound int       `db:"revision_round" json:"revision_round"`
	Notes         string    `db:"notes" json:"notes"`
	Links         JSONList  `db:"links" json:"links"`
	Files         JSONList  `db:"files" json:"files"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// DealEvent фиксирует каждый переход сделки для аудита.
type DealEvent struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	DealID     uuid.UUID  `db:"deal_id" json:"deal_id"`
	ActorID    *uuid.UUID `db:"actor_id" json:"actor_id,omitempty"`
	ActorRole  string     `db:"actor_role" json:"actor_role"`
	Action     string     `db:"action" json:"action"`
	FromStatus string     `db:"from_status" json:"from_status"`
	ToStatus   string     `db:"to_status" json:"to_status"`
	Note       *string    `db:"note" json:"note,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DisputeStatusOpen     = "open"
	DisputeStatusResolved = "resolved"
)

// Dispute описывает спор по сделке. На одну сделку допускается не более одного спора.
type Dispute struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ReferenceID string    `db:"reference_id" json:"reference_id"`
	DealID      uuid.UUID `db:"deal_id" json:"deal_id"`
	OpenedBy    uuid.UUID `db:"opened_by" json:"opened_by"`
	Reason      string    `db:"reason" json:"reason"`
	Evidence    JSONList  `db:"evidence" json:"evidence"`
	Status      string    `db:"status" json:"status"`

	AdminDecision *string    `db:"admin_decision" json:"admin_decision,omitempty"`
	DecisionNotes *string    `db:"decision_notes" json:"decision_notes,omitempty"`
	ResolvedBy    *uuid.UUID `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt    *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

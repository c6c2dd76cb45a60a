package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Типы событий по сделкам, рассылаемых участникам
const (
	EventDealAccepted    = "deal_accepted"
	EventDealFunded      = "deal_funded"
	EventWorkStarted     = "work_started"
	EventWorkDelivered   = "work_delivered"
	EventDealCompleted   = "deal_completed"
	EventRevisionAsked   = "revision_requested"
	EventDisputeOpened   = "dispute_opened"
	EventDisputeResolved = "dispute_resolved"
	EventDealRefunded    = "deal_refunded"
)

// Notification хранит событие для пользователя; дублируется по WebSocket.
type Notification struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Направления движения средств по кошельку
const (
	LedgerDirectionCredit = "credit"
	LedgerDirectionDebit  = "debit"
)

// Коды причин для записей леджера
const (
	LedgerReasonDeposit         = "deposit"
	LedgerReasonWithdrawal      = "withdrawal"
	LedgerReasonEscrowHold      = "escrow_hold"
	LedgerReasonEscrowRelease   = "escrow_release"
	LedgerReasonEscrowRefund    = "escrow_refund"
	LedgerReasonPlatformRevenue = "platform_revenue"
)

// PlatformAccountID кошелёк платформы, на который зачисляется комиссия.
var PlatformAccountID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// UserBalance представляет кошелёк пользователя. Изменяется только операциями леджера.
type UserBalance struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Available float64   `db:"available" json:"available"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// LedgerEntry неизменяемая запись о каждом движении средств.
// Сумма записей по кошельку обязана совпадать с его текущим балансом.
type LedgerEntry struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	DealID    *uuid.UUID `db:"deal_id" json:"deal_id,omitempty"`
	Direction string     `db:"direction" json:"direction"`
	Amount    float64    `db:"amount" json:"amount"`
	Reason    string     `db:"reason" json:"reason"`
	// Reference уникален для эскроу-операций: повторное применение того же
	// перевода упирается в уникальный индекс, а не задваивает деньги.
	Reference *string   `db:"reference" json:"reference,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

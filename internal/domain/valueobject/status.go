package valueobject

import "github.com/dealnest/dealnest-backend/internal/pkg/apperror"

type DealStatus string

const (
	DealStatusCreated    DealStatus = "created"
	DealStatusFunded     DealStatus = "funded"
	DealStatusInProgress DealStatus = "in_progress"
	DealStatusDelivered  DealStatus = "delivered"
	DealStatusCompleted  DealStatus = "completed"
	DealStatusDisputed   DealStatus = "disputed"
	DealStatusCancelled  DealStatus = "cancelled"
	DealStatusRefunded   DealStatus = "refunded"
)

func (s DealStatus) IsValid() bool {
	switch s {
	case DealStatusCreated, DealStatusFunded, DealStatusInProgress, DealStatusDelivered,
		DealStatusCompleted, DealStatusDisputed, DealStatusCancelled, DealStatusRefunded:
		return true
	}
	return false
}

// IsTerminal сообщает, что из статуса не определено ни одного перехода.
func (s DealStatus) IsTerminal() bool {
	switch s {
	case DealStatusCompleted, DealStatusCancelled, DealStatusRefunded:
		return true
	}
	return false
}

// IsFunded сообщает, что деньги клиента уже удерживаются в эскроу.
func (s DealStatus) IsFunded() bool {
	switch s {
	case DealStatusFunded, DealStatusInProgress, DealStatusDelivered, DealStatusDisputed:
		return true
	}
	return false
}

// CanTransitionTo проверяет допустимость перехода по таблице статусов.
// Переходы в completed/refunded из funded+ статусов доступны только администратору,
// эта проверка выполняется на уровне сервиса.
func (s DealStatus) CanTransitionTo(newStatus DealStatus) bool {
	transitions := map[DealStatus][]DealStatus{
		DealStatusCreated:    {DealStatusFunded, DealStatusCancelled},
		DealStatusFunded:     {DealStatusInProgress, DealStatusCompleted, DealStatusRefunded},
		DealStatusInProgress: {DealStatusDelivered, DealStatusDisputed, DealStatusCompleted, DealStatusRefunded},
		DealStatusDelivered:  {DealStatusCompleted, DealStatusInProgress, DealStatusDisputed, DealStatusRefunded},
		DealStatusDisputed:   {DealStatusCompleted, DealStatusRefunded},
		DealStatusCompleted:  {},
		DealStatusCancelled:  {},
		DealStatusRefunded:   {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

func NewDealStatus(status string) (DealStatus, error) {
	s := DealStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус сделки")
	}
	return s, nil
}

type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "open"
	DisputeStatusResolved DisputeStatus = "resolved"
)

func (s DisputeStatus) IsValid() bool {
	switch s {
	case DisputeStatusOpen, DisputeStatusResolved:
		return true
	}
	return false
}

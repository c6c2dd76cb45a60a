package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"

	"github.com/dealnest/dealnest-backend/internal/pkg/apperror"
)

// FeeBreakdown неизменяемый снимок распределения комиссии, рассчитанный в
// момент фандинга сделки. Хранится на сделке в JSONB и не пересчитывается
// при изменении настроек платформы.
type FeeBreakdown struct {
	BaseAmount      float64 `json:"base_amount"`
	ClientFee       float64 `json:"client_fee"`
	FreelancerFee   float64 `json:"freelancer_fee"`
	TotalToPay      float64 `json:"total_to_pay"`
	TotalToReceive  float64 `json:"total_to_receive"`
	PlatformRevenue float64 `json:"platform_revenue"`
}

// ComputeFees рассчитывает комиссию платформы и её распределение между
// сторонами. Чистая функция: одинаковый вход всегда даёт одинаковый выход.
//
// Комиссия: amount * feePercent / 100, затем ограничение minFee/maxFee
// (нулевой предел означает отсутствие ограничения с этой стороны).
// Комиссия никогда не превышает сумму сделки.
func ComputeFees(amount, feePercent, minFee, maxFee float64, feePayer string) (FeeBreakdown, error) {
	if amount <= 0 {
		return FeeBreakdown{}, apperror.New(apperror.ErrCodeValidation, "сумма сделки должна быть положительной")
	}
	if feePercent < 0 || minFee < 0 || maxFee < 0 {
		return FeeBreakdown{}, apperror.New(apperror.ErrCodeValidation, "параметры комиссии не могут быть отрицательными")
	}

	fee := amount * feePercent / 100

	if minFee > 0 && fee < minFee {
		fee = minFee
	}
	if maxFee > 0 && fee > maxFee {
		fee = maxFee
	}
	if fee > amount {
		fee = amount
	}

	var clientFee, freelancerFee float64
	switch feePayer {
	case "client":
		clientFee = round2(fee)
	case "freelancer":
		freelancerFee = round2(fee)
	case "split":
		// Половина фрилансера округляется вниз до цента,
		// остаток копейки достаётся клиентской части.
		freelancerFee = math.Floor(fee/2*100) / 100
		clientFee = round2(fee - freelancerFee)
	default:
		return FeeBreakdown{}, apperror.New(apperror.ErrCodeValidation, "некорректный плательщик комиссии")
	}

	return FeeBreakdown{
		BaseAmount:      round2(amount),
		ClientFee:       clientFee,
		FreelancerFee:   freelancerFee,
		TotalToPay:      round2(amount + clientFee),
		TotalToReceive:  round2(amount - freelancerFee),
		PlatformRevenue: round2(clientFee + freelancerFee),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Value сериализует снимок для записи в JSONB колонку.
func (f FeeBreakdown) Value() (driver.Value, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan читает снимок из JSONB колонки.
func (f *FeeBreakdown) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	default:
		return fmt.Errorf("valueobject: неподдерживаемый тип для FeeBreakdown: %T", src)
	}
}

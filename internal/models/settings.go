package models

import "time"

// PlatformSettings единственная строка с настройками платформы.
// Читается как снимок в момент фандинга и при работе планировщика;
// изменение настроек не влияет на уже профинансированные сделки.
type PlatformSettings struct {
	ID                 int       `db:"id" json:"id"`
	PlatformFeePercent float64   `db:"platform_fee_percent" json:"platform_fee_percent"`
	MinPlatformFee     float64   `db:"min_platform_fee" json:"min_platform_fee"`
	MaxPlatformFee     float64   `db:"max_platform_fee" json:"max_platform_fee"`
	FeePayer           string    `db:"fee_payer" json:"fee_payer"`
	DisputeWindowDays  int       `db:"dispute_window_days" json:"dispute_window_days"`
	AutoReleaseDays    int       `db:"auto_release_days" json:"auto_release_days"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

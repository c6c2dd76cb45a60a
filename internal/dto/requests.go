package dto

import "time"

// RegisterRequest тело запроса регистрации.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginRequest тело запроса входа.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest тело запроса обновления токенов.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateDealRequest тело запроса создания сделки.
type CreateDealRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	JobType     *string    `json:"job_type"`
	Amount      float64    `json:"amount" binding:"required,gt=0"`
	Currency    string     `json:"currency"`
	Attachments []string   `json:"attachments"`
	Deadline    *time.Time `json:"deadline"`
}

// DealActionRequest тело запроса действия над сделкой. Поля payload
// читаются в зависимости от действия.
type DealActionRequest struct {
	Action   string   `json:"action" binding:"required"`
	Notes    string   `json:"notes"`
	Links    []string `json:"links"`
	Files    []string `json:"files"`
	Reason   string   `json:"reason"`
	Evidence []string `json:"evidence"`
}

// ResolveDisputeRequest тело запроса вердикта администратора.
type ResolveDisputeRequest struct {
	Decision string `json:"decision" binding:"required"`
	Notes    string `json:"notes"`
}

// AdminOverrideRequest тело запроса административного действия над сделкой.
type AdminOverrideRequest struct {
	Action string `json:"action" binding:"required"`
	Note   string `json:"note"`
}

// WalletOperationRequest тело запроса пополнения или вывода средств.
type WalletOperationRequest struct {
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Reference string  `json:"reference"`
}

// UpdateSettingsRequest частичное обновление настроек платформы.
type UpdateSettingsRequest struct {
	PlatformFeePercent *float64 `json:"platform_fee_percent"`
	MinPlatformFee     *float64 `json:"min_platform_fee"`
	MaxPlatformFee     *float64 `json:"max_platform_fee"`
	FeePayer           *string  `json:"fee_payer"`
	DisputeWindowDays  *int     `json:"dispute_window_days"`
	AutoReleaseDays    *int     `json:"auto_release_days"`
}

// FeePreviewRequest запрос расчёта комиссии без создания сделки.
type FeePreviewRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

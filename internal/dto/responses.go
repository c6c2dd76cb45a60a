package dto

import (
	"time"

	"github.com/dealnest/dealnest-backend/internal/domain/valueobject"
	"github.com/dealnest/dealnest-backend/internal/models"
)

// PublicDealResponse публичное представление сделки по slug: без денежных
// деталей и идентификаторов участников.
type PublicDealResponse struct {
	ReferenceID string     `json:"reference_id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	JobType     *string    `json:"job_type,omitempty"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewPublicDeal собирает публичное представление сделки.
func NewPublicDeal(deal *models.Deal) PublicDealResponse {
	return PublicDealResponse{
		ReferenceID: deal.ReferenceID,
		Slug:        deal.Slug,
		Title:       deal.Title,
		Description: deal.Description,
		JobType:     deal.JobType,
		Currency:    deal.Currency,
		Status:      deal.Status,
		Deadline:    deal.Deadline,
		CreatedAt:   deal.CreatedAt,
	}
}

// FeePreviewResponse ответ расчёта комиссии.
type FeePreviewResponse struct {
	Amount    float64                  `json:"amount"`
	Breakdown valueobject.FeeBreakdown `json:"breakdown"`
}

// ResolveDisputeResponse ответ на вердикт администратора.
type ResolveDisputeResponse struct {
	Deal    *models.Deal    `json:"deal"`
	Dispute *models.Dispute `json:"dispute"`
}

// Pagination параметры страницы в списочных ответах.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse стандартный ответ с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse стандартный успешный ответ.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

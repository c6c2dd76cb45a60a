package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dealnest/dealnest-backend/internal/dto"
	"github.com/dealnest/dealnest-backend/internal/http/handlers/common"
	"github.com/dealnest/dealnest-backend/internal/service"
	"github.com/dealnest/dealnest-backend/internal/validation"
)

// DealHandler обслуживает маршруты сделок.
type DealHandler struct {
	deals *service.DealService
}

// NewDealHandler создаёт новый хэндлер.
func NewDealHandler(deals *service.DealService) *DealHandler {
	return &DealHandler{deals: deals}
}

// CreateDeal обрабатывает POST /deals.
func (h *DealHandler) CreateDeal(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.CreateDealRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := validation.ValidateDealTitle(req.Title); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateDealDescription(req.Description); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateDealAmount(req.Amount); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateCurrency(req.Currency); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateAttachments(req.Attachments); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	deal, err := h.deals.CreateDeal(c.Request.Context(), userID, service.CreateDealInput{
		Title:       req.Title,
		Description: req.Description,
		JobType:     req.JobType,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Attachments: req.Attachments,
		Deadline:    req.Deadline,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, deal)
}

// ListDeals обрабатывает GET /deals.
func (h *DealHandler) ListDeals(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	limit, offset := common.GetPagination(c)
	deals, err := h.deals.ListDeals(c.Request.Context(), userID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deals":      deals,
		"pagination": dto.Pagination{Limit: limit, Offset: offset},
	})
}

// GetDeal обрабатывает GET /deals/:id.
func (h *DealHandler) GetDeal(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)

	dealID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	deal, err := h.deals.GetDeal(c.Request.Context(), dealID, userID, role)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, deal)
}

// GetDealByReference обрабатывает GET /deals/reference/:reference.
func (h *DealHandler) GetDealByReference(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)

	deal, err := h.deals.GetDealByReference(c.Request.Context(), c.Param("reference"), userID, role)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, deal)
}

// GetPublicDeal обрабатывает GET /public/deals/:slug без авторизации.
func (h *DealHandler) GetPublicDeal(c *gin.Context) {
	deal, err := h.deals.GetDealBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPublicDeal(deal))
}

// DeleteDeal обрабатывает DELETE /deals/:id.
func (h *DealHandler) DeleteDeal(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	dealID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.deals.DeleteDeal(c.Request.Context(), dealID, userID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "сделка удалена"})
}

// AcceptDeal обрабатывает POST /deals/:id/accept.
func (h *DealHandler) AcceptDeal(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	dealID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	deal, err := h.deals.AcceptDeal(c.Request.Context(), dealID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, deal)
}

// PerformAction обрабатывает POST /deals/:id/actions.
func (h *DealHandler) PerformAction(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	dealID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.DealActionRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if req.Notes != "" {
		if err := validation.ValidateSubmissionNotes(req.Notes); err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}
	}
	if err := validation.ValidateAttachments(req.Links); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	deal, err := h.deals.PerformAction(c.Request.Context(), dealID, userID, req.Action, service.ActionInput{
		Notes:    req.Notes,
		Links:    req.Links,
		Files:    req.Files,
		Reason:   req.Reason,
		Evidence: req.Evidence,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	if deal == nil {
		// Действие delete не возвращает сделку.
		c.JSON(http.StatusOK, gin.H{"message": "сделка удалена"})
		return
	}
	c.JSON(http.StatusOK, deal)
}

// ListEvents обрабатывает GET /deals/:id/events.
func (h *DealHandler) ListEvents(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)

	dealID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	events, err := h.deals.ListEvents(c.Request.Context(), dealID, userID, role)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// ListSubmissions обрабатывает GET /deals/:id/submissions.
func (h *DealHandler) ListSubmissions(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)

	dealID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	submissions, err := h.deals.ListSubmissions(c.Request.Context(), dealID, userID, role)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"submissions": submissions})
}

// PreviewFees обрабатывает POST /deals/fee-preview.
func (h *DealHandler) PreviewFees(c *gin.Context) {
	var req dto.FeePreviewRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	breakdown, err := h.deals.PreviewFees(c.Request.Context(), req.Amount)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.FeePreviewResponse{
		Amount:    req.Amount,
		Breakdown: breakdown,
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dealnest/dealnest-backend/internal/dto"
	"github.com/dealnest/dealnest-backend/internal/http/handlers/common"
	"github.com/dealnest/dealnest-backend/internal/service"
)

// AdminHandler обслуживает административные маршруты: очередь споров,
// вердикты, принудительные действия над сделками и настройки платформы.
type AdminHandler struct {
	deals     *service.DealService
	disputes  *service.DisputeService
	settings  *service.SettingsService
	scheduler *service.EscrowScheduler
}

// NewAdminHandler создаёт новый хэндлер.
func NewAdminHandler(deals *service.DealService, disputes *service.DisputeService, settings *service.SettingsService, scheduler *service.EscrowScheduler) *AdminHandler {
	return &AdminHandler{
		deals:     deals,
		disputes:  disputes,
		settings:  settings,
		scheduler: scheduler,
	}
}

// ListOpenDisputes обрабатывает GET /admin/disputes.
func (h *AdminHandler) ListOpenDisputes(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	disputes, err := h.disputes.ListOpenDisputes(c.Request.Context(), limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"disputes": disputes})
}

// ResolveDispute обрабатывает POST /admin/deals/:id/resolve.
func (h *AdminHandler) ResolveDispute(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	dealID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.ResolveDisputeRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	deal, dispute, err := h.disputes.Resolve(c.Request.Context(), dealID, adminID, req.Decision, req.Notes)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ResolveDisputeResponse{
		Deal:    deal,
		Dispute: dispute,
	})
}

// OverrideDeal обрабатывает POST /admin/deals/:id/override.
func (h *AdminHandler) OverrideDeal(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	dealID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.AdminOverrideRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	deal, err := h.deals.AdminOverride(c.Request.Context(), dealID, adminID, req.Action, req.Note)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, deal)
}

// GetSettings обрабатывает GET /admin/settings.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// UpdateSettings обрабатывает PATCH /admin/settings.
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req dto.UpdateSettingsRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	settings, err := h.settings.Update(c.Request.Context(), service.UpdateSettingsInput{
		PlatformFeePercent: req.PlatformFeePercent,
		MinPlatformFee:     req.MinPlatformFee,
		MaxPlatformFee:     req.MaxPlatformFee,
		FeePayer:           req.FeePayer,
		DisputeWindowDays:  req.DisputeWindowDays,
		AutoReleaseDays:    req.AutoReleaseDays,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// RunAutoRelease обрабатывает POST /admin/scheduler/run: ручной запуск
// прохода автовыплат, не дожидаясь таймера.
func (h *AdminHandler) RunAutoRelease(c *gin.Context) {
	released, err := h.scheduler.RunOnce(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"released": released})
}

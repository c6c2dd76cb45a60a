package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dealnest/dealnest-backend/internal/http/handlers/common"
	"github.com/dealnest/dealnest-backend/internal/service"
)

// SeedHandler генерирует демо-данные. Доступен только в development окружении.
type SeedHandler struct {
	seed *service.SeedService
}

// NewSeedHandler создаёт новый seed handler.
func NewSeedHandler(seed *service.SeedService) *SeedHandler {
	return &SeedHandler{seed: seed}
}

// Seed обрабатывает POST /seed?deals=N.
func (h *SeedHandler) Seed(c *gin.Context) {
	numDeals := common.ParseIntQuery(c, "deals", 5)

	summary, err := h.seed.SeedDemo(c.Request.Context(), numDeals)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "демо-данные созданы",
		"summary": summary,
	})
}

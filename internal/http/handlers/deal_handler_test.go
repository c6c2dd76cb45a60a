package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dealnest/dealnest-backend/internal/http/middleware"
)

func TestDealHandler_CreateDeal_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &DealHandler{deals: nil}
	r.POST("/deals", handler.CreateDeal)

	req, _ := http.NewRequest("POST", "/deals", strings.NewReader(`{"title":"Лендинг","amount":1000}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDealHandler_GetDeal_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &DealHandler{deals: nil}
	r.GET("/deals/:id", func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, uuid.New())
		c.Set(middleware.ContextRoleKey, "client")
		handler.GetDeal(c)
	})

	req, _ := http.NewRequest("GET", "/deals/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDealHandler_PerformAction_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &DealHandler{deals: nil}
	r.POST("/deals/:id/actions", handler.PerformAction)

	req, _ := http.NewRequest("POST", "/deals/"+uuid.NewString()+"/actions",
		strings.NewReader(`{"action":"fund"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDealHandler_PerformAction_MissingAction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &DealHandler{deals: nil}
	r.POST("/deals/:id/actions", func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, uuid.New())
		handler.PerformAction(c)
	})

	req, _ := http.NewRequest("POST", "/deals/"+uuid.NewString()+"/actions",
		strings.NewReader(`{"notes":"без действия"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDealHandler_ListDeals_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &DealHandler{deals: nil}
	r.GET("/deals", handler.ListDeals)

	req, _ := http.NewRequest("GET", "/deals", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWalletHandler_Deposit_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &WalletHandler{wallet: nil}
	r.POST("/wallet/deposit", handler.Deposit)

	req, _ := http.NewRequest("POST", "/wallet/deposit", strings.NewReader(`{"amount":100}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNotificationHandler_List_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &NotificationHandler{notifications: nil}
	r.GET("/notifications", handler.ListNotifications)

	req, _ := http.NewRequest("GET", "/notifications", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

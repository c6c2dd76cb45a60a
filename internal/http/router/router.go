package router

import (
	"github.com/gin-gonic/gin"

	"github.com/dealnest/dealnest-backend/internal/config"
	"github.com/dealnest/dealnest-backend/internal/http/handlers"
	"github.com/dealnest/dealnest-backend/internal/http/middleware"
	"github.com/dealnest/dealnest-backend/internal/service"
)

// SetupRouter собирает все маршруты приложения.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	dealHandler *handlers.DealHandler,
	disputeHandler *handlers.DisputeHandler,
	walletHandler *handlers.WalletHandler,
	adminHandler *handlers.AdminHandler,
	notificationHandler *handlers.NotificationHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	seedHandler *handlers.SeedHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	protectedAuth := api.Group("/auth")
	protectedAuth.Use(middleware.AuthMiddleware(tokenManager))
	{
		protectedAuth.GET("/me", authHandler.Me)
	}

	// Публичные маршруты
	api.GET("/ws", wsHandler.Handle)
	api.GET("/public/deals/:slug", dealHandler.GetPublicDeal)

	if seedHandler != nil && cfg.Env == "development" {
		api.POST("/seed", seedHandler.Seed)
	}

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.POST("/deals", dealHandler.CreateDeal)
		protected.GET("/deals", dealHandler.ListDeals)
		protected.POST("/deals/fee-preview", dealHandler.PreviewFees)
		protected.GET("/deals/reference/:reference", dealHandler.GetDealByReference)
		protected.GET("/deals/:id", middleware.UUIDValidator("id"), dealHandler.GetDeal)
		protected.DELETE("/deals/:id", middleware.UUIDValidator("id"), dealHandler.DeleteDeal)
		protected.POST("/deals/:id/accept", middleware.UUIDValidator("id"), dealHandler.AcceptDeal)
		protected.POST("/deals/:id/actions", middleware.UUIDValidator("id"), dealHandler.PerformAction)
		protected.GET("/deals/:id/events", middleware.UUIDValidator("id"), dealHandler.ListEvents)
		protected.GET("/deals/:id/submissions", middleware.UUIDValidator("id"), dealHandler.ListSubmissions)
		protected.GET("/deals/:id/dispute", middleware.UUIDValidator("id"), disputeHandler.GetDisputeForDeal)

		protected.GET("/disputes", disputeHandler.ListMyDisputes)
		protected.GET("/disputes/:id", middleware.UUIDValidator("id"), disputeHandler.GetDispute)

		protected.GET("/wallet/balance", walletHandler.GetBalance)
		protected.POST("/wallet/deposit", walletHandler.Deposit)
		protected.POST("/wallet/withdraw", walletHandler.Withdraw)
		protected.GET("/wallet/entries", walletHandler.ListEntries)

		protected.GET("/notifications", notificationHandler.ListNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.CountUnread)
		protected.POST("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.POST("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)
		protected.DELETE("/notifications/:id", middleware.UUIDValidator("id"), notificationHandler.DeleteNotification)
	}

	// Административные маршруты
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireAdmin())
	{
		admin.GET("/disputes", adminHandler.ListOpenDisputes)
		admin.POST("/deals/:id/resolve", middleware.UUIDValidator("id"), adminHandler.ResolveDispute)
		admin.POST("/deals/:id/override", middleware.UUIDValidator("id"), adminHandler.OverrideDeal)
		admin.GET("/settings", adminHandler.GetSettings)
		admin.PATCH("/settings", adminHandler.UpdateSettings)
		admin.POST("/scheduler/run", adminHandler.RunAutoRelease)
	}

	return r
}

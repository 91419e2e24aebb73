package router

import (
	"net/http"
	"time"

	"traderefer/config"
	"traderefer/internal/domain"
	"traderefer/internal/handler"
	"traderefer/internal/middleware"
	"traderefer/internal/repository"
	"traderefer/internal/service"
	"traderefer/pkg/events"
	"traderefer/pkg/mailer"
	"traderefer/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, mail mailer.Sender, provider payment.Provider, pub events.Publisher) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	businessRepo := repository.NewBusinessRepository(db)
	referrerRepo := repository.NewReferrerRepository(db)
	linkRepo := repository.NewReferralLinkRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	pinRepo := repository.NewPinRepository(db)
	earningRepo := repository.NewEarningRepository(db)
	disputeRepo := repository.NewDisputeRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	txRepo := repository.NewTransactionRepository(db)

	// Services
	authSvc := service.NewAuthService(db, cfg, userRepo, businessRepo, referrerRepo)
	notifSvc := service.NewNotificationService(notificationRepo)
	leadSvc := service.NewLeadService(db, cfg, leadRepo, pinRepo, businessRepo, referrerRepo, linkRepo, earningRepo, txRepo, notifSvc, mail, provider, pub)
	disputeSvc := service.NewDisputeService(db, disputeRepo, leadRepo, businessRepo, referrerRepo, linkRepo, earningRepo, txRepo, notifSvc, mail, pub)
	lifecycleSvc := service.NewLifecycleService(db, cfg, earningRepo, referrerRepo, notifSvc, mail, pub)
	businessSvc := service.NewBusinessService(db, cfg, businessRepo, txRepo, provider)
	referrerSvc := service.NewReferrerService(db, referrerRepo, earningRepo, linkRepo)
	payoutSvc := service.NewPayoutService(db, referrerRepo, provider, mail, pub)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	leadHandler := handler.NewLeadHandler(leadSvc, disputeSvc)
	businessHandler := handler.NewBusinessHandler(businessSvc, leadSvc)
	referrerHandler := handler.NewReferrerHandler(referrerSvc, payoutSvc)
	adminHandler := handler.NewAdminHandler(disputeSvc, lifecycleSvc, txRepo)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	webhookHandler := handler.NewPaymentWebhookHandler(leadSvc, businessSvc, cfg)

	authMw := middleware.AuthRequired(&cfg.JWT)
	businessMw := middleware.RequireRole(domain.RoleBusiness)
	referrerMw := middleware.RequireRole(domain.RoleReferrer)
	adminMw := middleware.AdminRequired()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// Public: consumer-facing lead submission and verification. A
		// tighter limiter sits on creation on top of the guard inside
		// the service.
		leads := api.Group("/leads")
		{
			leads.POST("", middleware.RateLimit(middleware.NewInMemoryRateLimiter(10, time.Minute)), leadHandler.Create)
			leads.GET("/:id", leadHandler.Get)
			leads.POST("/:id/verify", leadHandler.Verify)
			leads.POST("/:id/unlock", authMw, businessMw, leadHandler.Unlock)
			leads.POST("/:id/on-the-way", authMw, businessMw, leadHandler.OnTheWay)
			leads.POST("/:id/confirm-pin", authMw, businessMw, leadHandler.ConfirmPin)
			leads.POST("/:id/dispute", authMw, businessMw, leadHandler.Dispute)
		}

		api.GET("/businesses/:slug", businessHandler.GetBySlug)

		business := api.Group("/business")
		business.Use(authMw, businessMw)
		{
			business.GET("/me", businessHandler.Me)
			business.PATCH("/me", businessHandler.Patch)
			business.GET("/leads", businessHandler.Leads)
			business.POST("/wallet/topup", businessHandler.TopUp)
			business.GET("/wallet/transactions", businessHandler.Transactions)
			business.GET("/payments", businessHandler.Payments)
		}

		referrer := api.Group("/referrer")
		referrer.Use(authMw, referrerMw)
		{
			referrer.GET("/dashboard", referrerHandler.Dashboard)
			referrer.GET("/earnings", referrerHandler.Earnings)
			referrer.GET("/links", referrerHandler.Links)
			referrer.POST("/links", referrerHandler.CreateLink)
			referrer.PUT("/goal", referrerHandler.SetGoal)
			referrer.POST("/withdraw", referrerHandler.Withdraw)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, adminMw)
		{
			admin.GET("/disputes", adminHandler.Disputes)
			admin.POST("/leads/:id/resolve-dispute", adminHandler.ResolveDispute)
			admin.GET("/leads/:id/transactions", adminHandler.LeadTransactions)
			admin.POST("/lifecycle/run", adminHandler.RunLifecycle)
		}

		notifications := api.Group("/notifications")
		notifications.Use(authMw)
		{
			notifications.GET("", notificationHandler.List)
			notifications.PATCH("/:id/read", notificationHandler.MarkRead)
		}

		api.POST("/webhooks/payment", webhookHandler.Handle)
	}

	return r
}

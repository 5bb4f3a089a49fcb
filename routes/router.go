package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/cppla/streakholic/config"
	"github.com/cppla/streakholic/controllers"
	"github.com/cppla/streakholic/middleware"
	"github.com/cppla/streakholic/services"
	"github.com/cppla/streakholic/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, svc *services.Container, loc *time.Location) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	// Access log goes to its own rolling file
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, true))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		// Credentials cannot be combined with a wildcard origin.
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	streakController := controllers.NewStreakController(svc.Reconciler, svc.History)
	profileController := controllers.NewProfileController(svc.Profiles)
	walletController := controllers.NewWalletController(svc.Ledger)
	groupController := controllers.NewGroupController(svc.Groups)
	statsController := controllers.NewStatsController(db, loc)

	api := r.Group("/api/v1")
	api.GET("/stats", statsController.GetStats)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired())

	protected.POST("/profile", profileController.Onboard)
	protected.GET("/profile", profileController.Me)
	protected.GET("/profile/logs", profileController.DailyLogs)

	// Each of these calls the stats gateway.
	gated := protected.Group("")
	gated.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute))
	gated.PUT("/profile/handle", profileController.LinkHandle)
	gated.POST("/streak/reconcile", streakController.Reconcile)
	gated.POST("/streak/backfill", streakController.Backfill)

	protected.GET("/wallet", walletController.Wallet)
	protected.GET("/wallet/transactions", walletController.Transactions)

	protected.POST("/groups", groupController.Create)
	protected.POST("/groups/join", groupController.Join)
	protected.GET("/groups", groupController.Mine)
	protected.GET("/groups/:id", groupController.Details)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}

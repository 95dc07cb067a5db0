// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	appctx "kgv/internal/core/context"
	"kgv/internal/domain/application"
	"kgv/internal/domain/auth"
	"kgv/internal/domain/district"
	"kgv/internal/domain/maintenance"
	"kgv/internal/domain/records"
	"kgv/internal/domain/waitinglist"
	"kgv/internal/infrastructure/http/v1/handlers"
	"kgv/internal/infrastructure/http/v1/middleware"
	"kgv/pkg/logger"
)

// RouterConfig holds everything the router wires together.
type RouterConfig struct {
	// Pool is the database connection pool (health checks only; repos get
	// their querier through the TxManager).
	Pool *pgxpool.Pool

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Version reported by /health/info
	Version string

	AuthService        *auth.Service
	ApplicationService *application.Service
	RecordFactory      *records.Factory
	Ranker             *waitinglist.Ranker
	DistrictService    *district.Service
	Maintenance        *maintenance.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	baseHandler := handlers.NewBaseHandler()

	// API v1
	api := router.Group("/api/v1")
	{
		// Public auth endpoints
		authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)
		api.POST("/auth/login", authHandler.Login)

		// Everything else requires a valid token
		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		protected.GET("/auth/me", authHandler.Me)
		protected.POST("/auth/users",
			middleware.RequirePermission(appctx.PermAdministration),
			authHandler.CreateUser)

		registerApplicationRoutes(protected, baseHandler, cfg)
		registerWaitingListRoutes(protected, baseHandler, cfg)
		registerRecordRoutes(protected, baseHandler, cfg)
		registerDistrictRoutes(protected, baseHandler, cfg)
		registerAdminRoutes(protected, baseHandler, cfg)
	}

	return router
}

// registerApplicationRoutes registers application intake endpoints.
func registerApplicationRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewApplicationHandler(base, cfg.ApplicationService)

	apps := rg.Group("/applications")
	apps.GET("", handler.List)
	apps.GET("/:id", handler.Get)
	apps.POST("",
		middleware.RequirePermission(appctx.PermManageRecords),
		handler.Register)
	apps.PUT("/:id",
		middleware.RequirePermission(appctx.PermManageRecords),
		handler.Update)
	apps.DELETE("/:id",
		middleware.RequirePermission(appctx.PermManageRecords),
		handler.Deactivate)
}

// registerWaitingListRoutes registers waiting list endpoints.
func registerWaitingListRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewWaitingListHandler(base, cfg.Ranker, cfg.ApplicationService)

	lists := rg.Group("/waiting-lists")
	lists.GET("/:name/position/:applicationId", handler.Position)
	lists.POST("/:name/entries",
		middleware.RequirePermission(appctx.PermManageLists),
		handler.Join)
	lists.DELETE("/:name/entries/:applicationId",
		middleware.RequirePermission(appctx.PermManageLists),
		handler.Remove)
}

// registerRecordRoutes registers issued record endpoints.
func registerRecordRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewRecordsHandler(base, cfg.RecordFactory)

	recs := rg.Group("/records")
	recs.GET("", handler.ListByScope)
	recs.GET("/:id", handler.Get)
	recs.POST("/file-references",
		middleware.RequirePermission(appctx.PermManageRecords),
		handler.IssueFileReference)
	recs.POST("/entry-numbers",
		middleware.RequirePermission(appctx.PermManageRecords),
		handler.IssueEntryNumber)
}

// registerDistrictRoutes registers district/plot catalog endpoints.
func registerDistrictRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewDistrictHandler(base, cfg.DistrictService)

	districts := rg.Group("/districts")
	districts.GET("", handler.List)
	districts.GET("/:code", handler.GetByCode)
	districts.GET("/:code/plots", handler.ListPlots)
	districts.POST("",
		middleware.RequirePermission(appctx.PermAdministration),
		handler.Create)
	districts.POST("/:code/plots",
		middleware.RequirePermission(appctx.PermAdministration),
		handler.CreatePlot)
}

// registerAdminRoutes registers maintenance endpoints. The service enforces
// the administration permission itself; the middleware rejects earlier for a
// cleaner 403.
func registerAdminRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewMaintenanceHandler(base, cfg.Maintenance)

	admin := rg.Group("/admin")
	admin.Use(middleware.RequirePermission(appctx.PermAdministration))

	admin.GET("/sequence", handler.SequenceInfo)
	admin.POST("/sequence/reset", handler.ResetSequence)
	admin.POST("/lists/:name/recalculate", handler.RecalculateList)
	admin.PUT("/lists/:name/rule", handler.SetEligibilityRule)
}

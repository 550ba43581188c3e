// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/PatrykKozyra/claims-management-system/internal/domain/auth"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/claim"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/shipowner"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/sync"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/voyage"
	"github.com/PatrykKozyra/claims-management-system/internal/infrastructure/http/v1/handlers"
	"github.com/PatrykKozyra/claims-management-system/internal/infrastructure/http/v1/middleware"
	"github.com/PatrykKozyra/claims-management-system/internal/infrastructure/storage/postgres"
	"github.com/PatrykKozyra/claims-management-system/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool    *postgres.Pool
	Logger  *logger.Logger
	Version string

	JWTValidator middleware.JWTValidator

	AuthService      *auth.Service
	VoyageService    *voyage.Service
	ClaimService     *claim.Service
	ShipOwnerService *shipowner.Service
	SyncService      *sync.Service
	CursorStore      sync.CursorStore
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	api := router.Group("/api/v1")

	// Public auth endpoints
	authHandler := handlers.NewAuthHandler(cfg.AuthService)
	api.POST("/auth/login", authHandler.Login)

	// Everything below requires a valid token
	protected := api.Group("")
	protected.Use(middleware.Auth(cfg.JWTValidator))

	protected.GET("/auth/me", authHandler.Me)
	protected.POST("/auth/register", middleware.RequireRole(auth.RoleAdmin), authHandler.Register)

	// Viewers read; analysts and admins write
	write := middleware.RequireRole(auth.RoleAnalyst)

	voyageHandler := handlers.NewVoyageHandler(cfg.VoyageService, cfg.ClaimService)
	voyages := protected.Group("/voyages")
	{
		voyages.GET("", voyageHandler.List)
		voyages.GET("/:id", voyageHandler.Get)
		voyages.GET("/:id/claims", voyageHandler.Claims)
		voyages.GET("/:id/history", voyageHandler.History)
		voyages.POST("", write, voyageHandler.Create)
		voyages.POST("/:id/assign", write, voyageHandler.Assign)
		voyages.POST("/:id/complete", write, voyageHandler.Complete)
		voyages.PUT("/:id", write, voyageHandler.Update)
		voyages.PUT("/:id/notes", write, voyageHandler.UpdateNotes)
		voyages.DELETE("/:id", middleware.RequireRole(auth.RoleAdmin), voyageHandler.Delete)
	}

	claimHandler := handlers.NewClaimHandler(cfg.ClaimService)
	claims := protected.Group("/claims")
	{
		claims.GET("", claimHandler.List)
		claims.GET("/:id", claimHandler.Get)
		claims.GET("/:id/history", claimHandler.History)
		claims.POST("", write, claimHandler.Create)
		claims.POST("/:id/transition", write, claimHandler.Transition)
		claims.POST("/:id/settle", write, claimHandler.Settle)
		claims.POST("/:id/assign", write, claimHandler.Assign)
		claims.PUT("/:id", write, claimHandler.Update)
		claims.PUT("/:id/payment-status", write, claimHandler.SetPaymentStatus)
		claims.DELETE("/:id", middleware.RequireRole(auth.RoleAdmin), claimHandler.Delete)
	}

	ownerHandler := handlers.NewShipOwnerHandler(cfg.ShipOwnerService)
	owners := protected.Group("/ship-owners")
	{
		owners.GET("", ownerHandler.List)
		owners.GET("/:id", ownerHandler.Get)
		owners.POST("", write, ownerHandler.Create)
		owners.PUT("/:id", write, ownerHandler.Update)
		owners.DELETE("/:id", middleware.RequireRole(auth.RoleAdmin), ownerHandler.Delete)
	}

	// Sync endpoints are absent when no RADAR feed is configured.
	if cfg.SyncService != nil {
		syncHandler := handlers.NewSyncHandler(cfg.SyncService, cfg.CursorStore)
		syncGroup := protected.Group("/sync")
		{
			syncGroup.GET("/status", syncHandler.Status)
			syncGroup.POST("/run", middleware.RequireRole(auth.RoleAdmin), syncHandler.Run)
		}
	}

	return router
}

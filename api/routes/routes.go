package routes

import (
	"log/slog"
	"net/http"

	"github.com/ArowuTest/padel-arena-backend/internal/config"
	"github.com/ArowuTest/padel-arena-backend/internal/handlers"
	"github.com/ArowuTest/padel-arena-backend/internal/middleware"
	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/ArowuTest/padel-arena-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
)

// HandlerDependencies holds everything the router needs
type HandlerDependencies struct {
	Tokens *jwt.TokenService
	Logger *slog.Logger

	AuthHandler       *handlers.AuthHandler
	DrawHandler       *handlers.DrawHandler
	StreamHandler     *handlers.StreamHandler
	FidelityHandler   *handlers.FidelityHandler
	PrizeAdminHandler *handlers.PrizeAdminHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.Server.AllowedHosts))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(logger))

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		public.POST("/auth/login", deps.AuthHandler.Login)
	}

	// Participant routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(deps.Tokens))
	{
		draws := protected.Group("/draws/:drawType")
		{
			draws.GET("/eligibility", deps.DrawHandler.GetEligibility)
			draws.GET("/prizes", deps.DrawHandler.GetPrizes)
			draws.GET("/toggle", deps.DrawHandler.GetToggle)
			draws.POST("/spins", deps.DrawHandler.ExecuteSpin)
			draws.GET("/spins/:requestId", deps.DrawHandler.GetSpin)
			draws.GET("/stream", deps.StreamHandler.Stream)
		}

		me := protected.Group("/me")
		{
			me.GET("/spins", deps.DrawHandler.GetMySpins)
			me.GET("/fidelity", deps.FidelityHandler.GetFidelity)
		}
	}

	// Admin routes
	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		draws := admin.Group("/draws/:drawType")
		{
			draws.GET("/prizes", deps.PrizeAdminHandler.ListPrizes)
			draws.POST("/prizes", deps.PrizeAdminHandler.CreatePrize)
			draws.POST("/prizes/import", deps.PrizeAdminHandler.ImportPrizes)
			draws.GET("/toggle", deps.PrizeAdminHandler.GetToggle)
			draws.PUT("/toggle", deps.PrizeAdminHandler.SetToggle)
			draws.GET("/stats", deps.PrizeAdminHandler.GetStats)
			draws.GET("/spins", deps.PrizeAdminHandler.ListSpins)
		}

		prizes := admin.Group("/prizes")
		{
			prizes.PUT("/:id", deps.PrizeAdminHandler.UpdatePrize)
			prizes.DELETE("/:id", deps.PrizeAdminHandler.DeletePrize)
			prizes.PUT("/:id/active", deps.PrizeAdminHandler.SetActive)
			prizes.PUT("/:id/quantity", deps.PrizeAdminHandler.SetQuantity)
		}
	}

	return router
}

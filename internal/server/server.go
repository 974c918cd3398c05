// Package server assembles the HTTP router.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "tradebook/internal/docs" // Import swagger docs
	"tradebook/internal/handlers"
	"tradebook/internal/middleware"
	"tradebook/internal/services"
)

// Deps is everything the router needs. Refresher may be nil, in which case
// the ops endpoints are not mounted.
type Deps struct {
	JWTSecret      string
	TokenTTL       time.Duration
	RequestTimeout time.Duration
	OpsAPIKey      string

	Users       services.UserServicer
	Positions   services.PositionServicer
	FocusStocks services.FocusStockServicer
	Teams       services.TeamServicer
	Reports     services.ReportServicer
	Audit       services.AuditServicer
	Refresher   handlers.QuoteRefresher
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(d Deps) *gin.Engine {
	authHandler := handlers.NewAuthHandler(d.Users, d.Audit, d.JWTSecret, d.TokenTTL)
	positionHandler := handlers.NewPositionHandler(d.Positions, d.Audit)
	focusStockHandler := handlers.NewFocusStockHandler(d.FocusStocks, d.Audit)
	teamHandler := handlers.NewTeamHandler(d.Teams, d.Audit)
	reportHandler := handlers.NewReportHandler(d.Reports)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	if d.RequestTimeout > 0 {
		v1.Use(middleware.Timeout(d.RequestTimeout))
	}

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	if d.Refresher != nil {
		ops := v1.Group("/ops", middleware.APIKeyAuth(d.OpsAPIKey))
		ops.POST("/quotes/refresh", handlers.NewOpsHandler(d.Refresher).RefreshQuotes)
	}

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(d.JWTSecret))

	protected.GET("/profile", authHandler.GetProfile)
	protected.GET("/reports/me", reportHandler.GetMyReport)

	positions := protected.Group("/positions")
	positions.POST("", positionHandler.CreatePosition)
	positions.GET("", positionHandler.GetPositions)
	positions.GET("/:id", positionHandler.GetPosition)
	positions.PUT("/:id", positionHandler.UpdatePosition)
	positions.DELETE("/:id", positionHandler.DeletePosition)
	positions.POST("/:id/close", positionHandler.ClosePosition)
	positions.PUT("/:id/price", positionHandler.UpdatePrice)

	focus := protected.Group("/focus-stocks")
	focus.POST("", focusStockHandler.CreateFocusStock)
	focus.GET("", focusStockHandler.GetFocusStocks)
	focus.GET("/:id", focusStockHandler.GetFocusStock)
	focus.PUT("/:id", focusStockHandler.UpdateFocusStock)
	focus.DELETE("/:id", focusStockHandler.DeleteFocusStock)
	focus.POST("/:id/take", focusStockHandler.MarkTaken)
	focus.POST("/:id/revert", focusStockHandler.RevertTaken)

	teams := protected.Group("/teams")
	teams.POST("", teamHandler.CreateTeam)
	teams.GET("", teamHandler.GetTeams)
	teams.GET("/:id", teamHandler.GetTeam)
	teams.GET("/:id/report", reportHandler.GetTeamReport)
	teams.POST("/:id/members", teamHandler.AddMember)
	teams.PUT("/:id/members/:userId", teamHandler.UpdateMember)
	teams.DELETE("/:id/members/:userId", teamHandler.RemoveMember)
	teams.POST("/:id/trades", teamHandler.CreateTrade)
	teams.GET("/:id/trades", teamHandler.GetTrades)
	teams.GET("/:id/trades/:tradeId", teamHandler.GetTrade)
	teams.PUT("/:id/trades/:tradeId", teamHandler.UpdateTrade)
	teams.DELETE("/:id/trades/:tradeId", teamHandler.DeleteTrade)
	teams.POST("/:id/trades/:tradeId/close", teamHandler.CloseTrade)
	teams.POST("/:id/trades/:tradeId/votes", teamHandler.CastVote)
	teams.GET("/:id/trades/:tradeId/votes", teamHandler.GetVotes)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/playmatatu/billiards/internal/api/handlers"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/middleware"
)

// Deps is everything the routes serve from. History and Leaderboard may be
// nil; their endpoints then answer 503.
type Deps struct {
	Config      *config.Config
	Logger      *zap.Logger
	Areas       handlers.AreaRegistry
	History     handlers.HistoryReader
	Leaderboard handlers.Leaderboard
	Seats       handlers.SeatAuthority
	Hub         handlers.SocketServer
	Checks      map[string]handlers.Check
}

// NewRouter builds the gin engine with logging, recovery and CORS installed.
func NewRouter(d Deps) *gin.Engine {
	if d.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery(d.Logger))
	router.Use(middleware.RequestLogger(d.Logger.Named("http")))
	router.Use(middleware.CORSMiddleware(d.Config))
	SetupRoutes(router, d)
	return router
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, d Deps) {
	logger := d.Logger

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(d.Checks))
		v1.GET("/config", handlers.GetConfig(d.Config.PhysicsParams(), d.Config.SimConfig()))

		areas := v1.Group("/areas")
		{
			areas.POST("", handlers.CreateArea(d.Areas, logger))
			areas.GET("", handlers.ListAreas(d.Areas))
			areas.GET("/:id", handlers.GetArea(d.Areas, logger))
			areas.POST("/:id/token", handlers.IssueSeatToken(d.Areas, d.Seats, logger))
			areas.GET("/:id/history", handlers.GetShotHistory(d.Areas, d.History, logger))
			areas.GET("/:id/ws", handlers.HandleAreaWebSocket(d.Areas, d.Seats, d.Hub, logger))
		}

		board := v1.Group("/leaderboard")
		{
			board.GET("", handlers.GetLeaderboard(d.Leaderboard, logger))
			board.GET("/:player", handlers.GetPlayerStats(d.Leaderboard, logger))
		}
	}
}

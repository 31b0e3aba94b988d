package api

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/rmfonseca/scorebet/internal/api/handlers"
	"github.com/rmfonseca/scorebet/internal/services"
	"github.com/rmfonseca/scorebet/pkg/config"
	"github.com/rmfonseca/scorebet/pkg/database"
)

// Deps carries everything the route handlers need. Wired once in main.
type Deps struct {
	DB          *database.DB
	Redis       *redis.Client
	Config      *config.Config
	GameStore   *services.GameStore
	OddsStore   *services.OddsStore
	ModelStore  *services.ModelStore
	Predictions *services.PredictionService
	DataFetcher *services.DataFetcherService
}

// SetupRoutes registers the health probe and the versioned API group.
func SetupRoutes(router *gin.Engine, deps Deps) {
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Redis)
	gameHandler := handlers.NewGameHandler(deps.GameStore, deps.DataFetcher)
	oddsHandler := handlers.NewOddsHandler(deps.OddsStore)
	predictionHandler := handlers.NewPredictionHandler(deps.Predictions, deps.Config)
	modelHandler := handlers.NewModelHandler(deps.Predictions, deps.ModelStore, deps.Config)

	router.GET("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/games", gameHandler.ListGames)
		v1.POST("/games/ingest", gameHandler.IngestGames)
		v1.POST("/games/refresh", gameHandler.RefreshGames)

		v1.GET("/odds", oddsHandler.ListOdds)
		v1.POST("/odds", oddsHandler.IngestOdds)

		v1.GET("/predictions/upcoming", predictionHandler.GetUpcoming)
		v1.GET("/picks", predictionHandler.GetPicks)

		v1.POST("/model/train", modelHandler.Train)
		v1.GET("/model", modelHandler.GetModel)
	}
}

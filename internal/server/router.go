package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/chdb/checkers/internal/database"
	"github.com/chdb/checkers/internal/logging"
	"github.com/chdb/checkers/internal/metrics"
	"github.com/chdb/checkers/internal/notify"
	"github.com/chdb/checkers/internal/service"
)

// Deps wires the router. Archive is nil unless the SQLite store is in
// use; Hub and Metrics are optional.
type Deps struct {
	Service  *service.Service
	Archive  *database.DB
	Hub      *notify.Hub
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Driver   string

	ArchiveWorkers   int
	ArchiveBatchSize int
}

func SetupRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.GinLogger(deps.Logger))
	router.Use(corsMiddleware())
	router.Use(deps.Metrics.GinMiddleware())

	handler := NewHandler(deps.Service, deps.Archive, deps.Driver)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	if deps.Hub != nil {
		router.GET("/ws", gin.WrapF(deps.Hub.ServeWS))
	}

	api := router.Group("/api/v1")
	{
		api.GET("/health", handler.HealthCheck)
		api.GET("/stats", handler.GetStats)
		api.GET("/leaderboard", handler.Leaderboard)

		games := api.Group("/games")
		{
			games.POST("", handler.CreateGame)
			games.GET("/pending", handler.PendingGames)
			games.GET("/:id", handler.GetGame)
			games.GET("/:id/pdn", handler.ExportGame)
			games.POST("/:id/join", handler.JoinGame)
			games.POST("/:id/moves", handler.MakeMove)
			games.POST("/:id/resign", handler.Resign)
			games.POST("/:id/ai-move", handler.RequestAIMove)
			games.POST("/:id/draw/offer", handler.OfferDraw)
			games.POST("/:id/draw/accept", handler.AcceptDraw)
			games.POST("/:id/draw/decline", handler.DeclineDraw)
			games.POST("/:id/claim-time", handler.ClaimTimeWin)
		}

		players := api.Group("/players")
		{
			players.GET("/:id/games", handler.PlayerGames)
			players.GET("/:id/stats", handler.PlayerStats)
			players.GET("/:id/tournaments", handler.PlayerTournaments)
		}

		queue := api.Group("/queue")
		{
			queue.POST("", handler.JoinQueue)
			queue.GET("", handler.QueueCounts)
			queue.GET("/:player", handler.QueueEntry)
			queue.DELETE("/:player", handler.LeaveQueue)
		}

		tournaments := api.Group("/tournaments")
		{
			tournaments.POST("", handler.CreateTournament)
			tournaments.GET("", handler.ListTournaments)
			tournaments.POST("/join-code", handler.JoinTournamentByCode)
			tournaments.GET("/:id", handler.GetTournament)
			tournaments.GET("/:id/standings", handler.TournamentStandings)
			tournaments.POST("/:id/join", handler.JoinTournament)
			tournaments.POST("/:id/leave", handler.LeaveTournament)
			tournaments.POST("/:id/start", handler.StartTournament)
			tournaments.POST("/:id/cancel", handler.CancelTournament)
			tournaments.POST("/:id/matches/:matchId/start", handler.StartTournamentMatch)
			tournaments.POST("/:id/matches/:matchId/forfeit", handler.ForfeitTournamentMatch)
		}

		if deps.Archive != nil {
			archive := NewArchiveHandler(deps.Archive, deps.Logger)
			batch := NewBatchHandler(deps.Archive, deps.Logger, deps.ArchiveBatchSize, deps.ArchiveWorkers)

			a := api.Group("/archive")
			{
				a.POST("/import", archive.ImportGames)
				a.POST("/import/file", batch.ImportLargeFile)
				a.GET("/import/progress/:jobId", batch.GetImportProgress)
				a.DELETE("/import/:jobId", batch.CancelImport)
				a.POST("/import/stream", batch.StreamImport)
				a.GET("/search", archive.SearchGames)
				a.GET("/search/material", archive.SearchByMaterial)
				a.POST("/search/pattern", archive.SearchByPattern)
				a.GET("/:id", archive.GetGame)
				a.DELETE("/:id", archive.DeleteGame)
			}
		}
	}

	return router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

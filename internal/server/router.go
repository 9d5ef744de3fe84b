package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/budgelabs/budge-backend/internal/handlers"
	"github.com/budgelabs/budge-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName        string
	RequestLog         *middleware.RequestLogMiddleware
	PatternHandler     *handlers.PatternHandler
	LearningHandler    *handlers.LearningHandler
	TransactionHandler *handlers.TransactionHandler
	IngestHandler      *handlers.IngestHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	if cfg.RequestLog != nil {
		router.Use(cfg.RequestLog.Handler())
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api/v1")
	{
		// Patterns
		api.POST("/scan/:user_id", cfg.PatternHandler.Scan)
		// Learning
		api.POST("/generate-question/:pattern_id", cfg.LearningHandler.GenerateQuestion)
		api.POST("/submit-answer", cfg.LearningHandler.SubmitAnswer)
		api.GET("/unanswered-questions", cfg.LearningHandler.UnansweredQuestions)
		// Transactions
		api.POST("/transactions", cfg.TransactionHandler.Create)
		api.GET("/transactions/:user_id", cfg.TransactionHandler.List)
		api.GET("/transactions/:user_id/stats", cfg.TransactionHandler.Stats)
		api.DELETE("/transactions/:user_id", cfg.TransactionHandler.DeleteAll)
		api.DELETE("/transactions/:user_id/:tx_id", cfg.TransactionHandler.DeleteOne)
		// Ingest
		api.POST("/ingest/upload", cfg.IngestHandler.Upload)
	}

	return router
}

package handler

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type RouterConfig struct {
	AllowOrigins []string
	ServiceName  string
}

func NewRouter(h *HTTPHandler, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	if cfg.ServiceName != "" {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}
	if len(cfg.AllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Content-Type", "X-Requested-With"},
		}))
	}

	router.GET("/health", h.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/batches", h.GenerateBatch)
		api.GET("/batches/:batchID", h.GetBatch)
		api.GET("/batches/:batchID/export.csv", h.ExportBatch)
		api.GET("/verify/*serial", h.VerifyPath)
		api.POST("/verify", h.VerifyBody)
		api.GET("/codes/*serial", h.Code)
		api.GET("/statistics", h.Statistics)
	}

	return router
}

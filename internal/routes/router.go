package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hotel-beacon-monitor/internal/config"
	"hotel-beacon-monitor/internal/delivery/http/handler"
	"hotel-beacon-monitor/internal/engine"
	"hotel-beacon-monitor/internal/ingestion"
	"hotel-beacon-monitor/internal/middleware"
)

func SetupRoutes(cfg *config.Config, eng *engine.Engine, loop *ingestion.Loop) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware in order: recovery, request ID, logging, security headers,
	// CORS, request size limit, general rate limit.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(1 << 20))
	if cfg.RateLimit.GeneralRPS > 0 {
		router.Use(middleware.RateLimitMiddleware(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
		})
	})

	beaconHandler := handler.NewBeaconHandler(eng)
	fleetHandler := handler.NewFleetHandler(eng, loop)

	v1 := router.Group("/api/v1")
	{
		beaconHandler.RegisterRoutes(v1)
		fleetHandler.RegisterRoutes(v1)
	}

	return router
}

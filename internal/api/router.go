package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/or-planner-api/internal/config"
	"github.com/or-planner-api/internal/service"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	personnelHandler := NewPersonnelHandler(services, log)
	plannerHandler := NewPlannerHandler(services, log)
	importHandler := NewImportHandler(services, cfg, log)
	exportHandler := NewExportHandler(services, log)
	syncHandler := NewSyncHandler(services, log)

	// Health check
	router.GET("/health", healthCheck)
	router.GET("/metrics", metricsHandler(services))

	// API v1
	v1 := router.Group("/v1")
	{
		// Personnel directory
		personnel := v1.Group("/personnel")
		{
			personnel.GET("", personnelHandler.List)
			personnel.POST("", personnelHandler.Create)
			personnel.PATCH("/:id", personnelHandler.Update)
			personnel.DELETE("/:id", personnelHandler.Delete)
			personnel.GET("/eligible", personnelHandler.Eligible)
			personnel.GET("/export", exportHandler.ExportPersonnel)
		}

		// Assignment plan
		plan := v1.Group("/plan")
		{
			plan.GET("", plannerHandler.GetPlan)
			plan.GET("/dates", plannerHandler.ListDates)
			plan.POST("/drop", plannerHandler.Drop)
			plan.POST("/remove", plannerHandler.Remove)
			plan.POST("/reset", plannerHandler.Reset)
			plan.PUT("/date", plannerHandler.SelectDate)
			plan.PUT("/table", plannerHandler.SelectTable)
		}

		// Roster imports
		imports := v1.Group("/imports")
		{
			imports.POST("", importHandler.ImportRoster)
		}

		// Remote directory sync
		syncGroup := v1.Group("/sync")
		{
			syncGroup.POST("", syncHandler.Trigger)
			syncGroup.GET("/status", syncHandler.Status)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "or-planner-api",
	})
}

// metricsHandler returns directory and plan counters
func metricsHandler(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		personnelCount, _ := services.Personnel.Count(ctx)
		dates, _ := services.Planner.StoredDates(ctx)
		syncStatus, _ := services.Sync.Status(ctx)

		c.JSON(http.StatusOK, gin.H{
			"personnel":    personnelCount,
			"stored_plans": len(dates),
			"sync":         syncStatus,
			"timestamp":    time.Now().Format(time.RFC3339),
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

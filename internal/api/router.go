package api

import (
	"strconv"
	"time"

	"luna_companion/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// UploadsPath is the URL prefix uploaded images are served under
const UploadsPath = "/uploads"

// NewRouter registers every route on a new gin engine
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), MetricsMiddleware(), LoggingMiddleware(h.log))

	router.GET("/", h.Root)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.Static(UploadsPath, h.uploads.Dir())

	api := router.Group("/api")
	{
		api.GET("/health", h.Health)
		api.POST("/chat", h.Chat)
		api.POST("/analyze-image", h.AnalyzeImage)
	}

	return router
}

// MetricsMiddleware records request counts and latencies per route
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}

// LoggingMiddleware writes one log line per request
func LoggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := log.Info()
		if c.Writer.Status() >= 500 {
			event = log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"newsdesk/internal/metrics"
)

// NewRouter builds the review API router. storageDir, when set, is served
// under /storage so generated image paths resolve.
func NewRouter(h *ArticleHandler, storageDir string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), metricsMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/articles", h.ListArticles)
		api.GET("/articles/:id", h.GetArticle)
		api.POST("/articles/:id/approval", h.UpdateApproval)
		api.GET("/runs/:kind/latest", h.LatestRun)
	}

	if storageDir != "" {
		r.Static("/storage", storageDir)
	}
	return r
}

// metricsMiddleware records request counts and latency per route.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.FullPath() == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

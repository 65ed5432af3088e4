package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jobforge/internal/api/handler"
	"jobforge/internal/metrics"
)

// NewRouter wires the HTTP surface: the workflow definition endpoints plus
// health and Prometheus scrape targets.
func NewRouter(h *handler.WorkflowHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), metrics.Middleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/workflows", h.CreateWorkflow)
		api.GET("/workflows", h.ListWorkflows)
		api.GET("/workflows/:id", h.GetWorkflow)
		api.GET("/workflows/:id/document", h.GetDocument)
		api.POST("/workflows/:id/submit", h.SubmitWorkflow)
	}

	return router
}

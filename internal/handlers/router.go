package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewRouter wires the report routes, health check and metrics endpoint.
func NewRouter(reports *ReportHandler, registry *prometheus.Registry, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	location := r.Group("/location")
	{
		location.POST("/", reports.CreateReport)
		location.POST("/nmea", reports.CreateReportFromNMEA)
		location.GET("/dummyData", reports.DummyData)
	}

	return r
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/booking-page/internal/models"
	"github.com/noah-isme/booking-page/internal/service"
	"github.com/noah-isme/booking-page/pkg/response"
)

type readinessProbe interface {
	Running() bool
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	ready   readinessProbe
}

// NewMetricsHandler constructs a metrics handler. ready may be nil.
func NewMetricsHandler(metrics *service.MetricsService, ready readinessProbe) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, ready: ready}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether availability workers are consuming fetches.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.ready != nil && !h.ready.Running() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Stats godoc
// @Summary Page host counters
// @Tags Ops
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stats [get]
func (h *MetricsHandler) Stats(c *gin.Context) {
	var snapshot models.PageHostMetrics
	if h.metrics != nil {
		snapshot = h.metrics.Snapshot()
	}
	response.JSON(c, http.StatusOK, snapshot)
}

package handler

import (
	"net/http"

	"github.com/crosspost/backend/internal/application/publishing"
	"github.com/crosspost/backend/internal/infrastructure/proxy"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthHandler answers liveness and readiness probes
type HealthHandler struct {
	db        *gorm.DB
	proxies   *proxy.Pool
	publisher *publishing.Orchestrator
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// WithProxyPool adds the proxy pool to the readiness report
func (h *HealthHandler) WithProxyPool(pool *proxy.Pool) *HealthHandler {
	h.proxies = pool
	return h
}

// WithPublisher adds the publisher state to the readiness report
func (h *HealthHandler) WithPublisher(o *publishing.Orchestrator) *HealthHandler {
	h.publisher = o
	return h
}

// RegisterRoutes registers health routes
func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Live)
	rg.GET("/ready", h.Ready)
}

// Live handles GET /health
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles GET /ready. The database gates readiness; the proxy pool and
// publisher are reported for operators but never fail the probe, since an
// empty pool just means direct connections.
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
	}
	body := gin.H{"status": "ready"}
	if h.proxies != nil {
		body["proxies"] = h.proxies.Size()
	}
	if h.publisher != nil {
		state := "stopped"
		if h.publisher.Running() {
			state = "running"
		}
		body["publisher"] = state
	}
	c.JSON(http.StatusOK, body)
}

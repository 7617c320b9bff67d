package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/crosspost/backend/internal/application/publishing"
)

// PublishingHandler exposes the publish, cancel and status operations
type PublishingHandler struct {
	BaseHandler
	orchestrator *publishing.Orchestrator
}

func NewPublishingHandler(orchestrator *publishing.Orchestrator) *PublishingHandler {
	return &PublishingHandler{orchestrator: orchestrator}
}

// RegisterRoutes registers publishing routes
func (h *PublishingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/listings/:id/publish", h.Submit)
	pubs := rg.Group("/publications")
	{
		pubs.GET("/:id", h.Get)
		pubs.DELETE("/:id", h.Cancel)
	}
	rg.GET("/listings/:id/publications", h.Status)
}

type submitRequest struct {
	Platforms   []string   `json:"platforms" binding:"required,min=1"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// Submit handles POST /listings/:id/publish
func (h *PublishingHandler) Submit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID")
		return
	}
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.orchestrator.Submit(c.Request.Context(), publishing.SubmitRequest{
		ListingID:   id,
		Platforms:   req.Platforms,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Status handles GET /listings/:id/publications
func (h *PublishingHandler) Status(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID")
		return
	}
	resp, err := h.orchestrator.Status(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get handles GET /publications/:id
func (h *PublishingHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid publication ID")
		return
	}
	resp, err := h.orchestrator.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel handles DELETE /publications/:id
func (h *PublishingHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid publication ID")
		return
	}
	resp, err := h.orchestrator.Cancel(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

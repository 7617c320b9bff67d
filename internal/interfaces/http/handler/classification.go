package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appclassification "github.com/crosspost/backend/internal/application/classification"
	"github.com/crosspost/backend/internal/domain/classification"
)

// ClassificationHandler exposes category previews and taxonomy lookups
type ClassificationHandler struct {
	BaseHandler
	service *appclassification.Service
}

func NewClassificationHandler(service *appclassification.Service) *ClassificationHandler {
	return &ClassificationHandler{service: service}
}

// RegisterRoutes registers classification routes
func (h *ClassificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/classification/preview", h.Preview)
	categories := rg.Group("/categories")
	{
		categories.GET("", h.Categories)
		categories.GET("/:id", h.Category)
	}
}

type previewRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Audience    string `json:"audience" binding:"omitempty,oneof=femme homme enfant"`
}

// Preview handles POST /classification/preview
func (h *ClassificationHandler) Preview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	res, err := h.service.Preview(c.Request.Context(),
		req.Title, req.Description, classification.Audience(req.Audience))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// Categories handles GET /categories, optionally filtered by ?search=
func (h *ClassificationHandler) Categories(c *gin.Context) {
	if query := c.Query("search"); query != "" {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		h.Success(c, h.service.Search(query, limit))
		return
	}
	h.Success(c, h.service.Categories())
}

// Category handles GET /categories/:id
func (h *ClassificationHandler) Category(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid category ID")
		return
	}
	cat, err := h.service.Category(id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cat)
}

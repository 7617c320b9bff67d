package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	applisting "github.com/crosspost/backend/internal/application/listing"
)

// ListingHandler exposes listing CRUD and photo uploads
type ListingHandler struct {
	BaseHandler
	service *applisting.Service
}

func NewListingHandler(service *applisting.Service) *ListingHandler {
	return &ListingHandler{service: service}
}

// RegisterRoutes registers listing routes
func (h *ListingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	listings := rg.Group("/listings")
	{
		listings.POST("", h.Create)
		listings.GET("", h.List)
		listings.GET("/:id", h.Get)
		listings.PUT("/:id", h.Update)
		listings.DELETE("/:id", h.Delete)
		listings.POST("/:id/photos", h.UploadPhoto)
	}
}

type createListingRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Price       string     `json:"price" binding:"required"`
	Condition   string     `json:"condition"`
	Location    string     `json:"location"`
	Brand       string     `json:"brand"`
	Size        string     `json:"size"`
	Colors      []string   `json:"colors"`
	Targets     []string   `json:"targets" binding:"required,min=1"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

type updateListingRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Price       string     `json:"price" binding:"required"`
	Condition   string     `json:"condition"`
	Location    string     `json:"location"`
	Brand       string     `json:"brand"`
	Size        string     `json:"size"`
	Colors      []string   `json:"colors"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// Create handles POST /listings
func (h *ListingHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Missing or invalid user identity")
		return
	}

	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		h.BadRequest(c, "Invalid price")
		return
	}

	resp, err := h.service.Create(c.Request.Context(), applisting.CreateListingRequest{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Price:       price,
		Condition:   req.Condition,
		Location:    req.Location,
		Brand:       req.Brand,
		Size:        req.Size,
		Colors:      req.Colors,
		Targets:     req.Targets,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List handles GET /listings
func (h *ListingHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Missing or invalid user identity")
		return
	}

	var query struct {
		Offset int `form:"offset,default=0" binding:"min=0"`
		Limit  int `form:"limit,default=20" binding:"min=1,max=100"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.List(c.Request.Context(), userID, query.Offset, query.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, resp.Items, resp.Total, resp.Offset, resp.Limit)
}

// Get handles GET /listings/:id
func (h *ListingHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID")
		return
	}
	resp, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update handles PUT /listings/:id
func (h *ListingHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID")
		return
	}
	var req updateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		h.BadRequest(c, "Invalid price")
		return
	}

	resp, err := h.service.Update(c.Request.Context(), id, applisting.UpdateListingRequest{
		Title:       req.Title,
		Description: req.Description,
		Price:       price,
		Condition:   req.Condition,
		Location:    req.Location,
		Brand:       req.Brand,
		Size:        req.Size,
		Colors:      req.Colors,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete handles DELETE /listings/:id
func (h *ListingHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID")
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// UploadPhoto handles POST /listings/:id/photos
func (h *ListingHandler) UploadPhoto(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID")
		return
	}
	file, err := c.FormFile("photo")
	if err != nil {
		h.BadRequest(c, "A photo file is required")
		return
	}
	src, err := file.Open()
	if err != nil {
		h.InternalError(c, "Could not read uploaded photo")
		return
	}
	defer src.Close()

	resp, err := h.service.UploadPhoto(c.Request.Context(), id,
		file.Filename, file.Header.Get("Content-Type"), src)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

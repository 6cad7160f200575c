package handlers

import (
	"net/http"

	"github.com/ArowuTest/padel-arena-backend/internal/middleware"
	"github.com/ArowuTest/padel-arena-backend/internal/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxImportSize bounds the uploaded CSV file.
const maxImportSize = 2 << 20

// PrizeAdminHandler handles prize catalog, stock and toggle administration
type PrizeAdminHandler struct {
	prizeService services.PrizeService
}

// NewPrizeAdminHandler creates a new PrizeAdminHandler
func NewPrizeAdminHandler(prizeService services.PrizeService) *PrizeAdminHandler {
	return &PrizeAdminHandler{
		prizeService: prizeService,
	}
}

// ActiveRequest is the body of PUT /admin/prizes/:id/active
type ActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// QuantityRequest is the body of PUT /admin/prizes/:id/quantity
type QuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// ToggleRequest is the body of PUT /admin/draws/:drawType/toggle
type ToggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// ListPrizes handles GET /admin/draws/:drawType/prizes
func (h *PrizeAdminHandler) ListPrizes(c *gin.Context) {
	drawType, ok := drawTypeParam(c)
	if !ok {
		return
	}
	prizes, err := h.prizeService.ListPrizes(c.Request.Context(), drawType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prizes)
}

// CreatePrize handles POST /admin/draws/:drawType/prizes
func (h *PrizeAdminHandler) CreatePrize(c *gin.Context) {
	drawType, ok := drawTypeParam(c)
	if !ok {
		return
	}
	var input services.PrizeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	prize, err := h.prizeService.CreatePrize(c.Request.Context(), drawType, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, prize)
}

// UpdatePrize handles PUT /admin/prizes/:id
func (h *PrizeAdminHandler) UpdatePrize(c *gin.Context) {
	id, ok := prizeIDParam(c)
	if !ok {
		return
	}
	var input services.PrizeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	prize, err := h.prizeService.UpdatePrize(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prize)
}

// DeletePrize handles DELETE /admin/prizes/:id
func (h *PrizeAdminHandler) DeletePrize(c *gin.Context) {
	id, ok := prizeIDParam(c)
	if !ok {
		return
	}
	if err := h.prizeService.DeletePrize(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Prize deleted successfully"})
}

// SetActive handles PUT /admin/prizes/:id/active
func (h *PrizeAdminHandler) SetActive(c *gin.Context) {
	id, ok := prizeIDParam(c)
	if !ok {
		return
	}
	var req ActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	prize, err := h.prizeService.SetPrizeActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prize)
}

// SetQuantity handles PUT /admin/prizes/:id/quantity
func (h *PrizeAdminHandler) SetQuantity(c *gin.Context) {
	id, ok := prizeIDParam(c)
	if !ok {
		return
	}
	var req QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	prize, err := h.prizeService.SetQuantity(c.Request.Context(), id, *req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prize)
}

// ImportPrizes handles POST /admin/draws/:drawType/prizes/import (multipart field "file")
func (h *PrizeAdminHandler) ImportPrizes(c *gin.Context) {
	drawType, ok := drawTypeParam(c)
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "A CSV file is required in the \"file\" field")
		return
	}
	if header.Size > maxImportSize {
		badRequest(c, "CSV file is too large")
		return
	}
	file, err := header.Open()
	if err != nil {
		badRequest(c, "Failed to read uploaded file: "+err.Error())
		return
	}
	defer file.Close()

	result, err := h.prizeService.ImportPrizes(c.Request.Context(), drawType, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetToggle handles GET /admin/draws/:drawType/toggle
func (h *PrizeAdminHandler) GetToggle(c *gin.Context) {
	drawType, ok := drawTypeParam(c)
	if !ok {
		return
	}
	toggle, err := h.prizeService.GetFeatureToggle(c.Request.Context(), drawType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toggle)
}

// SetToggle handles PUT /admin/draws/:drawType/toggle
func (h *PrizeAdminHandler) SetToggle(c *gin.Context) {
	drawType, ok := drawTypeParam(c)
	if !ok {
		return
	}
	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	updatedBy := c.GetString(middleware.ContextUserEmail)
	if updatedBy == "" {
		updatedBy = middleware.UserID(c)
	}
	toggle, err := h.prizeService.SetFeatureToggle(c.Request.Context(), drawType, *req.Enabled, updatedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toggle)
}

// GetStats handles GET /admin/draws/:drawType/stats
func (h *PrizeAdminHandler) GetStats(c *gin.Context) {
	drawType, ok := drawTypeParam(c)
	if !ok {
		return
	}
	stats, err := h.prizeService.Stats(c.Request.Context(), drawType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListSpins handles GET /admin/draws/:drawType/spins
func (h *PrizeAdminHandler) ListSpins(c *gin.Context) {
	drawType, ok := drawTypeParam(c)
	if !ok {
		return
	}
	page, limit := pageParams(c)
	spins, err := h.prizeService.ListSpins(c.Request.Context(), drawType, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"spins": spins, "page": page, "limit": limit})
}

func prizeIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid prize ID")
		return primitive.NilObjectID, false
	}
	return id, true
}

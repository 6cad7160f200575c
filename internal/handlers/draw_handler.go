package handlers

import (
	"net/http"

	"github.com/ArowuTest/padel-arena-backend/internal/middleware"
	"github.com/ArowuTest/padel-arena-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// DrawHandler handles the participant facing draw endpoints
type DrawHandler struct {
	drawService services.DrawService
}

// NewDrawHandler creates a new DrawHandler
func NewDrawHandler(drawService services.DrawService) *DrawHandler {
	return &DrawHandler{
		drawService: drawService,
	}
}

// SpinRequest is the body of POST /draws/:drawType/spins
type SpinRequest struct {
	RequestID string `json:"requestId" binding:"required"`
}

// GetEligibility handles GET /draws/:drawType/eligibility
func (h *DrawHandler) GetEligibility(c *gin.Context) {
	drawType, ok := drawTypeParam(c)
	if !ok {
		return
	}
	eligibility, err := h.drawService.CheckEligibility(c.Request.Context(), middleware.UserID(c), drawType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, eligibility)
}

// GetPrizes handles GET /draws/:drawType/prizes
func (h *DrawHandler) GetPrizes(c *gin.Context) {
	drawType, ok := drawTypeParam(c)
	if !ok {
		return
	}
	prizes, err := h.drawService.ListActivePrizes(c.Request.Context(), drawType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prizes)
}

// GetToggle handles GET /draws/:drawType/toggle
func (h *DrawHandler) GetToggle(c *gin.Context) {
	drawType, ok := drawTypeParam(c)
	if !ok {
		return
	}
	toggle, err := h.drawService.GetFeatureToggle(c.Request.Context(), drawType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toggle)
}

// ExecuteSpin handles POST /draws/:drawType/spins
func (h *DrawHandler) ExecuteSpin(c *gin.Context) {
	drawType, ok := drawTypeParam(c)
	if !ok {
		return
	}
	var req SpinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	outcome, err := h.drawService.ExecuteDraw(c.Request.Context(), middleware.UserID(c), drawType, req.RequestID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// GetSpin handles GET /draws/:drawType/spins/:requestId
func (h *DrawHandler) GetSpin(c *gin.Context) {
	drawType, ok := drawTypeParam(c)
	if !ok {
		return
	}
	outcome, err := h.drawService.FindDraw(c.Request.Context(), middleware.UserID(c), drawType, c.Param("requestId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// GetMySpins handles GET /me/spins
func (h *DrawHandler) GetMySpins(c *gin.Context) {
	page, limit := pageParams(c)
	spins, err := h.drawService.ListParticipantSpins(c.Request.Context(), middleware.UserID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"spins": spins, "page": page, "limit": limit})
}

package handlers

import (
	"net/http"

	"github.com/ArowuTest/padel-arena-backend/internal/fidelity"
	"github.com/ArowuTest/padel-arena-backend/internal/middleware"
	"github.com/ArowuTest/padel-arena-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// FidelityHandler serves the loyalty summary shown next to the draws
type FidelityHandler struct {
	fidelityService services.FidelityService
}

// NewFidelityHandler creates a new FidelityHandler
func NewFidelityHandler(fidelityService services.FidelityService) *FidelityHandler {
	return &FidelityHandler{
		fidelityService: fidelityService,
	}
}

// FidelityResponse adds an optional discounted price quote to the summary.
type FidelityResponse struct {
	fidelity.Summary
	Price           *decimal.Decimal `json:"price,omitempty"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice,omitempty"`
}

// GetFidelity handles GET /me/fidelity?price=
func (h *FidelityHandler) GetFidelity(c *gin.Context) {
	summary, err := h.fidelityService.Summary(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := FidelityResponse{Summary: *summary}
	if raw := c.Query("price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil || price.IsNegative() {
			badRequest(c, "price must be a non-negative decimal")
			return
		}
		discounted := summary.Apply(price)
		resp.Price = &price
		resp.DiscountedPrice = &discounted
	}
	c.JSON(http.StatusOK, resp)
}

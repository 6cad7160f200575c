package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ArowuTest/padel-arena-backend/internal/animation"
	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/ArowuTest/padel-arena-backend/internal/services"
	"github.com/gin-gonic/gin"
)

const (
	defaultPage  = 1
	defaultLimit = 20
)

// respondError writes the error body for err: {"error": msg, "code": CODE, ...}.
func respondError(c *gin.Context, err error) {
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "error", err, "path", c.FullPath())
	}
	c.JSON(status, body)
}

// errorBody maps err onto a status and error body. The stream handler sends
// the same body over the socket.
func errorBody(err error) (int, gin.H) {
	var inelig *models.IneligibleError
	switch {
	case errors.As(err, &inelig):
		body := gin.H{
			"error":    err.Error(),
			"code":     models.CodeIneligible,
			"drawType": inelig.DrawType,
			"reason":   inelig.Reason,
		}
		if inelig.NextEligibleAt != nil {
			body["nextEligibleAt"] = inelig.NextEligibleAt
		}
		return http.StatusConflict, body
	case errors.Is(err, models.ErrDrawInProgress), errors.Is(err, animation.ErrBusy):
		return http.StatusConflict, gin.H{"error": err.Error(), "code": models.CodeDrawInProgress}
	case errors.Is(err, models.ErrNoPrizeAvailable):
		return http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "code": models.CodeNoPrizeAvailable}
	case errors.Is(err, models.ErrPrizeUnavailable), errors.Is(err, models.ErrAlignment):
		return http.StatusConflict, gin.H{"error": err.Error(), "code": models.CodePrizeUnavailable}
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, gin.H{"error": err.Error(), "code": models.CodeNotFound}
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest, gin.H{"error": err.Error(), "code": models.CodeBadRequest}
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, gin.H{"error": err.Error(), "code": models.CodeUnauthorized}
	case errors.Is(err, models.ErrDrawFailed):
		return http.StatusInternalServerError, gin.H{
			"error": "Draw could not be completed, check your eligibility before trying again",
			"code":  models.CodeDrawFailed,
		}
	}
	return http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": models.CodeInternal}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": models.CodeBadRequest})
}

// drawTypeParam reads :drawType and answers 400 when it is unknown.
func drawTypeParam(c *gin.Context) (models.DrawType, bool) {
	drawType, err := models.ParseDrawType(c.Param("drawType"))
	if err != nil {
		badRequest(c, err.Error())
		return "", false
	}
	return drawType, true
}

func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(defaultPage)))
	if err != nil || page < 1 {
		page = defaultPage
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	return page, limit
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/Mont3ll/lms-backend/internal/services"
	"github.com/Mont3ll/lms-backend/internal/utils"
	"github.com/gin-gonic/gin"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
}

func NewGradingHandler(gradingService services.GradingService, logger utils.Logger) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
	}
}

// GradeAttempt grades a submitted attempt synchronously. Pass regrade=true
// to replace an existing result. Grading an already graded attempt without
// the flag returns the stored result unchanged.
func (h *GradingHandler) GradeAttempt(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	regrade := c.Query("regrade") == "true"

	h.LogRequest(c, "Grading attempt", "attempt_id", attemptID, "regrade", regrade)

	result, err := h.gradingService.GradeAttempt(c.Request.Context(), attemptID, regrade)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyGraded) && result != nil {
			// Idempotent success: return the stored result.
			c.JSON(http.StatusOK, result)
			return
		}
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

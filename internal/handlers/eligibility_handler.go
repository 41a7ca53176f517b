// scholarship-system/internal/handlers/eligibility_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/anud18/scholarship-system-sub001/internal/eligibility"
	"github.com/anud18/scholarship-system-sub001/internal/middleware"
)

// EligibilityHandler exposes the eligibility evaluator to students.
type EligibilityHandler struct {
	Evaluator *eligibility.Evaluator
}

func NewEligibilityHandler(evaluator *eligibility.Evaluator) *EligibilityHandler {
	return &EligibilityHandler{Evaluator: evaluator}
}

// Check evaluates the current user's eligibility for one scholarship period.
// GET /api/scholarships/:id/eligibility?academicYear=114&semester=1
func (h *EligibilityHandler) Check(c *gin.Context) {
	user := middleware.CurrentUser(c)

	scholarshipTypeID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid scholarship type ID"})
		return
	}
	academicYear, err := strconv.Atoi(c.Query("academicYear"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "academicYear query parameter is required"})
		return
	}
	semester := semesterParam(c.Query("semester"))

	result, err := h.Evaluator.Evaluate(c.Request.Context(), user, uint(scholarshipTypeID), academicYear, semester)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// semesterParam parses an optional semester query value; empty means a
// yearly scholarship (nil semester).
func semesterParam(raw string) *int {
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

// scholarship-system/internal/handlers/review_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/anud18/scholarship-system-sub001/internal/middleware"
	"github.com/anud18/scholarship-system-sub001/internal/review"
)

type ReviewHandler struct {
	Workflow *review.Workflow
}

func NewReviewHandler(workflow *review.Workflow) *ReviewHandler {
	return &ReviewHandler{Workflow: workflow}
}

// ReviewableSubTypes tells the reviewer which sub-types are still open for
// their tier, so the review form does not offer rows an earlier tier already
// rejected.
func (h *ReviewHandler) ReviewableSubTypes(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}

	codes, err := h.Workflow.ReviewableSubTypesFor(uint(id), user.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subTypes": codes})
}

type submitReviewInput struct {
	Items []review.ItemInput `json:"items" binding:"required,min=1"`
}

// SubmitReview records one reviewer's per-sub-type decisions and returns the
// recomputed application status.
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}

	var input submitReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Workflow.SubmitReview(c.Request.Context(), uint(id), user, input.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// scholarship-system/internal/handlers/application_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/anud18/scholarship-system-sub001/internal/apperr"
	"github.com/anud18/scholarship-system-sub001/internal/eligibility"
	"github.com/anud18/scholarship-system-sub001/internal/middleware"
	"github.com/anud18/scholarship-system-sub001/internal/review"
	"github.com/anud18/scholarship-system-sub001/models"
)

// ApplicationHandler owns the interactive application surface: creation
// (gated by eligibility), retrieval, submission and the lifecycle actions
// delegated to the review workflow.
type ApplicationHandler struct {
	DB        *gorm.DB
	Evaluator *eligibility.Evaluator
	Workflow  *review.Workflow
	Students  eligibility.StudentDirectory
}

func NewApplicationHandler(db *gorm.DB, evaluator *eligibility.Evaluator, workflow *review.Workflow, students eligibility.StudentDirectory) *ApplicationHandler {
	return &ApplicationHandler{DB: db, Evaluator: evaluator, Workflow: workflow, Students: students}
}

type createApplicationInput struct {
	ScholarshipTypeID uint           `json:"scholarshipTypeId" binding:"required"`
	AcademicYear      int            `json:"academicYear" binding:"required"`
	Semester          *int           `json:"semester"`
	SubTypeCodes      []string       `json:"subTypeCodes" binding:"required"`
	FormData          map[string]any `json:"formData"`
	IsRenewal         bool           `json:"isRenewal"`
}

// Create starts a new draft application for the current student. The same
// eligibility decision that gates the UI runs again here, so a stale client
// cannot bypass the window, whitelist or duplicate gates.
func (h *ApplicationHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var input createApplicationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Evaluator.Evaluate(c.Request.Context(), user, input.ScholarshipTypeID, input.AcademicYear, input.Semester)
	if err != nil {
		respondError(c, err)
		return
	}
	if !result.CanApply {
		payload := gin.H{"error": result.Reason}
		if result.ExistingAppID != "" {
			payload["existingAppId"] = result.ExistingAppID
		}
		c.JSON(http.StatusConflict, payload)
		return
	}

	eligible := make(map[string]bool, len(result.SubTypes))
	for _, sr := range result.SubTypes {
		if sr.Eligible {
			eligible[sr.Code] = true
		}
	}
	codes := make([]string, 0, len(input.SubTypeCodes))
	for _, raw := range input.SubTypeCodes {
		code := review.NormalizeCode(raw)
		if len(result.SubTypes) > 0 && !eligible[code] {
			c.JSON(http.StatusUnprocessableEntity,
				gin.H{"error": "sub-type " + code + " is not eligible for this student"})
			return
		}
		codes = append(codes, code)
	}

	var studentData []byte
	if h.Students != nil {
		if attrs, err := h.Students.GetStudentAttributes(c.Request.Context(), user.StudentNo); err == nil {
			studentData, _ = json.Marshal(attrs)
		}
	}
	formData, err := json.Marshal(input.FormData)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "formData is not serializable"})
		return
	}

	var app models.Application
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		appID, err := models.AllocateAppID(tx, input.AcademicYear, input.Semester)
		if err != nil {
			return err
		}
		cfgID := result.ConfigurationID
		app = models.Application{
			AppID:             appID,
			UserID:            user.ID,
			ScholarshipTypeID: input.ScholarshipTypeID,
			ConfigurationID:   &cfgID,
			SubTypeCodes:      pq.StringArray(codes),
			AcademicYear:      input.AcademicYear,
			Semester:          input.Semester,
			Status:            models.StatusDraft,
			IsRenewal:         input.IsRenewal,
			StudentData:       studentData,
			FormData:          formData,
		}
		return tx.Create(&app).Error
	})
	if txErr != nil {
		respondError(c, txErr)
		return
	}

	c.JSON(http.StatusCreated, app)
}

// Get returns one application. Students see only their own.
func (h *ApplicationHandler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}

	var app models.Application
	if err := h.DB.Preload("Reviews.Items").First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, apperr.NotFound("application %d not found", id))
			return
		}
		respondError(c, err)
		return
	}
	if !user.Role.IsStaff() && user.Role != models.RoleProfessor && app.UserID != user.ID {
		respondError(c, apperr.Authorization("application %s does not belong to you", app.AppID))
		return
	}
	c.JSON(http.StatusOK, app)
}

// List returns applications filtered by status, period and scholarship type.
// Students are always scoped to their own rows.
func (h *ApplicationHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)

	query := h.DB.Model(&models.Application{})
	if !user.Role.IsStaff() && user.Role != models.RoleProfessor {
		query = query.Where("user_id = ?", user.ID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if year := c.Query("academicYear"); year != "" {
		query = query.Where("academic_year = ?", year)
	}
	if sem := c.Query("semester"); sem != "" {
		query = query.Where("semester = ?", sem)
	}
	if typeID := c.Query("scholarshipTypeId"); typeID != "" {
		query = query.Where("scholarship_type_id = ?", typeID)
	}

	var totalRows int64
	if err := query.Count(&totalRows).Error; err != nil {
		respondError(c, err)
		return
	}

	var apps []models.Application
	if err := query.Order("id DESC").Scopes(Paginate(c)).Find(&apps).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, apps, totalRows))
}

// Submit moves the owner's draft into the review pipeline.
func (h *ApplicationHandler) Submit(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}

	var app models.Application
	if err := h.DB.First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, apperr.NotFound("application %d not found", id))
			return
		}
		respondError(c, err)
		return
	}
	if app.UserID != user.ID {
		respondError(c, apperr.Authorization("application %s does not belong to you", app.AppID))
		return
	}
	if app.Status != models.StatusDraft && app.Status != models.StatusReturned {
		respondError(c, apperr.Conflict("application %s cannot be submitted from status %q", app.AppID, app.Status))
		return
	}

	now := time.Now()
	err = h.DB.Model(&app).Updates(map[string]any{
		"status":       models.StatusSubmitted,
		"submitted_at": now,
	}).Error
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appId": app.AppID, "status": models.StatusSubmitted})
}

// Withdraw lets the owning student retire a submitted application.
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}
	if err := h.Workflow.Withdraw(c.Request.Context(), uint(id), user); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusWithdrawn})
}

// Delete soft-deletes an application. Staff must provide a reason.
func (h *ApplicationHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&body) // the body is optional for students

	if err := h.Workflow.SoftDelete(c.Request.Context(), uint(id), user, body.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusDeleted})
}

// Restore reverses a soft delete back to draft.
func (h *ApplicationHandler) Restore(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}
	if err := h.Workflow.Restore(c.Request.Context(), uint(id), user); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusDraft})
}

// UpdateStatus is the direct staff status endpoint; approvals and rejections
// trigger the quota redistribution pass exactly as review submissions do.
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}
	var body struct {
		Status models.ApplicationStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Workflow.UpdateStatus(c.Request.Context(), uint(id), user, body.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// scholarship-system/internal/handlers/scholarship_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/anud18/scholarship-system-sub001/internal/apperr"
	"github.com/anud18/scholarship-system-sub001/models"
)

// ScholarshipHandler is the admin surface for scholarship types, per-period
// configurations and eligibility rules.
type ScholarshipHandler struct {
	DB *gorm.DB
}

func NewScholarshipHandler(db *gorm.DB) *ScholarshipHandler {
	return &ScholarshipHandler{DB: db}
}

// supportedOperators guards rule creation; the engine fails closed on
// anything else, so reject it at the door.
var supportedOperators = map[string]bool{
	models.OpGTE: true, models.OpLTE: true, models.OpGT: true, models.OpLT: true,
	models.OpEQ: true, models.OpNEQ: true, models.OpIn: true, models.OpNotIn: true,
	models.OpContains: true, models.OpNotContains: true,
}

func (h *ScholarshipHandler) ListTypes(c *gin.Context) {
	var types []models.ScholarshipType
	if err := h.DB.Preload("SubTypes").Order("id").Find(&types).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types)
}

func (h *ScholarshipHandler) GetType(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid scholarship type ID"})
		return
	}
	var schType models.ScholarshipType
	if err := h.DB.Preload("SubTypes").First(&schType, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, apperr.NotFound("scholarship type %d not found", id))
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schType)
}

func (h *ScholarshipHandler) CreateType(c *gin.Context) {
	var schType models.ScholarshipType
	if err := c.ShouldBindJSON(&schType); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if schType.Code == "" || schType.Name == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "code and name are required"})
		return
	}
	if err := h.DB.Create(&schType).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, schType)
}

func (h *ScholarshipHandler) UpdateType(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid scholarship type ID"})
		return
	}
	var schType models.ScholarshipType
	if err := h.DB.First(&schType, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, apperr.NotFound("scholarship type %d not found", id))
			return
		}
		respondError(c, err)
		return
	}
	var input map[string]any
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	delete(input, "id")
	delete(input, "subTypes")
	if err := h.DB.Model(&schType).Updates(input).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schType)
}

// --- configurations ---

func (h *ScholarshipHandler) ListConfigurations(c *gin.Context) {
	query := h.DB.Model(&models.ScholarshipConfiguration{})
	if typeID := c.Query("scholarshipTypeId"); typeID != "" {
		query = query.Where("scholarship_type_id = ?", typeID)
	}
	if year := c.Query("academicYear"); year != "" {
		query = query.Where("academic_year = ?", year)
	}
	var configs []models.ScholarshipConfiguration
	if err := query.Order("academic_year DESC, semester DESC").Find(&configs).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, configs)
}

func (h *ScholarshipHandler) CreateConfiguration(c *gin.Context) {
	var cfg models.ScholarshipConfiguration
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if cfg.ScholarshipTypeID == 0 || cfg.AcademicYear == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "scholarshipTypeId and academicYear are required"})
		return
	}

	var schType models.ScholarshipType
	if err := h.DB.First(&schType, cfg.ScholarshipTypeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, apperr.NotFound("scholarship type %d not found", cfg.ScholarshipTypeID))
			return
		}
		respondError(c, err)
		return
	}
	if schType.Yearly && cfg.Semester != nil {
		c.JSON(http.StatusUnprocessableEntity,
			gin.H{"error": "yearly scholarships must not carry a semester"})
		return
	}
	if !schType.Yearly && cfg.Semester == nil {
		c.JSON(http.StatusUnprocessableEntity,
			gin.H{"error": "semester is required for semester-based scholarships"})
		return
	}

	if err := h.DB.Create(&cfg).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cfg)
}

func (h *ScholarshipHandler) UpdateConfiguration(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid configuration ID"})
		return
	}
	var cfg models.ScholarshipConfiguration
	if err := h.DB.First(&cfg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, apperr.NotFound("configuration %d not found", id))
			return
		}
		respondError(c, err)
		return
	}
	var input map[string]any
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	delete(input, "id")
	delete(input, "scholarshipTypeId")
	if err := h.DB.Model(&cfg).Updates(input).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// --- rules ---

func (h *ScholarshipHandler) ListRules(c *gin.Context) {
	query := h.DB.Model(&models.ScholarshipRule{})
	if typeID := c.Query("scholarshipTypeId"); typeID != "" {
		query = query.Where("scholarship_type_id = ?", typeID)
	}
	if year := c.Query("academicYear"); year != "" {
		query = query.Where("academic_year = ? OR academic_year IS NULL", year)
	}
	var rules []models.ScholarshipRule
	if err := query.Order("priority DESC, id").Find(&rules).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

func (h *ScholarshipHandler) CreateRule(c *gin.Context) {
	var rule models.ScholarshipRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateRule(&rule); err != nil {
		respondError(c, err)
		return
	}
	if err := h.DB.Create(&rule).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (h *ScholarshipHandler) UpdateRule(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rule ID"})
		return
	}
	var rule models.ScholarshipRule
	if err := h.DB.First(&rule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, apperr.NotFound("rule %d not found", id))
			return
		}
		respondError(c, err)
		return
	}
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateRule(&rule); err != nil {
		respondError(c, err)
		return
	}
	if err := h.DB.Save(&rule).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *ScholarshipHandler) DeleteRule(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rule ID"})
		return
	}
	if err := h.DB.Delete(&models.ScholarshipRule{}, id).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rule deleted"})
}

func validateRule(rule *models.ScholarshipRule) error {
	if rule.ScholarshipTypeID == 0 || rule.ConditionField == "" {
		return apperr.Validation("scholarshipTypeId and conditionField are required")
	}
	if !supportedOperators[rule.Operator] {
		return apperr.Validation("operator %q is not supported", rule.Operator)
	}
	if rule.IsHardRule && rule.IsWarning {
		return apperr.Validation("isHardRule and isWarning are mutually exclusive")
	}
	return nil
}

type copyRulesInput struct {
	FromAcademicYear int  `json:"fromAcademicYear" binding:"required"`
	FromSemester     *int `json:"fromSemester"`
	ToAcademicYear   int  `json:"toAcademicYear" binding:"required"`
	ToSemester       *int `json:"toSemester"`
}

// CopyRules clones one period's rules for a scholarship type into a new
// period, so admins do not re-author the rule set every term.
func (h *ScholarshipHandler) CopyRules(c *gin.Context) {
	typeID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid scholarship type ID"})
		return
	}
	var input copyRulesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := h.DB.Where("scholarship_type_id = ? AND academic_year = ?", typeID, input.FromAcademicYear)
	if input.FromSemester != nil {
		query = query.Where("semester = ?", *input.FromSemester)
	} else {
		query = query.Where("semester IS NULL")
	}
	var rules []models.ScholarshipRule
	if err := query.Find(&rules).Error; err != nil {
		respondError(c, err)
		return
	}
	if len(rules) == 0 {
		respondError(c, apperr.NotFound("no rules found for the source period"))
		return
	}

	copies := make([]models.ScholarshipRule, 0, len(rules))
	for _, rule := range rules {
		rule.ID = 0
		rule.CreatedAt = time.Time{}
		rule.UpdatedAt = time.Time{}
		year := input.ToAcademicYear
		rule.AcademicYear = &year
		rule.Semester = input.ToSemester
		copies = append(copies, rule)
	}
	if err := h.DB.Create(&copies).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"copied": len(copies)})
}

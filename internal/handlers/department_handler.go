// scholarship-system/internal/handlers/department_handler.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/anud18/scholarship-system-sub001/internal/apperr"
	"github.com/anud18/scholarship-system-sub001/models"
)

type DepartmentHandler struct {
	DB *gorm.DB
}

func NewDepartmentHandler(db *gorm.DB) *DepartmentHandler {
	return &DepartmentHandler{DB: db}
}

func (h *DepartmentHandler) List(c *gin.Context) {
	query := h.DB.Model(&models.Department{})
	if academy := c.Query("academyCode"); academy != "" {
		query = query.Where("academy_code = ?", academy)
	}
	var departments []models.Department
	if err := query.Order("code").Find(&departments).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, departments)
}

func (h *DepartmentHandler) Get(c *gin.Context) {
	code := c.Param("code")
	var department models.Department
	if err := h.DB.Where("code = ?", code).First(&department).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, apperr.NotFound("department %s not found", code))
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, department)
}

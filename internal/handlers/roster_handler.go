// scholarship-system/internal/handlers/roster_handler.go
package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/anud18/scholarship-system-sub001/internal/roster"
)

type RosterHandler struct {
	Generator *roster.Generator
}

func NewRosterHandler(generator *roster.Generator) *RosterHandler {
	return &RosterHandler{Generator: generator}
}

// Generate returns the payment roster for one scholarship period as JSON.
func (h *RosterHandler) Generate(c *gin.Context) {
	typeID, year, semester, ok := rosterParams(c)
	if !ok {
		return
	}
	r, err := h.Generator.Generate(typeID, year, semester)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// Export streams the roster as an Excel workbook.
func (h *RosterHandler) Export(c *gin.Context) {
	typeID, year, semester, ok := rosterParams(c)
	if !ok {
		return
	}
	r, err := h.Generator.Generate(typeID, year, semester)
	if err != nil {
		respondError(c, err)
		return
	}
	f, err := roster.ExportXLSX(r)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("roster_%s_%d.xlsx", r.ScholarshipCode, r.AcademicYear)
	if r.Semester != nil {
		filename = fmt.Sprintf("roster_%s_%d_%d.xlsx", r.ScholarshipCode, r.AcademicYear, *r.Semester)
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		respondError(c, err)
	}
}

func rosterParams(c *gin.Context) (uint, int, *int, bool) {
	typeID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid scholarship type ID"})
		return 0, 0, nil, false
	}
	year, err := strconv.Atoi(c.Query("academicYear"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "academicYear is required"})
		return 0, 0, nil, false
	}
	var semester *int
	if raw := c.Query("semester"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "semester must be a number"})
			return 0, 0, nil, false
		}
		semester = &v
	}
	return uint(typeID), year, semester, true
}

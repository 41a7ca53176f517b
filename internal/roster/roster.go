// scholarship-system/internal/roster/roster.go

// Package roster turns the approved applications of one scholarship period
// into a payment roster. Per-sub-type award amounts come from the sub-type's
// stored formula; the export is a plain worksheet (styling belongs to the
// consumers).
package roster

import (
	"fmt"

	"github.com/Knetic/govaluate"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/anud18/scholarship-system-sub001/internal/review"
	"github.com/anud18/scholarship-system-sub001/models"
)

// Entry is one payable line: a student awarded one sub-type.
type Entry struct {
	AppID       string  `json:"appId"`
	StudentNo   string  `json:"studentNo"`
	StudentName string  `json:"studentName"`
	SubTypeCode string  `json:"subTypeCode"`
	Amount      float64 `json:"amount"`
}

// Roster is the generated payment roster for one scholarship period.
type Roster struct {
	ScholarshipCode string  `json:"scholarshipCode"`
	AcademicYear    int     `json:"academicYear"`
	Semester        *int    `json:"semester"`
	Entries         []Entry `json:"entries"`
	Total           float64 `json:"total"`
}

type Generator struct {
	DB *gorm.DB
}

func NewGenerator(db *gorm.DB) *Generator {
	return &Generator{DB: db}
}

// Generate collects the approved applications of the period and prices every
// approved sub-type. A sub-type enters the roster only when its cumulative
// review status is approved, so partially approved applications contribute
// just their surviving sub-types.
func (g *Generator) Generate(scholarshipTypeID uint, academicYear int, semester *int) (*Roster, error) {
	var st models.ScholarshipType
	if err := g.DB.Preload("SubTypes").First(&st, scholarshipTypeID).Error; err != nil {
		return nil, err
	}
	subTypesByCode := make(map[string]models.ScholarshipSubType, len(st.SubTypes))
	for _, sub := range st.SubTypes {
		subTypesByCode[sub.Code] = sub
	}
	finalTier := st.FinalReviewTier.Tier()
	if finalTier == 0 {
		finalTier = models.RoleAdmin.Tier()
	}

	q := g.DB.Preload("User").
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("application_reviews.id") }).
		Preload("Reviews.Items").
		Where("scholarship_type_id = ? AND academic_year = ? AND status IN ?",
			scholarshipTypeID, academicYear,
			[]models.ApplicationStatus{models.StatusApproved, models.StatusPartialApprove})
	if semester == nil {
		q = q.Where("semester IS NULL")
	} else {
		q = q.Where("semester = ?", *semester)
	}

	var apps []models.Application
	if err := q.Order("app_id").Find(&apps).Error; err != nil {
		return nil, err
	}

	roster := &Roster{
		ScholarshipCode: st.Code,
		AcademicYear:    academicYear,
		Semester:        semester,
	}
	for _, app := range apps {
		statuses := review.SubTypeStatuses(app.SubTypeCodes, app.Reviews, finalTier)
		for _, code := range app.SubTypeCodes {
			if statuses[code] != review.SubTypeApproved {
				continue
			}
			sub, ok := subTypesByCode[code]
			if !ok {
				continue
			}
			amount, err := AwardAmount(&sub)
			if err != nil {
				return nil, fmt.Errorf("sub-type %s: %w", code, err)
			}
			roster.Entries = append(roster.Entries, Entry{
				AppID:       app.AppID,
				StudentNo:   app.User.StudentNo,
				StudentName: app.User.Name,
				SubTypeCode: code,
				Amount:      amount,
			})
			roster.Total += amount
		}
	}
	return roster, nil
}

// AwardAmount evaluates the sub-type's amount formula with the parameters
// `base` and `months`. An empty formula means base * months.
func AwardAmount(sub *models.ScholarshipSubType) (float64, error) {
	months := sub.Months
	if months <= 0 {
		months = 1
	}
	if sub.AmountFormula == "" {
		return sub.BaseAmount * float64(months), nil
	}

	expression, err := govaluate.NewEvaluableExpression(sub.AmountFormula)
	if err != nil {
		return 0, fmt.Errorf("invalid amount formula %q: %w", sub.AmountFormula, err)
	}
	result, err := expression.Evaluate(map[string]interface{}{
		"base":   sub.BaseAmount,
		"months": float64(months),
	})
	if err != nil {
		return 0, fmt.Errorf("amount formula %q failed: %w", sub.AmountFormula, err)
	}
	amount, ok := result.(float64)
	if !ok {
		return 0, fmt.Errorf("amount formula %q did not produce a number", sub.AmountFormula)
	}
	return amount, nil
}

// ExportXLSX renders the roster as a workbook.
func ExportXLSX(r *Roster) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{"App ID", "Student No", "Student Name", "Sub-type", "Amount"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for row, entry := range r.Entries {
		values := []interface{}{entry.AppID, entry.StudentNo, entry.StudentName, entry.SubTypeCode, entry.Amount}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	totalCell, _ := excelize.CoordinatesToCellName(5, len(r.Entries)+2)
	if err := f.SetCellValue(sheet, totalCell, r.Total); err != nil {
		return nil, err
	}
	return f, nil
}

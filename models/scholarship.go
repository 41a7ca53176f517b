// scholarship-system/models/scholarship.go

package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ScholarshipType is a scholarship program (e.g. the PhD scholarship).
// Sub-types are its independently reviewable variants.
type ScholarshipType struct {
	gorm.Model
	Code             string               `json:"code" gorm:"uniqueIndex;not null"`
	Name             string               `json:"name" gorm:"not null"`
	Yearly           bool                 `json:"yearly"` // yearly scholarships have no semester
	WhitelistEnabled bool                 `json:"whitelistEnabled"`
	FinalReviewTier  ReviewerRole         `json:"finalReviewTier" gorm:"size:20;default:'admin'"`
	SubTypes         []ScholarshipSubType `json:"subTypes"`
}

// ScholarshipSubType is one variant of a scholarship (e.g. `nstc`, `moe_1w`).
// AmountFormula is a govaluate expression evaluated at roster generation with
// the parameters `base` and `months`; when empty the award is base * months.
type ScholarshipSubType struct {
	gorm.Model
	ScholarshipTypeID uint    `json:"scholarshipTypeId" gorm:"index;not null"`
	Code              string  `json:"code" gorm:"index;not null"`
	Name              string  `json:"name"`
	BaseAmount        float64 `json:"baseAmount"`
	Months            int     `json:"months" gorm:"default:1"`
	AmountFormula     string  `json:"amountFormula"`
}

// ScholarshipConfiguration pins a scholarship type to an academic period:
// application windows and the per-sub-type whitelist. Eligibility is always
// evaluated against one concrete configuration, and its ID travels with the
// result so the application is created against the exact version checked.
type ScholarshipConfiguration struct {
	gorm.Model
	ScholarshipTypeID uint       `json:"scholarshipTypeId" gorm:"index;not null"`
	AcademicYear      int        `json:"academicYear" gorm:"not null"`
	Semester          *int       `json:"semester"` // nil for yearly scholarships
	ApplyStartAt      *time.Time `json:"applyStartAt"`
	ApplyEndAt        *time.Time `json:"applyEndAt"`
	RenewalStartAt    *time.Time `json:"renewalStartAt"`
	RenewalEndAt      *time.Time `json:"renewalEndAt"`

	// Whitelist maps a sub-type code to the list of admitted student numbers.
	// Only consulted when the scholarship type has whitelisting enabled.
	Whitelist datatypes.JSONMap `json:"whitelist"`

	ScholarshipType ScholarshipType `json:"-"`
}

// WhitelistedSubTypes returns the sub-type codes whose whitelist contains the
// given student number.
func (c *ScholarshipConfiguration) WhitelistedSubTypes(studentNo string) []string {
	var codes []string
	for code, raw := range c.Whitelist {
		list, ok := raw.([]interface{})
		if !ok {
			continue
		}
		for _, v := range list {
			if s, ok := v.(string); ok && s == studentNo {
				codes = append(codes, code)
				break
			}
		}
	}
	return codes
}

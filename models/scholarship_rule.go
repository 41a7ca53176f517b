// scholarship-system/models/scholarship_rule.go

package models

import "gorm.io/gorm"

// Rule operators understood by the rule engine.
const (
	OpGTE         = ">="
	OpLTE         = "<="
	OpGT          = ">"
	OpLT          = "<"
	OpEQ          = "=="
	OpNEQ         = "!="
	OpIn          = "in"
	OpNotIn       = "not_in"
	OpContains    = "contains"
	OpNotContains = "not_contains"
)

// ScholarshipRule is a declarative eligibility predicate authored by admins
// per academic period. Rules are read-only to the evaluation process.
//
// A nil SubType applies to every sub-type of the scholarship; nil
// AcademicYear/Semester apply to every period. IsHardRule and IsWarning are
// mutually exclusive; a rule with neither flag still blocks on failure.
type ScholarshipRule struct {
	gorm.Model
	ScholarshipTypeID uint    `json:"scholarshipTypeId" gorm:"index;not null"`
	SubType           *string `json:"subType" gorm:"index"`
	AcademicYear      *int    `json:"academicYear"`
	Semester          *int    `json:"semester"`
	ConditionField    string  `json:"conditionField" gorm:"not null"`
	Operator          string  `json:"operator" gorm:"not null"`
	ExpectedValue     string  `json:"expectedValue"`
	IsHardRule        bool    `json:"isHardRule"`
	IsWarning         bool    `json:"isWarning"`
	Priority          int     `json:"priority"` // higher evaluates/displays first
	Tag               string  `json:"tag"`
}

// AppliesTo reports whether the rule covers the given sub-type and period.
func (r *ScholarshipRule) AppliesTo(subTypeCode string, year int, semester *int) bool {
	if r.SubType != nil && *r.SubType != subTypeCode {
		return false
	}
	if r.AcademicYear != nil && *r.AcademicYear != year {
		return false
	}
	if r.Semester != nil {
		if semester == nil || *r.Semester != *semester {
			return false
		}
	}
	return true
}

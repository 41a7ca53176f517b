// scholarship-system/models/quota_allocation.go

package models

import "gorm.io/gorm"

// QuotaAllocation tracks how many awards of one sub-type are taken for one
// academic period. Allocated is a derived count maintained by the
// redistribution pass after final dispositions.
type QuotaAllocation struct {
	gorm.Model
	ScholarshipTypeID uint   `json:"scholarshipTypeId" gorm:"index;not null"`
	SubTypeCode       string `json:"subTypeCode" gorm:"index;not null"`
	AcademicYear      int    `json:"academicYear" gorm:"not null"`
	Semester          *int   `json:"semester"`
	Quota             int    `json:"quota"`
	Allocated         int    `json:"allocated"`
}

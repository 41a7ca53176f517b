// scholarship-system/models/department.go

package models

// Department maps a department code to its owning college. Used by the batch
// import permission check (imported students must belong to the importing
// college) and kept in sync with the student-records system by an external job.
type Department struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Code        string `json:"code" gorm:"uniqueIndex;not null"`
	Name        string `json:"name"`
	AcademyCode string `json:"academyCode" gorm:"index;not null"` // owning college code
}

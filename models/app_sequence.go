// scholarship-system/models/app_sequence.go

package models

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplicationSequence is the per-period counter behind AppID allocation. The
// row is locked FOR UPDATE while a transaction allocates from it, so
// concurrent imports and interactive submissions for the same period
// serialize instead of colliding. A large batch import therefore blocks
// interactive submissions for that period until it commits; atomicity wins
// over liveness here.
type ApplicationSequence struct {
	ID           uint   `gorm:"primaryKey"`
	AcademicYear int    `gorm:"uniqueIndex:idx_app_seq_period;not null"`
	SemesterCode string `gorm:"uniqueIndex:idx_app_seq_period;size:2;not null"`
	NextNumber   int    `gorm:"not null;default:1"`
}

// SemesterCode renders a nullable semester as the single digit used in AppIDs:
// "1"/"2" for semesters, "0" for yearly scholarships.
func SemesterCode(semester *int) string {
	if semester == nil {
		return "0"
	}
	return fmt.Sprintf("%d", *semester)
}

// AllocateAppIDs reserves count consecutive sequence numbers for the period
// and returns the formatted identifiers. Must be called inside a transaction;
// the sequence row stays locked until that transaction ends. Batch-imported
// identifiers carry a trailing "U".
func AllocateAppIDs(tx *gorm.DB, academicYear int, semester *int, count int, imported bool) ([]string, error) {
	code := SemesterCode(semester)

	var seq ApplicationSequence
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(ApplicationSequence{AcademicYear: academicYear, SemesterCode: code}).
		FirstOrCreate(&seq).Error
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		id := fmt.Sprintf("%d%s%04d", academicYear, code, seq.NextNumber+i)
		if imported {
			id += "U"
		}
		ids = append(ids, id)
	}

	seq.NextNumber += count
	if err := tx.Save(&seq).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// AllocateAppID reserves a single identifier; used by the interactive path.
func AllocateAppID(tx *gorm.DB, academicYear int, semester *int) (string, error) {
	ids, err := AllocateAppIDs(tx, academicYear, semester, 1, false)
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

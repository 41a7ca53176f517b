// scholarship-system/models/application.go

package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// ApplicationStatus is the lifecycle state of an application. Transitions are
// owned by the review workflow; nothing else writes Status directly.
type ApplicationStatus string

const (
	StatusDraft          ApplicationStatus = "draft"
	StatusSubmitted      ApplicationStatus = "submitted"
	StatusUnderReview    ApplicationStatus = "under_review"
	StatusRecommended    ApplicationStatus = "recommended"
	StatusPartialApprove ApplicationStatus = "partial_approve"
	StatusApproved       ApplicationStatus = "approved"
	StatusRejected       ApplicationStatus = "rejected"
	StatusReturned       ApplicationStatus = "returned"
	StatusWithdrawn      ApplicationStatus = "withdrawn"
	StatusCancelled      ApplicationStatus = "cancelled"
	StatusDeleted        ApplicationStatus = "deleted"
)

// InactiveStatuses are the states that release the one-active-application slot
// for a (user, scholarship, period) tuple. An approved application still holds
// the slot, so a second application for the same period is a duplicate.
var InactiveStatuses = []ApplicationStatus{
	StatusWithdrawn, StatusRejected, StatusCancelled, StatusDeleted,
}

// statusTransitions is the set of direct transitions the staff status
// endpoint may perform. Review submissions derive status from history and do
// not consult this table; withdraw/delete/restore carry their own guards.
var statusTransitions = map[ApplicationStatus][]ApplicationStatus{
	StatusDraft:          {StatusSubmitted, StatusCancelled, StatusDeleted},
	StatusSubmitted:      {StatusUnderReview, StatusReturned, StatusWithdrawn, StatusCancelled, StatusDeleted},
	StatusUnderReview:    {StatusRecommended, StatusPartialApprove, StatusApproved, StatusRejected, StatusReturned, StatusWithdrawn, StatusCancelled, StatusDeleted},
	StatusRecommended:    {StatusPartialApprove, StatusApproved, StatusRejected, StatusReturned, StatusWithdrawn, StatusCancelled, StatusDeleted},
	StatusPartialApprove: {StatusApproved, StatusRejected, StatusUnderReview, StatusWithdrawn, StatusCancelled, StatusDeleted},
	StatusReturned:       {StatusSubmitted, StatusCancelled, StatusDeleted},
	StatusApproved:       {StatusCancelled},
	StatusRejected:       {},
	StatusWithdrawn:      {},
	StatusCancelled:      {},
	StatusDeleted:        {StatusDraft},
}

// IsValid reports membership in the closed status set.
func (s ApplicationStatus) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionTo reports whether the direct transition s -> next is allowed.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Reviewable reports whether reviews may still be submitted in this state.
func (s ApplicationStatus) Reviewable() bool {
	switch s {
	case StatusSubmitted, StatusUnderReview, StatusRecommended, StatusPartialApprove:
		return true
	}
	return false
}

// Withdrawable reports whether the owning student may withdraw from this state.
func (s ApplicationStatus) Withdrawable() bool {
	return s.Reviewable()
}

// Application is the central entity: one student's application to one
// scholarship for one academic period.
//
// AppID is the human-readable identifier `{year}{semester-code}{sequence}`
// with a trailing "U" for batch-imported records. StudentData is the snapshot
// of student-records attributes taken at submission time; FormData holds the
// applicant-entered fields and document references.
type Application struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	AppID string `json:"appId" gorm:"uniqueIndex;size:32;not null"`

	UserID            uint           `json:"userId" gorm:"index;not null"`
	ScholarshipTypeID uint           `json:"scholarshipTypeId" gorm:"index;not null"`
	ConfigurationID   *uint          `json:"configurationId"`
	SubTypeCodes      pq.StringArray `json:"subTypeCodes" gorm:"type:text[]"`

	AcademicYear int  `json:"academicYear" gorm:"index;not null"`
	Semester     *int `json:"semester"` // nil for yearly scholarships

	Status    ApplicationStatus `json:"status" gorm:"size:20;index;not null;default:'draft'"`
	IsRenewal bool              `json:"isRenewal"`

	StudentData datatypes.JSON `json:"studentData"`
	FormData    datatypes.JSON `json:"formData"`

	// DecisionReason accumulates rejection reasons across the whole review
	// history; it is appended to, never overwritten.
	DecisionReason string `json:"decisionReason" gorm:"type:text"`

	BatchImportID *uint `json:"batchImportId" gorm:"index"`

	SubmittedAt   *time.Time `json:"submittedAt"`
	RemovedAt     *time.Time `json:"removedAt"` // soft delete, reversible via restore
	RemovedByID   *uint      `json:"removedById"`
	RemovedReason string     `json:"removedReason"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	User    User                `json:"-"`
	Reviews []ApplicationReview `json:"-"`
}

// HasSubType reports whether the application lists the given sub-type code.
func (a *Application) HasSubType(code string) bool {
	for _, c := range a.SubTypeCodes {
		if c == code {
			return true
		}
	}
	return false
}

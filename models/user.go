// scholarship-system/models/user.go

package models

import (
	"gorm.io/gorm"
)

// ReviewerRole is the closed set of roles that take part in the review chain.
// The ordering professor < college < admin is load-bearing: a sub-type rejected
// by a lower tier disappears from every higher tier's reviewable set.
type ReviewerRole string

const (
	RoleStudent    ReviewerRole = "student"
	RoleProfessor  ReviewerRole = "professor"
	RoleCollege    ReviewerRole = "college"
	RoleAdmin      ReviewerRole = "admin"
	RoleSuperAdmin ReviewerRole = "super_admin"
)

// Tier returns the position of the role in the review chain.
// Non-reviewing roles (students) are tier 0. Super-admins review at the
// admin tier.
func (r ReviewerRole) Tier() int {
	switch r {
	case RoleProfessor:
		return 1
	case RoleCollege:
		return 2
	case RoleAdmin, RoleSuperAdmin:
		return 3
	}
	return 0
}

// IsStaff reports whether the role may act on applications it does not own.
func (r ReviewerRole) IsStaff() bool {
	return r == RoleCollege || r == RoleAdmin || r == RoleSuperAdmin
}

// User represents an account in the system: students as well as reviewing
// staff. Students are identified externally by StudentNo; staff by Login.
type User struct {
	gorm.Model
	Login          string       `json:"login" gorm:"uniqueIndex;not null"`
	PasswordHash   string       `json:"-"`
	Name           string       `json:"name"`
	Email          string       `json:"email"`
	Role           ReviewerRole `json:"role" gorm:"size:20;not null;default:'student'"`
	StudentNo      string       `json:"studentNo" gorm:"index"`
	DepartmentCode string       `json:"departmentCode"`
	CollegeCode    string       `json:"collegeCode"`
}

// scholarship-system/internal/eligibility/evaluator.go

// Package eligibility decides whether a student may start an application and
// which sub-types they qualify for. Three gates run before any rule
// evaluation: the application window, the whitelist, and the duplicate check.
package eligibility

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/anud18/scholarship-system-sub001/internal/apperr"
	"github.com/anud18/scholarship-system-sub001/internal/rules"
	"github.com/anud18/scholarship-system-sub001/models"
)

// StudentDirectory is the external student-records API. Unavailability must
// degrade individual rule outcomes, never abort an evaluation.
type StudentDirectory interface {
	GetStudentAttributes(ctx context.Context, studentNo string) (map[string]any, error)
}

// Evaluator orchestrates the rule engine across all sub-types of a
// scholarship configuration.
type Evaluator struct {
	DB       *gorm.DB
	Students StudentDirectory
}

func NewEvaluator(db *gorm.DB, students StudentDirectory) *Evaluator {
	return &Evaluator{DB: db, Students: students}
}

// SubTypeResult reports one sub-type's eligibility with reasons. Warnings
// never exclude a sub-type; they are surfaced for display.
type SubTypeResult struct {
	Code        string             `json:"code"`
	Eligible    bool               `json:"eligible"`
	Whitelisted bool               `json:"whitelisted"`
	Passed      []rules.RuleResult `json:"passed"`
	Warnings    []rules.RuleResult `json:"warnings"`
	FailedRules []rules.RuleResult `json:"failedRules"`
}

// Result is the full eligibility decision. ConfigurationID identifies the
// exact configuration version the decision was made against; application
// creation must reference it.
type Result struct {
	CanApply        bool            `json:"canApply"`
	Reason          string          `json:"reason,omitempty"`
	ExistingAppID   string          `json:"existingAppId,omitempty"`
	ConfigurationID uint            `json:"configurationId"`
	SubTypes        []SubTypeResult `json:"perSubType"`
}

// Evaluate runs the gates and, when they pass, the rule engine per sub-type.
// A missing configuration is the only hard failure; everything else produces
// a completed decision.
func (e *Evaluator) Evaluate(ctx context.Context, user *models.User, scholarshipTypeID uint, academicYear int, semester *int) (*Result, error) {
	var st models.ScholarshipType
	if err := e.DB.Preload("SubTypes").First(&st, scholarshipTypeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("scholarship type %d not found", scholarshipTypeID)
		}
		return nil, err
	}

	var cfg models.ScholarshipConfiguration
	q := e.DB.Where("scholarship_type_id = ? AND academic_year = ?", scholarshipTypeID, academicYear)
	if semester == nil {
		q = q.Where("semester IS NULL")
	} else {
		q = q.Where("semester = ?", *semester)
	}
	if err := q.First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("no configuration for scholarship %s in year %d", st.Code, academicYear)
		}
		return nil, err
	}

	result := &Result{ConfigurationID: cfg.ID}

	// Gate 1: application period. Outside the window nothing else runs.
	if !WithinWindow(&cfg, time.Now()) {
		result.Reason = "outside the application period"
		return result, nil
	}

	// Gate 2: whitelist.
	whitelisted := WhitelistedSubTypes(&st, &cfg, st.SubTypes, user.StudentNo)
	if st.WhitelistEnabled && len(whitelisted) == 0 {
		result.Reason = "student is not on the whitelist for any sub-type"
		return result, nil
	}

	// Gate 3: one active application per (user, scholarship, period).
	existing, err := e.findActiveApplication(user.ID, scholarshipTypeID, academicYear, semester)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		result.Reason = "an active application already exists for this period"
		result.ExistingAppID = existing.AppID
		return result, nil
	}

	attrs := e.studentAttributes(ctx, user.StudentNo)

	var ruleRows []models.ScholarshipRule
	if err := e.DB.Where("scholarship_type_id = ?", scholarshipTypeID).Find(&ruleRows).Error; err != nil {
		return nil, err
	}

	for _, sub := range st.SubTypes {
		sr := EvaluateSubType(sub.Code, attrs, applicableRules(ruleRows, sub.Code, academicYear, semester))
		sr.Whitelisted = whitelisted[sub.Code]
		if st.WhitelistEnabled && !sr.Whitelisted {
			sr.Eligible = false
		}
		result.SubTypes = append(result.SubTypes, sr)
		if sr.Eligible {
			result.CanApply = true
		}
	}

	// A scholarship without sub-types is applied to directly once the base
	// gates pass.
	if len(st.SubTypes) == 0 {
		result.CanApply = true
	}
	if !result.CanApply && result.Reason == "" {
		result.Reason = "no sub-type passed the eligibility rules"
	}
	return result, nil
}

// studentAttributes fetches the snapshot, degrading to an empty map when the
// directory is down; affected rules then evaluate as unsatisfied.
func (e *Evaluator) studentAttributes(ctx context.Context, studentNo string) map[string]any {
	if e.Students == nil {
		return map[string]any{}
	}
	attrs, err := e.Students.GetStudentAttributes(ctx, studentNo)
	if err != nil {
		slog.Warn("student directory unavailable, rules will see no attributes",
			"student_no", studentNo, "error", err)
		return map[string]any{}
	}
	return attrs
}

func (e *Evaluator) findActiveApplication(userID, scholarshipTypeID uint, academicYear int, semester *int) (*models.Application, error) {
	var app models.Application
	q := e.DB.Where("user_id = ? AND scholarship_type_id = ? AND academic_year = ? AND status NOT IN ?",
		userID, scholarshipTypeID, academicYear, models.InactiveStatuses)
	if semester == nil {
		q = q.Where("semester IS NULL")
	} else {
		q = q.Where("semester = ?", *semester)
	}
	err := q.First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// WithinWindow reports whether now falls inside the general or renewal
// application window of the configuration.
func WithinWindow(cfg *models.ScholarshipConfiguration, now time.Time) bool {
	in := func(start, end *time.Time) bool {
		return start != nil && end != nil && !now.Before(*start) && !now.After(*end)
	}
	return in(cfg.ApplyStartAt, cfg.ApplyEndAt) || in(cfg.RenewalStartAt, cfg.RenewalEndAt)
}

// WhitelistedSubTypes returns the set of sub-type codes the student may apply
// to. With whitelisting disabled every sub-type qualifies.
func WhitelistedSubTypes(st *models.ScholarshipType, cfg *models.ScholarshipConfiguration, subTypes []models.ScholarshipSubType, studentNo string) map[string]bool {
	out := make(map[string]bool, len(subTypes))
	if !st.WhitelistEnabled {
		for _, sub := range subTypes {
			out[sub.Code] = true
		}
		return out
	}
	for _, code := range cfg.WhitelistedSubTypes(studentNo) {
		out[code] = true
	}
	return out
}

// EvaluateSubType runs the rule engine for one sub-type. Eligible iff zero
// rules classified as errors; warnings are carried through untouched.
func EvaluateSubType(code string, attrs map[string]any, ruleRows []models.ScholarshipRule) SubTypeResult {
	res := rules.Evaluate(attrs, ruleRows)
	return SubTypeResult{
		Code:        code,
		Eligible:    len(res.Errors) == 0,
		Passed:      res.Passed,
		Warnings:    res.Warnings,
		FailedRules: res.Errors,
	}
}

// applicableRules filters rule rows down to one sub-type and period:
// sub-type-specific or universal, period-specific or universal.
func applicableRules(all []models.ScholarshipRule, code string, year int, semester *int) []models.ScholarshipRule {
	var out []models.ScholarshipRule
	for _, r := range all {
		if r.AppliesTo(code, year, semester) {
			out = append(out, r)
		}
	}
	return out
}

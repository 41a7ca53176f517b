// scholarship-system/internal/review/workflow.go

// Package review implements the multi-role review state machine for
// applications: reviewable-set computation under cascading rejection,
// submission validation, cumulative status derivation, and the
// soft-delete/restore/withdraw transitions.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/anud18/scholarship-system-sub001/internal/apperr"
	"github.com/anud18/scholarship-system-sub001/models"
)

// Redistributor reallocates ranked quota after an application reaches a final
// disposition. It is an external collaborator: its result is surfaced to the
// caller but never feeds back into workflow state.
type Redistributor interface {
	AutoRedistributeAfterStatusChange(ctx context.Context, applicationID, executorID uint) (map[string]any, error)
}

// AuditLogger records state transitions. Implementations must be
// fire-and-forget; the workflow never checks their outcome.
type AuditLogger interface {
	Log(applicationID uint, action string, actorID uint, before, after any, description string)
}

// Workflow is the authoritative owner of Application.status transitions.
type Workflow struct {
	DB            *gorm.DB
	Redistributor Redistributor
	Audit         AuditLogger
}

func NewWorkflow(db *gorm.DB, redistributor Redistributor, audit AuditLogger) *Workflow {
	return &Workflow{DB: db, Redistributor: redistributor, Audit: audit}
}

func (w *Workflow) loadApplication(id uint) (*models.Application, error) {
	var app models.Application
	err := w.DB.Preload("Reviews", func(db *gorm.DB) *gorm.DB {
		return db.Order("application_reviews.id")
	}).Preload("Reviews.Items").First(&app, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("application %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (w *Workflow) finalTier(scholarshipTypeID uint) (int, error) {
	var st models.ScholarshipType
	if err := w.DB.First(&st, scholarshipTypeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.NotFound("scholarship type %d not found", scholarshipTypeID)
		}
		return 0, err
	}
	tier := st.FinalReviewTier.Tier()
	if tier == 0 {
		tier = models.RoleAdmin.Tier()
	}
	return tier, nil
}

// ReviewableSubTypesFor returns the sub-types the role may still review on
// this application, honoring cascading exclusion.
func (w *Workflow) ReviewableSubTypesFor(appID uint, role models.ReviewerRole) ([]string, error) {
	app, err := w.loadApplication(appID)
	if err != nil {
		return nil, err
	}
	return ReviewableSubTypes(role, app.SubTypeCodes, app.Reviews), nil
}

// SubmitResult is what a review submission hands back to the API layer.
type SubmitResult struct {
	Review         models.ApplicationReview `json:"review"`
	Status         models.ApplicationStatus `json:"updatedApplicationStatus"`
	Redistribution map[string]any           `json:"redistributionInfo,omitempty"`
}

// SubmitReview validates and persists one review submission, then recomputes
// the application's status from the full history. Validation completes before
// any write; the review row, decision-reason append and status update share
// one transaction.
//
// Concurrent submissions for the same sub-type are not serialized beyond the
// database transaction itself: the last write governs the cumulative status.
// This is a documented, accepted race, not an oversight.
func (w *Workflow) SubmitReview(ctx context.Context, appID uint, reviewer *models.User, items []ItemInput) (*SubmitResult, error) {
	if reviewer.Role.Tier() == 0 {
		return nil, apperr.Authorization("role %q may not review applications", reviewer.Role)
	}

	app, err := w.loadApplication(appID)
	if err != nil {
		return nil, err
	}
	if !app.Status.Reviewable() {
		return nil, apperr.Conflict("application %s cannot be reviewed in status %q", app.AppID, app.Status)
	}

	finalTier, err := w.finalTier(app.ScholarshipTypeID)
	if err != nil {
		return nil, err
	}

	reviewable := ReviewableSubTypes(reviewer.Role, app.SubTypeCodes, app.Reviews)
	if err := ValidateItems(items, reviewable); err != nil {
		return nil, err
	}

	reviewItems := make([]models.ApplicationReviewItem, len(items))
	for i, in := range items {
		reviewItems[i] = models.ApplicationReviewItem{
			SubTypeCode:    in.SubTypeCode,
			Recommendation: in.Recommendation,
			Comments:       strings.TrimSpace(in.Comments),
		}
	}

	rev := models.ApplicationReview{
		ApplicationID:  app.ID,
		ReviewerID:     reviewer.ID,
		ReviewerRole:   reviewer.Role,
		Recommendation: AggregateRecommendation(reviewItems),
		Comments:       CombineComments(reviewItems),
		ReviewedAt:     time.Now(),
		Items:          reviewItems,
	}

	prevStatus := app.Status

	tx := w.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	if err := tx.Create(&rev).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	updates := map[string]any{}

	if reasons := RejectionReasons(reviewItems); len(reasons) > 0 {
		reason := app.DecisionReason
		if reason != "" {
			reason += "\n"
		}
		reason += strings.Join(reasons, "\n")
		updates["decision_reason"] = reason
		app.DecisionReason = reason
	}

	history := append(app.Reviews, rev)
	newStatus := DeriveStatus(app.SubTypeCodes, history, finalTier)
	updates["status"] = newStatus

	if err := tx.Model(&models.Application{}).Where("id = ?", app.ID).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if newStatus != prevStatus && (newStatus == models.StatusApproved || newStatus == models.StatusRejected) {
		notif := models.Notification{
			UserID:        app.UserID,
			ApplicationID: &app.ID,
			Title:         fmt.Sprintf("Application %s %s", app.AppID, newStatus),
			Body:          app.DecisionReason,
		}
		if err := tx.Create(&notif).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	app.Status = newStatus

	result := &SubmitResult{Review: rev, Status: newStatus}
	if newStatus != prevStatus && (newStatus == models.StatusApproved || newStatus == models.StatusRejected) {
		result.Redistribution = w.redistribute(ctx, app.ID, reviewer.ID)
	}

	if w.Audit != nil {
		w.Audit.Log(app.ID, "review_submitted", reviewer.ID,
			map[string]any{"status": prevStatus},
			map[string]any{"status": newStatus, "recommendation": rev.Recommendation},
			fmt.Sprintf("%s review by user %d", reviewer.Role, reviewer.ID))
	}
	return result, nil
}

// redistribute invokes the quota collaborator exactly once per qualifying
// transition. Failures are surfaced in the response payload only.
func (w *Workflow) redistribute(ctx context.Context, appID, executorID uint) map[string]any {
	if w.Redistributor == nil {
		return nil
	}
	info, err := w.Redistributor.AutoRedistributeAfterStatusChange(ctx, appID, executorID)
	if err != nil {
		slog.Warn("quota redistribution failed", "application_id", appID, "error", err)
		return map[string]any{"auto_redistributed": false, "error": err.Error()}
	}
	return info
}

// UpdateStatus is the direct staff-facing status endpoint. The target status
// must be a member of the closed status set and a legal transition from the
// current state; approvals and rejections carry the same notification and
// redistribution side effects as review submissions.
func (w *Workflow) UpdateStatus(ctx context.Context, appID uint, actor *models.User, status models.ApplicationStatus) (*SubmitResult, error) {
	if !actor.Role.IsStaff() {
		return nil, apperr.Authorization("role %q may not change application status directly", actor.Role)
	}
	if !status.IsValid() {
		return nil, apperr.Validation("unknown application status %q", status)
	}

	app, err := w.loadApplication(appID)
	if err != nil {
		return nil, err
	}
	prev := app.Status
	if status == prev {
		return &SubmitResult{Status: status}, nil
	}
	if !prev.CanTransitionTo(status) {
		return nil, apperr.Conflict("application %s cannot move from %q to %q", app.AppID, prev, status)
	}

	tx := w.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Model(&models.Application{}).Where("id = ?", app.ID).
		Update("status", status).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if status == models.StatusApproved || status == models.StatusRejected {
		notif := models.Notification{
			UserID:        app.UserID,
			ApplicationID: &app.ID,
			Title:         fmt.Sprintf("Application %s %s", app.AppID, status),
			Body:          app.DecisionReason,
		}
		if err := tx.Create(&notif).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	result := &SubmitResult{Status: status}
	if status == models.StatusApproved || status == models.StatusRejected {
		result.Redistribution = w.redistribute(ctx, app.ID, actor.ID)
	}
	if w.Audit != nil {
		w.Audit.Log(app.ID, "status_updated", actor.ID,
			map[string]any{"status": prev}, map[string]any{"status": status}, "direct status update")
	}
	return result, nil
}

// Withdraw lets the owning student retire a submitted application. Withdrawal
// is terminal; only soft deletion is reversible.
func (w *Workflow) Withdraw(ctx context.Context, appID uint, actor *models.User) error {
	app, err := w.loadApplication(appID)
	if err != nil {
		return err
	}
	if app.UserID != actor.ID {
		return apperr.Authorization("only the owning student may withdraw application %s", app.AppID)
	}
	if !app.Status.Withdrawable() {
		return apperr.Conflict("application %s cannot be withdrawn from status %q", app.AppID, app.Status)
	}

	if err := w.DB.Model(&models.Application{}).Where("id = ?", app.ID).
		Update("status", models.StatusWithdrawn).Error; err != nil {
		return err
	}
	if w.Audit != nil {
		w.Audit.Log(app.ID, "withdrawn", actor.ID,
			map[string]any{"status": app.Status}, map[string]any{"status": models.StatusWithdrawn}, "")
	}
	return nil
}

// SoftDelete marks an application deleted without removing the row. Students
// may delete only their own drafts and need no reason; staff may delete any
// application but must say why.
func (w *Workflow) SoftDelete(ctx context.Context, appID uint, actor *models.User, reason string) error {
	app, err := w.loadApplication(appID)
	if err != nil {
		return err
	}

	if actor.Role.IsStaff() {
		if strings.TrimSpace(reason) == "" {
			return apperr.Validation("a reason is required when staff delete application %s", app.AppID)
		}
	} else {
		if app.UserID != actor.ID {
			return apperr.Authorization("application %s does not belong to you", app.AppID)
		}
		if app.Status != models.StatusDraft {
			return apperr.Conflict("students may only delete draft applications; %s is %q", app.AppID, app.Status)
		}
	}

	now := time.Now()
	prev := app.Status
	err = w.DB.Model(&models.Application{}).Where("id = ?", app.ID).Updates(map[string]any{
		"status":         models.StatusDeleted,
		"removed_at":     now,
		"removed_by_id":  actor.ID,
		"removed_reason": strings.TrimSpace(reason),
	}).Error
	if err != nil {
		return err
	}
	if w.Audit != nil {
		w.Audit.Log(app.ID, "deleted", actor.ID,
			map[string]any{"status": prev}, map[string]any{"status": models.StatusDeleted}, reason)
	}
	return nil
}

// Restore reverses a soft delete back to draft. Allowed for the owning
// student or any staff role; the deleted -> draft transition is always
// audit-logged.
func (w *Workflow) Restore(ctx context.Context, appID uint, actor *models.User) error {
	app, err := w.loadApplication(appID)
	if err != nil {
		return err
	}
	if app.Status != models.StatusDeleted {
		return apperr.Conflict("application %s is not deleted", app.AppID)
	}
	if !actor.Role.IsStaff() && app.UserID != actor.ID {
		return apperr.Authorization("application %s does not belong to you", app.AppID)
	}

	err = w.DB.Model(&models.Application{}).Where("id = ?", app.ID).Updates(map[string]any{
		"status":         models.StatusDraft,
		"removed_at":     nil,
		"removed_by_id":  nil,
		"removed_reason": "",
	}).Error
	if err != nil {
		return err
	}
	if w.Audit != nil {
		w.Audit.Log(app.ID, "restored", actor.ID,
			map[string]any{"status": models.StatusDeleted}, map[string]any{"status": models.StatusDraft},
			"deleted -> draft")
	}
	return nil
}

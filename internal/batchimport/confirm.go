// scholarship-system/internal/batchimport/confirm.go

package batchimport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/anud18/scholarship-system-sub001/internal/apperr"
	"github.com/anud18/scholarship-system-sub001/models"
)

// ConfirmResult summarizes a finished confirm call.
type ConfirmResult struct {
	ImportStatus          models.BatchImportStatus `json:"importStatus"`
	CreatedApplicationIDs []string                 `json:"createdApplicationIds"`
	Errors                []models.RowError        `json:"errors,omitempty"`
}

// Confirm finalizes a pending batch. confirm=false cancels it without creating
// anything. confirm=true materializes every staged, non-deleted,
// hard-error-free row into an Application in one transaction: the per-period
// sequence row is locked for the whole transaction, and any failure rolls the
// entire batch back and marks it failed. No partial application rows survive.
func (p *Pipeline) Confirm(ctx context.Context, batchID uint, confirm bool, importer *models.User) (*ConfirmResult, error) {
	batch, err := p.Load(batchID)
	if err != nil {
		return nil, err
	}
	if batch.ImportStatus != models.BatchPending {
		return nil, apperr.Conflict("batch %d is %s and cannot be confirmed", batch.ID, batch.ImportStatus)
	}

	if !confirm {
		if err := p.setStatus(batch.ID, models.BatchCancelled, nil); err != nil {
			return nil, err
		}
		return &ConfirmResult{ImportStatus: models.BatchCancelled}, nil
	}

	// The retention purge clears parsed_data of stale pending batches;
	// confirming an empty blob would complete with zero rows.
	if stagedExpired(batch) {
		return nil, apperr.Conflict("batch %d staged data has expired; upload the file again", batch.ID)
	}

	staged, err := batch.DecodeStagedData()
	if err != nil {
		return nil, err
	}

	if err := p.setStatus(batch.ID, models.BatchProcessing, nil); err != nil {
		return nil, err
	}

	// Rows carrying hard validation errors are excluded up front and counted
	// as failed; they were reported during the preview cycle.
	errorRows := make(map[int]bool, len(staged.Errors))
	for _, e := range staged.Errors {
		errorRows[e.Row] = true
	}
	var rows []models.StagedRow
	skipped := 0
	for _, row := range staged.Data {
		if row.Deleted {
			continue
		}
		if errorRows[row.RowNumber] {
			skipped++
			continue
		}
		rows = append(rows, row)
	}

	created, failRow, err := p.materialize(ctx, batch, rows)
	if err != nil {
		summary := fmt.Sprintf("processing stopped at row %d: %v", failRow, err)
		if statusErr := p.setStatusCounts(batch.ID, models.BatchFailed, summary, 0, len(rows)+skipped); statusErr != nil {
			slog.Error("failed to mark batch as failed", "batch_id", batch.ID, "error", statusErr)
		}
		return nil, &apperr.BatchImportError{BatchID: batch.ID, Row: failRow, Err: err}
	}

	status := models.BatchCompleted
	if skipped > 0 {
		status = models.BatchPartial
	}
	if err := p.setStatusCounts(batch.ID, status, "", len(created), skipped); err != nil {
		return nil, err
	}

	return &ConfirmResult{
		ImportStatus:          status,
		CreatedApplicationIDs: created,
		Errors:                staged.Errors,
	}, nil
}

// stagedExpired reports whether the batch once held staged rows that the
// retention purge has since cleared.
func stagedExpired(batch *models.BatchImport) bool {
	return len(batch.ParsedData) == 0 && batch.TotalRecords > 0
}

// materialize creates all application rows in one transaction. The returned
// row number identifies where processing stopped when err is non-nil.
func (p *Pipeline) materialize(ctx context.Context, batch *models.BatchImport, rows []models.StagedRow) ([]string, int, error) {
	if len(rows) == 0 {
		return nil, 0, nil
	}

	tx := p.DB.Begin()
	if tx.Error != nil {
		return nil, 0, tx.Error
	}

	users, err := p.findOrCreateUsers(tx, rows)
	if err != nil {
		tx.Rollback()
		return nil, rows[0].RowNumber, err
	}

	// Holding the sequence lock for the whole batch serializes concurrent
	// imports and interactive submissions for this period.
	appIDs, err := models.AllocateAppIDs(tx, batch.AcademicYear, batch.Semester, len(rows), true)
	if err != nil {
		tx.Rollback()
		return nil, rows[0].RowNumber, err
	}

	created := make([]string, 0, len(rows))
	for i, row := range rows {
		user, ok := users[row.StudentNo]
		if !ok {
			tx.Rollback()
			return nil, row.RowNumber, fmt.Errorf("user for student %s was not materialized", row.StudentNo)
		}

		formData, err := json.Marshal(row.Fields)
		if err != nil {
			tx.Rollback()
			return nil, row.RowNumber, err
		}

		// Offline-collected data is pre-vetted: imported applications skip
		// draft and enter review directly.
		app := models.Application{
			AppID:             appIDs[i],
			UserID:            user.ID,
			ScholarshipTypeID: batch.ScholarshipTypeID,
			SubTypeCodes:      pq.StringArray(row.SubTypes),
			AcademicYear:      batch.AcademicYear,
			Semester:          batch.Semester,
			Status:            models.StatusUnderReview,
			FormData:          formData,
			BatchImportID:     &batch.ID,
		}
		if err := tx.Create(&app).Error; err != nil {
			tx.Rollback()
			return nil, row.RowNumber, err
		}
		created = append(created, app.AppID)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, rows[len(rows)-1].RowNumber, err
	}
	return created, 0, nil
}

// findOrCreateUsers resolves every row's student to a user account with one
// lookup query and at most one bulk insert.
func (p *Pipeline) findOrCreateUsers(tx *gorm.DB, rows []models.StagedRow) (map[string]models.User, error) {
	studentNos := make([]string, 0, len(rows))
	for _, row := range rows {
		studentNos = append(studentNos, row.StudentNo)
	}

	var existing []models.User
	if err := tx.Where("student_no IN ?", studentNos).Find(&existing).Error; err != nil {
		return nil, err
	}
	users := make(map[string]models.User, len(rows))
	for _, u := range existing {
		users[u.StudentNo] = u
	}

	var missing []models.User
	hash := ""
	for _, row := range rows {
		if _, ok := users[row.StudentNo]; ok {
			continue
		}
		if hash == "" {
			// One bcrypt run per batch. Imported accounts get an unguessable
			// throwaway password; students sign in through SSO.
			h, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
			if err != nil {
				return nil, err
			}
			hash = string(h)
		}
		missing = append(missing, models.User{
			Login:          row.StudentNo,
			PasswordHash:   hash,
			Name:           row.StudentName,
			Role:           models.RoleStudent,
			StudentNo:      row.StudentNo,
			DepartmentCode: row.DepartmentCode,
		})
		users[row.StudentNo] = models.User{} // placeholder until inserted
	}

	if len(missing) > 0 {
		if err := tx.Create(&missing).Error; err != nil {
			return nil, err
		}
		for _, u := range missing {
			users[u.StudentNo] = u
		}
	}
	return users, nil
}

func (p *Pipeline) setStatus(batchID uint, status models.BatchImportStatus, summary *string) error {
	updates := map[string]any{"import_status": status}
	if summary != nil {
		updates["error_summary"] = *summary
	}
	return p.DB.Model(&models.BatchImport{}).Where("id = ?", batchID).Updates(updates).Error
}

func (p *Pipeline) setStatusCounts(batchID uint, status models.BatchImportStatus, summary string, success, failed int) error {
	return p.DB.Model(&models.BatchImport{}).Where("id = ?", batchID).Updates(map[string]any{
		"import_status": status,
		"error_summary": summary,
		"success_count": success,
		"failed_count":  failed,
	}).Error
}

// scholarship-system/internal/batchimport/staging.go

package batchimport

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/anud18/scholarship-system-sub001/internal/apperr"
	"github.com/anud18/scholarship-system-sub001/models"
)

// loadPending fetches a batch and enforces the staging invariant: ParsedData
// is editable only while the batch is still pending.
func (p *Pipeline) loadPending(batchID uint) (*models.BatchImport, error) {
	batch, err := p.Load(batchID)
	if err != nil {
		return nil, err
	}
	if batch.ImportStatus != models.BatchPending {
		return nil, apperr.Conflict("batch %d is %s and can no longer be edited", batch.ID, batch.ImportStatus)
	}
	return batch, nil
}

// Load fetches a batch by ID.
func (p *Pipeline) Load(batchID uint) (*models.BatchImport, error) {
	var batch models.BatchImport
	if err := p.DB.First(&batch, batchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("batch import %d not found", batchID)
		}
		return nil, err
	}
	return &batch, nil
}

// RecordEdit is the editable subset of one staged row.
type RecordEdit struct {
	StudentNo      *string         `json:"studentNo"`
	StudentName    *string         `json:"studentName"`
	DepartmentCode *string         `json:"departmentCode"`
	SubTypes       *[]string       `json:"subTypes"`
	Fields         *map[string]any `json:"fields"`
}

// EditRecord updates one staged row by index and revalidates the whole batch.
func (p *Pipeline) EditRecord(ctx context.Context, batchID uint, index int, edit RecordEdit, importer *models.User) (*models.StagedData, error) {
	batch, err := p.loadPending(batchID)
	if err != nil {
		return nil, err
	}
	staged, err := batch.DecodeStagedData()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(staged.Data) {
		return nil, apperr.Validation("record index %d is out of range (batch has %d records)", index, len(staged.Data))
	}

	row := &staged.Data[index]
	if edit.StudentNo != nil {
		row.StudentNo = strings.TrimSpace(*edit.StudentNo)
	}
	if edit.StudentName != nil {
		row.StudentName = strings.TrimSpace(*edit.StudentName)
	}
	if edit.DepartmentCode != nil {
		row.DepartmentCode = strings.TrimSpace(*edit.DepartmentCode)
	}
	if edit.SubTypes != nil {
		codes := make([]string, 0, len(*edit.SubTypes))
		for _, c := range *edit.SubTypes {
			codes = append(codes, strings.ToLower(strings.TrimSpace(c)))
		}
		row.SubTypes = codes
	}
	if edit.Fields != nil {
		row.Fields = *edit.Fields
	}

	return p.saveStaged(ctx, batch, staged, importer)
}

// DeleteRecord marks one staged row deleted. The row stays in the blob so row
// numbering remains stable; confirm skips it.
func (p *Pipeline) DeleteRecord(ctx context.Context, batchID uint, index int, importer *models.User) (*models.StagedData, error) {
	batch, err := p.loadPending(batchID)
	if err != nil {
		return nil, err
	}
	staged, err := batch.DecodeStagedData()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(staged.Data) {
		return nil, apperr.Validation("record index %d is out of range (batch has %d records)", index, len(staged.Data))
	}
	staged.Data[index].Deleted = true

	return p.saveStaged(ctx, batch, staged, importer)
}

// Revalidate re-runs bulk validation against the current staged rows.
func (p *Pipeline) Revalidate(ctx context.Context, batchID uint, importer *models.User) (*models.StagedData, error) {
	batch, err := p.loadPending(batchID)
	if err != nil {
		return nil, err
	}
	staged, err := batch.DecodeStagedData()
	if err != nil {
		return nil, err
	}
	return p.saveStaged(ctx, batch, staged, importer)
}

// saveStaged revalidates and persists the staging blob. import_status never
// changes here; only Confirm moves the batch forward.
func (p *Pipeline) saveStaged(ctx context.Context, batch *models.BatchImport, staged *models.StagedData, importer *models.User) (*models.StagedData, error) {
	if err := p.BulkValidate(ctx, staged, batch, importer); err != nil {
		return nil, err
	}
	if err := batch.EncodeStagedData(staged); err != nil {
		return nil, err
	}
	if err := p.DB.Model(&models.BatchImport{}).Where("id = ?", batch.ID).
		Update("parsed_data", batch.ParsedData).Error; err != nil {
		return nil, err
	}
	return staged, nil
}

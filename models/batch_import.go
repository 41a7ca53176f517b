// scholarship-system/models/batch_import.go

package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// BatchImportStatus is the lifecycle of an uploaded batch file.
type BatchImportStatus string

const (
	BatchPending    BatchImportStatus = "pending"
	BatchProcessing BatchImportStatus = "processing"
	BatchCompleted  BatchImportStatus = "completed"
	BatchPartial    BatchImportStatus = "partial"
	BatchFailed     BatchImportStatus = "failed"
	BatchCancelled  BatchImportStatus = "cancelled"
)

// ParsedDataTTL is how long the staged row data (student PII) is retained
// before the purge job clears it, regardless of the batch's terminal status.
const ParsedDataTTL = 7 * 24 * time.Hour

// BatchImport tracks one uploaded file of offline-collected applications.
// ParsedData is the staging area edited during the preview cycle; it becomes
// immutable the moment Confirm moves the batch out of pending.
type BatchImport struct {
	ID                uint              `json:"id" gorm:"primaryKey"`
	ImporterID        uint              `json:"importerId" gorm:"index;not null"`
	CollegeCode       string            `json:"collegeCode"`
	ScholarshipTypeID uint              `json:"scholarshipTypeId" gorm:"index;not null"`
	AcademicYear      int               `json:"academicYear" gorm:"not null"`
	Semester          *int              `json:"semester"`
	FileName          string            `json:"fileName"`
	StoredFileURL     string            `json:"storedFileUrl"`
	TotalRecords      int               `json:"totalRecords"`
	SuccessCount      int               `json:"successCount"`
	FailedCount       int               `json:"failedCount"`
	ImportStatus      BatchImportStatus `json:"importStatus" gorm:"size:20;index;not null;default:'pending'"`
	ParsedData        datatypes.JSON    `json:"parsedData"`
	ErrorSummary      string            `json:"errorSummary" gorm:"type:text"`
	DataExpiresAt     *time.Time        `json:"dataExpiresAt"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// StagedData is the fixed shape of BatchImport.ParsedData: the contract
// between the preview-edit endpoints and the confirm endpoint.
type StagedData struct {
	Data   []StagedRow `json:"data"`
	Errors []RowError  `json:"errors"`
}

// StagedRow is one parsed file row held for preview. Deleted rows stay in the
// blob (so row numbers remain stable) but are skipped at confirm time.
type StagedRow struct {
	RowNumber      int            `json:"row_number"` // 1-indexed file row, header included
	StudentNo      string         `json:"student_no"`
	StudentName    string         `json:"student_name"`
	DepartmentCode string         `json:"department_code,omitempty"`
	SubTypes       []string       `json:"sub_types,omitempty"`
	Fields         map[string]any `json:"fields,omitempty"`
	Warnings       []string       `json:"warnings,omitempty"`
	Deleted        bool           `json:"deleted,omitempty"`
}

// RecordCount is the number of distinct data rows the parser saw: staged
// rows plus rows rejected outright during parsing (which carry an error but
// never enter Data).
func (s *StagedData) RecordCount() int {
	rows := make(map[int]bool, len(s.Data)+len(s.Errors))
	for _, r := range s.Data {
		rows[r.RowNumber] = true
	}
	for _, e := range s.Errors {
		rows[e.Row] = true
	}
	return len(rows)
}

// RowError is a hard validation failure attributed to one file row.
type RowError struct {
	Row     int    `json:"row"`
	Code    string `json:"code"` // missing_required, duplicate_in_file, duplicate_application, college_mismatch
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// DecodeStagedData unmarshals the staging blob.
func (b *BatchImport) DecodeStagedData() (*StagedData, error) {
	staged := &StagedData{}
	if len(b.ParsedData) == 0 {
		return staged, nil
	}
	if err := json.Unmarshal(b.ParsedData, staged); err != nil {
		return nil, err
	}
	return staged, nil
}

// EncodeStagedData marshals the staging structure back into ParsedData.
func (b *BatchImport) EncodeStagedData(staged *StagedData) error {
	raw, err := json.Marshal(staged)
	if err != nil {
		return err
	}
	b.ParsedData = datatypes.JSON(raw)
	return nil
}

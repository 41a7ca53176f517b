package batchimport

import (
	"context"
	"testing"

	"github.com/anud18/scholarship-system-sub001/models"
)

// A row the parser rejected never enters Data; its error must survive the
// bulk validation that runs right after parsing in the upload flow.
func TestBulkValidateKeepsParseErrors(t *testing.T) {
	csv := "student_no,student_name\ns1,\n"
	staged, err := Parse([]byte(csv), "import.csv", testSubTypes, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(staged.Errors) != 1 || len(staged.Data) != 0 {
		t.Fatalf("parse precondition: errors=%d data=%d", len(staged.Errors), len(staged.Data))
	}

	p := &Pipeline{}
	importer := &models.User{Role: models.RoleCollege}
	if err := p.BulkValidate(context.Background(), staged, &models.BatchImport{}, importer); err != nil {
		t.Fatalf("BulkValidate: %v", err)
	}

	if len(staged.Errors) != 1 {
		t.Fatalf("parse-stage error was dropped by BulkValidate: errors = %+v", staged.Errors)
	}
	if staged.Errors[0].Code != ErrMissingRequired || staged.Errors[0].Row != 2 {
		t.Errorf("kept error = %+v, want missing_required at row 2", staged.Errors[0])
	}
}

func TestCarryParseErrorsMixedRows(t *testing.T) {
	staged := &models.StagedData{
		Data: []models.StagedRow{
			{RowNumber: 2, StudentNo: "s1", StudentName: "Alice"},
		},
		Errors: []models.RowError{
			{Row: 3, Code: ErrMissingRequired},
			// Attributed to a staged row: recomputable, must not be carried.
			{Row: 2, Code: ErrDuplicateApplication},
		},
	}

	kept := carryParseErrors(staged)
	if len(kept) != 1 {
		t.Fatalf("carried errors = %+v, want only the row-3 parse error", kept)
	}
	if kept[0].Row != 3 || kept[0].Code != ErrMissingRequired {
		t.Errorf("carried error = %+v", kept[0])
	}
}

// TotalRecords must count parser-rejected rows, not just the staged ones.
func TestStagedDataRecordCountIncludesRejectedRows(t *testing.T) {
	staged := &models.StagedData{
		Data: []models.StagedRow{
			{RowNumber: 2, StudentNo: "s1", StudentName: "Alice"},
			{RowNumber: 3, StudentNo: "s2", StudentName: "Bob"},
		},
		Errors: []models.RowError{
			{Row: 4, Code: ErrMissingRequired},
			// Same row as a staged entry: must not double-count.
			{Row: 3, Code: ErrDuplicateApplication},
		},
	}
	if got := staged.RecordCount(); got != 3 {
		t.Errorf("RecordCount() = %d, want 3", got)
	}
}

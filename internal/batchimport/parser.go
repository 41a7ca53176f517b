// scholarship-system/internal/batchimport/parser.go

// Package batchimport ingests tabular files of offline-collected
// applications: parsing, bulk validation, the editable staging cycle, and the
// all-or-nothing confirm step.
package batchimport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/anud18/scholarship-system-sub001/internal/apperr"
	"github.com/anud18/scholarship-system-sub001/models"
)

// Column dialects. A file is either fully Chinese-labelled or fully
// snake_case; whichever dialect's required columns are all present wins.
var (
	chineseColumns = map[string]string{
		"學號":   "student_no",
		"姓名":   "student_name",
		"系所代碼": "department_code",
	}
	englishColumns = map[string]string{
		"student_no":      "student_no",
		"student_name":    "student_name",
		"department_code": "department_code",
	}
	requiredFields = []string{"student_no", "student_name"}
)

// Error codes attached to RowError records.
const (
	ErrMissingRequired      = "missing_required"
	ErrDuplicateInFile      = "duplicate_in_file"
	ErrDuplicateApplication = "duplicate_application"
	ErrCollegeMismatch      = "college_mismatch"
)

// Parse reads an Excel or CSV file into the staging structure. subTypes
// defines which selection columns are recognized (unknown sub-type labels are
// ignored); customFields maps extra column labels to form field names.
//
// Row numbers are absolute 1-indexed file rows; the header row is located by
// dialect detection, so templates with a leading title row keep correct
// numbering.
func Parse(data []byte, filename string, subTypes []models.ScholarshipSubType, customFields map[string]string) (*models.StagedData, error) {
	grid, err := readGrid(data, filename)
	if err != nil {
		return nil, err
	}

	headerIdx, columns := detectHeader(grid)
	if columns == nil {
		return nil, apperr.Validation("file %s: no header row with the required columns (student identifier and name) was found", filename)
	}

	header := grid[headerIdx]
	staged := &models.StagedData{}
	seen := make(map[string]int) // student_no -> first row number

	for i := headerIdx + 1; i < len(grid); i++ {
		row := grid[i]
		rowNumber := i + 1
		if blankRow(row) {
			continue
		}

		parsed := models.StagedRow{
			RowNumber: rowNumber,
			Fields:    map[string]any{},
		}

		for col, label := range header {
			if col >= len(row) {
				break
			}
			value := strings.TrimSpace(row[col])
			label = strings.TrimSpace(label)

			if field, ok := columns[label]; ok {
				switch field {
				case "student_no":
					parsed.StudentNo = value
				case "student_name":
					parsed.StudentName = value
				case "department_code":
					parsed.DepartmentCode = value
				}
				continue
			}
			if code, ok := subTypeColumn(label, subTypes); ok {
				if isSelected(value) {
					parsed.SubTypes = append(parsed.SubTypes, code)
				}
				continue
			}
			if field, ok := customFields[label]; ok {
				// Absent cells are omitted, never stored as empty strings.
				if value != "" && !strings.EqualFold(value, "nan") {
					parsed.Fields[field] = value
				}
			}
			// Unknown labels are ignored.
		}

		var missing []string
		if parsed.StudentNo == "" {
			missing = append(missing, "student_no")
		}
		if parsed.StudentName == "" {
			missing = append(missing, "student_name")
		}
		if len(missing) > 0 {
			staged.Errors = append(staged.Errors, models.RowError{
				Row:     rowNumber,
				Code:    ErrMissingRequired,
				Field:   strings.Join(missing, ","),
				Message: fmt.Sprintf("row %d: missing required column(s) %s", rowNumber, strings.Join(missing, ", ")),
			})
			continue
		}

		if first, dup := seen[parsed.StudentNo]; dup {
			staged.Errors = append(staged.Errors, models.RowError{
				Row:     rowNumber,
				Code:    ErrDuplicateInFile,
				Message: fmt.Sprintf("row %d: student %s already appears at row %d", rowNumber, parsed.StudentNo, first),
			})
			continue
		}
		seen[parsed.StudentNo] = rowNumber

		if len(parsed.Fields) == 0 {
			parsed.Fields = nil
		}
		staged.Data = append(staged.Data, parsed)
	}

	return staged, nil
}

// readGrid normalizes either file format into rows of cells.
func readGrid(data []byte, filename string) ([][]string, error) {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xlsm") || strings.HasSuffix(lower, ".xls") {
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, apperr.Validation("file %s could not be opened as a workbook: %v", filename, err)
		}
		defer f.Close()

		sheet := f.GetSheetName(0)
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, apperr.Validation("file %s: failed to read sheet %q: %v", filename, sheet, err)
		}
		return rows, nil
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperr.Validation("file %s could not be parsed as CSV: %v", filename, err)
	}
	return rows, nil
}

// detectHeader scans for the first row whose cells cover one dialect's
// required columns and returns that row's index plus the winning dialect.
func detectHeader(grid [][]string) (int, map[string]string) {
	for i, row := range grid {
		for _, dialect := range []map[string]string{englishColumns, chineseColumns} {
			if coversRequired(row, dialect) {
				return i, dialect
			}
		}
	}
	return -1, nil
}

func coversRequired(row []string, dialect map[string]string) bool {
	found := make(map[string]bool)
	for _, cell := range row {
		if field, ok := dialect[strings.TrimSpace(cell)]; ok {
			found[field] = true
		}
	}
	for _, field := range requiredFields {
		if !found[field] {
			return false
		}
	}
	return true
}

// subTypeColumn matches a header label against the known sub-types by code or
// display name.
func subTypeColumn(label string, subTypes []models.ScholarshipSubType) (string, bool) {
	for _, sub := range subTypes {
		if strings.EqualFold(label, sub.Code) || (sub.Name != "" && label == sub.Name) {
			return strings.ToLower(sub.Code), true
		}
	}
	return "", false
}

// isSelected interprets a sub-type selection cell. Anything outside the known
// affirmative spellings means "not selected".
func isSelected(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "y", "是", "1", "true":
		return true
	}
	return false
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

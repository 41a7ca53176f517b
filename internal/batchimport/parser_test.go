package batchimport

import (
	"strings"
	"testing"

	"github.com/anud18/scholarship-system-sub001/models"
)

var testSubTypes = []models.ScholarshipSubType{
	{Code: "nstc", Name: "國科會"},
	{Code: "moe_1w", Name: "教育部一萬"},
}

func parseCSV(t *testing.T, csv string) *models.StagedData {
	t.Helper()
	staged, err := Parse([]byte(csv), "import.csv", testSubTypes, map[string]string{
		"bank_account": "bank_account",
		"銀行帳號":         "bank_account",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return staged
}

func TestParseEnglishDialect(t *testing.T) {
	csv := strings.Join([]string{
		"student_no,student_name,department_code,nstc,moe_1w,bank_account",
		"s1001,Alice,CS01,Y,,700-123",
		"s1002,Bob,EE02,n,1,",
	}, "\n")

	staged := parseCSV(t, csv)
	if len(staged.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", staged.Errors)
	}
	if len(staged.Data) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(staged.Data))
	}

	alice := staged.Data[0]
	if alice.StudentNo != "s1001" || alice.StudentName != "Alice" || alice.DepartmentCode != "CS01" {
		t.Errorf("row 1 parsed wrong: %+v", alice)
	}
	if len(alice.SubTypes) != 1 || alice.SubTypes[0] != "nstc" {
		t.Errorf("row 1 sub-types = %v, want [nstc]", alice.SubTypes)
	}
	if alice.Fields["bank_account"] != "700-123" {
		t.Errorf("row 1 custom field = %v", alice.Fields)
	}

	bob := staged.Data[1]
	if len(bob.SubTypes) != 1 || bob.SubTypes[0] != "moe_1w" {
		t.Errorf("row 2 sub-types = %v, want [moe_1w] (\"n\" is not selected, \"1\" is)", bob.SubTypes)
	}
	// Absent custom-field cells are omitted, not stored empty.
	if _, ok := bob.Fields["bank_account"]; ok {
		t.Errorf("empty custom field must be omitted, got %v", bob.Fields)
	}
}

func TestParseChineseDialectWithTitleRow(t *testing.T) {
	csv := strings.Join([]string{
		"114學年度獎學金申請名冊,,,,",
		"學號,姓名,系所代碼,國科會,銀行帳號",
		"s2001,王小明,CS01,是,812-999",
	}, "\n")

	staged := parseCSV(t, csv)
	if len(staged.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", staged.Errors)
	}
	if len(staged.Data) != 1 {
		t.Fatalf("expected 1 row, got %d", len(staged.Data))
	}
	row := staged.Data[0]
	if row.StudentNo != "s2001" || row.StudentName != "王小明" {
		t.Errorf("row parsed wrong: %+v", row)
	}
	// Data starts under the header (file row 2), so the first record is row 3.
	if row.RowNumber != 3 {
		t.Errorf("row number = %d, want 3", row.RowNumber)
	}
	if len(row.SubTypes) != 1 || row.SubTypes[0] != "nstc" {
		t.Errorf("是 should select the nstc column, got %v", row.SubTypes)
	}
	if row.Fields["bank_account"] != "812-999" {
		t.Errorf("chinese custom field label not mapped: %v", row.Fields)
	}
}

func TestParseMissingRequired(t *testing.T) {
	// Title row + header row: data row 3 sits at file row 5.
	csv := strings.Join([]string{
		"title,,,",
		"student_no,student_name,nstc,moe_1w",
		"s1,Alice,Y,",
		"s2,Bob,,Y",
		"s3,,Y,",
		"s4,Dave,,",
		"s5,Eve,Y,Y",
	}, "\n")

	staged := parseCSV(t, csv)
	if len(staged.Data) != 4 {
		t.Fatalf("expected 4 valid rows, got %d", len(staged.Data))
	}
	if len(staged.Errors) != 1 {
		t.Fatalf("expected 1 error, got %+v", staged.Errors)
	}
	e := staged.Errors[0]
	if e.Code != ErrMissingRequired || e.Row != 5 {
		t.Errorf("error = %+v, want missing_required at row 5", e)
	}
}

func TestParseDuplicateInFile(t *testing.T) {
	csv := strings.Join([]string{
		"student_no,student_name,nstc",
		"s1,Alice,Y",  // row 2
		"s2,Bob,Y",    // row 3
		"s1,Alice2,Y", // row 4: duplicate of row 2
	}, "\n")

	staged := parseCSV(t, csv)
	if len(staged.Data) != 2 {
		t.Fatalf("first occurrence must proceed; got %d rows", len(staged.Data))
	}
	if len(staged.Errors) != 1 {
		t.Fatalf("expected exactly one duplicate error, got %+v", staged.Errors)
	}
	e := staged.Errors[0]
	if e.Code != ErrDuplicateInFile || e.Row != 4 {
		t.Errorf("error = %+v, want duplicate_in_file at row 4", e)
	}
}

func TestParseUnknownSubTypeLabelIgnored(t *testing.T) {
	csv := strings.Join([]string{
		"student_no,student_name,unknown_scholarship",
		"s1,Alice,Y",
	}, "\n")
	staged := parseCSV(t, csv)
	if len(staged.Data) != 1 {
		t.Fatalf("expected 1 row, got %d", len(staged.Data))
	}
	if len(staged.Data[0].SubTypes) != 0 {
		t.Errorf("unknown labels must be ignored, got %v", staged.Data[0].SubTypes)
	}
}

func TestParseNoRecognizableHeader(t *testing.T) {
	csv := "foo,bar\n1,2\n"
	if _, err := Parse([]byte(csv), "bad.csv", testSubTypes, nil); err == nil {
		t.Fatal("a file without required columns in either dialect must fail to parse")
	}
}

func TestIsSelected(t *testing.T) {
	for _, yes := range []string{"Y", "y", "是", "1", "true", "TRUE", " y "} {
		if !isSelected(yes) {
			t.Errorf("%q should mean selected", yes)
		}
	}
	for _, no := range []string{"", "n", "N", "0", "no", "否", "2"} {
		if isSelected(no) {
			t.Errorf("%q should mean not selected", no)
		}
	}
}

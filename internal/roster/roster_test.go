package roster

import (
	"testing"

	"github.com/anud18/scholarship-system-sub001/models"
)

func TestAwardAmountDefaultFormula(t *testing.T) {
	sub := &models.ScholarshipSubType{BaseAmount: 10000, Months: 5}
	amount, err := AwardAmount(sub)
	if err != nil {
		t.Fatalf("AwardAmount: %v", err)
	}
	if amount != 50000 {
		t.Errorf("amount = %v, want 50000", amount)
	}
}

func TestAwardAmountZeroMonthsCountsAsOne(t *testing.T) {
	sub := &models.ScholarshipSubType{BaseAmount: 8000}
	amount, err := AwardAmount(sub)
	if err != nil {
		t.Fatalf("AwardAmount: %v", err)
	}
	if amount != 8000 {
		t.Errorf("amount = %v, want 8000", amount)
	}
}

func TestAwardAmountFormula(t *testing.T) {
	sub := &models.ScholarshipSubType{
		BaseAmount:    10000,
		Months:        12,
		AmountFormula: "base * months + 5000",
	}
	amount, err := AwardAmount(sub)
	if err != nil {
		t.Fatalf("AwardAmount: %v", err)
	}
	if amount != 125000 {
		t.Errorf("amount = %v, want 125000", amount)
	}
}

func TestAwardAmountBadFormula(t *testing.T) {
	sub := &models.ScholarshipSubType{AmountFormula: "base *"}
	if _, err := AwardAmount(sub); err == nil {
		t.Fatal("a malformed formula must fail, not default")
	}
}

func TestExportXLSX(t *testing.T) {
	r := &Roster{
		ScholarshipCode: "phd",
		AcademicYear:    114,
		Entries: []Entry{
			{AppID: "11400001", StudentNo: "s1", StudentName: "Alice", SubTypeCode: "nstc", Amount: 40000},
			{AppID: "11400002", StudentNo: "s2", StudentName: "Bob", SubTypeCode: "moe_1w", Amount: 10000},
		},
		Total: 50000,
	}
	f, err := ExportXLSX(r)
	if err != nil {
		t.Fatalf("ExportXLSX: %v", err)
	}
	sheet := f.GetSheetName(0)

	got, err := f.GetCellValue(sheet, "A2")
	if err != nil || got != "11400001" {
		t.Errorf("A2 = %q (%v), want 11400001", got, err)
	}
	got, err = f.GetCellValue(sheet, "E4")
	if err != nil || got != "50000" {
		t.Errorf("E4 total = %q (%v), want 50000", got, err)
	}
}

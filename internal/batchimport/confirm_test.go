package batchimport

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/anud18/scholarship-system-sub001/internal/apperr"
	"github.com/anud18/scholarship-system-sub001/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("set TEST_DATABASE_URL to run database tests")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.ScholarshipType{},
		&models.ScholarshipSubType{},
		&models.Application{},
		&models.ApplicationReview{},
		&models.ApplicationReviewItem{},
		&models.ApplicationSequence{},
		&models.BatchImport{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, table := range []string{
		"application_review_items", "application_reviews", "notifications",
		"applications", "application_sequences", "batch_imports",
		"scholarship_sub_types", "scholarship_types", "users",
	} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("clean %s: %v", table, err)
		}
	}
	return db
}

func TestStagedExpired(t *testing.T) {
	cases := []struct {
		name  string
		batch models.BatchImport
		want  bool
	}{
		{"purged blob with records", models.BatchImport{TotalRecords: 3}, true},
		{"blob present", models.BatchImport{TotalRecords: 3, ParsedData: []byte(`{"data":[]}`)}, false},
		{"empty upload", models.BatchImport{TotalRecords: 0}, false},
	}
	for _, tc := range cases {
		if got := stagedExpired(&tc.batch); got != tc.want {
			t.Errorf("%s: stagedExpired = %v, want %v", tc.name, got, tc.want)
		}
	}
}

// A failure partway through materialization must leave no application rows
// behind, no users created inside the transaction, and the batch marked
// failed with the failing row recorded.
func TestConfirmRollsBackOnMidBatchFailure(t *testing.T) {
	db := testDB(t)

	schType := models.ScholarshipType{Code: "phd", Name: "PhD Scholarship"}
	if err := db.Create(&schType).Error; err != nil {
		t.Fatalf("create scholarship type: %v", err)
	}
	owner := models.User{Login: "blocker", Role: models.RoleStudent, StudentNo: "s9999"}
	if err := db.Create(&owner).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	sem := 1
	// Occupies the identifier the second staged row will be allocated, so
	// its insert fails on the app_id unique index mid-batch.
	blocker := models.Application{
		AppID:             "11410002U",
		UserID:            owner.ID,
		ScholarshipTypeID: schType.ID,
		AcademicYear:      114,
		Semester:          &sem,
		Status:            models.StatusDraft,
	}
	if err := db.Create(&blocker).Error; err != nil {
		t.Fatalf("create blocking application: %v", err)
	}

	batch := models.BatchImport{
		ImporterID:        owner.ID,
		ScholarshipTypeID: schType.ID,
		AcademicYear:      114,
		Semester:          &sem,
		ImportStatus:      models.BatchPending,
		TotalRecords:      2,
	}
	staged := &models.StagedData{Data: []models.StagedRow{
		{RowNumber: 2, StudentNo: "s0001", StudentName: "Alice"},
		{RowNumber: 3, StudentNo: "s0002", StudentName: "Bob"},
	}}
	if err := batch.EncodeStagedData(staged); err != nil {
		t.Fatalf("encode staged data: %v", err)
	}
	if err := db.Create(&batch).Error; err != nil {
		t.Fatalf("create batch: %v", err)
	}

	p := NewPipeline(db, nil)
	_, err := p.Confirm(context.Background(), batch.ID, true, &models.User{Role: models.RoleAdmin})

	var bie *apperr.BatchImportError
	if !errors.As(err, &bie) {
		t.Fatalf("Confirm error = %v, want BatchImportError", err)
	}
	if bie.Row != 3 {
		t.Errorf("failing row = %d, want 3", bie.Row)
	}

	var count int64
	db.Model(&models.Application{}).Where("batch_import_id = ?", batch.ID).Count(&count)
	if count != 0 {
		t.Errorf("%d application rows survived the rollback", count)
	}
	db.Model(&models.Application{}).Where("app_id = ?", "11410001U").Count(&count)
	if count != 0 {
		t.Errorf("first row's application survived the rollback")
	}
	db.Model(&models.User{}).Where("student_no IN ?", []string{"s0001", "s0002"}).Count(&count)
	if count != 0 {
		t.Errorf("%d users created inside the transaction survived the rollback", count)
	}

	var after models.BatchImport
	if err := db.First(&after, batch.ID).Error; err != nil {
		t.Fatalf("reload batch: %v", err)
	}
	if after.ImportStatus != models.BatchFailed {
		t.Errorf("import status = %s, want failed", after.ImportStatus)
	}
	if after.ErrorSummary == "" {
		t.Error("error summary is empty after a failed confirm")
	}
}

// Confirming a pending batch whose staged blob was purged by the retention
// job must be rejected instead of completing with zero rows.
func TestConfirmRejectsExpiredStagedData(t *testing.T) {
	db := testDB(t)

	batch := models.BatchImport{
		ImporterID:        1,
		ScholarshipTypeID: 1,
		AcademicYear:      114,
		ImportStatus:      models.BatchPending,
		TotalRecords:      3,
	}
	if err := db.Create(&batch).Error; err != nil {
		t.Fatalf("create batch: %v", err)
	}

	p := NewPipeline(db, nil)
	_, err := p.Confirm(context.Background(), batch.ID, true, &models.User{Role: models.RoleAdmin})

	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Status != http.StatusConflict {
		t.Fatalf("Confirm error = %v, want conflict", err)
	}

	var after models.BatchImport
	if err := db.First(&after, batch.ID).Error; err != nil {
		t.Fatalf("reload batch: %v", err)
	}
	if after.ImportStatus != models.BatchPending {
		t.Errorf("import status = %s, want pending (expired confirm must not advance the batch)", after.ImportStatus)
	}
}

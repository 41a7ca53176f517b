package review

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
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, table := range []string{
		"application_review_items", "application_reviews", "notifications",
		"applications", "scholarship_sub_types", "scholarship_types", "users",
	} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("clean %s: %v", table, err)
		}
	}
	return db
}

func seedApplication(t *testing.T, db *gorm.DB, status models.ApplicationStatus) *models.Application {
	t.Helper()
	owner := models.User{Login: "s1234567", Role: models.RoleStudent, StudentNo: "s1234567"}
	if err := db.Create(&owner).Error; err != nil {
		t.Fatalf("create owner: %v", err)
	}
	schType := models.ScholarshipType{Code: "phd", Name: "PhD Scholarship"}
	if err := db.Create(&schType).Error; err != nil {
		t.Fatalf("create scholarship type: %v", err)
	}
	app := models.Application{
		AppID:             "1141000001",
		UserID:            owner.ID,
		ScholarshipTypeID: schType.ID,
		AcademicYear:      114,
		Status:            status,
	}
	if err := db.Create(&app).Error; err != nil {
		t.Fatalf("create application: %v", err)
	}
	return &app
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	// The status check precedes any database access.
	w := NewWorkflow(nil, nil, nil)
	admin := &models.User{Role: models.RoleAdmin}

	_, err := w.UpdateStatus(context.Background(), 1, admin, "banana")

	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Status != http.StatusUnprocessableEntity {
		t.Fatalf("UpdateStatus error = %v, want validation error", err)
	}
}

func TestUpdateStatusRejectsNonStaff(t *testing.T) {
	w := NewWorkflow(nil, nil, nil)
	student := &models.User{Role: models.RoleStudent}

	_, err := w.UpdateStatus(context.Background(), 1, student, models.StatusApproved)

	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Status != http.StatusForbidden {
		t.Fatalf("UpdateStatus error = %v, want authorization error", err)
	}
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	db := testDB(t)
	app := seedApplication(t, db, models.StatusRejected)
	w := NewWorkflow(db, nil, nil)
	admin := &models.User{Role: models.RoleAdmin, Model: gorm.Model{ID: 99}}

	_, err := w.UpdateStatus(context.Background(), app.ID, admin, models.StatusApproved)

	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Status != http.StatusConflict {
		t.Fatalf("UpdateStatus error = %v, want conflict", err)
	}

	var after models.Application
	if err := db.First(&after, app.ID).Error; err != nil {
		t.Fatalf("reload application: %v", err)
	}
	if after.Status != models.StatusRejected {
		t.Errorf("status = %s, want rejected (illegal transition must not write)", after.Status)
	}
}

func TestUpdateStatusApprovalNotifiesApplicant(t *testing.T) {
	db := testDB(t)
	app := seedApplication(t, db, models.StatusUnderReview)
	w := NewWorkflow(db, nil, nil)
	admin := &models.User{Role: models.RoleAdmin, Model: gorm.Model{ID: 99}}

	result, err := w.UpdateStatus(context.Background(), app.ID, admin, models.StatusApproved)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if result.Status != models.StatusApproved {
		t.Errorf("result status = %s, want approved", result.Status)
	}

	var after models.Application
	if err := db.First(&after, app.ID).Error; err != nil {
		t.Fatalf("reload application: %v", err)
	}
	if after.Status != models.StatusApproved {
		t.Errorf("status = %s, want approved", after.Status)
	}

	var notifs []models.Notification
	if err := db.Where("user_id = ?", app.UserID).Find(&notifs).Error; err != nil {
		t.Fatalf("load notifications: %v", err)
	}
	if len(notifs) != 1 {
		t.Fatalf("notification count = %d, want 1", len(notifs))
	}
	if notifs[0].ApplicationID == nil || *notifs[0].ApplicationID != app.ID {
		t.Errorf("notification application id = %v, want %d", notifs[0].ApplicationID, app.ID)
	}
}

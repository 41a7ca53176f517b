package eligibility

import (
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/anud18/scholarship-system-sub001/models"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestWithinWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	cfg := &models.ScholarshipConfiguration{
		ApplyStartAt: timePtr(now.AddDate(0, 0, -5)),
		ApplyEndAt:   timePtr(now.AddDate(0, 0, 5)),
	}
	if !WithinWindow(cfg, now) {
		t.Error("inside the general window should pass")
	}

	cfg = &models.ScholarshipConfiguration{
		ApplyStartAt: timePtr(now.AddDate(0, 0, 1)),
		ApplyEndAt:   timePtr(now.AddDate(0, 0, 5)),
	}
	if WithinWindow(cfg, now) {
		t.Error("before the window should fail")
	}

	// Renewal window alone is enough.
	cfg = &models.ScholarshipConfiguration{
		RenewalStartAt: timePtr(now.AddDate(0, 0, -1)),
		RenewalEndAt:   timePtr(now.AddDate(0, 0, 1)),
	}
	if !WithinWindow(cfg, now) {
		t.Error("inside the renewal window should pass")
	}

	// No windows configured at all: closed.
	if WithinWindow(&models.ScholarshipConfiguration{}, now) {
		t.Error("a configuration without windows should be closed")
	}
}

func TestWhitelistedSubTypes(t *testing.T) {
	subTypes := []models.ScholarshipSubType{{Code: "nstc"}, {Code: "moe_1w"}}

	disabled := &models.ScholarshipType{WhitelistEnabled: false}
	got := WhitelistedSubTypes(disabled, &models.ScholarshipConfiguration{}, subTypes, "s1000")
	if !got["nstc"] || !got["moe_1w"] {
		t.Errorf("whitelist disabled should admit every sub-type, got %v", got)
	}

	enabled := &models.ScholarshipType{WhitelistEnabled: true}
	cfg := &models.ScholarshipConfiguration{
		Whitelist: datatypes.JSONMap{
			"nstc":   []interface{}{"s1000", "s2000"},
			"moe_1w": []interface{}{"s2000"},
		},
	}
	got = WhitelistedSubTypes(enabled, cfg, subTypes, "s1000")
	if !got["nstc"] || got["moe_1w"] {
		t.Errorf("s1000 should be whitelisted for nstc only, got %v", got)
	}

	got = WhitelistedSubTypes(enabled, cfg, subTypes, "s9999")
	if len(got) != 0 {
		t.Errorf("unlisted student should get nothing, got %v", got)
	}
}

func TestEvaluateSubType(t *testing.T) {
	hard := models.ScholarshipRule{Model: gorm.Model{ID: 1}, ConditionField: "gpa", Operator: ">=", ExpectedValue: "3.0", IsHardRule: true}
	warn := models.ScholarshipRule{Model: gorm.Model{ID: 2}, ConditionField: "toefl", Operator: ">=", ExpectedValue: "80", IsWarning: true}

	// Failing only the warning rule keeps the sub-type eligible.
	res := EvaluateSubType("nstc", map[string]any{"gpa": 3.6, "toefl": 60.0}, []models.ScholarshipRule{hard, warn})
	if !res.Eligible {
		t.Errorf("warnings must not exclude a sub-type: %+v", res)
	}
	if len(res.Warnings) != 1 || len(res.Passed) != 1 {
		t.Errorf("expected 1 warning and 1 passed, got %+v", res)
	}

	// Failing the hard rule blocks.
	res = EvaluateSubType("nstc", map[string]any{"gpa": 2.0, "toefl": 90.0}, []models.ScholarshipRule{hard, warn})
	if res.Eligible {
		t.Errorf("hard rule failure must exclude the sub-type: %+v", res)
	}
	if len(res.FailedRules) != 1 {
		t.Errorf("expected 1 failed rule, got %+v", res)
	}
}

func TestApplicableRules(t *testing.T) {
	sub := "nstc"
	other := "moe_1w"
	year114 := 114
	sem1 := 1

	all := []models.ScholarshipRule{
		{Model: gorm.Model{ID: 1}},                                  // universal
		{Model: gorm.Model{ID: 2}, SubType: &sub},                   // sub-type specific
		{Model: gorm.Model{ID: 3}, SubType: &other},                 // other sub-type
		{Model: gorm.Model{ID: 4}, AcademicYear: &year114},          // matching year
		{Model: gorm.Model{ID: 5}, Semester: &sem1},                 // matching semester
	}

	got := applicableRules(all, "nstc", 114, &sem1)
	var ids []uint
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	want := []uint{1, 2, 4, 5}
	if len(ids) != len(want) {
		t.Fatalf("applicable rules = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("applicable rules = %v, want %v", ids, want)
		}
	}

	// Yearly evaluation (nil semester) excludes semester-bound rules.
	got = applicableRules(all, "nstc", 114, nil)
	for _, r := range got {
		if r.ID == 5 {
			t.Error("semester-bound rule should not apply to a yearly evaluation")
		}
	}
}

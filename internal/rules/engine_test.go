package rules

import (
	"testing"

	"github.com/anud18/scholarship-system-sub001/models"
	"gorm.io/gorm"
)

func rule(id uint, field, op, expected string) models.ScholarshipRule {
	return models.ScholarshipRule{
		Model:          gorm.Model{ID: id},
		ConditionField: field,
		Operator:       op,
		ExpectedValue:  expected,
	}
}

func TestEvaluateNumericOperators(t *testing.T) {
	attrs := map[string]any{"gpa": 3.5, "rank_percent": "10"}

	cases := []struct {
		name      string
		r         models.ScholarshipRule
		satisfied bool
	}{
		{"gte pass", rule(1, "gpa", ">=", "3.0"), true},
		{"gte fail", rule(2, "gpa", ">=", "3.8"), false},
		{"lte on string number", rule(3, "rank_percent", "<=", "15"), true},
		{"gt fail equal", rule(4, "gpa", ">", "3.5"), false},
		{"lt pass", rule(5, "gpa", "<", "4"), true},
	}
	for _, tc := range cases {
		res := Evaluate(attrs, []models.ScholarshipRule{tc.r})
		got := len(res.Passed) == 1
		if got != tc.satisfied {
			t.Errorf("%s: satisfied = %v, want %v", tc.name, got, tc.satisfied)
		}
	}
}

func TestEvaluateNonNumericFailsClosed(t *testing.T) {
	attrs := map[string]any{"gpa": "not-a-number"}
	res := Evaluate(attrs, []models.ScholarshipRule{rule(1, "gpa", ">=", "3.0")})
	if len(res.Errors) != 1 {
		t.Fatalf("non-numeric comparison should be an unsatisfied error, got %+v", res)
	}
}

func TestEvaluateStringOperators(t *testing.T) {
	attrs := map[string]any{
		"degree":     " phd ",
		"department": "CS",
		"remarks":    "exchange student",
		"enrolled":   float64(1),
	}

	cases := []struct {
		r         models.ScholarshipRule
		satisfied bool
	}{
		{rule(1, "degree", "==", "phd"), true},
		{rule(2, "degree", "!=", "master"), true},
		{rule(3, "department", "in", "CS, EE, MATH"), true},
		{rule(4, "department", "not_in", "CS, EE"), false},
		{rule(5, "remarks", "contains", "exchange"), true},
		{rule(6, "remarks", "not_contains", "suspended"), true},
		// JSON numbers arrive as float64; "1" must match.
		{rule(7, "enrolled", "==", "1"), true},
	}
	for _, tc := range cases {
		res := Evaluate(attrs, []models.ScholarshipRule{tc.r})
		got := len(res.Passed) == 1
		if got != tc.satisfied {
			t.Errorf("rule %d (%s %s %s): satisfied = %v, want %v",
				tc.r.ID, tc.r.ConditionField, tc.r.Operator, tc.r.ExpectedValue, got, tc.satisfied)
		}
	}
}

func TestEvaluateMissingField(t *testing.T) {
	hard := rule(1, "gpa", ">=", "3.0")
	hard.IsHardRule = true
	warn := rule(2, "toefl", ">=", "80")
	warn.IsWarning = true
	soft := rule(3, "credits", ">=", "9")

	res := Evaluate(map[string]any{}, []models.ScholarshipRule{hard, warn, soft})

	if len(res.Errors) != 2 {
		t.Errorf("hard and unflagged rules on missing fields should both be errors, got %d", len(res.Errors))
	}
	if len(res.Warnings) != 1 {
		t.Errorf("warning rule on missing field should be a warning, got %d", len(res.Warnings))
	}
	if len(res.Passed) != 0 {
		t.Errorf("nothing should pass, got %d", len(res.Passed))
	}
}

// Every rule must land in exactly one bucket, whatever the inputs.
func TestEvaluateClassificationExhaustive(t *testing.T) {
	attrs := map[string]any{"gpa": 2.0}
	ruleSet := []models.ScholarshipRule{
		rule(1, "gpa", ">=", "3.0"),
		rule(2, "gpa", "<=", "4.0"),
		rule(3, "missing", "==", "x"),
		rule(4, "gpa", "??", "3"), // unknown operator
	}
	ruleSet[2].IsWarning = true

	res := Evaluate(attrs, ruleSet)
	total := len(res.Passed) + len(res.Warnings) + len(res.Errors)
	if total != len(ruleSet) {
		t.Fatalf("classified %d of %d rules", total, len(ruleSet))
	}
}

func TestEvaluateOrdering(t *testing.T) {
	r1 := rule(10, "gpa", ">=", "0")
	r1.Priority = 1
	r2 := rule(2, "gpa", ">=", "0")
	r2.Priority = 5
	r3 := rule(7, "gpa", ">=", "0")
	r3.Priority = 5

	res := Evaluate(map[string]any{"gpa": 4.0}, []models.ScholarshipRule{r1, r2, r3})
	if len(res.Passed) != 3 {
		t.Fatalf("expected 3 passed, got %d", len(res.Passed))
	}
	// priority desc, then id asc
	want := []uint{2, 7, 10}
	for i, w := range want {
		if res.Passed[i].RuleID != w {
			t.Errorf("position %d: got rule %d, want %d", i, res.Passed[i].RuleID, w)
		}
	}
}

func TestEvaluateMutuallyExclusiveFlagsWarningWins(t *testing.T) {
	// Admin-side validation forbids both flags; if a bad row slips through,
	// the warning classification must not block.
	r := rule(1, "gpa", ">=", "9.9")
	r.IsWarning = true
	res := Evaluate(map[string]any{"gpa": 1.0}, []models.ScholarshipRule{r})
	if len(res.Warnings) != 1 || len(res.Errors) != 0 {
		t.Fatalf("warning-flagged rule must classify as warning, got %+v", res)
	}
}

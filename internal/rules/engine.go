// scholarship-system/internal/rules/engine.go

// Package rules evaluates a student's attribute snapshot against declarative
// eligibility rules. Evaluation is a pure function: no I/O, no mutation of the
// rule rows, and every rule lands in exactly one of the passed / warning /
// error buckets.
package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/anud18/scholarship-system-sub001/models"
)

// RuleResult is the outcome of evaluating a single rule.
type RuleResult struct {
	RuleID        uint   `json:"ruleId"`
	Tag           string `json:"tag"`
	ConditionField string `json:"conditionField"`
	Operator      string `json:"operator"`
	ExpectedValue string `json:"expectedValue"`
	ActualValue   string `json:"actualValue"`
	FieldPresent  bool   `json:"fieldPresent"`
	Satisfied     bool   `json:"satisfied"`
}

// Result buckets every evaluated rule. Errors block eligibility; warnings are
// informational only.
type Result struct {
	Passed   []RuleResult `json:"passed"`
	Warnings []RuleResult `json:"warnings"`
	Errors   []RuleResult `json:"errors"`
}

// Evaluate runs every rule against the attribute snapshot. The caller is
// responsible for having filtered the rules down to the applicable
// scholarship, sub-type and period.
//
// A missing attribute makes the rule unsatisfied, never skipped. An
// unsatisfied rule is a warning when flagged IsWarning, otherwise an error
// (rules with neither flag block by default). Results are ordered by priority
// descending, then rule ID, so display order is reproducible.
func Evaluate(attrs map[string]any, ruleSet []models.ScholarshipRule) Result {
	ordered := make([]models.ScholarshipRule, len(ruleSet))
	copy(ordered, ruleSet)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].ID < ordered[j].ID
	})

	var res Result
	for _, rule := range ordered {
		actual, present := attrs[rule.ConditionField]

		rr := RuleResult{
			RuleID:         rule.ID,
			Tag:            rule.Tag,
			ConditionField: rule.ConditionField,
			Operator:       rule.Operator,
			ExpectedValue:  rule.ExpectedValue,
			FieldPresent:   present,
		}
		if present {
			rr.ActualValue = stringify(actual)
			rr.Satisfied = satisfies(actual, rule.Operator, rule.ExpectedValue)
		}

		switch {
		case rr.Satisfied:
			res.Passed = append(res.Passed, rr)
		case rule.IsWarning:
			res.Warnings = append(res.Warnings, rr)
		default:
			res.Errors = append(res.Errors, rr)
		}
	}
	return res
}

// satisfies applies one operator. Numeric comparisons fail closed when either
// side is not numeric; they never panic.
func satisfies(actual any, operator, expected string) bool {
	switch operator {
	case models.OpGTE, models.OpLTE, models.OpGT, models.OpLT:
		a, aok := toFloat(actual)
		e, eok := toFloat(expected)
		if !aok || !eok {
			return false
		}
		switch operator {
		case models.OpGTE:
			return a >= e
		case models.OpLTE:
			return a <= e
		case models.OpGT:
			return a > e
		default:
			return a < e
		}
	case models.OpEQ:
		return strings.TrimSpace(stringify(actual)) == strings.TrimSpace(expected)
	case models.OpNEQ:
		return strings.TrimSpace(stringify(actual)) != strings.TrimSpace(expected)
	case models.OpIn, models.OpNotIn:
		needle := strings.TrimSpace(stringify(actual))
		found := false
		for _, part := range strings.Split(expected, ",") {
			if strings.TrimSpace(part) == needle {
				found = true
				break
			}
		}
		if operator == models.OpIn {
			return found
		}
		return !found
	case models.OpContains:
		return strings.Contains(strings.TrimSpace(stringify(actual)), strings.TrimSpace(expected))
	case models.OpNotContains:
		return !strings.Contains(strings.TrimSpace(stringify(actual)), strings.TrimSpace(expected))
	}
	// Unknown operator: unsatisfied rather than skipped.
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// stringify renders an attribute value for string comparison and display.
// Floats with no fractional part render without a trailing ".0" so JSON
// numbers compare equal to their textual form.
func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(s)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

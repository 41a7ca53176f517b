package review

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/anud18/scholarship-system-sub001/internal/apperr"
	"github.com/anud18/scholarship-system-sub001/models"
)

func item(code string, rec models.Recommendation, comments string) models.ApplicationReviewItem {
	return models.ApplicationReviewItem{SubTypeCode: code, Recommendation: rec, Comments: comments}
}

func reviewBy(id uint, role models.ReviewerRole, items ...models.ApplicationReviewItem) models.ApplicationReview {
	return models.ApplicationReview{ID: id, ReviewerRole: role, Items: items}
}

var adminTier = models.RoleAdmin.Tier()

func TestReviewableSubTypesCascade(t *testing.T) {
	subTypes := []string{"nstc", "moe_1w", "moe_2w"}
	history := []models.ApplicationReview{
		reviewBy(1, models.RoleProfessor,
			item("nstc", models.RecommendApprove, ""),
			item("moe_1w", models.RecommendReject, "GPA below threshold"),
			item("moe_2w", models.RecommendApprove, ""),
		),
	}

	// The professor keeps the full list regardless of history.
	if got := ReviewableSubTypes(models.RoleProfessor, subTypes, history); len(got) != 3 {
		t.Errorf("professor reviewable = %v, want all three", got)
	}

	// College loses the professor-rejected sub-type.
	want := []string{"nstc", "moe_2w"}
	if got := ReviewableSubTypes(models.RoleCollege, subTypes, history); !reflect.DeepEqual(got, want) {
		t.Errorf("college reviewable = %v, want %v", got, want)
	}

	// A later college rejection also hides the sub-type from admins.
	history = append(history, reviewBy(2, models.RoleCollege,
		item("nstc", models.RecommendReject, "quota exhausted"),
		item("moe_2w", models.RecommendApprove, ""),
	))
	want = []string{"moe_2w"}
	if got := ReviewableSubTypes(models.RoleAdmin, subTypes, history); !reflect.DeepEqual(got, want) {
		t.Errorf("admin reviewable = %v, want %v", got, want)
	}
}

func TestReviewableSubTypesLaterReviewSupersedes(t *testing.T) {
	subTypes := []string{"nstc"}
	history := []models.ApplicationReview{
		reviewBy(1, models.RoleProfessor, item("nstc", models.RecommendReject, "typo")),
		reviewBy(2, models.RoleProfessor, item("nstc", models.RecommendApprove, "")),
	}
	got := ReviewableSubTypes(models.RoleCollege, subTypes, history)
	if !reflect.DeepEqual(got, []string{"nstc"}) {
		t.Errorf("corrected professor approval should restore the sub-type, got %v", got)
	}
}

func TestValidateItemsRejectRequiresComment(t *testing.T) {
	items := []ItemInput{
		{SubTypeCode: "nstc", Recommendation: models.RecommendApprove},
		{SubTypeCode: "moe_1w", Recommendation: models.RecommendReject, Comments: "   "},
	}
	err := ValidateItems(items, []string{"nstc", "moe_1w"})
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Status != http.StatusUnprocessableEntity {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateItemsCascadeAuthorization(t *testing.T) {
	items := []ItemInput{
		{SubTypeCode: " MOE_1W ", Recommendation: models.RecommendApprove},
	}
	err := ValidateItems(items, []string{"nstc"})
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Status != http.StatusForbidden {
		t.Fatalf("expected authorization error, got %v", err)
	}
	// The message must name the offending sub-type, normalized.
	if want := "moe_1w"; ae != nil && !contains(ae.Message, want) {
		t.Errorf("error %q does not name sub-type %q", ae.Message, want)
	}
}

func contains(s, sub string) bool { return strings.Contains(s, sub) }

func TestAggregateRecommendation(t *testing.T) {
	all := []models.ApplicationReviewItem{
		item("a", models.RecommendApprove, ""),
		item("b", models.RecommendApprove, ""),
	}
	if got := AggregateRecommendation(all); got != models.RecommendApprove {
		t.Errorf("all approve = %v", got)
	}

	mixed := append(all, item("c", models.RecommendReject, "no"))
	if got := AggregateRecommendation(mixed); got != models.RecommendPartial {
		t.Errorf("mixed = %v", got)
	}

	rejects := []models.ApplicationReviewItem{item("a", models.RecommendReject, "no")}
	if got := AggregateRecommendation(rejects); got != models.RecommendReject {
		t.Errorf("all reject = %v", got)
	}
}

func TestDeriveStatusAllApproved(t *testing.T) {
	subTypes := []string{"nstc", "moe_1w"}
	history := []models.ApplicationReview{
		reviewBy(1, models.RoleProfessor,
			item("nstc", models.RecommendApprove, ""), item("moe_1w", models.RecommendApprove, "")),
		reviewBy(2, models.RoleAdmin,
			item("nstc", models.RecommendApprove, ""), item("moe_1w", models.RecommendApprove, "")),
	}
	if got := DeriveStatus(subTypes, history, adminTier); got != models.StatusApproved {
		t.Errorf("status = %v, want approved", got)
	}
}

func TestDeriveStatusMixedIsPartial(t *testing.T) {
	subTypes := []string{"nstc", "moe_1w", "moe_2w"}
	history := []models.ApplicationReview{
		reviewBy(1, models.RoleProfessor,
			item("nstc", models.RecommendApprove, ""),
			item("moe_1w", models.RecommendApprove, ""),
			item("moe_2w", models.RecommendReject, "not eligible"),
		),
	}
	if got := DeriveStatus(subTypes, history, adminTier); got != models.StatusPartialApprove {
		t.Errorf("status = %v, want partial_approve", got)
	}
}

func TestDeriveStatusAllRejected(t *testing.T) {
	subTypes := []string{"nstc"}
	history := []models.ApplicationReview{
		reviewBy(1, models.RoleCollege, item("nstc", models.RecommendReject, "no")),
	}
	if got := DeriveStatus(subTypes, history, adminTier); got != models.StatusRejected {
		t.Errorf("status = %v, want rejected", got)
	}
}

func TestDeriveStatusRecommendedAwaitingFinalTier(t *testing.T) {
	subTypes := []string{"nstc"}
	history := []models.ApplicationReview{
		reviewBy(1, models.RoleProfessor, item("nstc", models.RecommendApprove, "")),
	}
	if got := DeriveStatus(subTypes, history, adminTier); got != models.StatusRecommended {
		t.Errorf("status = %v, want recommended", got)
	}
}

// Recomputing from the same history must always give the same status.
func TestDeriveStatusIdempotent(t *testing.T) {
	subTypes := []string{"nstc", "moe_1w"}
	history := []models.ApplicationReview{
		reviewBy(1, models.RoleProfessor,
			item("nstc", models.RecommendApprove, ""), item("moe_1w", models.RecommendReject, "r")),
		reviewBy(2, models.RoleCollege, item("nstc", models.RecommendApprove, "")),
		reviewBy(3, models.RoleAdmin, item("nstc", models.RecommendApprove, "")),
	}
	first := DeriveStatus(subTypes, history, adminTier)
	for i := 0; i < 10; i++ {
		if got := DeriveStatus(subTypes, history, adminTier); got != first {
			t.Fatalf("run %d: status %v != %v", i, got, first)
		}
	}
	if first != models.StatusPartialApprove {
		t.Errorf("status = %v, want partial_approve", first)
	}
}

func TestCombineCommentsLossless(t *testing.T) {
	items := []models.ApplicationReviewItem{
		item("nstc", models.RecommendApprove, ""),
		item("moe_1w", models.RecommendReject, "GPA below threshold"),
		item("moe_2w", models.RecommendReject, "missing transcript"),
	}
	got := CombineComments(items)
	for _, want := range []string{"moe_1w: GPA below threshold", "moe_2w: missing transcript"} {
		if !contains(got, want) {
			t.Errorf("combined comments %q missing %q", got, want)
		}
	}
}

func TestSubTypeStatuses(t *testing.T) {
	subTypes := []string{"nstc", "moe_1w"}
	history := []models.ApplicationReview{
		reviewBy(1, models.RoleProfessor,
			item("nstc", models.RecommendApprove, ""), item("moe_1w", models.RecommendReject, "r")),
		reviewBy(2, models.RoleAdmin, item("nstc", models.RecommendApprove, "")),
	}
	got := SubTypeStatuses(subTypes, history, adminTier)
	if got["nstc"] != SubTypeApproved {
		t.Errorf("nstc = %v, want approved", got["nstc"])
	}
	if got["moe_1w"] != SubTypeRejected {
		t.Errorf("moe_1w = %v, want rejected", got["moe_1w"])
	}
}

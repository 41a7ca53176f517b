// scholarship-system/internal/review/status.go

package review

import (
	"fmt"
	"strings"

	"github.com/anud18/scholarship-system-sub001/internal/apperr"
	"github.com/anud18/scholarship-system-sub001/models"
)

// ItemInput is one (sub-type, recommendation, comments) tuple of an incoming
// review submission.
type ItemInput struct {
	SubTypeCode    string                `json:"subTypeCode" binding:"required"`
	Recommendation models.Recommendation `json:"recommendation" binding:"required"`
	Comments       string                `json:"comments"`
}

// NormalizeCode canonicalizes a submitted sub-type code before any membership
// check.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// latestRecommendations flattens the full review history into the most recent
// recommendation per (sub-type, tier). Later reviews by the same tier
// supersede earlier ones; review ID order is creation order.
func latestRecommendations(history []models.ApplicationReview) map[string]map[int]models.Recommendation {
	type slot struct {
		reviewID uint
		rec      models.Recommendation
	}
	latest := make(map[string]map[int]slot)

	for _, rev := range history {
		tier := rev.ReviewerRole.Tier()
		if tier == 0 {
			continue
		}
		for _, item := range rev.Items {
			code := NormalizeCode(item.SubTypeCode)
			if latest[code] == nil {
				latest[code] = make(map[int]slot)
			}
			if prev, ok := latest[code][tier]; !ok || rev.ID >= prev.reviewID {
				latest[code][tier] = slot{reviewID: rev.ID, rec: item.Recommendation}
			}
		}
	}

	out := make(map[string]map[int]models.Recommendation, len(latest))
	for code, tiers := range latest {
		out[code] = make(map[int]models.Recommendation, len(tiers))
		for tier, s := range tiers {
			out[code][tier] = s.rec
		}
	}
	return out
}

// ReviewableSubTypes computes which of the application's sub-types the given
// role may still review. A sub-type is excluded exactly when some earlier
// tier's latest recommendation for it is reject; rejection is monotonic within
// a review cycle. Professors (the lowest tier) therefore always see the full
// list.
func ReviewableSubTypes(role models.ReviewerRole, appSubTypes []string, history []models.ApplicationReview) []string {
	latest := latestRecommendations(history)
	tier := role.Tier()

	reviewable := make([]string, 0, len(appSubTypes))
	for _, raw := range appSubTypes {
		code := NormalizeCode(raw)
		excluded := false
		for lower, rec := range latest[code] {
			if lower < tier && rec == models.RecommendReject {
				excluded = true
				break
			}
		}
		if !excluded {
			reviewable = append(reviewable, code)
		}
	}
	return reviewable
}

// ValidateItems normalizes the submitted items in place and checks them
// against the role's reviewable set. It must be called, and must pass, before
// anything is written: a rejected submission leaves no partial review items
// behind.
func ValidateItems(items []ItemInput, reviewable []string) error {
	if len(items) == 0 {
		return apperr.Validation("a review submission must contain at least one sub-type item")
	}

	allowed := make(map[string]bool, len(reviewable))
	for _, code := range reviewable {
		allowed[code] = true
	}

	seen := make(map[string]bool, len(items))
	for i := range items {
		code := NormalizeCode(items[i].SubTypeCode)
		items[i].SubTypeCode = code

		if items[i].Recommendation != models.RecommendApprove && items[i].Recommendation != models.RecommendReject {
			return apperr.Validation("sub-type %q: recommendation must be approve or reject", code)
		}
		if items[i].Recommendation == models.RecommendReject && strings.TrimSpace(items[i].Comments) == "" {
			return apperr.Validation("sub-type %q: a comment is required when rejecting", code)
		}
		if seen[code] {
			return apperr.Validation("sub-type %q appears more than once in the submission", code)
		}
		seen[code] = true

		if !allowed[code] {
			return apperr.Authorization(
				"sub-type %q is not in your reviewable set; it may have been rejected by a previous reviewer", code)
		}
	}
	return nil
}

// AggregateRecommendation derives the parent review's recommendation from its
// items: all approve, all reject, or partial_approve for a mix.
func AggregateRecommendation(items []models.ApplicationReviewItem) models.Recommendation {
	approves, rejects := 0, 0
	for _, item := range items {
		if item.Recommendation == models.RecommendApprove {
			approves++
		} else {
			rejects++
		}
	}
	switch {
	case rejects == 0:
		return models.RecommendApprove
	case approves == 0:
		return models.RecommendReject
	default:
		return models.RecommendPartial
	}
}

// CombineComments folds the item comments into the parent review's comment
// field as "code: comment" lines. The items remain the lossless source of
// truth.
func CombineComments(items []models.ApplicationReviewItem) string {
	var lines []string
	for _, item := range items {
		if strings.TrimSpace(item.Comments) == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", item.SubTypeCode, item.Comments))
	}
	return strings.Join(lines, "\n")
}

// RejectionReasons extracts the reasons to append to the application's
// accumulated decision reason.
func RejectionReasons(items []models.ApplicationReviewItem) []string {
	var reasons []string
	for _, item := range items {
		if item.Recommendation == models.RecommendReject {
			reasons = append(reasons, fmt.Sprintf("[%s] %s", item.SubTypeCode, item.Comments))
		}
	}
	return reasons
}

// SubTypeStatus is the cumulative state of one sub-type across all tiers.
type SubTypeStatus string

const (
	SubTypeApproved SubTypeStatus = "approved"
	SubTypeRejected SubTypeStatus = "rejected"
	SubTypePending  SubTypeStatus = "pending"
)

// CumulativeSubTypeStatus derives one sub-type's state from the latest
// recommendation of each tier: rejected when any tier rejected it, approved
// when nothing rejected it and the final required tier approved it, otherwise
// pending.
func CumulativeSubTypeStatus(code string, history []models.ApplicationReview, finalTier int) SubTypeStatus {
	return cumulativeStatus(NormalizeCode(code), latestRecommendations(history), finalTier)
}

func cumulativeStatus(code string, latest map[string]map[int]models.Recommendation, finalTier int) SubTypeStatus {
	tiers := latest[code]
	for _, rec := range tiers {
		if rec == models.RecommendReject {
			return SubTypeRejected
		}
	}
	if tiers[finalTier] == models.RecommendApprove {
		return SubTypeApproved
	}
	return SubTypePending
}

// DeriveStatus recomputes the application's overall status from the full
// review history. The computation is idempotent: it depends only on the
// history and the sub-type list, so re-running it any number of times yields
// the same answer.
//
// All sub-types approved -> approved; all rejected -> rejected; a mix of
// rejected and not-rejected -> partial_approve. When nothing is rejected and
// the final tier has not finished, the application is recommended once the
// professor tier has approved every sub-type, and under_review before that.
func DeriveStatus(appSubTypes []string, history []models.ApplicationReview, finalTier int) models.ApplicationStatus {
	if len(appSubTypes) == 0 {
		return models.StatusUnderReview
	}
	latest := latestRecommendations(history)

	approved, rejected, pending := 0, 0, 0
	professorApproved := 0
	for _, raw := range appSubTypes {
		code := NormalizeCode(raw)
		switch cumulativeStatus(code, latest, finalTier) {
		case SubTypeApproved:
			approved++
		case SubTypeRejected:
			rejected++
		default:
			pending++
		}
		if latest[code][models.RoleProfessor.Tier()] == models.RecommendApprove {
			professorApproved++
		}
	}

	total := len(appSubTypes)
	switch {
	case approved == total:
		return models.StatusApproved
	case rejected == total:
		return models.StatusRejected
	case rejected > 0:
		return models.StatusPartialApprove
	case professorApproved == total && finalTier > models.RoleProfessor.Tier():
		return models.StatusRecommended
	default:
		return models.StatusUnderReview
	}
}

// SubTypeStatuses reports the cumulative state of every sub-type, in the
// application's declared order.
func SubTypeStatuses(appSubTypes []string, history []models.ApplicationReview, finalTier int) map[string]SubTypeStatus {
	latest := latestRecommendations(history)
	out := make(map[string]SubTypeStatus, len(appSubTypes))
	for _, raw := range appSubTypes {
		code := NormalizeCode(raw)
		out[code] = cumulativeStatus(code, latest, finalTier)
	}
	return out
}

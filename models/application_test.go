package models

import "testing"

func TestApplicationStatusIsValid(t *testing.T) {
	for _, s := range []ApplicationStatus{
		StatusDraft, StatusSubmitted, StatusUnderReview, StatusRecommended,
		StatusPartialApprove, StatusApproved, StatusRejected, StatusReturned,
		StatusWithdrawn, StatusCancelled, StatusDeleted,
	} {
		if !s.IsValid() {
			t.Errorf("%s: IsValid = false, want true", s)
		}
	}
	for _, s := range []ApplicationStatus{"", "banana", "APPROVED", "in_review"} {
		if s.IsValid() {
			t.Errorf("%q: IsValid = true, want false", s)
		}
	}
}

func TestApplicationStatusCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to ApplicationStatus
		want     bool
	}{
		{StatusDraft, StatusSubmitted, true},
		{StatusSubmitted, StatusUnderReview, true},
		{StatusUnderReview, StatusApproved, true},
		{StatusUnderReview, StatusRejected, true},
		{StatusRecommended, StatusApproved, true},
		{StatusReturned, StatusSubmitted, true},
		{StatusApproved, StatusCancelled, true},
		{StatusDeleted, StatusDraft, true},

		{StatusApproved, StatusDraft, false},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusUnderReview, false},
		{StatusWithdrawn, StatusSubmitted, false},
		{StatusCancelled, StatusDraft, false},
		{StatusDraft, StatusApproved, false},
		{StatusDraft, "banana", false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s: CanTransitionTo = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

// scholarship-system/models/application_review.go

package models

import "time"

// Recommendation is a reviewer's verdict, per sub-type or aggregated over a
// whole submission.
type Recommendation string

const (
	RecommendApprove Recommendation = "approve"
	RecommendReject  Recommendation = "reject"
	RecommendPartial Recommendation = "partial_approve"
)

// ApplicationReview records one reviewer-submission event. It is immutable
// once created: corrections are made by submitting a new review, which
// supersedes older ones of the same tier by recency.
type ApplicationReview struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	ApplicationID  uint           `json:"applicationId" gorm:"index;not null"`
	ReviewerID     uint           `json:"reviewerId" gorm:"not null"`
	ReviewerRole   ReviewerRole   `json:"reviewerRole" gorm:"size:20;not null"`
	Recommendation Recommendation `json:"recommendation" gorm:"size:20;not null"`
	Comments       string         `json:"comments" gorm:"type:text"`
	ReviewedAt     time.Time      `json:"reviewedAt"`

	Items []ApplicationReviewItem `json:"items"`
}

// ApplicationReviewItem is the verdict for a single sub-type within a review
// submission. Comments are required when the recommendation is reject.
type ApplicationReviewItem struct {
	ID                  uint           `json:"id" gorm:"primaryKey"`
	ApplicationReviewID uint           `json:"applicationReviewId" gorm:"index;not null"`
	SubTypeCode         string         `json:"subTypeCode" gorm:"not null"`
	Recommendation      Recommendation `json:"recommendation" gorm:"size:20;not null"`
	Comments            string         `json:"comments" gorm:"type:text"`
}

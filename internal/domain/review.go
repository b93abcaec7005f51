package domain

import "time"

// ReviewStatus is the moderation state of a review. Any status may move to
// any other; only approved reviews count toward the product rating.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// ValidReviewStatuses returns all review statuses.
func ValidReviewStatuses() []ReviewStatus {
	return []ReviewStatus{ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected}
}

// IsValidReviewStatus reports whether s is a known review status.
func IsValidReviewStatus(s string) bool {
	for _, v := range ValidReviewStatuses() {
		if string(v) == s {
			return true
		}
	}
	return false
}

// IsValidRating reports whether r is within 1..5.
func IsValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// ModerationVerdict is the external scorer's opinion of a review text.
type ModerationVerdict struct {
	Toxicity       float64 `json:"toxicity"`
	Spam           float64 `json:"spam"`
	RequiresReview bool    `json:"requires_review"`
	// Fallback is set when the scorer could not be reached.
	Fallback bool `json:"fallback,omitempty"`
}

// InitialStatus is the status a new review gets under this verdict.
func (v ModerationVerdict) InitialStatus() ReviewStatus {
	if v.RequiresReview {
		return ReviewStatusPending
	}
	return ReviewStatusApproved
}

// Review is a user's rated opinion of a product.
type Review struct {
	ID         string             `json:"id"`
	ProductID  string             `json:"product_id"`
	UserID     string             `json:"user_id"`
	Rating     int                `json:"rating"`
	Title      string             `json:"title"`
	Body       string             `json:"body"`
	Pros       []string           `json:"pros"`
	Cons       []string           `json:"cons"`
	Status     ReviewStatus       `json:"status"`
	Moderation *ModerationVerdict `json:"moderation,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// ProductRating is the stored rating aggregate of a product. AverageRating is
// nil while the product has no approved review.
type ProductRating struct {
	ProductID     string   `json:"product_id"`
	AverageRating *float64 `json:"average_rating"`
	ReviewCount   int      `json:"review_count"`
}

// AverageRating returns sum/count rounded half away from zero to two decimal
// places, or nil when count is zero. Ratings are positive so integer
// arithmetic gives the exact rounding.
func AverageRating(sum, count int) *float64 {
	if count <= 0 {
		return nil
	}
	cents := (200*int64(sum) + int64(count)) / (2 * int64(count))
	avg := float64(cents) / 100
	return &avg
}

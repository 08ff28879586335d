package domain

import (
	"math"
	"time"
)

// ReviewDateLayout is the day/month/year display format of Review.Date.
const ReviewDateLayout = "02/01/2006"

// Rating and comment bounds for a review. Comment length is counted in
// characters after trimming surrounding whitespace.
const (
	MinRating        = 1
	MaxRating        = 5
	MinCommentLength = 10
	MaxCommentLength = 1000
)

// Review represents a product review. A user reviews a product at most once
// and reviews are never edited.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewSummary contains aggregate review statistics for a product.
type ReviewSummary struct {
	AverageRating float64 `json:"average_rating"`
	TotalCount    int     `json:"total_count"`
}

// Summarize computes the summary of reviews, with the average rounded to one
// decimal place.
func Summarize(reviews []Review) ReviewSummary {
	if len(reviews) == 0 {
		return ReviewSummary{}
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	avg := float64(sum) / float64(len(reviews))
	return ReviewSummary{
		AverageRating: math.Round(avg*10) / 10,
		TotalCount:    len(reviews),
	}
}

// SetDefaults fills in the store-assigned fields of a new review: the ID, the
// creation time and the display date.
func (r *Review) SetDefaults(id string, now time.Time) {
	if r.ID == "" {
		r.ID = id
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now.UTC()
	}
	if r.Date == "" {
		r.Date = r.CreatedAt.Local().Format(ReviewDateLayout)
	}
}

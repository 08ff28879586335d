package review

import (
	"context"

	"github.com/utafrali/plantstore/internal/domain"
)

// Eligibility check results, used as the result label of
// review_eligibility_checks_total.
const (
	resultAnonymous  = "anonymous"
	resultEligible   = "eligible"
	resultIneligible = "ineligible"
	resultError      = "error"
)

// CanReview reports whether user has a completed purchase of productID. A nil
// user is never eligible. Query failures are logged, counted and recorded on
// the span, and yield false.
func (r *Reviewer) CanReview(ctx context.Context, user *domain.User, productID string) bool {
	if user == nil {
		r.metrics.check(resultAnonymous)
		return false
	}

	qctx, cancel := withTimeout(ctx, r.cfg.QueryTimeout)
	defer cancel()

	purchased, err := r.orders.HasCompletedPurchase(qctx, user.ID, productID)
	if err != nil {
		r.metrics.check(resultError)
		r.reportQueryError(ctx, "eligibility check failed", productID, err)
		return false
	}

	if purchased {
		r.metrics.check(resultEligible)
	} else {
		r.metrics.check(resultIneligible)
	}
	return purchased
}

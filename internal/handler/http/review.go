package http

import (
	"errors"
	"log/slog"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/plantstore/internal/domain"
	"github.com/utafrali/plantstore/internal/review"
	"github.com/utafrali/plantstore/internal/service"
	"github.com/utafrali/plantstore/internal/session"
	apperrors "github.com/utafrali/plantstore/pkg/errors"
	"github.com/utafrali/plantstore/pkg/httputil"
	"github.com/utafrali/plantstore/pkg/logger"
	"github.com/utafrali/plantstore/pkg/validator"
)

// ReviewHandler handles HTTP requests for product review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{service: svc, logger: logger}
}

// SubmitReviewRequest is the JSON request body for a new review. Rating is
// decoded as a number so fractional ratings get a field error.
type SubmitReviewRequest struct {
	Rating  float64 `json:"rating"`
	Comment string  `json:"comment"`
}

// SubmitReviewResponse is returned after a review was stored. Reviews is the
// product's review list re-read from the store.
type SubmitReviewResponse struct {
	Review  *domain.Review       `json:"review"`
	Reviews []domain.Review      `json:"reviews"`
	Summary domain.ReviewSummary `json:"summary"`
}

// retainedInput is the form state returned with a failed submission.
type retainedInput struct {
	Rating  float64 `json:"rating"`
	Comment string  `json:"comment"`
}

// List handles GET /api/v1/products/{productId}/reviews
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.service.List(r.Context(), chi.URLParam(r, "productId")))
}

// Eligibility handles GET /api/v1/products/{productId}/reviews/eligibility
func (h *ReviewHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	view := h.service.Eligibility(r.Context(), sess, chi.URLParam(r, "productId"))
	httputil.WriteData(w, http.StatusOK, view)
}

// Submit handles POST /api/v1/products/{productId}/reviews
func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	retained := retainedInput{Rating: req.Rating, Comment: req.Comment}

	if req.Rating != math.Trunc(req.Rating) {
		err := validator.NewValidationError(map[string]string{"rating": "must be a whole number"})
		httputil.WriteErrorDetails(w, r, err, retained, h.logger)
		return
	}

	sess := session.FromContext(r.Context())
	out, err := h.service.Submit(r.Context(), sess, chi.URLParam(r, "productId"), service.SubmitReviewInput{
		Rating:  int(req.Rating),
		Comment: req.Comment,
	})
	if err != nil {
		h.writeSubmitError(w, r, out, err, retained)
		return
	}

	httputil.WriteData(w, http.StatusCreated, SubmitReviewResponse{
		Review:  out.Review,
		Reviews: out.Reviews,
		Summary: domain.Summarize(out.Reviews),
	})
}

// writeSubmitError reports a store failure as 502 with the entered input, so
// the form can be restored for a manual retry.
func (h *ReviewHandler) writeSubmitError(w http.ResponseWriter, r *http.Request, out review.Outcome, err error, retained retainedInput) {
	if out.State == review.StateFailed || errors.Is(err, apperrors.ErrWrite) {
		message := out.Message
		if message == "" {
			message = "the review could not be saved, please try again"
		}
		httputil.WriteJSON(w, http.StatusBadGateway, httputil.Response{Error: &httputil.ErrorResponse{
			Code:      "WRITE_FAILED",
			Message:   message,
			Details:   retained,
			RequestID: logger.CorrelationIDFromContext(r.Context()),
		}})
		return
	}

	httputil.WriteErrorDetails(w, r, err, retained, h.logger)
}

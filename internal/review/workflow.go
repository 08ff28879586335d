package review

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/utafrali/plantstore/internal/domain"
	"github.com/utafrali/plantstore/internal/session"
	apperrors "github.com/utafrali/plantstore/pkg/errors"
	"github.com/utafrali/plantstore/pkg/logger"
	"github.com/utafrali/plantstore/pkg/tracing"
)

// State is a step of the submission workflow.
type State string

// Workflow states. A workflow starts idle, passes through checking on every
// Check or Submit, and ends a submission in success or failed.
const (
	StateIdle            State = "idle"
	StateChecking        State = "checking"
	StateEligible        State = "eligible"
	StateIneligible      State = "ineligible"
	StateAlreadyReviewed State = "already_reviewed"
	StateSubmitting      State = "submitting"
	StateSuccess         State = "success"
	StateFailed          State = "failed"
)

// Submission outcomes, used as the outcome label of review_submissions_total.
const (
	outcomeSuccess         = "success"
	outcomeFailed          = "failed"
	outcomeAlreadyReviewed = "already_reviewed"
	outcomeIneligible      = "ineligible"
	outcomeUnauthenticated = "unauthenticated"
	outcomeInvalid         = "invalid"
	outcomeInProgress      = "in_progress"
)

// ErrSubmitInProgress is returned by Submit while another submission of the
// same workflow is running.
var ErrSubmitInProgress = apperrors.Conflict("a review submission is already in progress")

const failedMessage = "We could not save your review. Your rating and comment were kept, please try again."

// ReviewFormView tells the product page what to render in the review area.
type ReviewFormView struct {
	ShowForm        bool  `json:"show_form"`
	ShowLoginPrompt bool  `json:"show_login_prompt"`
	AlreadyReviewed bool  `json:"already_reviewed"`
	CanReview       bool  `json:"can_review"`
	State           State `json:"state"`
}

// Outcome is the result of a submission. On success Completed is set and
// Reviews holds the product's reviews re-read from the store. On failure
// Rating and Comment hold the input to restore into the form.
type Outcome struct {
	State     State           `json:"state"`
	Completed bool            `json:"completed"`
	Review    *domain.Review  `json:"review,omitempty"`
	Reviews   []domain.Review `json:"reviews,omitempty"`
	Rating    int             `json:"rating,omitempty"`
	Comment   string          `json:"comment,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// Workflow is the review form of one visitor on one product. It is safe for
// concurrent use; a second Submit while one is running fails with
// ErrSubmitInProgress.
type Workflow struct {
	r         *Reviewer
	session   session.Session
	productID string

	mu         sync.Mutex
	state      State
	submitting bool
	rating     int
	comment    string
	message    string
}

func newWorkflow(r *Reviewer, sess session.Session, productID string) *Workflow {
	if sess == nil {
		sess = session.Anonymous()
	}
	return &Workflow{
		r:         r,
		session:   sess,
		productID: productID,
		state:     StateIdle,
	}
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Input returns the rating and comment currently held by the form.
func (w *Workflow) Input() (int, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rating, w.comment
}

// Message returns the error description of the last failed submission.
func (w *Workflow) Message() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.message
}

// Check evaluates whether the visitor may review the product and returns what
// the page should show.
func (w *Workflow) Check(ctx context.Context) ReviewFormView {
	w.mu.Lock()
	if w.submitting {
		v := w.viewLocked()
		w.mu.Unlock()
		return v
	}
	w.state = StateChecking
	w.mu.Unlock()

	state := w.evaluate(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = state
	return w.viewLocked()
}

// Submit validates and stores a review. The existence and eligibility checks
// run again on every call; the store is written only from the submitting
// state. A store failure leaves the workflow in StateFailed with the input
// retained; it is not retried.
func (w *Workflow) Submit(ctx context.Context, rating int, comment string) (Outcome, error) {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		w.r.metrics.submission(outcomeInProgress)
		return Outcome{State: StateSubmitting}, ErrSubmitInProgress
	}
	w.submitting = true
	w.rating, w.comment = rating, comment
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.submitting = false
		w.mu.Unlock()
	}()

	user := w.session.CurrentUser()
	if user == nil {
		w.setState(StateIneligible)
		w.r.metrics.submission(outcomeUnauthenticated)
		return Outcome{State: StateIneligible}, apperrors.Unauthorized("log in to review this product")
	}

	if err := Validate(rating, comment); err != nil {
		w.r.metrics.submission(outcomeInvalid)
		return w.retained(w.State(), ""), err
	}

	w.setState(StateChecking)
	switch state := w.evaluate(ctx); state {
	case StateAlreadyReviewed:
		w.setState(state)
		w.r.metrics.submission(outcomeAlreadyReviewed)
		return Outcome{State: state}, apperrors.AlreadyExists("review", "product_id", w.productID)
	case StateIneligible:
		w.setState(state)
		w.r.metrics.submission(outcomeIneligible)
		return Outcome{State: state}, apperrors.Forbidden("only customers with a completed order for this product can review it")
	}

	w.setState(StateSubmitting)
	review := &domain.Review{
		ProductID: w.productID,
		UserID:    user.ID,
		UserName:  displayName(user),
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
	}

	if err := w.create(ctx, review); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			w.setState(StateAlreadyReviewed)
			w.r.metrics.submission(outcomeAlreadyReviewed)
			return Outcome{State: StateAlreadyReviewed}, err
		}

		tracing.RecordError(ctx, err)
		logger.WithContext(ctx, w.r.logger).ErrorContext(ctx, "review submission failed",
			slog.String("product_id", w.productID),
			slog.String("error", err.Error()),
		)
		w.r.metrics.submission(outcomeFailed)

		w.mu.Lock()
		w.state = StateFailed
		w.message = failedMessage
		w.mu.Unlock()
		return w.retained(StateFailed, failedMessage), err
	}

	w.mu.Lock()
	w.state = StateSuccess
	w.rating, w.comment, w.message = 0, "", ""
	w.mu.Unlock()
	w.r.metrics.submission(outcomeSuccess)

	logger.WithContext(ctx, w.r.logger).InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("product_id", w.productID),
		slog.Int("rating", review.Rating),
	)

	return Outcome{
		State:     StateSuccess,
		Completed: true,
		Review:    review,
		Reviews:   w.r.ListReviews(ctx, w.productID),
	}, nil
}

// evaluate runs the already-reviewed and eligibility checks. Any read failure
// leaves the visitor ineligible.
func (w *Workflow) evaluate(ctx context.Context) State {
	user := w.session.CurrentUser()
	if user == nil {
		return StateIneligible
	}

	qctx, cancel := withTimeout(ctx, w.r.cfg.QueryTimeout)
	existing, err := w.r.reviews.GetByUserAndProduct(qctx, user.ID, w.productID)
	cancel()
	if err != nil {
		w.r.reportQueryError(ctx, "existing review lookup failed", w.productID, err)
		return StateIneligible
	}
	if existing != nil {
		return StateAlreadyReviewed
	}

	if !w.r.CanReview(ctx, user, w.productID) {
		return StateIneligible
	}
	return StateEligible
}

func (w *Workflow) create(ctx context.Context, review *domain.Review) error {
	ctx, cancel := withTimeout(ctx, w.r.cfg.WriteTimeout)
	defer cancel()
	return w.r.reviews.Create(ctx, review)
}

func (w *Workflow) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

func (w *Workflow) retained(state State, message string) Outcome {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Outcome{
		State:   state,
		Rating:  w.rating,
		Comment: w.comment,
		Message: message,
	}
}

func (w *Workflow) viewLocked() ReviewFormView {
	anonymous := w.session.CurrentUser() == nil
	open := w.state == StateEligible || w.state == StateFailed || w.state == StateSubmitting
	return ReviewFormView{
		ShowForm:        !anonymous && open,
		ShowLoginPrompt: anonymous,
		AlreadyReviewed: w.state == StateAlreadyReviewed || w.state == StateSuccess,
		CanReview:       !anonymous && open,
		State:           w.state,
	}
}

func displayName(u *domain.User) string {
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	return u.Email
}

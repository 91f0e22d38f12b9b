package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"code-review-market/models"
	"code-review-market/repository"
)

const (
	minScore = 1
	maxScore = 10
)

type ReviewService interface {
	// SaveDraft overwrites the provided fields and leaves the request status alone.
	SaveDraft(ctx context.Context, actor *models.User, reviewID uint, in models.ReviewUpdate) (*models.Review, error)
	// Submit writes the provided fields, fixes the overall score and completes the request.
	Submit(ctx context.Context, actor *models.User, reviewID uint, in models.ReviewUpdate) (*models.Review, error)
	Get(ctx context.Context, actor *models.User, reviewID uint) (*models.Review, error)
	ForRequest(ctx context.Context, actor *models.User, requestID uint) (*models.Review, error)
}

type reviewService struct {
	repo     *repository.Repository
	log      *zap.Logger
	dispatch *Dispatcher
	now      func() time.Time
}

func NewReviewService(repo *repository.Repository, log *zap.Logger, dispatch *Dispatcher) ReviewService {
	return &reviewService{repo: repo, log: log, dispatch: dispatch, now: time.Now}
}

func validateScores(in models.ReviewUpdate) error {
	scores := []struct {
		name  string
		value *int
	}{
		{"security_score", in.SecurityScore},
		{"architecture_score", in.ArchitectureScore},
		{"performance_score", in.PerformanceScore},
		{"maintainability_score", in.MaintainabilityScore},
		{"overall_score", in.OverallScore},
	}
	for _, sc := range scores {
		if sc.value != nil && (*sc.value < minScore || *sc.value > maxScore) {
			return NewErr(KindInvalidInput, fmt.Sprintf("%s must be between %d and %d", sc.name, minScore, maxScore))
		}
	}
	return nil
}

// apply copies the provided fields onto review and returns the matching column set.
// OverallScore is handled by Submit.
func apply(review *models.Review, in models.ReviewUpdate) map[string]any {
	fields := map[string]any{}
	setInt := func(col string, dst **int, v *int) {
		if v != nil {
			val := *v
			*dst = &val
			fields[col] = val
		}
	}
	setStr := func(col string, dst *string, v *string) {
		if v != nil {
			*dst = *v
			fields[col] = *v
		}
	}

	setInt("security_score", &review.SecurityScore, in.SecurityScore)
	setStr("security_notes", &review.SecurityNotes, in.SecurityNotes)
	setInt("architecture_score", &review.ArchitectureScore, in.ArchitectureScore)
	setStr("architecture_notes", &review.ArchitectureNotes, in.ArchitectureNotes)
	setInt("performance_score", &review.PerformanceScore, in.PerformanceScore)
	setStr("performance_notes", &review.PerformanceNotes, in.PerformanceNotes)
	setInt("maintainability_score", &review.MaintainabilityScore, in.MaintainabilityScore)
	setStr("maintainability_notes", &review.MaintainabilityNotes, in.MaintainabilityNotes)
	setStr("summary", &review.Summary, in.Summary)
	setStr("recommendations", &review.Recommendations, in.Recommendations)
	return fields
}

// OverallScore is the rounded mean of the four category scores. ok is false
// when any category is still empty.
func OverallScore(r *models.Review) (score int, ok bool) {
	cats := []*int{r.SecurityScore, r.ArchitectureScore, r.PerformanceScore, r.MaintainabilityScore}
	sum := 0
	for _, c := range cats {
		if c == nil {
			return 0, false
		}
		sum += *c
	}
	return int(math.Round(float64(sum) / float64(len(cats)))), true
}

// lockWritable loads the review for its reviewer and rejects writes the
// lifecycle no longer allows.
func lockWritable(ctx context.Context, tx *repository.Repository, actor *models.User, reviewID uint) (*models.Review, *models.ReviewRequest, error) {
	review, err := tx.Reviews.GetForUpdate(ctx, reviewID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, NewErr(KindNotFound, "review not found")
		}
		return nil, nil, err
	}
	if review.ReviewerID != actor.ID {
		return nil, nil, NewErr(KindForbidden, "only the assigned reviewer can edit this review")
	}
	if review.IsSubmitted() {
		return nil, nil, NewErr(KindInvalidState, "review has already been submitted")
	}

	req, err := tx.Requests.GetForUpdate(ctx, review.RequestID)
	if err != nil {
		return nil, nil, err
	}
	if req.Status != models.RequestStatusInProgress {
		return nil, nil, NewErr(KindInvalidState, fmt.Sprintf("request is %s", req.Status))
	}
	return review, req, nil
}

func (s *reviewService) SaveDraft(ctx context.Context, actor *models.User, reviewID uint, in models.ReviewUpdate) (*models.Review, error) {
	if err := requireRole(actor, models.RoleReviewer); err != nil {
		return nil, err
	}
	if err := validateScores(in); err != nil {
		return nil, err
	}

	var review *models.Review
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		if review, _, err = lockWritable(ctx, tx, actor, reviewID); err != nil {
			return err
		}

		fields := apply(review, in)
		if len(fields) == 0 {
			return nil
		}
		ok, err := tx.Reviews.UpdateUnsubmitted(ctx, reviewID, fields)
		if err != nil {
			return err
		}
		if !ok {
			return NewErr(KindInvalidState, "review has already been submitted")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) Submit(ctx context.Context, actor *models.User, reviewID uint, in models.ReviewUpdate) (*models.Review, error) {
	if err := requireRole(actor, models.RoleReviewer); err != nil {
		return nil, err
	}
	if err := validateScores(in); err != nil {
		return nil, err
	}

	var (
		review *models.Review
		req    *models.ReviewRequest
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		if review, req, err = lockWritable(ctx, tx, actor, reviewID); err != nil {
			return err
		}

		fields := apply(review, in)
		mean, complete := OverallScore(review)
		if !complete {
			return NewErr(KindInvalidInput, "all four category scores are required to submit")
		}
		overall := mean
		if in.OverallScore != nil {
			overall = *in.OverallScore
		}
		submittedAt := s.now().UTC()
		review.OverallScore = &overall
		review.SubmittedAt = &submittedAt
		fields["overall_score"] = overall
		fields["submitted_at"] = submittedAt

		ok, err := tx.Reviews.UpdateUnsubmitted(ctx, reviewID, fields)
		if err != nil {
			return err
		}
		if !ok {
			return NewErr(KindInvalidState, "review has already been submitted")
		}

		ok, err = tx.Requests.SetStatus(ctx, review.RequestID, models.RequestStatusCompleted, models.RequestStatusInProgress)
		if err != nil {
			return err
		}
		if !ok {
			return NewErr(KindInvalidState, "request is no longer in progress")
		}
		req.Status = models.RequestStatusCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("review submitted",
		zap.Uint("review_id", reviewID),
		zap.Uint("request_id", review.RequestID),
		zap.Int("overall_score", *review.OverallScore),
	)
	s.dispatch.Dispatch(ctx, Notice{
		UserID: req.BuilderID,
		Kind:   models.NotifyReviewSubmitted,
		Title:  "Your review is ready",
		Body:   fmt.Sprintf("%s delivered the review for %q with an overall score of %d/10.", actor.FullName, req.Title, *review.OverallScore),
		Link:   reviewLink(reviewID),
	})
	return review, nil
}

// visible reports whether actor is one of the two parties to the review.
func (s *reviewService) visible(ctx context.Context, actor *models.User, review *models.Review) error {
	if review.ReviewerID == actor.ID {
		return nil
	}
	req, err := s.repo.Requests.GetByID(ctx, review.RequestID)
	if err != nil {
		return err
	}
	if req.BuilderID == actor.ID {
		return nil
	}
	return NewErr(KindNotFound, "review not found")
}

func (s *reviewService) Get(ctx context.Context, actor *models.User, reviewID uint) (*models.Review, error) {
	if actor == nil {
		return nil, errUnauthorized()
	}
	review, err := s.repo.Reviews.GetByID(ctx, reviewID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, NewErr(KindNotFound, "review not found")
		}
		return nil, err
	}
	if err := s.visible(ctx, actor, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) ForRequest(ctx context.Context, actor *models.User, requestID uint) (*models.Review, error) {
	if actor == nil {
		return nil, errUnauthorized()
	}
	review, err := s.repo.Reviews.GetByRequest(ctx, requestID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, NewErr(KindNotFound, "no review for this request yet")
		}
		return nil, err
	}
	if err := s.visible(ctx, actor, review); err != nil {
		return nil, err
	}
	return review, nil
}

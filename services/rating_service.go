package services

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"code-review-market/models"
	"code-review-market/repository"
)

type RatingService interface {
	Rate(ctx context.Context, actor *models.User, reviewID uint, in models.RatingCreate) (*models.Rating, error)
	ProfileFor(ctx context.Context, reviewerID uint) (*ReviewerProfileView, error)
}

type ReviewerProfileView struct {
	Profile *models.ReviewerProfile `json:"profile"`
	Recent  []models.Rating         `json:"recent_ratings"`
}

type ratingService struct {
	repo     *repository.Repository
	log      *zap.Logger
	dispatch *Dispatcher
}

func NewRatingService(repo *repository.Repository, log *zap.Logger, dispatch *Dispatcher) RatingService {
	return &ratingService{repo: repo, log: log, dispatch: dispatch}
}

// Aggregate averages stars rounded to one decimal. An empty slice yields 0.
func Aggregate(stars []int) (avg float64, count int) {
	if len(stars) == 0 {
		return 0, 0
	}
	sum := 0
	for _, s := range stars {
		sum += s
	}
	return math.Round(float64(sum)/float64(len(stars))*10) / 10, len(stars)
}

func (s *ratingService) Rate(ctx context.Context, actor *models.User, reviewID uint, in models.RatingCreate) (*models.Rating, error) {
	if err := requireRole(actor, models.RoleBuilder); err != nil {
		return nil, err
	}
	if in.Stars < 1 || in.Stars > 5 {
		return nil, NewErr(KindInvalidInput, "stars must be between 1 and 5")
	}

	var (
		rating  *models.Rating
		summary models.RatingSummary
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		review, err := tx.Reviews.GetByID(ctx, reviewID)
		if err != nil {
			if repository.IsNotFound(err) {
				return NewErr(KindNotFound, "review not found")
			}
			return err
		}
		req, err := tx.Requests.GetByID(ctx, review.RequestID)
		if err != nil {
			return err
		}
		if req.BuilderID != actor.ID {
			return NewErr(KindForbidden, "only the request's builder can rate this review")
		}
		if !review.IsSubmitted() {
			return NewErr(KindInvalidState, "the review has not been submitted yet")
		}

		exists, err := tx.Ratings.Exists(ctx, reviewID, actor.ID)
		if err != nil {
			return err
		}
		if exists {
			return NewErr(KindConflict, "you already rated this review")
		}

		// Ratings for one reviewer queue on the profile row, so each recompute
		// below sees every rating committed before it.
		if _, err := tx.Profiles.GetForUpdate(ctx, review.ReviewerID); err != nil {
			return err
		}

		rating = &models.Rating{
			ReviewID:   reviewID,
			UserID:     actor.ID,
			ReviewerID: review.ReviewerID,
			Stars:      in.Stars,
			Comment:    in.Comment,
		}
		if err := tx.Ratings.Create(ctx, rating); err != nil {
			if repository.IsUniqueViolation(err) {
				return NewErr(KindConflict, "you already rated this review")
			}
			return err
		}

		// Recomputed from every rating the reviewer has, never incrementally.
		stars, err := tx.Ratings.StarsForReviewer(ctx, review.ReviewerID)
		if err != nil {
			return err
		}
		avg, count := Aggregate(stars)
		summary = models.RatingSummary{ReviewerID: review.ReviewerID, Average: avg, Count: count}
		return tx.Profiles.SaveAggregate(ctx, review.ReviewerID, avg, count)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("review rated",
		zap.Uint("review_id", reviewID),
		zap.Uint("reviewer_id", summary.ReviewerID),
		zap.Float64("rating_avg", summary.Average),
		zap.Int("rating_count", summary.Count),
	)
	s.dispatch.Dispatch(ctx, Notice{
		UserID: rating.ReviewerID,
		Kind:   models.NotifyRatingReceived,
		Title:  "You received a rating",
		Body:   fmt.Sprintf("%s rated your review %d/5.", actor.FullName, rating.Stars),
		Link:   reviewLink(reviewID),
	})
	return rating, nil
}

func (s *ratingService) ProfileFor(ctx context.Context, reviewerID uint) (*ReviewerProfileView, error) {
	profile, err := s.repo.Profiles.GetByUserID(ctx, reviewerID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, NewErr(KindNotFound, "reviewer not found")
		}
		return nil, err
	}
	recent, err := s.repo.Ratings.ListForReviewer(ctx, reviewerID, 10)
	if err != nil {
		return nil, err
	}
	return &ReviewerProfileView{Profile: profile, Recent: recent}, nil
}

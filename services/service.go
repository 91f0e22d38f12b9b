package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"code-review-market/lifecycle"
	"code-review-market/models"
	"code-review-market/repository"
)

type Services struct {
	Auth          AuthService
	JWT           *JWTService
	Requests      RequestService
	Quotes        QuoteService
	Payments      PaymentService
	Reviews       ReviewService
	Ratings       RatingService
	Messages      MessageService
	Notifications NotificationService
}

// Options carries the collaborators that are not part of the entity store.
type Options struct {
	JWTSecret      string
	JWTExpiryHours int
	Dispatcher     *Dispatcher
	Attachments    AttachmentStore
}

func New(repo *repository.Repository, log *zap.Logger, opts Options) *Services {
	return buildServices(repo, log, opts)
}

func buildServices(repo *repository.Repository, log *zap.Logger, opts Options) *Services {
	jwt := NewJWTService(opts.JWTSecret, opts.JWTExpiryHours)
	return &Services{
		Auth:          NewAuthService(repo, jwt, log),
		JWT:           jwt,
		Requests:      NewRequestService(repo, log, opts.Dispatcher),
		Quotes:        NewQuoteService(repo, log, opts.Dispatcher),
		Payments:      NewPaymentService(repo, log, opts.Dispatcher),
		Reviews:       NewReviewService(repo, log, opts.Dispatcher),
		Ratings:       NewRatingService(repo, log, opts.Dispatcher),
		Messages:      NewMessageService(repo, log, opts.Dispatcher, opts.Attachments),
		Notifications: NewNotificationService(repo),
	}
}

func requireRole(actor *models.User, role models.UserRole) error {
	if actor == nil {
		return errUnauthorized()
	}
	if actor.Role != role {
		return NewErr(KindForbidden, fmt.Sprintf("only a %s can do this", role))
	}
	return nil
}

// lockRequest loads and locks the request inside a transition.
func lockRequest(ctx context.Context, tx *repository.Repository, id uint) (*models.ReviewRequest, error) {
	req, err := tx.Requests.GetForUpdate(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, NewErr(KindNotFound, "request not found")
		}
		return nil, err
	}
	return req, nil
}

func ownedBy(req *models.ReviewRequest, actor *models.User) error {
	if req.BuilderID != actor.ID {
		return NewErr(KindForbidden, "you do not own this request")
	}
	return nil
}

// flagsFor derives the lifecycle flags of a request from its quotes and review.
func flagsFor(ctx context.Context, repo *repository.Repository, requestID uint) (lifecycle.Flags, error) {
	var f lifecycle.Flags

	count, err := repo.Quotes.CountByRequest(ctx, requestID)
	if err != nil {
		return f, err
	}
	f.HasQuotes = count > 0

	if f.HasPaidQuote, err = repo.Quotes.HasPaid(ctx, requestID); err != nil {
		return f, err
	}
	if f.HasCompletedReview, err = repo.Reviews.HasSubmitted(ctx, requestID); err != nil {
		return f, err
	}
	return f, nil
}

func requestLink(id uint) string {
	return fmt.Sprintf("/requests/%d", id)
}

func reviewLink(id uint) string {
	return fmt.Sprintf("/reviews/%d", id)
}

package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"code-review-market/models"
	"code-review-market/repository"
)

type PaymentService interface {
	// Pay settles the accepted quote, starts the work and opens the review.
	Pay(ctx context.Context, actor *models.User, requestID uint) (*PaymentResult, error)
}

type PaymentResult struct {
	Quote  *models.Quote  `json:"quote"`
	Review *models.Review `json:"review"`
}

type paymentService struct {
	repo     *repository.Repository
	log      *zap.Logger
	dispatch *Dispatcher
	now      func() time.Time
}

func NewPaymentService(repo *repository.Repository, log *zap.Logger, dispatch *Dispatcher) PaymentService {
	return &paymentService{repo: repo, log: log, dispatch: dispatch, now: time.Now}
}

func (s *paymentService) Pay(ctx context.Context, actor *models.User, requestID uint) (*PaymentResult, error) {
	if err := requireRole(actor, models.RoleBuilder); err != nil {
		return nil, err
	}

	var (
		req *models.ReviewRequest
		out = &PaymentResult{}
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		if req, err = lockRequest(ctx, tx, requestID); err != nil {
			return err
		}
		if err := ownedBy(req, actor); err != nil {
			return err
		}

		quote, err := tx.Quotes.GetAccepted(ctx, requestID)
		if err != nil {
			if repository.IsNotFound(err) {
				return NewErr(KindNotFound, "no accepted quote to pay for")
			}
			return err
		}
		if quote.Paid {
			return NewErr(KindAlreadyProcessed, "this quote has already been paid")
		}
		if req.Status != models.RequestStatusOpen {
			return NewErr(KindInvalidState, fmt.Sprintf("a %s request cannot be paid", req.Status))
		}

		paidAt := s.now().UTC()
		ok, err := tx.Quotes.MarkPaid(ctx, quote.ID, paidAt)
		if err != nil {
			return err
		}
		if !ok {
			return NewErr(KindAlreadyProcessed, "this quote has already been paid")
		}
		quote.Paid = true
		quote.PaidAt = &paidAt

		ok, err = tx.Requests.SetStatus(ctx, requestID, models.RequestStatusInProgress, models.RequestStatusOpen)
		if err != nil {
			return err
		}
		if !ok {
			return NewErr(KindInvalidState, "request is no longer open")
		}

		review := &models.Review{
			RequestID:  requestID,
			ReviewerID: quote.ReviewerID,
			QuoteID:    quote.ID,
		}
		if err := tx.Reviews.Create(ctx, review); err != nil {
			if repository.IsUniqueViolation(err) {
				return NewErr(KindAlreadyProcessed, "a review already exists for this quote")
			}
			return err
		}

		out.Quote = quote
		out.Review = review
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment completed",
		zap.Uint("request_id", requestID),
		zap.Uint("quote_id", out.Quote.ID),
		zap.Uint("review_id", out.Review.ID),
	)
	s.dispatch.Dispatch(ctx, Notice{
		UserID: out.Quote.ReviewerID,
		Kind:   models.NotifyPaymentReceived,
		Title:  "Payment received",
		Body:   fmt.Sprintf("The builder paid for %q. You can start the review.", req.Title),
		Link:   reviewLink(out.Review.ID),
	})
	return out, nil
}

package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"code-review-market/models"
	"code-review-market/repository"
)

type QuoteService interface {
	Submit(ctx context.Context, actor *models.User, requestID uint, in models.QuoteCreate) (*models.Quote, error)
	Accept(ctx context.Context, actor *models.User, requestID, quoteID uint) (*models.Quote, error)
	// ListForRequest returns every quote to the request's builder and only the
	// caller's own quote to a reviewer.
	ListForRequest(ctx context.Context, actor *models.User, requestID uint) ([]models.Quote, error)
}

type quoteService struct {
	repo     *repository.Repository
	log      *zap.Logger
	dispatch *Dispatcher
}

func NewQuoteService(repo *repository.Repository, log *zap.Logger, dispatch *Dispatcher) QuoteService {
	return &quoteService{repo: repo, log: log, dispatch: dispatch}
}

func (s *quoteService) Submit(ctx context.Context, actor *models.User, requestID uint, in models.QuoteCreate) (*models.Quote, error) {
	if err := requireRole(actor, models.RoleReviewer); err != nil {
		return nil, err
	}
	if in.Price <= 0 {
		return nil, NewErr(KindInvalidInput, "price must be greater than zero")
	}
	if in.TurnaroundDays <= 0 {
		return nil, NewErr(KindInvalidInput, "turnaround must be at least one day")
	}

	var (
		req   *models.ReviewRequest
		quote *models.Quote
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		if req, err = lockRequest(ctx, tx, requestID); err != nil {
			return err
		}
		if req.Status != models.RequestStatusOpen {
			return NewErr(KindInvalidState, "request is not open for quotes")
		}

		exists, err := tx.Quotes.ExistsForReviewer(ctx, requestID, actor.ID)
		if err != nil {
			return err
		}
		if exists {
			return NewErr(KindConflict, "you already quoted on this request")
		}
		accepted, err := tx.Quotes.HasAccepted(ctx, requestID)
		if err != nil {
			return err
		}
		if accepted {
			return NewErr(KindConflict, "a quote has already been accepted for this request")
		}

		quote = &models.Quote{
			RequestID:      requestID,
			ReviewerID:     actor.ID,
			Price:          in.Price,
			TurnaroundDays: in.TurnaroundDays,
			Note:           in.Note,
			Status:         models.QuoteStatusPending,
		}
		if err := tx.Quotes.Create(ctx, quote); err != nil {
			if repository.IsUniqueViolation(err) {
				return NewErr(KindConflict, "you already quoted on this request")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("quote submitted",
		zap.Uint("quote_id", quote.ID),
		zap.Uint("request_id", requestID),
		zap.Uint("reviewer_id", actor.ID),
	)
	s.dispatch.Dispatch(ctx, Notice{
		UserID: req.BuilderID,
		Kind:   models.NotifyQuoteReceived,
		Title:  "New quote received",
		Body:   fmt.Sprintf("%s quoted $%.2f with a %d day turnaround on %q.", actor.FullName, quote.Price, quote.TurnaroundDays, req.Title),
		Link:   requestLink(requestID),
	})
	return quote, nil
}

func (s *quoteService) Accept(ctx context.Context, actor *models.User, requestID, quoteID uint) (*models.Quote, error) {
	if err := requireRole(actor, models.RoleBuilder); err != nil {
		return nil, err
	}

	var (
		req      *models.ReviewRequest
		quote    *models.Quote
		rejected []models.Quote
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		if req, err = lockRequest(ctx, tx, requestID); err != nil {
			return err
		}
		if err := ownedBy(req, actor); err != nil {
			return err
		}
		if req.Status != models.RequestStatusOpen {
			return NewErr(KindInvalidState, "request is no longer open")
		}

		quote, err = tx.Quotes.GetByID(ctx, quoteID)
		if err != nil {
			if repository.IsNotFound(err) {
				return NewErr(KindNotFound, "quote not found")
			}
			return err
		}
		if quote.RequestID != requestID {
			return NewErr(KindNotFound, "quote not found")
		}
		if quote.Status != models.QuoteStatusPending {
			return NewErr(KindConflict, fmt.Sprintf("quote is already %s", quote.Status))
		}

		ok, err := tx.Quotes.Accept(ctx, quoteID)
		if err != nil {
			if repository.IsUniqueViolation(err) {
				return NewErr(KindConflict, "another quote was accepted first")
			}
			return err
		}
		if !ok {
			return NewErr(KindConflict, "quote was resolved by another action")
		}
		quote.Status = models.QuoteStatusAccepted

		rejected, err = tx.Quotes.RejectPending(ctx, requestID, quoteID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("quote accepted",
		zap.Uint("quote_id", quoteID),
		zap.Uint("request_id", requestID),
		zap.Int("rejected", len(rejected)),
	)

	notices := []Notice{{
		UserID: quote.ReviewerID,
		Kind:   models.NotifyQuoteAccepted,
		Title:  "Your quote was accepted",
		Body:   fmt.Sprintf("Your quote on %q was accepted. Work can start once the builder pays.", req.Title),
		Link:   requestLink(requestID),
	}}
	for _, q := range rejected {
		notices = append(notices, Notice{
			UserID: q.ReviewerID,
			Kind:   models.NotifyQuoteRejected,
			Title:  "Quote not selected",
			Body:   fmt.Sprintf("The builder chose another quote for %q.", req.Title),
			Link:   requestLink(requestID),
		})
	}
	s.dispatch.Dispatch(ctx, notices...)
	return quote, nil
}

func (s *quoteService) ListForRequest(ctx context.Context, actor *models.User, requestID uint) ([]models.Quote, error) {
	if actor == nil {
		return nil, errUnauthorized()
	}
	req, err := s.repo.Requests.GetByID(ctx, requestID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, NewErr(KindNotFound, "request not found")
		}
		return nil, err
	}

	quotes, err := s.repo.Quotes.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.BuilderID == actor.ID {
		return quotes, nil
	}
	if !actor.IsReviewer() {
		return nil, NewErr(KindNotFound, "request not found")
	}

	own := make([]models.Quote, 0, 1)
	for _, q := range quotes {
		if q.ReviewerID == actor.ID {
			own = append(own, q)
		}
	}
	return own, nil
}

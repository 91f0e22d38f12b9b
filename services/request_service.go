package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"code-review-market/lifecycle"
	"code-review-market/models"
	"code-review-market/repository"
)

type RequestService interface {
	Create(ctx context.Context, actor *models.User, in models.ReviewRequestCreate) (*models.ReviewRequest, error)
	Get(ctx context.Context, actor *models.User, id uint) (*RequestView, error)
	// ListMine returns a builder's own requests, or the requests a reviewer has quoted on.
	ListMine(ctx context.Context, actor *models.User) ([]RequestView, error)
	ListOpen(ctx context.Context, actor *models.User, limit, offset int) ([]RequestView, error)
	Cancel(ctx context.Context, actor *models.User, id uint) (*models.ReviewRequest, error)
	Edit(ctx context.Context, actor *models.User, id uint, in models.ReviewRequestUpdate) (*models.ReviewRequest, error)
}

// RequestView is a request together with its progress as seen by the caller.
type RequestView struct {
	Request  *models.ReviewRequest `json:"request"`
	Progress lifecycle.Progress    `json:"progress"`
	Stages   []string              `json:"stages"`
}

type requestService struct {
	repo     *repository.Repository
	log      *zap.Logger
	dispatch *Dispatcher
}

func NewRequestService(repo *repository.Repository, log *zap.Logger, dispatch *Dispatcher) RequestService {
	return &requestService{repo: repo, log: log, dispatch: dispatch}
}

func validateBudget(min, max float64) error {
	if min < 0 || max < 0 {
		return NewErr(KindInvalidInput, "budget cannot be negative")
	}
	if min > max {
		return NewErr(KindInvalidInput, "budget_min cannot exceed budget_max")
	}
	return nil
}

func (s *requestService) Create(ctx context.Context, actor *models.User, in models.ReviewRequestCreate) (*models.ReviewRequest, error) {
	if err := requireRole(actor, models.RoleBuilder); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, NewErr(KindInvalidInput, "title is required")
	}
	if err := validateBudget(in.BudgetMin, in.BudgetMax); err != nil {
		return nil, err
	}

	req := &models.ReviewRequest{
		BuilderID:   actor.ID,
		Title:       title,
		Description: in.Description,
		RepoURL:     in.RepoURL,
		Stack:       in.Stack,
		Concerns:    in.Concerns,
		Category:    in.Category,
		BudgetMin:   in.BudgetMin,
		BudgetMax:   in.BudgetMax,
		Status:      models.RequestStatusOpen,
	}
	if err := s.repo.Requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	s.log.Info("request created", zap.Uint("request_id", req.ID), zap.Uint("builder_id", actor.ID))
	return req, nil
}

func (s *requestService) view(ctx context.Context, actor *models.User, req *models.ReviewRequest) (*RequestView, error) {
	flags, err := flagsFor(ctx, s.repo, req.ID)
	if err != nil {
		return nil, err
	}
	return &RequestView{
		Request: req,
		Progress: lifecycle.Compute(lifecycle.Input{
			Status:     req.Status,
			Flags:      flags,
			ViewerRole: actor.Role,
		}),
		Stages: lifecycle.Stages(),
	}, nil
}

func (s *requestService) Get(ctx context.Context, actor *models.User, id uint) (*RequestView, error) {
	if actor == nil {
		return nil, errUnauthorized()
	}
	req, err := s.repo.Requests.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, NewErr(KindNotFound, "request not found")
		}
		return nil, err
	}
	// Builders only see their own requests; reviewers browse the marketplace.
	if actor.IsBuilder() && req.BuilderID != actor.ID {
		return nil, NewErr(KindNotFound, "request not found")
	}
	return s.view(ctx, actor, req)
}

func (s *requestService) views(ctx context.Context, actor *models.User, reqs []models.ReviewRequest) ([]RequestView, error) {
	out := make([]RequestView, 0, len(reqs))
	for i := range reqs {
		v, err := s.view(ctx, actor, &reqs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (s *requestService) ListMine(ctx context.Context, actor *models.User) ([]RequestView, error) {
	if actor == nil {
		return nil, errUnauthorized()
	}

	if actor.IsBuilder() {
		reqs, err := s.repo.Requests.ListByBuilder(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		return s.views(ctx, actor, reqs)
	}

	quotes, err := s.repo.Quotes.ListByReviewer(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	reqs := make([]models.ReviewRequest, 0, len(quotes))
	for _, q := range quotes {
		if q.Request != nil {
			reqs = append(reqs, *q.Request)
		}
	}
	return s.views(ctx, actor, reqs)
}

func (s *requestService) ListOpen(ctx context.Context, actor *models.User, limit, offset int) ([]RequestView, error) {
	if err := requireRole(actor, models.RoleReviewer); err != nil {
		return nil, err
	}
	reqs, err := s.repo.Requests.ListByStatus(ctx, models.RequestStatusOpen, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, actor, reqs)
}

func (s *requestService) Cancel(ctx context.Context, actor *models.User, id uint) (*models.ReviewRequest, error) {
	if err := requireRole(actor, models.RoleBuilder); err != nil {
		return nil, err
	}

	var (
		req      *models.ReviewRequest
		reviewer uint
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		if req, err = lockRequest(ctx, tx, id); err != nil {
			return err
		}
		if err := ownedBy(req, actor); err != nil {
			return err
		}
		if req.Status != models.RequestStatusOpen && req.Status != models.RequestStatusInProgress {
			return NewErr(KindInvalidState, fmt.Sprintf("a %s request cannot be cancelled", req.Status))
		}

		ok, err := tx.Requests.SetStatus(ctx, id, models.RequestStatusCancelled,
			models.RequestStatusOpen, models.RequestStatusInProgress)
		if err != nil {
			return err
		}
		if !ok {
			return NewErr(KindConflict, "request changed while cancelling")
		}
		req.Status = models.RequestStatusCancelled

		accepted, err := tx.Quotes.GetAccepted(ctx, id)
		if err != nil && !repository.IsNotFound(err) {
			return err
		}
		if accepted != nil {
			reviewer = accepted.ReviewerID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("request cancelled", zap.Uint("request_id", id))
	if reviewer != 0 {
		s.dispatch.Dispatch(ctx, Notice{
			UserID: reviewer,
			Kind:   models.NotifyRequestCancelled,
			Title:  "Request cancelled",
			Body:   fmt.Sprintf("The builder cancelled %q.", req.Title),
			Link:   requestLink(id),
		})
	}
	return req, nil
}

func (s *requestService) Edit(ctx context.Context, actor *models.User, id uint, in models.ReviewRequestUpdate) (*models.ReviewRequest, error) {
	if err := requireRole(actor, models.RoleBuilder); err != nil {
		return nil, err
	}

	var req *models.ReviewRequest
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		if req, err = lockRequest(ctx, tx, id); err != nil {
			return err
		}
		if err := ownedBy(req, actor); err != nil {
			return err
		}
		if req.Status != models.RequestStatusOpen {
			return NewErr(KindInvalidState, "only open requests can be edited")
		}
		accepted, err := tx.Quotes.HasAccepted(ctx, id)
		if err != nil {
			return err
		}
		if accepted {
			return NewErr(KindInvalidState, "a quote has been accepted; the request can no longer be edited")
		}

		fields := map[string]any{}
		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return NewErr(KindInvalidInput, "title cannot be empty")
			}
			fields["title"] = title
			req.Title = title
		}
		if in.Description != nil {
			fields["description"] = *in.Description
			req.Description = *in.Description
		}
		if in.BudgetMin != nil {
			req.BudgetMin = *in.BudgetMin
			fields["budget_min"] = req.BudgetMin
		}
		if in.BudgetMax != nil {
			req.BudgetMax = *in.BudgetMax
			fields["budget_max"] = req.BudgetMax
		}
		if err := validateBudget(req.BudgetMin, req.BudgetMax); err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}

		ok, err := tx.Requests.UpdateOpen(ctx, id, fields)
		if err != nil {
			return err
		}
		if !ok {
			return NewErr(KindInvalidState, "only open requests can be edited")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

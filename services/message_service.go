package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"code-review-market/models"
	"code-review-market/repository"
)

// Attachment is a file sent along with a message.
type Attachment struct {
	Name   string
	Reader io.Reader
}

// AttachmentStore uploads attachment bytes and returns a public URL.
type AttachmentStore interface {
	Upload(ctx context.Context, requestID uint, name string, r io.Reader) (string, error)
}

type MessageService interface {
	Post(ctx context.Context, actor *models.User, requestID uint, body string, att *Attachment) (*models.Message, error)
	List(ctx context.Context, actor *models.User, requestID uint) ([]models.Message, error)
}

type messageService struct {
	repo     *repository.Repository
	log      *zap.Logger
	dispatch *Dispatcher
	store    AttachmentStore
}

func NewMessageService(repo *repository.Repository, log *zap.Logger, dispatch *Dispatcher, store AttachmentStore) MessageService {
	return &messageService{repo: repo, log: log, dispatch: dispatch, store: store}
}

// parties returns the request and the id of the other party once a quote has
// been accepted. Anyone but the builder and the accepted reviewer is refused.
func (s *messageService) parties(ctx context.Context, actor *models.User, requestID uint) (*models.ReviewRequest, uint, error) {
	if actor == nil {
		return nil, 0, errUnauthorized()
	}
	req, err := s.repo.Requests.GetByID(ctx, requestID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, 0, NewErr(KindNotFound, "request not found")
		}
		return nil, 0, err
	}
	accepted, err := s.repo.Quotes.GetAccepted(ctx, requestID)
	if err != nil && !repository.IsNotFound(err) {
		return nil, 0, err
	}

	switch {
	case accepted == nil:
		if req.BuilderID == actor.ID {
			return nil, 0, NewErr(KindInvalidState, "messaging opens once a quote is accepted")
		}
		return nil, 0, NewErr(KindForbidden, "you are not a party to this request")
	case req.BuilderID == actor.ID:
		return req, accepted.ReviewerID, nil
	case accepted.ReviewerID == actor.ID:
		return req, req.BuilderID, nil
	default:
		return nil, 0, NewErr(KindForbidden, "you are not a party to this request")
	}
}

func (s *messageService) Post(ctx context.Context, actor *models.User, requestID uint, body string, att *Attachment) (*models.Message, error) {
	req, other, err := s.parties(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}

	body = strings.TrimSpace(body)
	if body == "" && att == nil {
		return nil, NewErr(KindInvalidInput, "message body or attachment is required")
	}

	msg := &models.Message{
		RequestID: requestID,
		SenderID:  actor.ID,
		Body:      body,
	}
	if att != nil {
		if s.store == nil {
			return nil, NewErr(KindInvalidInput, "attachments are not enabled")
		}
		url, err := s.store.Upload(ctx, requestID, att.Name, att.Reader)
		if err != nil {
			return nil, fmt.Errorf("upload attachment: %w", err)
		}
		msg.AttachmentURL = url
		msg.AttachmentName = att.Name
	}

	if err := s.repo.Messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}
	msg.Sender = actor

	preview := body
	if len(preview) > 120 {
		preview = preview[:120] + "..."
	}
	if preview == "" {
		preview = "Sent an attachment: " + msg.AttachmentName
	}
	s.dispatch.Dispatch(ctx, Notice{
		UserID: other,
		Kind:   models.NotifyMessageReceived,
		Title:  fmt.Sprintf("New message on %q", req.Title),
		Body:   fmt.Sprintf("%s: %s", actor.FullName, preview),
		Link:   requestLink(requestID),
	})
	return msg, nil
}

func (s *messageService) List(ctx context.Context, actor *models.User, requestID uint) ([]models.Message, error) {
	if _, _, err := s.parties(ctx, actor, requestID); err != nil {
		return nil, err
	}
	return s.repo.Messages.ListByRequest(ctx, requestID)
}

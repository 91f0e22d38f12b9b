package services

import (
	"context"

	"code-review-market/models"
	"code-review-market/repository"
)

type NotificationService interface {
	List(ctx context.Context, actor *models.User, unreadOnly bool, limit, offset int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, actor *models.User) (int64, error)
	MarkRead(ctx context.Context, actor *models.User, id uint) error
	MarkAllRead(ctx context.Context, actor *models.User) (int64, error)
}

type notificationService struct {
	repo *repository.Repository
}

func NewNotificationService(repo *repository.Repository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) List(ctx context.Context, actor *models.User, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	if actor == nil {
		return nil, errUnauthorized()
	}
	return s.repo.Notifications.ListByUser(ctx, actor.ID, unreadOnly, limit, offset)
}

func (s *notificationService) UnreadCount(ctx context.Context, actor *models.User) (int64, error) {
	if actor == nil {
		return 0, errUnauthorized()
	}
	return s.repo.Notifications.CountUnread(ctx, actor.ID)
}

func (s *notificationService) MarkRead(ctx context.Context, actor *models.User, id uint) error {
	if actor == nil {
		return errUnauthorized()
	}
	ok, err := s.repo.Notifications.MarkRead(ctx, id, actor.ID)
	if err != nil {
		return err
	}
	if !ok {
		return NewErr(KindNotFound, "notification not found")
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, actor *models.User) (int64, error) {
	if actor == nil {
		return 0, errUnauthorized()
	}
	return s.repo.Notifications.MarkAllRead(ctx, actor.ID)
}

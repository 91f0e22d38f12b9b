package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"code-review-market/models"
	"code-review-market/repository"
)

// Notice is one message for one user produced by a committed transition.
type Notice struct {
	UserID uint
	Kind   models.NotificationKind
	Title  string
	Body   string
	Link   string
}

// Notifier delivers a notice over one channel.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// Pusher sends a payload to a user's live connections, if any.
type Pusher interface {
	PushToUser(userID uint, payload any)
}

// Mailer sends a plain email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Dispatcher fans notices out to every notifier. It runs after the owning
// transaction has committed and never reports failure to the caller.
type Dispatcher struct {
	notifiers []Notifier
	log       *zap.Logger
}

func NewDispatcher(log *zap.Logger, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{notifiers: notifiers, log: log}
}

func (d *Dispatcher) Dispatch(ctx context.Context, notices ...Notice) {
	if d == nil {
		return
	}
	for _, n := range notices {
		for _, notifier := range d.notifiers {
			d.deliver(ctx, notifier, n)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, notifier Notifier, n Notice) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Warn("notifier panicked",
				zap.String("kind", string(n.Kind)),
				zap.Uint("user_id", n.UserID),
				zap.Any("panic", r),
			)
		}
	}()

	if err := notifier.Notify(ctx, n); err != nil {
		d.log.Warn("notification delivery failed",
			zap.String("kind", string(n.Kind)),
			zap.Uint("user_id", n.UserID),
			zap.Error(err),
		)
	}
}

// StoreNotifier persists the notice as an in-app notification and pushes it
// to the user's open websocket connections.
type StoreNotifier struct {
	repo   *repository.Repository
	pusher Pusher
}

func NewStoreNotifier(repo *repository.Repository, pusher Pusher) *StoreNotifier {
	return &StoreNotifier{repo: repo, pusher: pusher}
}

func (s *StoreNotifier) Notify(ctx context.Context, n Notice) error {
	row := &models.Notification{
		UserID: n.UserID,
		Kind:   n.Kind,
		Title:  n.Title,
		Body:   n.Body,
		Link:   n.Link,
	}
	if err := s.repo.Notifications.Create(ctx, row); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	if s.pusher != nil {
		s.pusher.PushToUser(n.UserID, row)
	}
	return nil
}

// EmailNotifier mails the notice to the user's address.
type EmailNotifier struct {
	repo    *repository.Repository
	mailer  Mailer
	baseURL string
}

func NewEmailNotifier(repo *repository.Repository, mailer Mailer, baseURL string) *EmailNotifier {
	return &EmailNotifier{repo: repo, mailer: mailer, baseURL: baseURL}
}

func (e *EmailNotifier) Notify(ctx context.Context, n Notice) error {
	user, err := e.repo.Users.GetByID(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("load recipient: %w", err)
	}

	body := fmt.Sprintf("Hi %s,\n\n%s\n", user.FullName, n.Body)
	if n.Link != "" {
		body += fmt.Sprintf("\nOpen it here: %s%s\n", e.baseURL, n.Link)
	}
	return e.mailer.Send(ctx, user.Email, n.Title, body)
}

package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	DB            *gorm.DB
	Users         UsersRepo
	Profiles      ProfilesRepo
	Requests      RequestsRepo
	Quotes        QuotesRepo
	Reviews       ReviewsRepo
	Ratings       RatingsRepo
	Notifications NotificationsRepo
	Messages      MessagesRepo
}

func buildRepository(db *gorm.DB) *Repository {
	return &Repository{
		DB:            db,
		Users:         NewUsersRepo(db),
		Profiles:      NewProfilesRepo(db),
		Requests:      NewRequestsRepo(db),
		Quotes:        NewQuotesRepo(db),
		Reviews:       NewReviewsRepo(db),
		Ratings:       NewRatingsRepo(db),
		Notifications: NewNotificationsRepo(db),
		Messages:      NewMessagesRepo(db),
	}
}

func New(db *gorm.DB) *Repository {
	return buildRepository(db)
}

// Transaction runs fn with every repo bound to one database transaction.
// Returning an error from fn rolls back everything fn wrote.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(buildRepository(tx))
	})
}

// forUpdate adds SELECT ... FOR UPDATE where the dialect supports it.
// sqlite serialises writers on its own.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

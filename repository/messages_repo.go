package repository

import (
	"context"

	"gorm.io/gorm"

	"code-review-market/models"
)

type MessagesRepo interface {
	Create(ctx context.Context, msg *models.Message) error
	ListByRequest(ctx context.Context, requestID uint) ([]models.Message, error)
}

type messagesRepo struct {
	db *gorm.DB
}

func NewMessagesRepo(db *gorm.DB) MessagesRepo {
	return &messagesRepo{db: db}
}

func (r *messagesRepo) Create(ctx context.Context, msg *models.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messagesRepo) ListByRequest(ctx context.Context, requestID uint) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("request_id = ?", requestID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

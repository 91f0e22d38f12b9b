package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"code-review-market/models"
)

type QuotesRepo interface {
	Create(ctx context.Context, quote *models.Quote) error
	GetByID(ctx context.Context, id uint) (*models.Quote, error)
	ExistsForReviewer(ctx context.Context, requestID, reviewerID uint) (bool, error)
	CountByRequest(ctx context.Context, requestID uint) (int64, error)
	HasAccepted(ctx context.Context, requestID uint) (bool, error)
	HasPaid(ctx context.Context, requestID uint) (bool, error)
	GetAccepted(ctx context.Context, requestID uint) (*models.Quote, error)
	ListByRequest(ctx context.Context, requestID uint) ([]models.Quote, error)
	ListByReviewer(ctx context.Context, reviewerID uint) ([]models.Quote, error)
	// Accept flips a pending quote to accepted. The bool is false when the
	// quote was no longer pending.
	Accept(ctx context.Context, id uint) (bool, error)
	// RejectPending rejects every other pending quote on the request and
	// returns the quotes it rejected.
	RejectPending(ctx context.Context, requestID, exceptID uint) ([]models.Quote, error)
	// MarkPaid sets paid on a quote that is not yet paid.
	MarkPaid(ctx context.Context, id uint, at time.Time) (bool, error)
}

type quotesRepo struct {
	db *gorm.DB
}

func NewQuotesRepo(db *gorm.DB) QuotesRepo {
	return &quotesRepo{db: db}
}

func (r *quotesRepo) Create(ctx context.Context, quote *models.Quote) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *quotesRepo) GetByID(ctx context.Context, id uint) (*models.Quote, error) {
	var quote models.Quote
	if err := r.db.WithContext(ctx).First(&quote, id).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *quotesRepo) ExistsForReviewer(ctx context.Context, requestID, reviewerID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Quote{}).
		Where("request_id = ? AND reviewer_id = ?", requestID, reviewerID).
		Count(&count).Error
	return count > 0, err
}

func (r *quotesRepo) CountByRequest(ctx context.Context, requestID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Quote{}).
		Where("request_id = ?", requestID).
		Count(&count).Error
	return count, err
}

func (r *quotesRepo) HasAccepted(ctx context.Context, requestID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Quote{}).
		Where("request_id = ? AND status = ?", requestID, models.QuoteStatusAccepted).
		Count(&count).Error
	return count > 0, err
}

func (r *quotesRepo) HasPaid(ctx context.Context, requestID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Quote{}).
		Where("request_id = ? AND paid = ?", requestID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *quotesRepo) GetAccepted(ctx context.Context, requestID uint) (*models.Quote, error) {
	var quote models.Quote
	err := forUpdate(r.db.WithContext(ctx)).
		Where("request_id = ? AND status = ?", requestID, models.QuoteStatusAccepted).
		First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *quotesRepo) ListByRequest(ctx context.Context, requestID uint) ([]models.Quote, error) {
	var quotes []models.Quote
	err := r.db.WithContext(ctx).
		Preload("Reviewer").
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&quotes).Error
	if err != nil {
		return nil, err
	}
	return quotes, nil
}

func (r *quotesRepo) ListByReviewer(ctx context.Context, reviewerID uint) ([]models.Quote, error) {
	var quotes []models.Quote
	err := r.db.WithContext(ctx).
		Preload("Request").
		Where("reviewer_id = ?", reviewerID).
		Order("created_at DESC").
		Find(&quotes).Error
	if err != nil {
		return nil, err
	}
	return quotes, nil
}

func (r *quotesRepo) Accept(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Quote{}).
		Where("id = ? AND status = ?", id, models.QuoteStatusPending).
		Update("status", models.QuoteStatusAccepted)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *quotesRepo) RejectPending(ctx context.Context, requestID, exceptID uint) ([]models.Quote, error) {
	var pending []models.Quote
	err := r.db.WithContext(ctx).
		Where("request_id = ? AND id <> ? AND status = ?", requestID, exceptID, models.QuoteStatusPending).
		Find(&pending).Error
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(pending))
	for i := range pending {
		ids = append(ids, pending[i].ID)
		pending[i].Status = models.QuoteStatusRejected
	}
	err = r.db.WithContext(ctx).Model(&models.Quote{}).
		Where("id IN ?", ids).
		Update("status", models.QuoteStatusRejected).Error
	if err != nil {
		return nil, err
	}
	return pending, nil
}

func (r *quotesRepo) MarkPaid(ctx context.Context, id uint, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Quote{}).
		Where("id = ? AND paid = ?", id, false).
		Updates(map[string]any{
			"paid":    true,
			"paid_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

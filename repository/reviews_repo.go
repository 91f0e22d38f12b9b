package repository

import (
	"context"

	"gorm.io/gorm"

	"code-review-market/models"
)

type ReviewsRepo interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uint) (*models.Review, error)
	GetForUpdate(ctx context.Context, id uint) (*models.Review, error)
	GetByRequest(ctx context.Context, requestID uint) (*models.Review, error)
	HasSubmitted(ctx context.Context, requestID uint) (bool, error)
	// UpdateUnsubmitted writes fields only while the review has no overall
	// score. The bool is false once the review was submitted.
	UpdateUnsubmitted(ctx context.Context, id uint, fields map[string]any) (bool, error)
}

type reviewsRepo struct {
	db *gorm.DB
}

func NewReviewsRepo(db *gorm.DB) ReviewsRepo {
	return &reviewsRepo{db: db}
}

func (r *reviewsRepo) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *reviewsRepo) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).Preload("Reviewer").First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewsRepo) GetForUpdate(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	if err := forUpdate(r.db.WithContext(ctx)).First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewsRepo) GetByRequest(ctx context.Context, requestID uint) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Preload("Reviewer").
		Where("request_id = ?", requestID).
		Order("id DESC").
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewsRepo) HasSubmitted(ctx context.Context, requestID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("request_id = ? AND overall_score IS NOT NULL", requestID).
		Count(&count).Error
	return count > 0, err
}

func (r *reviewsRepo) UpdateUnsubmitted(ctx context.Context, id uint, fields map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("id = ? AND overall_score IS NULL", id).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

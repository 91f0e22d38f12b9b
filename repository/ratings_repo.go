package repository

import (
	"context"

	"gorm.io/gorm"

	"code-review-market/models"
)

type RatingsRepo interface {
	Create(ctx context.Context, rating *models.Rating) error
	Exists(ctx context.Context, reviewID, userID uint) (bool, error)
	StarsForReviewer(ctx context.Context, reviewerID uint) ([]int, error)
	ListForReviewer(ctx context.Context, reviewerID uint, limit int) ([]models.Rating, error)
}

type ratingsRepo struct {
	db *gorm.DB
}

func NewRatingsRepo(db *gorm.DB) RatingsRepo {
	return &ratingsRepo{db: db}
}

func (r *ratingsRepo) Create(ctx context.Context, rating *models.Rating) error {
	return r.db.WithContext(ctx).Create(rating).Error
}

func (r *ratingsRepo) Exists(ctx context.Context, reviewID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Rating{}).
		Where("review_id = ? AND user_id = ?", reviewID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *ratingsRepo) StarsForReviewer(ctx context.Context, reviewerID uint) ([]int, error) {
	var stars []int
	err := r.db.WithContext(ctx).Model(&models.Rating{}).
		Where("reviewer_id = ?", reviewerID).
		Pluck("stars", &stars).Error
	if err != nil {
		return nil, err
	}
	return stars, nil
}

func (r *ratingsRepo) ListForReviewer(ctx context.Context, reviewerID uint, limit int) ([]models.Rating, error) {
	var ratings []models.Rating
	err := r.db.WithContext(ctx).
		Where("reviewer_id = ?", reviewerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&ratings).Error
	if err != nil {
		return nil, err
	}
	return ratings, nil
}

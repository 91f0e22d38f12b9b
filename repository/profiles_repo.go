package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"code-review-market/models"
)

type ProfilesRepo interface {
	Create(ctx context.Context, profile *models.ReviewerProfile) error
	GetByUserID(ctx context.Context, userID uint) (*models.ReviewerProfile, error)
	// GetForUpdate returns the reviewer's profile with its row locked for the
	// rest of the transaction, creating an empty profile first if none exists.
	GetForUpdate(ctx context.Context, userID uint) (*models.ReviewerProfile, error)
	// SaveAggregate writes the cached rating average and count, creating the
	// profile row when the reviewer has none yet.
	SaveAggregate(ctx context.Context, userID uint, avg float64, count int) error
}

type profilesRepo struct {
	db *gorm.DB
}

func NewProfilesRepo(db *gorm.DB) ProfilesRepo {
	return &profilesRepo{db: db}
}

func (r *profilesRepo) Create(ctx context.Context, profile *models.ReviewerProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *profilesRepo) GetByUserID(ctx context.Context, userID uint) (*models.ReviewerProfile, error) {
	var profile models.ReviewerProfile
	err := r.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profilesRepo) SaveAggregate(ctx context.Context, userID uint, avg float64, count int) error {
	profile := models.ReviewerProfile{
		UserID:      userID,
		RatingAvg:   avg,
		RatingCount: count,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating_avg", "rating_count", "updated_at"}),
	}).Create(&profile).Error
}

func (r *profilesRepo) GetForUpdate(ctx context.Context, userID uint) (*models.ReviewerProfile, error) {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&models.ReviewerProfile{UserID: userID}).Error
	if err != nil {
		return nil, err
	}

	var profile models.ReviewerProfile
	if err := forUpdate(db).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"code-review-market/models"
)

type RequestsRepo interface {
	Create(ctx context.Context, req *models.ReviewRequest) error
	GetByID(ctx context.Context, id uint) (*models.ReviewRequest, error)
	// GetForUpdate loads the request and, on postgres, row-locks it until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uint) (*models.ReviewRequest, error)
	ListByBuilder(ctx context.Context, builderID uint) ([]models.ReviewRequest, error)
	ListByStatus(ctx context.Context, status models.RequestStatus, limit, offset int) ([]models.ReviewRequest, error)
	// SetStatus moves the request to `to` only if its current status is one of
	// `from`. The bool reports whether a row changed.
	SetStatus(ctx context.Context, id uint, to models.RequestStatus, from ...models.RequestStatus) (bool, error)
	// UpdateOpen applies fields only while the request is still open.
	UpdateOpen(ctx context.Context, id uint, fields map[string]any) (bool, error)
}

type requestsRepo struct {
	db *gorm.DB
}

func NewRequestsRepo(db *gorm.DB) RequestsRepo {
	return &requestsRepo{db: db}
}

func (r *requestsRepo) Create(ctx context.Context, req *models.ReviewRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *requestsRepo) GetByID(ctx context.Context, id uint) (*models.ReviewRequest, error) {
	var req models.ReviewRequest
	if err := r.db.WithContext(ctx).Preload("Builder").First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestsRepo) GetForUpdate(ctx context.Context, id uint) (*models.ReviewRequest, error) {
	var req models.ReviewRequest
	if err := forUpdate(r.db.WithContext(ctx)).First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestsRepo) ListByBuilder(ctx context.Context, builderID uint) ([]models.ReviewRequest, error) {
	var reqs []models.ReviewRequest
	err := r.db.WithContext(ctx).
		Where("builder_id = ?", builderID).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *requestsRepo) ListByStatus(ctx context.Context, status models.RequestStatus, limit, offset int) ([]models.ReviewRequest, error) {
	var reqs []models.ReviewRequest
	err := r.db.WithContext(ctx).
		Preload("Builder").
		Where("status = ?", status).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *requestsRepo) SetStatus(ctx context.Context, id uint, to models.RequestStatus, from ...models.RequestStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.ReviewRequest{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *requestsRepo) UpdateOpen(ctx context.Context, id uint, fields map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.ReviewRequest{}).
		Where("id = ? AND status = ?", id, models.RequestStatusOpen).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

package models

import (
	"time"
)

// RequestStatus represents the lifecycle status of a review request
type RequestStatus string

const (
	RequestStatusOpen       RequestStatus = "open"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusCancelled  RequestStatus = "cancelled"
)

func ValidRequestStatus(s RequestStatus) bool {
	switch s {
	case RequestStatusOpen, RequestStatusInProgress, RequestStatusCompleted, RequestStatusCancelled:
		return true
	default:
		return false
	}
}

// ReviewRequest is one unit of work a builder wants reviewed. Rows are never
// deleted; cancellation is a status.
type ReviewRequest struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	BuilderID   uint          `json:"builder_id" gorm:"not null;index"`
	Title       string        `json:"title" gorm:"type:varchar(200);not null"`
	Description string        `json:"description" gorm:"type:text"`
	RepoURL     string        `json:"repo_url" gorm:"type:varchar(500)"`
	Stack       string        `json:"stack" gorm:"type:varchar(255)"`
	Concerns    string        `json:"concerns" gorm:"type:text"`
	Category    string        `json:"category" gorm:"type:varchar(100)"`
	BudgetMin   float64       `json:"budget_min" gorm:"type:decimal(10,2);not null;default:0;check:budget_min >= 0"`
	BudgetMax   float64       `json:"budget_max" gorm:"type:decimal(10,2);not null;default:0;check:budget_max >= budget_min"`
	Status      RequestStatus `json:"status" gorm:"type:varchar(20);not null;default:'open';index;check:status IN ('open','in_progress','completed','cancelled')"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Builder *User `json:"builder,omitempty" gorm:"foreignKey:BuilderID"`
}

func (ReviewRequest) TableName() string {
	return "review_requests"
}

// ReviewRequestCreate represents the payload for posting a new review request
type ReviewRequestCreate struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	RepoURL     string  `json:"repo_url"`
	Stack       string  `json:"stack"`
	Concerns    string  `json:"concerns"`
	Category    string  `json:"category"`
	BudgetMin   float64 `json:"budget_min"`
	BudgetMax   float64 `json:"budget_max"`
}

// ReviewRequestUpdate lists the fields a builder may edit while the request is open
type ReviewRequestUpdate struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	BudgetMin   *float64 `json:"budget_min"`
	BudgetMax   *float64 `json:"budget_max"`
}

package models

import (
	"time"
)

type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
)

func ValidQuoteStatus(s QuoteStatus) bool {
	switch s {
	case QuoteStatusPending, QuoteStatusAccepted, QuoteStatusRejected:
		return true
	default:
		return false
	}
}

// Quote is one reviewer's bid on one request. At most one quote per
// (request, reviewer) pair; at most one accepted quote per request, enforced
// by a partial unique index created in database migrations.
type Quote struct {
	ID             uint        `json:"id" gorm:"primaryKey"`
	RequestID      uint        `json:"request_id" gorm:"not null;uniqueIndex:idx_quotes_request_reviewer"`
	ReviewerID     uint        `json:"reviewer_id" gorm:"not null;uniqueIndex:idx_quotes_request_reviewer;index"`
	Price          float64     `json:"price" gorm:"type:decimal(10,2);not null;check:price > 0"`
	TurnaroundDays int         `json:"turnaround_days" gorm:"not null;check:turnaround_days > 0"`
	Note           string      `json:"note" gorm:"type:text"`
	Status         QuoteStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';check:status IN ('pending','accepted','rejected')"`
	Paid           bool        `json:"paid" gorm:"not null;default:false"`
	PaidAt         *time.Time  `json:"paid_at"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`

	Request  *ReviewRequest `json:"request,omitempty" gorm:"foreignKey:RequestID"`
	Reviewer *User          `json:"reviewer,omitempty" gorm:"foreignKey:ReviewerID"`
}

func (Quote) TableName() string {
	return "quotes"
}

// QuoteCreate represents the payload a reviewer submits when bidding
type QuoteCreate struct {
	Price          float64 `json:"price"`
	TurnaroundDays int     `json:"turnaround_days"`
	Note           string  `json:"note"`
}

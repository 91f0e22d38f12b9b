package models

import (
	"time"
)

type NotificationKind string

const (
	NotifyQuoteReceived    NotificationKind = "quote_received"
	NotifyQuoteAccepted    NotificationKind = "quote_accepted"
	NotifyQuoteRejected    NotificationKind = "quote_rejected"
	NotifyPaymentReceived  NotificationKind = "payment_received"
	NotifyReviewSubmitted  NotificationKind = "review_submitted"
	NotifyRequestCancelled NotificationKind = "request_cancelled"
	NotifyMessageReceived  NotificationKind = "message_received"
	NotifyRatingReceived   NotificationKind = "rating_received"
)

type Notification struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	UserID    uint             `json:"user_id" gorm:"not null;index"`
	Kind      NotificationKind `json:"kind" gorm:"type:varchar(40);not null"`
	Title     string           `json:"title" gorm:"not null"`
	Body      string           `json:"body" gorm:"type:text;not null"`
	Link      string           `json:"link" gorm:"type:varchar(500)"`
	Read      bool             `json:"read" gorm:"column:is_read;not null;default:false;index"`
	CreatedAt time.Time        `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

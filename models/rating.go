package models

import (
	"time"
)

// Rating is a builder's one-time star rating of a delivered review
type Rating struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ReviewID   uint      `json:"review_id" gorm:"not null;uniqueIndex:idx_ratings_review_user"`
	UserID     uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_ratings_review_user"`
	ReviewerID uint      `json:"reviewer_id" gorm:"not null;index"`
	Stars      int       `json:"stars" gorm:"type:int;not null;check:stars >= 1 AND stars <= 5"`
	Comment    string    `json:"comment" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Rating) TableName() string {
	return "ratings"
}

// RatingCreate represents the request structure for rating a review
type RatingCreate struct {
	Stars   int    `json:"stars"`
	Comment string `json:"comment"`
}

// RatingSummary is the recomputed aggregate for one reviewer
type RatingSummary struct {
	ReviewerID uint    `json:"reviewer_id"`
	Average    float64 `json:"average"`
	Count      int     `json:"count"`
}

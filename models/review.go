package models

import (
	"time"
)

// Review is the scored report delivered by the accepted reviewer. It is created
// by the payment transition with every score empty and counts as submitted once
// OverallScore is set.
type Review struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	RequestID  uint `json:"request_id" gorm:"not null;index"`
	ReviewerID uint `json:"reviewer_id" gorm:"not null;index"`
	QuoteID    uint `json:"quote_id" gorm:"not null;uniqueIndex"`

	SecurityScore        *int   `json:"security_score" gorm:"check:security_score BETWEEN 1 AND 10"`
	SecurityNotes        string `json:"security_notes" gorm:"type:text"`
	ArchitectureScore    *int   `json:"architecture_score" gorm:"check:architecture_score BETWEEN 1 AND 10"`
	ArchitectureNotes    string `json:"architecture_notes" gorm:"type:text"`
	PerformanceScore     *int   `json:"performance_score" gorm:"check:performance_score BETWEEN 1 AND 10"`
	PerformanceNotes     string `json:"performance_notes" gorm:"type:text"`
	MaintainabilityScore *int   `json:"maintainability_score" gorm:"check:maintainability_score BETWEEN 1 AND 10"`
	MaintainabilityNotes string `json:"maintainability_notes" gorm:"type:text"`

	OverallScore    *int       `json:"overall_score" gorm:"check:overall_score BETWEEN 1 AND 10"`
	Summary         string     `json:"summary" gorm:"type:text"`
	Recommendations string     `json:"recommendations" gorm:"type:text"`
	SubmittedAt     *time.Time `json:"submitted_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Request  *ReviewRequest `json:"request,omitempty" gorm:"foreignKey:RequestID"`
	Reviewer *User          `json:"reviewer,omitempty" gorm:"foreignKey:ReviewerID"`
	Quote    *Quote         `json:"quote,omitempty" gorm:"foreignKey:QuoteID"`
}

func (Review) TableName() string {
	return "reviews"
}

// IsSubmitted reports whether the reviewer has delivered the final report
func (r *Review) IsSubmitted() bool {
	return r.OverallScore != nil
}

// ReviewUpdate carries a draft save or final submission. Nil fields are left untouched.
type ReviewUpdate struct {
	SecurityScore        *int    `json:"security_score"`
	SecurityNotes        *string `json:"security_notes"`
	ArchitectureScore    *int    `json:"architecture_score"`
	ArchitectureNotes    *string `json:"architecture_notes"`
	PerformanceScore     *int    `json:"performance_score"`
	PerformanceNotes     *string `json:"performance_notes"`
	MaintainabilityScore *int    `json:"maintainability_score"`
	MaintainabilityNotes *string `json:"maintainability_notes"`
	OverallScore         *int    `json:"overall_score"`
	Summary              *string `json:"summary"`
	Recommendations      *string `json:"recommendations"`
}

package models

import (
	"time"
)

type UserRole string

const (
	RoleBuilder  UserRole = "builder"
	RoleReviewer UserRole = "reviewer"
)

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	FullName     string    `json:"full_name" gorm:"size:255;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	Role         UserRole  `json:"role" gorm:"type:varchar(20);not null;check:role IN ('builder','reviewer')"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// IsValidRole checks if the user role is valid
func (u *User) IsValidRole() bool {
	return IsValidRole(u.Role)
}

func (u *User) IsBuilder() bool {
	return u.Role == RoleBuilder
}

func (u *User) IsReviewer() bool {
	return u.Role == RoleReviewer
}

func IsValidRole(r UserRole) bool {
	switch r {
	case RoleBuilder, RoleReviewer:
		return true
	default:
		return false
	}
}

// ReviewerProfile holds a reviewer's public profile. RatingAvg and RatingCount
// are a cache derived from the ratings table and are rewritten after every new rating.
type ReviewerProfile struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	Headline    string    `json:"headline" gorm:"size:255"`
	Bio         string    `json:"bio" gorm:"type:text"`
	RatingAvg   float64   `json:"rating_avg" gorm:"type:decimal(3,1);default:0"`
	RatingCount int       `json:"rating_count" gorm:"default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (ReviewerProfile) TableName() string {
	return "reviewer_profiles"
}

// RegisterRequest represents the payload for creating an account
type RegisterRequest struct {
	Email    string   `json:"email" binding:"required,email"`
	FullName string   `json:"full_name" binding:"required"`
	Password string   `json:"password" binding:"required,min=8"`
	Role     UserRole `json:"role" binding:"required,oneof=builder reviewer"`
	Headline string   `json:"headline"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

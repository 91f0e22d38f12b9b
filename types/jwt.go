package types

import (
	"github.com/golang-jwt/jwt/v5"

	"code-review-market/models"
)

// Claims represents the JWT claims
type Claims struct {
	UserID uint            `json:"user_id"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

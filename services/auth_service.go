package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"code-review-market/models"
	"code-review-market/repository"
)

type AuthService interface {
	Register(ctx context.Context, in models.RegisterRequest) (*TokenResponse, error)
	Login(ctx context.Context, in models.LoginRequest) (*TokenResponse, error)
	// Resolve turns a bearer token into the active user it was issued for.
	Resolve(ctx context.Context, token string) (*models.User, error)
}

type authService struct {
	repo *repository.Repository
	jwt  *JWTService
	log  *zap.Logger
}

func NewAuthService(repo *repository.Repository, jwt *JWTService, log *zap.Logger) AuthService {
	return &authService{repo: repo, jwt: jwt, log: log}
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *authService) Register(ctx context.Context, in models.RegisterRequest) (*TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || strings.TrimSpace(in.FullName) == "" {
		return nil, NewErr(KindInvalidInput, "email and full name are required")
	}
	if len(in.Password) < 8 {
		return nil, NewErr(KindInvalidInput, "password must be at least 8 characters")
	}
	if !models.IsValidRole(in.Role) {
		return nil, NewErr(KindInvalidInput, "role must be builder or reviewer")
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: hash,
		Role:         in.Role,
		IsActive:     true,
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Users.Create(ctx, user); err != nil {
			if repository.IsUniqueViolation(err) {
				return NewErr(KindConflict, "email is already registered")
			}
			return err
		}
		if user.IsReviewer() {
			return tx.Profiles.Create(ctx, &models.ReviewerProfile{
				UserID:   user.ID,
				Headline: in.Headline,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	return s.jwt.Generate(user)
}

func (s *authService) Login(ctx context.Context, in models.LoginRequest) (*TokenResponse, error) {
	user, err := s.repo.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, NewErr(KindUnauthorized, "invalid email or password")
		}
		return nil, err
	}
	if !CheckPasswordHash(in.Password, user.PasswordHash) {
		return nil, NewErr(KindUnauthorized, "invalid email or password")
	}
	if !user.IsActive {
		return nil, NewErr(KindForbidden, "account is disabled")
	}
	return s.jwt.Generate(user)
}

func (s *authService) Resolve(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.jwt.Validate(token)
	if err != nil {
		return nil, NewErr(KindUnauthorized, "invalid or expired token")
	}

	user, err := s.repo.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, NewErr(KindUnauthorized, "user no longer exists")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, NewErr(KindUnauthorized, "account is disabled")
	}
	return user, nil
}

package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kgv/internal/core/apperror"
	"kgv/internal/core/id"
	"kgv/pkg/logger"
)

// Service provides authentication business logic.
type Service struct {
	repo Repository
	jwt  *JWTService
}

// NewService creates a new auth service.
func NewService(repo Repository, jwt *JWTService) *Service {
	return &Service{repo: repo, jwt: jwt}
}

// LoginResult carries the issued token.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}

// Login verifies credentials and issues an access token.
// Failures are deliberately indistinguishable (unknown email vs wrong
// password) to avoid account probing.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, apperror.NewUnauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.Warn(ctx, "failed login attempt", "email", email)
		return nil, apperror.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID, "email", user.Email)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// CreateUser hashes the password and persists a new user.
func (s *Service) CreateUser(ctx context.Context, user *User, password string) error {
	if user.Email == "" {
		return apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	if len(password) < 10 {
		return apperror.NewValidation("password must be at least 10 characters").WithDetail("field", "password")
	}
	if existing, err := s.repo.GetByEmail(ctx, user.Email); err != nil {
		return err
	} else if existing != nil {
		return apperror.NewDuplicate("user", "email", user.Email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return apperror.NewInternal(err)
	}

	now := time.Now().UTC()
	user.ID = id.New()
	user.PasswordHash = string(hash)
	user.IsActive = true
	user.CreatedAt = now
	user.UpdatedAt = now

	return s.repo.Create(ctx, user)
}

// GetUser retrieves a user by ID.
func (s *Service) GetUser(ctx context.Context, userID id.ID) (*User, error) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFound("user", userID)
	}
	return user, nil
}

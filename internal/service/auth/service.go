package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"chatx-backend/internal/domain"
	"chatx-backend/internal/repository/postgres"
	apperrors "chatx-backend/pkg/errors"
	"chatx-backend/pkg/jwt"
)

// UserStore abstracts account storage for the auth service
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Exists(ctx context.Context, username string) (bool, error)
}

// Service handles registration and login
type Service struct {
	users UserStore
	jwt   *jwt.Manager
}

// NewService creates a new auth service
func NewService(users UserStore, jwtManager *jwt.Manager) *Service {
	return &Service{
		users: users,
		jwt:   jwtManager,
	}
}

// Register creates a new account with a bcrypt-hashed password
func (s *Service) Register(ctx context.Context, input *domain.UserCreate) (*domain.User, error) {
	exists, err := s.users.Exists(ctx, input.Username)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeDatabase, "failed to check username", err)
	}
	if exists {
		return nil, apperrors.NewWithStatus(apperrors.ErrCodeUsernameExists, "username already taken", http.StatusConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to hash password", err)
	}

	user := &domain.User{
		UserID:       uuid.New(),
		Username:     input.Username,
		PasswordHash: string(hash),
		DOB:          input.DOB,
		Gender:       input.Gender,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, postgres.ErrDuplicate) {
			return nil, apperrors.NewWithStatus(apperrors.ErrCodeUsernameExists, "username already taken", http.StatusConflict)
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeDatabase, "failed to create user", err)
	}

	return user, nil
}

// Login verifies credentials and issues an access token.
// Unknown usernames and wrong passwords return the same error so the
// endpoint does not leak which accounts exist.
func (s *Service) Login(ctx context.Context, creds *domain.Credentials) (*domain.User, string, error) {
	user, err := s.users.GetByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, "", apperrors.NewWithStatus(apperrors.ErrCodeInvalidCreds, "invalid username or password", http.StatusUnauthorized)
		}
		return nil, "", apperrors.Wrap(apperrors.ErrCodeDatabase, "failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, "", apperrors.NewWithStatus(apperrors.ErrCodeInvalidCreds, "invalid username or password", http.StatusUnauthorized)
	}

	token, err := s.jwt.GenerateAccessToken(user.UserID, user.Username)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrCodeInternal, "failed to issue token", err)
	}

	return user, token, nil
}

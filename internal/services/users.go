package services

import (
	"context"
	"errors"
	"strings"

	"cosmicwatch/internal/auth"
	"cosmicwatch/internal/domain"
	"cosmicwatch/internal/repo"
)

var (
	// ErrInvalidEmail is returned when a register email has no "@".
	ErrInvalidEmail = errors.New("email format is invalid")
	// ErrUserExists is returned when the username or email is taken.
	ErrUserExists = errors.New("username or email already exists")
	// ErrInvalidCredentials is returned on bad username or password.
	ErrInvalidCredentials = errors.New("username or password is incorrect")
	// ErrUserNotFound is returned when a token points at a deleted user.
	ErrUserNotFound = errors.New("user not found")
)

// AuthService handles registration, login and token resolution.
type AuthService struct {
	users  *repo.UserRepo
	tokens *auth.TokenIssuer
}

// NewAuthService creates a new auth service
func NewAuthService(users *repo.UserRepo, tokens *auth.TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register creates an account and returns an access token for it.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.TokenResponse, error) {
	if !strings.Contains(req.Email, "@") {
		return nil, ErrInvalidEmail
	}

	existing, err := s.users.GetByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, req.Username, req.Email, hash)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	return s.tokenResponse(user)
}

// Login verifies credentials and returns an access token.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.TokenResponse, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.tokenResponse(user)
}

// UserFromToken resolves a bearer token to the user it was issued for.
func (s *AuthService) UserFromToken(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) tokenResponse(user *domain.User) (*domain.TokenResponse, error) {
	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &domain.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        *user,
	}, nil
}

// WatchlistService handles watchlist operations for an authenticated user.
type WatchlistService struct {
	items *repo.WatchlistRepo
}

// NewWatchlistService creates a new watchlist service
func NewWatchlistService(items *repo.WatchlistRepo) *WatchlistService {
	return &WatchlistService{items: items}
}

// List returns the user's watchlist, newest first.
func (s *WatchlistService) List(ctx context.Context, userID int64) ([]domain.WatchlistItem, error) {
	return s.items.ListByUser(ctx, userID)
}

// Upsert creates or refreshes a watchlist entry.
func (s *WatchlistService) Upsert(ctx context.Context, userID int64, req domain.WatchItemUpsert) (*domain.WatchlistItem, error) {
	return s.items.Upsert(ctx, userID, req)
}

// Delete removes a watchlist entry, idempotently.
func (s *WatchlistService) Delete(ctx context.Context, userID int64, asteroidID string) error {
	return s.items.Delete(ctx, userID, asteroidID)
}

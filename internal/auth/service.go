package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"financas/internal/core"
	"financas/internal/storage"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password,
	// so login failures never reveal whether an email is registered.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrInvalidEmail    = errors.New("invalid email")
	ErrPasswordTooWeak = errors.New("password must have at least 6 characters")
)

// Service resolves (email, password) to user ids and manages sessions.
type Service struct {
	storage  *storage.SQLiteRepository
	sessions *SessionStore
	cost     int
}

func NewService(st *storage.SQLiteRepository, sessions *SessionStore, bcryptCost int) *Service {
	return &Service{
		storage:  st,
		sessions: sessions,
		cost:     bcryptCost,
	}
}

// Register creates a user with a hashed credential and their default
// checking account.
func (s *Service) Register(ctx context.Context, email, password string) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return 0, ErrInvalidEmail
	}
	if len(password) < 6 {
		return 0, ErrPasswordTooWeak
	}

	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return 0, err
	}

	userID, err := s.storage.RegisterUser(ctx, email, hash)
	if err != nil {
		return 0, err
	}
	return userID, nil
}

// Login verifies the credential and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	userID, hash, err := s.storage.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Login attempt for unknown email")
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if !CheckPassword(hash, password) {
		slog.WarnContext(ctx, "Login attempt with wrong password", "user_id", userID)
		return "", ErrInvalidCredentials
	}

	token := s.sessions.Create(userID)
	slog.InfoContext(ctx, "User logged in", "user_id", userID)
	return token, nil
}

// Logout revokes the session token.
func (s *Service) Logout(token string) {
	s.sessions.Revoke(token)
}

// Resolve maps a session token to a user id.
func (s *Service) Resolve(token string) (int64, bool) {
	return s.sessions.Resolve(token)
}

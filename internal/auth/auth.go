package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/electrohub/shop-api/internal/redisx"
)

const minPasswordLen = 6

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrMissingCredentials = errors.New("username and password are required")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters long", minPasswordLen)
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"-"`
	Admin        bool      `json:"admin"`
	CreatedAt    time.Time `json:"created_at"`
}

type UserStore interface {
	// Create fails with ErrUsernameTaken on a duplicate username.
	Create(ctx context.Context, u *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// Identity is what a resolved token tells the rest of the system. Core
// components trust it without re-verifying credentials.
type Identity struct {
	UserID string `json:"user_id"`
	Admin  bool   `json:"admin"`
}

// Service issues and resolves bearer tokens backed by redis.
type Service struct {
	Users    UserStore
	Redis    *redis.Client
	TokenTTL time.Duration
	Log      *slog.Logger
}

func (s *Service) Register(ctx context.Context, username, password string) (*User, string, error) {
	if username == "" || password == "" {
		return nil, "", ErrMissingCredentials
	}
	if len(password) < minPasswordLen {
		return nil, "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(ctx, u)
	if err != nil {
		return nil, "", err
	}
	s.logger().Info("user registered", "user_id", u.ID, "username", u.Username)
	return u, token, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.Users.GetByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return s.issueToken(ctx, u)
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.Redis.Del(ctx, fmt.Sprintf(redisx.KeyAuthToken, token)).Err()
}

// Resolve maps a bearer token to the identity it was issued for.
func (s *Service) Resolve(ctx context.Context, token string) (*Identity, error) {
	raw, err := s.Redis.Get(ctx, fmt.Sprintf(redisx.KeyAuthToken, token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	var id Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}
	return &id, nil
}

func (s *Service) issueToken(ctx context.Context, u *User) (string, error) {
	token := uuid.NewString()
	val, err := json.Marshal(Identity{UserID: u.ID, Admin: u.Admin})
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf(redisx.KeyAuthToken, token)
	if err := s.Redis.Set(ctx, key, val, s.TokenTTL).Err(); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

func (s *Service) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

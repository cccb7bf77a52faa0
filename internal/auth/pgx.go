package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxUserStore struct{ DB *pgxpool.Pool }

func (s *PgxUserStore) Create(ctx context.Context, u *User) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO users(id, username, password_hash, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Username, string(u.PasswordHash), u.Admin, u.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrUsernameTaken
	}
	return err
}

func (s *PgxUserStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	var hash string
	err := s.DB.QueryRow(ctx, `
		SELECT id, username, password_hash, is_admin, created_at
		FROM users WHERE username=$1`, username).
		Scan(&u.ID, &u.Username, &hash, &u.Admin, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.PasswordHash = []byte(hash)
	return &u, nil
}

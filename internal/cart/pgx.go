package cart

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxStore struct{ DB *pgxpool.Pool }

func (s *PgxStore) ListLines(ctx context.Context, owner string) ([]Line, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT owner, product_id, quantity, created_at
		FROM cart_lines WHERE owner=$1 ORDER BY created_at`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.Owner, &l.ProductID, &l.Quantity, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *PgxStore) AddLine(ctx context.Context, owner, productID string, qty int) (*Line, error) {
	var l Line
	err := s.DB.QueryRow(ctx, `
		INSERT INTO cart_lines(owner, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner, product_id)
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity
		RETURNING owner, product_id, quantity, created_at`,
		owner, productID, qty).Scan(&l.Owner, &l.ProductID, &l.Quantity, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *PgxStore) DecrementLine(ctx context.Context, owner, productID string) (*Line, error) {
	var l Line
	err := s.DB.QueryRow(ctx, `
		UPDATE cart_lines SET quantity = quantity - 1
		WHERE owner=$1 AND product_id=$2 AND quantity > 1
		RETURNING owner, product_id, quantity, created_at`,
		owner, productID).Scan(&l.Owner, &l.ProductID, &l.Quantity, &l.CreatedAt)
	if err == nil {
		return &l, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	// quantity was 1, or the line does not exist
	ct, err := s.DB.Exec(ctx, `DELETE FROM cart_lines WHERE owner=$1 AND product_id=$2`, owner, productID)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrLineNotFound
	}
	return nil, nil
}

func (s *PgxStore) RemoveLine(ctx context.Context, owner, productID string) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM cart_lines WHERE owner=$1 AND product_id=$2`, owner, productID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (s *PgxStore) ClearLines(ctx context.Context, owner string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM cart_lines WHERE owner=$1`, owner)
	return err
}

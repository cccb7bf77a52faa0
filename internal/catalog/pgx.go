package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxStore struct{ DB *pgxpool.Pool }

func (s *PgxStore) GetProduct(ctx context.Context, id string) (*Product, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT id, name, description, price::text, stock, category, created_at, updated_at
		FROM products WHERE id=$1`, id)
	return scanProduct(row)
}

func (s *PgxStore) ListProducts(ctx context.Context, f Filter) ([]Product, error) {
	q := `SELECT id, name, description, price::text, stock, category, created_at, updated_at
	      FROM products WHERE 1=1`
	args := []any{}
	if f.Name != "" {
		args = append(args, "%"+f.Name+"%")
		q += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		q += fmt.Sprintf(" AND lower(category) = lower($%d)", len(args))
	}
	if f.PriceMin != nil {
		args = append(args, f.PriceMin.String())
		q += fmt.Sprintf(" AND price >= $%d::numeric", len(args))
	}
	if f.PriceMax != nil {
		args = append(args, f.PriceMax.String())
		q += fmt.Sprintf(" AND price <= $%d::numeric", len(args))
	}
	q += ` ORDER BY price, name`

	rows, err := s.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *PgxStore) CreateProduct(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := s.DB.Exec(ctx, `
		INSERT INTO products(id, name, description, price, stock, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)`,
		p.ID, p.Name, p.Description, p.Price.String(), p.Stock, p.Category, p.CreatedAt, p.UpdatedAt)
	return err
}

func (s *PgxStore) UpdateProduct(ctx context.Context, p *Product) error {
	p.UpdatedAt = time.Now().UTC()
	ct, err := s.DB.Exec(ctx, `
		UPDATE products
		SET name=$2, description=$3, price=$4::numeric, stock=$5, category=$6, updated_at=$7
		WHERE id=$1`,
		p.ID, p.Name, p.Description, p.Price.String(), p.Stock, p.Category, p.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgxStore) DeleteProduct(ctx context.Context, id string) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgxStore) AdjustStock(ctx context.Context, id string, delta int) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id=$1 AND stock + $2 >= 0`, id, delta)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := s.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStockConflict
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	var price string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Stock, &p.Category, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price: %w", err)
	}
	return &p, nil
}

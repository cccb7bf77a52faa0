package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

type PgxStore struct{ DB *pgxpool.Pool }

const orderColumns = `id, order_code, user_id, total_amount::text, delivery, delivery_fee::text,
	status, mpesa_code, first_name, last_name, age, phone_number, email, gender, location, created_at`

// PlaceOrder runs the whole placement as one transaction: order row, item
// rows, a locked check-and-decrement per product, cart clearing. Stock
// rows are taken FOR UPDATE so two concurrent placements against the same
// product cannot both observe sufficient stock.
func (s *PgxStore) PlaceOrder(ctx context.Context, o *Order) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, order_code, user_id, total_amount, delivery, delivery_fee,
		                   status, mpesa_code, first_name, last_name, age, phone_number,
		                   email, gender, location, created_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6::numeric, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		o.ID, o.Code, o.UserID, o.TotalAmount.String(), o.Delivery, o.DeliveryFee.String(),
		o.Status, o.Buyer.MpesaCode, o.Buyer.FirstName, o.Buyer.LastName, o.Buyer.Age,
		o.Buyer.PhoneNumber, o.Buyer.Email, o.Buyer.Gender, o.Buyer.Location, o.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrCodeTaken
		}
		return err
	}

	for _, it := range o.Items {
		var stock int
		err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1 FOR UPDATE`, it.ProductID).Scan(&stock)
		if errors.Is(err, pgx.ErrNoRows) {
			return &ConflictError{Reason: fmt.Sprintf("product %s no longer exists", it.Name)}
		}
		if err != nil {
			return err
		}
		if stock < it.Quantity {
			return &ConflictError{Reason: fmt.Sprintf("stock changed for %s", it.Name)}
		}
		ct, err := tx.Exec(ctx, `
			UPDATE products SET stock = stock - $2, updated_at = now()
			WHERE id=$1 AND stock >= $2`, it.ProductID, it.Quantity)
		if err != nil {
			return err
		}
		if ct.RowsAffected() != 1 {
			return &ConflictError{Reason: fmt.Sprintf("stock changed for %s", it.Name)}
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, name, unit_price, quantity)
			VALUES ($1, $2, $3, $4, $5::numeric, $6)`,
			it.ID, o.ID, it.ProductID, it.Name, it.UnitPrice.String(), it.Quantity); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE owner=$1`, o.UserID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PgxStore) GetOrder(ctx context.Context, id string) (*Order, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *PgxStore) GetUserOrder(ctx context.Context, id, userID string) (*Order, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1 AND user_id=$2`, id, userID)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *PgxStore) ListUserOrders(ctx context.Context, userID string) ([]Order, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+orderColumns+`
		FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := s.loadItems(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *PgxStore) CancelPending(ctx context.Context, id, userID string) (*Order, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var st Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 AND user_id=$2 FOR UPDATE`, id, userID).Scan(&st)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if st != StatusPending {
		return nil, &InvalidTransitionError{From: st, To: StatusCancelled}
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2 WHERE id=$1`, id, StatusCancelled); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, id)
}

func (s *PgxStore) SetStatus(ctx context.Context, id string, status Status) (*Order, error) {
	ct, err := s.DB.Exec(ctx, `UPDATE orders SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.GetOrder(ctx, id)
}

func (s *PgxStore) loadItems(ctx context.Context, o *Order) error {
	rows, err := s.DB.Query(ctx, `
		SELECT id, order_id, product_id, name, unit_price::text, quantity
		FROM order_items WHERE order_id=$1`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		var price string
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &price, &it.Quantity); err != nil {
			return err
		}
		if it.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return fmt.Errorf("parse unit price: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var total, fee string
	err := row.Scan(&o.ID, &o.Code, &o.UserID, &total, &o.Delivery, &fee,
		&o.Status, &o.Buyer.MpesaCode, &o.Buyer.FirstName, &o.Buyer.LastName,
		&o.Buyer.Age, &o.Buyer.PhoneNumber, &o.Buyer.Email, &o.Buyer.Gender,
		&o.Buyer.Location, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if o.DeliveryFee, err = decimal.NewFromString(fee); err != nil {
		return nil, fmt.Errorf("parse delivery fee: %w", err)
	}
	return &o, nil
}

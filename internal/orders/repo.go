package orders

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Seenusharmma/POS-FF/internal/apperr"
)

// Repository returns apperr.ErrNotFound for unknown ids.
type Repository interface {
	List(ctx context.Context) ([]Order, error)
	// InsertMany stores all orders or none.
	InsertMany(ctx context.Context, orders []Order) error
	UpdateStatus(ctx context.Context, id string, status Status, at time.Time) (Order, error)
	Delete(ctx context.Context, id string) error
}

type PGRepo struct{ DB *pgxpool.Pool }

const orderColumns = `id, table_number, food_name, category, type, quantity, price, status, user_email, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var status string
	err := row.Scan(&o.ID, &o.TableNumber, &o.FoodName, &o.Category, &o.Type, &o.Quantity,
		&o.Price, &status, &o.UserEmail, &o.CreatedAt, &o.UpdatedAt)
	o.Status = Status(status)
	return o, err
}

func (r *PGRepo) List(ctx context.Context) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, seq DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PGRepo) InsertMany(ctx context.Context, orders []Order) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, o := range orders {
		if _, err := tx.Exec(ctx, `
			INSERT INTO orders(`+orderColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			o.ID, o.TableNumber, o.FoodName, o.Category, o.Type, o.Quantity,
			o.Price, string(o.Status), o.UserEmail, o.CreatedAt, o.UpdatedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) UpdateStatus(ctx context.Context, id string, status Status, at time.Time) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `
		UPDATE orders SET status=$2, updated_at=$3
		WHERE id=$1
		RETURNING `+orderColumns, id, string(status), at))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, apperr.ErrNotFound
	}
	return o, err
}

func (r *PGRepo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Seenusharmma/POS-FF/internal/apperr"
)

// Repository returns apperr.ErrNotFound for unknown ids.
type Repository interface {
	List(ctx context.Context) ([]Food, error)
	Get(ctx context.Context, id string) (Food, error)
	Insert(ctx context.Context, f Food) error
	Update(ctx context.Context, f Food) error
	Delete(ctx context.Context, id string) error
}

type PGRepo struct{ DB *pgxpool.Pool }

const foodColumns = `id, name, category, type, price, available, image_url, image_public_id, created_at, updated_at`

func scanFood(row pgx.Row) (Food, error) {
	var (
		f             Food
		url, publicID *string
	)
	if err := row.Scan(&f.ID, &f.Name, &f.Category, &f.Type, &f.Price, &f.Available,
		&url, &publicID, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return Food{}, err
	}
	if url != nil || publicID != nil {
		f.Image = &Image{}
		if url != nil {
			f.Image.URL = *url
		}
		if publicID != nil {
			f.Image.PublicID = *publicID
		}
	}
	return f, nil
}

func imageColumns(img *Image) (url, publicID *string) {
	if img == nil {
		return nil, nil
	}
	return &img.URL, &img.PublicID
}

func (r *PGRepo) List(ctx context.Context) ([]Food, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+foodColumns+` FROM foods ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Food{}
	for rows.Next() {
		f, err := scanFood(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *PGRepo) Get(ctx context.Context, id string) (Food, error) {
	f, err := scanFood(r.DB.QueryRow(ctx, `SELECT `+foodColumns+` FROM foods WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Food{}, apperr.ErrNotFound
	}
	return f, err
}

func (r *PGRepo) Insert(ctx context.Context, f Food) error {
	url, publicID := imageColumns(f.Image)
	_, err := r.DB.Exec(ctx, `
		INSERT INTO foods(`+foodColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		f.ID, f.Name, f.Category, f.Type, f.Price, f.Available, url, publicID, f.CreatedAt, f.UpdatedAt)
	return err
}

func (r *PGRepo) Update(ctx context.Context, f Food) error {
	url, publicID := imageColumns(f.Image)
	ct, err := r.DB.Exec(ctx, `
		UPDATE foods
		SET name=$2, category=$3, type=$4, price=$5, available=$6,
		    image_url=$7, image_public_id=$8, updated_at=$9
		WHERE id=$1`,
		f.ID, f.Name, f.Category, f.Type, f.Price, f.Available, url, publicID, f.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM foods WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
